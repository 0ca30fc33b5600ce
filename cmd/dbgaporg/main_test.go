package main

import "testing"

func TestParseRunArgs(t *testing.T) {
	ra, err := parseRunArgs([]string{"phs000284.v1", "--dest", "out", "--apply"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Path != "phs000284.v1" || ra.Dest != "out" || !ra.DestSet || !ra.Apply || !ra.ApplySet {
		t.Fatalf("解析不对：%+v", ra)
	}
}

func TestParseRunArgs_EqualsForms(t *testing.T) {
	ra, err := parseRunArgs([]string{"--dest=out", "--apply=false"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Dest != "out" || !ra.DestSet {
		t.Fatalf("--dest= 解析不对：%+v", ra)
	}
	if ra.Apply || !ra.ApplySet {
		t.Fatalf("--apply=false 必须保留“显式指定”的信息：%+v", ra)
	}
}

func TestParseRunArgs_Errors(t *testing.T) {
	cases := [][]string{
		{"--dest"},                // 缺值
		{"--dest="},               // 空值
		{"--apply=maybe"},         // 非法布尔
		{"--unknown"},             // 未知参数
		{"a", "b"},                // 重复 path
	}
	for _, args := range cases {
		if _, err := parseRunArgs(args); err == nil {
			t.Fatalf("期望错误：args=%v", args)
		}
	}
}
