package domain

import (
	"testing"
	"time"
)

func TestFinalize_SortAndSummary(t *testing.T) {
	loc := time.FixedZone("X", 8*3600)
	rr := RunReport{
		StartedAt:  time.Date(2026, 8, 1, 10, 0, 0, 0, loc),
		FinishedAt: time.Date(2026, 8, 1, 10, 0, 1, 0, loc),
		Items: []ItemResult{
			{Status: StatusFailed, ErrorCode: ErrCodeIOFailed}, // Root=="" 的合成条目
			{Root: "pht000002.v1", Status: StatusOrganized},
			{Root: "pht000001.v1", Status: StatusConflicted, Kind: UnmatchedDuplicatePrimary,
				Files: []FileResult{{Name: "b.txt"}}},
			{Root: "pht000001.v1", Status: StatusConflicted, Kind: UnmatchedDuplicatePrimary,
				Files: []FileResult{{Name: "a.txt"}}},
			{Status: StatusUnclassified, Kind: UnmatchedNoMatch,
				Files: []FileResult{{Name: "weird_name.xyz"}}},
		},
	}

	rr.Finalize()

	if rr.StartedAt.Location() != time.UTC {
		t.Fatalf("时间必须归一到 UTC：%v", rr.StartedAt)
	}

	// Root 非空的在前（字典序），同 Root 按首个文件名；Root=="" 的在最后。
	if rr.Items[0].Root != "pht000001.v1" || rr.Items[0].Files[0].Name != "a.txt" {
		t.Fatalf("排序不对：%+v", rr.Items[0])
	}
	if rr.Items[1].Root != "pht000001.v1" || rr.Items[1].Files[0].Name != "b.txt" {
		t.Fatalf("排序不对：%+v", rr.Items[1])
	}
	if rr.Items[2].Root != "pht000002.v1" {
		t.Fatalf("排序不对：%+v", rr.Items[2])
	}
	if rr.Items[3].Root != "" || rr.Items[4].Root != "" {
		t.Fatalf("Root 为空的条目应在最后：%+v", rr.Items)
	}

	s := rr.Summary
	if s.Organized != 1 || s.Conflicted != 2 || s.Unclassified != 1 || s.Failed != 1 || s.Planned != 0 {
		t.Fatalf("summary 不对：%+v", s)
	}
}
