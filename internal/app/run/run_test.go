package run

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/dbgaporg/internal/config"
	"github.com/John-Robertt/dbgaporg/internal/domain"
	"github.com/John-Robertt/dbgaporg/internal/infra/fsx"
)

func writeInput(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
		t.Fatalf("写输入文件失败：%v", err)
	}
}

// 一个接近真实交付的批次：
// - special（subject 表）自成一组
// - phenotype + data_dict + var_report 成一组
// - 没有 primary 的 data_dict 整组退回
// - 不认识的文件名记为 unclassified
func setupStudy(t *testing.T) (eff config.EffectiveConfig) {
	t.Helper()
	tmp := t.TempDir()
	study := filepath.Join(tmp, "phs000284.v1")
	if err := os.MkdirAll(study, 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}

	writeInput(t, study, "phs000284.v1.pht001902.v1.p1.CFS_Subject.MULTI.txt")
	writeInput(t, study, "phs000284.v1.pht001903.v1.p1.c1.CFS_ECG.HMB.txt")
	writeInput(t, study, "phs000284.v1.pht001903.v1.CFS_ECG.data_dict.xml")
	writeInput(t, study, "phs000284.v1.pht001903.v1.CFS_ECG.var_report.xml")
	writeInput(t, study, "phs000284.v1.pht001904.v1.CFS_Lone.data_dict.xml")
	writeInput(t, study, "weird_name.xyz")

	return config.EffectiveConfig{
		Path:         study,
		Dest:         filepath.Join(tmp, "out"),
		StudyID:      "phs000284",
		StudyVersion: "v1",
	}
}

func TestExecute_DryRun(t *testing.T) {
	eff := setupStudy(t)

	rr := Execute(eff, fsx.OS{}, nil)

	if !rr.DryRun {
		t.Fatalf("期望 dry_run=true")
	}
	s := rr.Summary
	if s.Planned != 2 || s.Conflicted != 1 || s.Unclassified != 1 || s.Organized != 0 || s.Failed != 0 {
		t.Fatalf("summary 不对：%+v", s)
	}

	// dry-run 绝不落盘。
	if _, err := os.Stat(eff.Dest); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应创建输出目录：err=%v", err)
	}
}

func TestExecute_Apply(t *testing.T) {
	eff := setupStudy(t)
	eff.Apply = true

	rr := Execute(eff, fsx.OS{}, nil)

	s := rr.Summary
	if s.Organized != 2 || s.Conflicted != 1 || s.Unclassified != 1 || s.Failed != 0 {
		t.Fatalf("summary 不对：%+v", s)
	}

	base := filepath.Join(eff.Dest, "phs000284", "v1")

	// raw/：四个被匹配的文件平铺拷贝；退回的与 unclassified 的不拷贝。
	entries, err := os.ReadDir(filepath.Join(base, "raw"))
	if err != nil {
		t.Fatalf("raw 缺失：%v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("期望 raw 下 4 个文件，实际 %d", len(entries))
	}

	// organized/：每组一个目录，内部是指向 raw 的相对链接。
	link := filepath.Join(base, "organized", "pht001903.v1.CFS_ECG",
		"phs000284.v1.pht001903.v1.p1.c1.CFS_ECG.HMB.txt")
	got, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("链接缺失：%v", err)
	}
	want := filepath.Join("..", "..", "raw", "phs000284.v1.pht001903.v1.p1.c1.CFS_ECG.HMB.txt")
	if got != want {
		t.Fatalf("链接目标错误：%q（期望 %q）", got, want)
	}

	// 链接可解析：通过链接读到的就是输入内容。
	b, err := os.ReadFile(link)
	if err != nil || string(b) != "data" {
		t.Fatalf("通过链接读取失败：%q err=%v", b, err)
	}

	if _, err := os.Stat(filepath.Join(base, "organized", "pht001902.v1.CFS_Subject")); err != nil {
		t.Fatalf("special 组目录缺失：%v", err)
	}
}

// 幂等：对同一批次重复 apply，结果与首次一致，不报冲突。
func TestExecute_ApplyTwice(t *testing.T) {
	eff := setupStudy(t)
	eff.Apply = true

	first := Execute(eff, fsx.OS{}, nil)
	if first.Summary.Failed != 0 {
		t.Fatalf("首次 apply 失败：%+v", first.Summary)
	}

	second := Execute(eff, fsx.OS{}, nil)
	if second.Summary != first.Summary {
		t.Fatalf("重复 apply 结果不同：%+v vs %+v", first.Summary, second.Summary)
	}
}

// 身份不一致是致命输入错误：在任何落盘之前终止整个 run。
func TestExecute_StudyMismatchFatal(t *testing.T) {
	eff := setupStudy(t)
	eff.Apply = true
	writeInput(t, eff.Path, "phs000999.v1.pht009999.v1.p1.c1.Other.GRU.txt")

	rr := Execute(eff, fsx.OS{}, nil)

	if rr.Summary.Failed != 1 {
		t.Fatalf("期望 1 条 failed，实际 %+v", rr.Summary)
	}
	var found bool
	for _, it := range rr.Items {
		if it.ErrorCode == domain.ErrCodeStudyMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("期望 study_mismatch 条目：%+v", rr.Items)
	}

	if _, err := os.Stat(eff.Dest); !os.IsNotExist(err) {
		t.Fatalf("致命错误后不应有任何落盘：err=%v", err)
	}
}

// 同一批次无论扫描到什么顺序，条目都按 Root/文件名稳定排序。
func TestExecute_StableItemOrder(t *testing.T) {
	eff := setupStudy(t)

	a := Execute(eff, fsx.OS{}, nil)
	b := Execute(eff, fsx.OS{}, nil)

	if len(a.Items) != len(b.Items) {
		t.Fatalf("条目数不稳定：%d vs %d", len(a.Items), len(b.Items))
	}
	for i := range a.Items {
		if a.Items[i].Root != b.Items[i].Root || a.Items[i].Status != b.Items[i].Status {
			t.Fatalf("条目顺序不稳定：%+v vs %+v", a.Items[i], b.Items[i])
		}
	}
}
