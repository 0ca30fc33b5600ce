package domain

import (
	"sort"
	"time"
)

const (
	StatusOrganized    = "organized"    // apply：raw 拷贝 + organized 链接均已就位
	StatusPlanned      = "planned"      // dry-run：计划已生成，未落盘
	StatusConflicted   = "conflicted"   // 已分类但匹配冲突（整组退回）
	StatusUnclassified = "unclassified" // 从未被分类
	StatusFailed       = "failed"       // 落盘阶段失败（或结构性错误的合成条目）
)

const (
	ErrCodeIOFailed          = "io_failed"
	ErrCodeTargetConflict    = "target_conflict"
	ErrCodeStudyMismatch     = "study_mismatch"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
	ErrCodeConfigMissingDest = "config_missing_dest"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	RunID string `json:"run_id"`

	Path         string `json:"path"`
	Dest         string `json:"dest"`
	StudyID      string `json:"study_id"`
	StudyVersion string `json:"study_version"`
	DryRun       bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Organized    int `json:"organized"`
	Planned      int `json:"planned"`
	Conflicted   int `json:"conflicted"`
	Unclassified int `json:"unclassified"`
	Failed       int `json:"failed"`
}

// ItemResult 的粒度：匹配成功的条目对应一个 MatchSet（Root 非空）；
// unmatched/unclassified 每个输入文件单独一条（便于用户逐个修复）。
type ItemResult struct {
	Root string `json:"root"`
	Kind string `json:"kind"` // Unmatched 的 Kind；匹配成功的条目为空

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Files []FileResult `json:"files"`
}

type FileResult struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Raw  string `json:"raw"`  // raw/ 下的目标路径（计划或已落盘）
	Link string `json:"link"` // organized/ 下的链接路径（计划或已落盘）
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 Root 字典序；Root 相同按首个文件名；Root=="" 的条目排在最后
// 3) summary 由 items 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a, b := r.Items[i], r.Items[j]
		if a.Root != b.Root {
			if a.Root == "" {
				return false
			}
			if b.Root == "" {
				return true
			}
			return a.Root < b.Root
		}
		return firstName(a) < firstName(b)
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusOrganized:
			s.Organized++
		case StatusPlanned:
			s.Planned++
		case StatusConflicted:
			s.Conflicted++
		case StatusUnclassified:
			s.Unclassified++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}

func firstName(it ItemResult) string {
	if len(it.Files) == 0 {
		return ""
	}
	return it.Files[0].Name
}
