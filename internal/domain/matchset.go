package domain

// MatchSet 是组织单元：一个逻辑数据集（primary + 伴随文件）。
//
// 约束：
// - Root 在一个批次内唯一
// - 同一角色最多一个文件（primary 是 phenotype 或 special）
type MatchSet struct {
	Root      string
	Primary   FileRecord
	Dict      *FileRecord // 可选：data_dict
	VarReport *FileRecord // 可选：var_report
}

// Files 返回该 MatchSet 的全部文件，primary 在前，顺序稳定。
func (m MatchSet) Files() []FileRecord {
	out := make([]FileRecord, 0, 3)
	out = append(out, m.Primary)
	if m.Dict != nil {
		out = append(out, *m.Dict)
	}
	if m.VarReport != nil {
		out = append(out, *m.VarReport)
	}
	return out
}

// Unmatched 的 Kind 取值。
// no_match 表示“从未被分类”（文件名不符合任何已知约定，通常意味着新的命名规则）；
// 其余三种表示“已分类但匹配冲突”（交付异常，需要人工复查）。
const (
	UnmatchedNoMatch            = "no_match"
	UnmatchedNoPrimary          = "no_primary"
	UnmatchedDuplicatePrimary   = "duplicate_primary"
	UnmatchedDuplicateCompanion = "duplicate_companion"
)

// Unmatched 是无法放入任何 MatchSet 的记录（连同原因）。
type Unmatched struct {
	File FileRecord
	Kind string
}
