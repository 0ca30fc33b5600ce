package match

import (
	"sort"

	"github.com/John-Robertt/dbgaporg/internal/domain"
)

// Match 把已分类的记录按 DatasetRoot 分组为 MatchSet。
//
// 规则（硬约束）：
// - 分组键是提取出的 DatasetRoot 原文（大小写敏感，不做任何规范化）
// - 每组必须恰好一个 primary（phenotype 或 special）；0 个或多于 1 个都是冲突，
//   整组退回 unmatched 而不是任选其一（歧义必须暴露，不能被悄悄消解）
// - data_dict / var_report 各最多一个；重复同样整组退回
// - unclassified 记录直接进 unmatched（kind=no_match）
//
// 输出保证：
// - 每条输入记录恰好出现在某个 MatchSet 或 unmatched 之一（不丢、不重）
// - sets 按 Root 字典序；组内文件按文件名字典序；与扫描顺序无关
func Match(records []domain.FileRecord) (sets []domain.MatchSet, unmatched []domain.Unmatched) {
	groups := make(map[string][]int, 64)
	roots := make([]string, 0, 64)
	unmatched = make([]domain.Unmatched, 0, 16)

	for i := range records {
		if records[i].Role == domain.RoleUnclassified {
			unmatched = append(unmatched, domain.Unmatched{
				File: records[i],
				Kind: domain.UnmatchedNoMatch,
			})
			continue
		}
		root := records[i].ID.DatasetRoot
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], i)
	}

	sort.Strings(roots)
	sets = make([]domain.MatchSet, 0, len(roots))

	for _, root := range roots {
		idxs := groups[root]
		sort.Slice(idxs, func(a, b int) bool {
			return records[idxs[a]].Name < records[idxs[b]].Name
		})

		var primaries, dicts, reports []int
		for _, i := range idxs {
			switch records[i].Role {
			case domain.RolePhenotype, domain.RoleSpecial:
				primaries = append(primaries, i)
			case domain.RoleDataDictionary:
				dicts = append(dicts, i)
			case domain.RoleVarReport:
				reports = append(reports, i)
			}
		}

		kind := ""
		switch {
		case len(primaries) == 0:
			// 只有伴随文件的组没有独立价值（data_dict/var_report 描述的是 primary）。
			kind = domain.UnmatchedNoPrimary
		case len(primaries) > 1:
			kind = domain.UnmatchedDuplicatePrimary
		case len(dicts) > 1 || len(reports) > 1:
			kind = domain.UnmatchedDuplicateCompanion
		}
		if kind != "" {
			for _, i := range idxs {
				unmatched = append(unmatched, domain.Unmatched{File: records[i], Kind: kind})
			}
			continue
		}

		set := domain.MatchSet{Root: root, Primary: records[primaries[0]]}
		if len(dicts) == 1 {
			d := records[dicts[0]]
			set.Dict = &d
		}
		if len(reports) == 1 {
			r := records[reports[0]]
			set.VarReport = &r
		}
		sets = append(sets, set)
	}

	return sets, unmatched
}
