package accession

import (
	"regexp"

	"github.com/John-Robertt/dbgaporg/internal/domain"
)

// 角色提示 token（模式标签）。classify 包据此查表得出 Role。
const (
	HintPhenotype = "phenotype"
	HintDataDict  = "data_dict"
	HintVarReport = "var_report"
	HintSpecial   = "special"
)

// pattern 是一条带标签的文件名规则。
// 新的命名约定通过追加 pattern 支持，不修改分支逻辑。
type pattern struct {
	hint  string
	re    *regexp.Regexp
	build func(m []string) domain.Identifier
}

// 规则按特异性从高到低排列，首个命中者生效：
// special 的 ".MULTI.txt" 结构最特殊，必须先于 phenotype 判断，
// 否则会被当成普通 phenotype 文件（base 含点时两者结构重叠）。
var patterns = []pattern{
	{
		hint: HintSpecial,
		re:   regexp.MustCompile(`^phs(\d{6})\.v(\d+)\.pht(\d{6})\.v(\d+)\.p(\d+)\.(.+?)\.MULTI\.txt$`),
		build: func(m []string) domain.Identifier {
			return domain.Identifier{
				StudyID:      "phs" + m[1],
				StudyVersion: "v" + m[2],
				DatasetRoot:  "pht" + m[3] + ".v" + m[4],
				Base:         m[6],
			}
		},
	},
	{
		hint: HintDataDict,
		re:   regexp.MustCompile(`^phs(\d{6})\.v(\d+)\.pht(\d{6})\.v(\d+)\.(.+?)\.data_dict(\w*?)\.xml$`),
		build: func(m []string) domain.Identifier {
			return domain.Identifier{
				StudyID:      "phs" + m[1],
				StudyVersion: "v" + m[2],
				DatasetRoot:  "pht" + m[3] + ".v" + m[4],
				Base:         m[5],
			}
		},
	},
	{
		hint: HintVarReport,
		re:   regexp.MustCompile(`^phs(\d{6})\.v(\d+)\.pht(\d{6})\.v(\d+)\.(.+?)\.var_report(\w*?)\.xml$`),
		build: func(m []string) domain.Identifier {
			return domain.Identifier{
				StudyID:      "phs" + m[1],
				StudyVersion: "v" + m[2],
				DatasetRoot:  "pht" + m[3] + ".v" + m[4],
				Base:         m[5],
			}
		},
	},
	{
		hint: HintPhenotype,
		re:   regexp.MustCompile(`^phs(\d{6})\.v(\d+)\.pht(\d{6})\.v(\d+)\.p(\d+)\.c(\d+)\.(.+?)\.(.+?)\.txt$`),
		build: func(m []string) domain.Identifier {
			return domain.Identifier{
				StudyID:      "phs" + m[1],
				StudyVersion: "v" + m[2],
				DatasetRoot:  "pht" + m[3] + ".v" + m[4],
				Base:         m[7],
				Consent:      "c" + m[6],
			}
		},
	},
}

// UnmatchedError 表示文件名不符合任何已知的 dbGaP 命名约定。
// 它是可恢复错误：调用方把该文件记为 unclassified，继续处理批次其余文件。
type UnmatchedError struct {
	Name string
}

func (e *UnmatchedError) Error() string {
	return "文件名不符合任何已知 dbGaP 模式：" + e.Name
}

// Extract 从文件名（不含路径）解析出结构化标识。
// 纯函数：只依赖文件名字符串本身。失败返回 *UnmatchedError。
func Extract(name string) (domain.Identifier, error) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		id := p.build(m)
		id.Hint = p.hint
		return id, nil
	}
	return domain.Identifier{}, &UnmatchedError{Name: name}
}
