package classify

import (
	"github.com/John-Robertt/dbgaporg/internal/accession"
	"github.com/John-Robertt/dbgaporg/internal/domain"
)

// 提示 token → Role 的固定映射。
// special（subject/sample/pedigree 的 MULTI 表）是 primary 候选，不是伴随类型。
var roleByHint = map[string]domain.Role{
	accession.HintPhenotype: domain.RolePhenotype,
	accession.HintDataDict:  domain.RoleDataDictionary,
	accession.HintVarReport: domain.RoleVarReport,
	accession.HintSpecial:   domain.RoleSpecial,
}

// Classify 把提示 token 映射为 Role。
// 全函数且确定：同一文件名在任何批次、任何扫描顺序下得到同一 Role；
// 未识别的 token 一律 RoleUnclassified。
func Classify(id domain.Identifier) domain.Role {
	if r, ok := roleByHint[id.Hint]; ok {
		return r
	}
	return domain.RoleUnclassified
}
