package domain

// Role 是按文件名规则得出的分类结果（write-once：扫描后只赋值一次）。
type Role string

const (
	RolePhenotype      Role = "phenotype"
	RoleDataDictionary Role = "data_dict"
	RoleVarReport      Role = "var_report"
	RoleSpecial        Role = "special"
	RoleUnclassified   Role = "unclassified"
)

// Identifier 是从文件名解析出的结构化标识。
//
// 约束：
// - 全部字段来自文件名本身（固定位置的分隔段），与文件内容/时间戳无关
// - DatasetRoot 是 primary 与伴随文件共享的分组键（pht 编号 + 版本，如 "pht001903.v2"）
type Identifier struct {
	StudyID      string // 如 "phs000284"
	StudyVersion string // 如 "v1"
	DatasetRoot  string // 如 "pht001903.v2"
	Base         string // 自由文本段（数据集名）
	Hint         string // 角色提示 token（classify 的查表输入）
	Consent      string // 如 "c1"（仅 phenotype 文件有；其余为空）
}

// FileRecord 是一个已解密输入文件的快照。
//
// 不变式：Role == RoleUnclassified 当且仅当没有任何已知模式匹配；
// 已分类的记录 DatasetRoot 必然非空。
type FileRecord struct {
	AbsPath string
	RelPath string
	Name    string

	ID   Identifier
	Role Role
}
