package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 dbgaporg.yaml。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法
	//（包括 path 的目录名不是 phsXXXXXX.vN 形式）。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
	// ErrCodeMissingDest 表示 CLI 与配置文件都未提供 dest。
	ErrCodeMissingDest = "config_missing_dest"
)

// ConfigFileName 固定为 dbgaporg.yaml（位于扫描目录或 cwd）。
const ConfigFileName = "dbgaporg.yaml"

// studyDirRE 约束输入目录名：一个 study/version 目录必须叫 phsXXXXXX.vN。
var studyDirRE = regexp.MustCompile(`^phs(\d{6})\.v(\d+)$`)

// CLIArgs 只包含 CLI 暴露的三项入口（path/dest/apply），并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Path string

	Dest    string
	DestSet bool

	Apply    bool
	ApplySet bool
}

// FileConfig 对应 dbgaporg.yaml 的解析结构。
type FileConfig struct {
	Path        string   `yaml:"path"`
	Dest        string   `yaml:"dest"`
	Apply       *bool    `yaml:"apply"`
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
//（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string
	Dest string

	// StudyID/StudyVersion 从 Path 的目录名解析（如 phs000284.v1），
	// 作为整个 run 的身份；与文件内容不一致属于致命输入错误（由 run 层判定）。
	StudyID      string
	StudyVersion string

	Apply       bool
	ExcludeDirs []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeMissingDest:
		return fmt.Sprintf("%s：未提供 dest（--dest 或配置文件 dest 字段）", e.Code)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置无效（%q）：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置无效（%q）", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按约定发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/dbgaporg.yaml（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/dbgaporg.yaml（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：
// - path：CLI path > config path
// - dest：CLI --dest > config dest（二者都缺 → config_missing_dest）
// - apply：CLI --apply/--apply=false > config > 默认 false（dry-run）
// - exclude_dirs：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		// CLI 给了 path：配置文件可选，位置固定在 <path>/dbgaporg.yaml。
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, ConfigFileName)

		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(cwdAbs, absPath, cli, fc, cfgPath)
	}

	// CLI 没给 path：必须读取 <cwd>/dbgaporg.yaml，且其中必须包含 path。
	cfgPath := filepath.Join(cwdAbs, ConfigFileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	absPath := absCleanFrom(cwdAbs, fc.Path)
	return merge(cwdAbs, absPath, cli, fc, cfgPath)
}

func merge(cwdAbs, absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// 输入目录名必须携带 study/version 身份（phsXXXXXX.vN）。
	studyID, studyVersion, ok := ParseStudyDir(filepath.Base(absPath))
	if !ok {
		return EffectiveConfig{}, &Error{
			Code: ErrCodeInvalid,
			Path: cfgPath,
			Err:  fmt.Errorf("path 的目录名 %q 不是 phsXXXXXX.vN 形式", filepath.Base(absPath)),
		}
	}

	// dest：CLI > config；没有默认值。
	// 相对路径的基准：CLI 参数相对 cwd，配置文件字段相对配置文件所在目录。
	destAbs := ""
	if cli.DestSet {
		if d := strings.TrimSpace(cli.Dest); d != "" {
			destAbs = absCleanFrom(cwdAbs, d)
		}
	} else if d := strings.TrimSpace(fc.Dest); d != "" {
		destAbs = absCleanFrom(filepath.Dir(cfgPath), d)
	}
	if destAbs == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingDest, Path: cfgPath}
	}

	// apply：CLI > config > 默认 false。
	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	return EffectiveConfig{
		Path:         absPath,
		Dest:         destAbs,
		StudyID:      studyID,
		StudyVersion: studyVersion,
		Apply:        apply,
		ExcludeDirs:  append([]string(nil), fc.ExcludeDirs...),
	}, nil
}

// ParseStudyDir 解析 phsXXXXXX.vN 形式的目录名。
func ParseStudyDir(name string) (studyID, studyVersion string, ok bool) {
	m := studyDirRE.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return "phs" + m[1], "v" + m[2], true
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
