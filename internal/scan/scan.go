package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/dbgaporg/internal/domain"
)

// Scan 枚举 root（一个 study/version 目录）下的全部文件。
//
// 规则：
// - excludeDirs 来自配置文件，均视为相对 root 的路径（绝对路径按绝对路径处理）
// - 不按扩展名过滤：无法识别的文件应该出现在报告里，而不是被扫描悄悄吞掉
// - 只做枚举，不读文件内容
//
// 返回的记录按 RelPath 稳定排序，Role 尚未赋值（由调用方分类）。
func Scan(root string, excludeDirs []string) ([]domain.FileRecord, error) {
	root = filepath.Clean(root)
	excluded := buildExcluded(root, excludeDirs)

	records := make([]domain.FileRecord, 0, 128)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		records = append(records, domain.FileRecord{
			AbsPath: path,
			RelPath: rel,
			Name:    d.Name(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(records, func(i, j int) bool { return records[i].RelPath < records[j].RelPath })
	return records, nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
