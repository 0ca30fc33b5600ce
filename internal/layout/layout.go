package layout

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/John-Robertt/dbgaporg/internal/domain"
	"github.com/John-Robertt/dbgaporg/internal/infra/fsx"
)

// FS 是落盘所需的最小能力集合。
// 生产实现是 fsx.OS；测试用内存假实现即可覆盖全部幂等/冲突路径。
type FS interface {
	MkdirAll(dir string) error
	// CopyFile 不覆盖：dst 已存在必须返回 fs.ErrExist。
	CopyFile(src, dst string) error
	Symlink(oldname, newname string) error
	Lstat(name string) (fs.FileInfo, error)
	Readlink(name string) (string, error)
}

// Plan 是一个 MatchSet 的确定性落盘计划（纯数据，不做任何写入）。
type Plan struct {
	Root string
	Dir  string // organized/<root>.<base>/ 的绝对路径
	Ops  []LinkOp
}

// LinkOp 描述一个文件的两步落盘：先平铺拷贝进 raw/，再在组目录里建相对链接。
type LinkOp struct {
	Record  domain.FileRecord
	RawAbs  string // <base>/raw/<name>
	LinkAbs string // <dir>/<name>
	Target  string // 链接的相对目标（../../raw/<name>；相对链接保证整棵树可搬移）
}

// Result 是一个 MatchSet 的落盘结果；ErrorCode 为空表示成功。
// 单组失败只影响该组，其余组继续落盘。
type Result struct {
	Root      string
	ErrorCode string
	ErrorMsg  string
}

// BaseDir 返回一个 study/version 的输出根：<dest>/<phs>/<vN>。
func BaseDir(destRoot, studyID, studyVersion string) string {
	return filepath.Join(destRoot, studyID, studyVersion)
}

// PlanSet 为一个 MatchSet 生成落盘计划。纯函数：同一输入永远得到同一计划。
// 组目录名用 <root>.<base>（root 在批次内唯一，base 提高可读性）。
func PlanSet(baseDir string, set domain.MatchSet) Plan {
	dir := filepath.Join(baseDir, "organized", set.Root+"."+set.Primary.ID.Base)
	files := set.Files()

	ops := make([]LinkOp, 0, len(files))
	for _, f := range files {
		ops = append(ops, LinkOp{
			Record:  f,
			RawAbs:  filepath.Join(baseDir, "raw", f.Name),
			LinkAbs: filepath.Join(dir, f.Name),
			Target:  filepath.Join("..", "..", "raw", f.Name),
		})
	}

	return Plan{Root: set.Root, Dir: dir, Ops: ops}
}

// Materialize 执行一批计划。失败按组收集，不中断其余组。
func Materialize(fsys FS, baseDir string, plans []Plan) []Result {
	results := make([]Result, 0, len(plans))
	for _, p := range plans {
		res := Result{Root: p.Root}
		if err := applyPlan(fsys, baseDir, p); err != nil {
			if fsx.IsPathConflict(err) {
				res.ErrorCode = domain.ErrCodeTargetConflict
			} else {
				res.ErrorCode = domain.ErrCodeIOFailed
			}
			res.ErrorMsg = err.Error()
		}
		results = append(results, res)
	}
	return results
}

func applyPlan(fsys FS, baseDir string, p Plan) error {
	if err := fsys.MkdirAll(filepath.Join(baseDir, "raw")); err != nil {
		return err
	}
	if err := fsys.MkdirAll(p.Dir); err != nil {
		return err
	}
	for _, op := range p.Ops {
		if err := ensureRaw(fsys, op); err != nil {
			return err
		}
		if err := ensureLink(fsys, op); err != nil {
			return err
		}
	}
	return nil
}

// ensureRaw 保证 raw/<name> 是该输入文件的平铺拷贝。
// 幂等：已存在的普通文件视为上次 run 的产物，保持原样；
// 其他占用者（目录、链接）是冲突，绝不覆盖。
func ensureRaw(fsys FS, op LinkOp) error {
	fi, err := fsys.Lstat(op.RawAbs)
	if err == nil {
		if fi.Mode().IsRegular() {
			return nil
		}
		return &fsx.PathConflictError{Path: op.RawAbs, Want: "regular file", Got: fi.Mode().Type().String()}
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return fsys.CopyFile(op.Record.AbsPath, op.RawAbs)
}

// ensureLink 保证组目录里存在指向 raw 拷贝的相对链接。
// 幂等：指向正确目标的既有链接保持原样；指向别处或类型不符是冲突，绝不覆盖。
func ensureLink(fsys FS, op LinkOp) error {
	fi, err := fsys.Lstat(op.LinkAbs)
	if err == nil {
		if fi.Mode()&fs.ModeSymlink == 0 {
			return &fsx.PathConflictError{Path: op.LinkAbs, Want: "symlink", Got: fi.Mode().Type().String()}
		}
		got, rerr := fsys.Readlink(op.LinkAbs)
		if rerr != nil {
			return rerr
		}
		if got == op.Target {
			return nil
		}
		return &fsx.PathConflictError{Path: op.LinkAbs, Want: "symlink -> " + op.Target, Got: "symlink -> " + got}
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return fsys.Symlink(op.Target, op.LinkAbs)
}
