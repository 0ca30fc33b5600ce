package fsx

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile_NoOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("写测试文件失败：%v", err)
	}

	if err := (OS{}).CopyFile(src, dst); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil || string(b) != "payload" {
		t.Fatalf("拷贝内容不对：%q err=%v", b, err)
	}

	// 第二次必须拒绝覆盖。
	err = (OS{}).CopyFile(src, dst)
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("期望 fs.ErrExist，实际 %v", err)
	}
}

func TestSymlinkRoundtrip(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")

	if err := (OS{}).Symlink(filepath.Join("..", "raw", "a.txt"), link); err != nil {
		t.Skipf("该环境不支持 symlink：%v", err)
	}

	fi, err := (OS{}).Lstat(link)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if fi.Mode()&fs.ModeSymlink == 0 {
		t.Fatalf("期望 symlink，实际 mode=%v", fi.Mode())
	}

	got, err := (OS{}).Readlink(link)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != filepath.Join("..", "raw", "a.txt") {
		t.Fatalf("链接目标不对：%q", got)
	}
}

func TestWriteFileAtomicReplace(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFileAtomicReplace(dir, "report.json", []byte("v1")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := WriteFileAtomicReplace(dir, "report.json", []byte("v2")); err != nil {
		t.Fatalf("覆盖写失败：%v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil || string(b) != "v2" {
		t.Fatalf("期望 v2，实际 %q err=%v", b, err)
	}

	// 不应留下临时文件。
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("目录里应只有最终文件：%v", entries)
	}
}
