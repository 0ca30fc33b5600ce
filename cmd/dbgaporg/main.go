package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/John-Robertt/dbgaporg/internal/app/run"
	"github.com/John-Robertt/dbgaporg/internal/config"
	"github.com/John-Robertt/dbgaporg/internal/domain"
	"github.com/John-Robertt/dbgaporg/internal/infra/fsx"
	"github.com/John-Robertt/dbgaporg/internal/layout"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	// 日志一律走 stderr（stdout 保留给 RunReport JSON）。
	logger := &log.Logger{
		Level: log.InfoLevel,
		Writer: &log.ConsoleWriter{
			ColorOutput: isTTY(os.Stderr),
			Writer:      os.Stderr,
		},
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:     ra.Path,
		Dest:     ra.Dest,
		DestSet:  ra.DestSet,
		Apply:    ra.Apply,
		ApplySet: ra.ApplySet,
	})
	if err != nil {
		rr := reportForConfigError(cwdAbs, ra, err)
		emitReport(rr)
		return 1
	}

	rr := run.Execute(eff, fsx.OS{}, newLogObserver(logger))

	// apply：必须写入 <dest>/<phs>/<vN>/report.json；dry-run 禁止落盘。
	if eff.Apply {
		if err := writeReportFile(eff, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if rr.Summary.Conflicted == 0 && rr.Summary.Unclassified == 0 && rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

type runArgs struct {
	Path     string
	Dest     string
	DestSet  bool
	Apply    bool
	ApplySet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--dest":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("--dest 需要一个值")
			}
			i++
			ra.Dest = args[i]
			ra.DestSet = true
		case strings.HasPrefix(a, "--dest="):
			ra.Dest = strings.TrimPrefix(a, "--dest=")
			ra.DestSet = true
		case a == "--apply":
			ra.Apply = true
			ra.ApplySet = true
		case strings.HasPrefix(a, "--apply="):
			v := strings.TrimPrefix(a, "--apply=")
			switch v {
			case "true":
				ra.Apply = true
			case "false":
				ra.Apply = false
			default:
				return runArgs{}, fmt.Errorf("--apply 只能是 true 或 false，实际是 %q", v)
			}
			ra.ApplySet = true
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.Path != "" {
				return runArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ra.Path, a)
			}
			ra.Path = a
		}
	}

	if ra.DestSet && strings.TrimSpace(ra.Dest) == "" {
		return runArgs{}, fmt.Errorf("--dest 不能为空")
	}

	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  dbgaporg run [path] [--dest <输出根目录>] [--apply[=true|false]]

命令：
  run    对一个已解密的 study/version 目录（phsXXXXXX.vN）做分类、配对与组织（默认 dry-run）

使用 "dbgaporg run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  dbgaporg run [path] [--dest <输出根目录>] [--apply[=true|false]]

参数：
  path        输入目录（目录名必须是 phsXXXXXX.vN；未指定则读 cwd 下 dbgaporg.yaml 的 path）
  --dest      输出根目录（raw/ 与 organized/ 建在 <dest>/<phs>/<vN>/ 下）
  --apply     执行拷贝与建链（默认 dry-run）；支持 --apply=false 覆盖配置中的 apply=true
  -h, --help  显示帮助
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：organized=%d planned=%d conflicted=%d unclassified=%d failed=%d\n",
			rr.Summary.Organized, rr.Summary.Planned, rr.Summary.Conflicted, rr.Summary.Unclassified, rr.Summary.Failed,
		)
		if rr.Summary.Conflicted > 0 || rr.Summary.Unclassified > 0 || rr.Summary.Failed > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusConflicted && it.Status != domain.StatusUnclassified && it.Status != domain.StatusFailed {
					continue
				}
				key := it.Root
				if key == "" && len(it.Files) > 0 {
					// unclassified/config 等合成条目：用首个文件名做定位锚点。
					key = it.Files[0].Name
				}
				if key == "" {
					key = "<unknown>"
				}
				reason := it.Kind
				if reason == "" {
					reason = it.ErrorCode
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, reason, it.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：organized=%d planned=%d conflicted=%d unclassified=%d failed=%d\n",
		rr.Summary.Organized, rr.Summary.Planned, rr.Summary.Conflicted, rr.Summary.Unclassified, rr.Summary.Failed,
	)
}

func reportForConfigError(cwdAbs string, ra runArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Path:      cwdAbs,
		DryRun:    !(ra.ApplySet && ra.Apply),
		StartedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
			Files:     []domain.FileResult{},
		}},
	}
	rr.FinishedAt = now
	rr.Finalize()
	return rr
}

func writeReportFile(eff config.EffectiveConfig, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	dir := layout.BaseDir(eff.Dest, eff.StudyID, eff.StudyVersion)
	return fsx.WriteFileAtomicReplace(dir, "report.json", b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
