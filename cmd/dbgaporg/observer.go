package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/phuslu/log"

	"github.com/John-Robertt/dbgaporg/internal/config"
	"github.com/John-Robertt/dbgaporg/internal/domain"
)

// logObserver 把 run 包的事件翻译成 stderr 上的结构化日志。
type logObserver struct {
	log *log.Logger
}

func newLogObserver(l *log.Logger) *logObserver {
	return &logObserver{log: l}
}

func (o *logObserver) OnStart(eff config.EffectiveConfig) {
	o.log.Info().
		Str("path", eff.Path).
		Str("dest", eff.Dest).
		Str("study", eff.StudyID+"."+eff.StudyVersion).
		Bool("apply", eff.Apply).
		Msg("开始处理")
}

func (o *logObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	e := o.log.Info().Str("phase", name)
	// map 遍历顺序不确定，排序后输出才稳定。
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e = e.Str(k, fmt.Sprint(fields[k]))
	}
	e.Dur("dur", dur).Msg("阶段完成")
}

func (o *logObserver) OnItemDone(idx, total int, res domain.ItemResult) {
	e := o.log.Info()
	switch res.Status {
	case domain.StatusConflicted, domain.StatusUnclassified:
		e = o.log.Warn()
	case domain.StatusFailed:
		e = o.log.Error()
	}
	e = e.Int("idx", idx+1).Int("total", total).Str("status", res.Status)
	if res.Root != "" {
		e = e.Str("root", res.Root)
	}
	if res.Kind != "" {
		e = e.Str("kind", res.Kind)
	}
	if res.ErrorCode != "" {
		e = e.Str("error_code", res.ErrorCode).Str("error_msg", res.ErrorMsg)
	}
	if len(res.Files) > 0 {
		e = e.Str("file", res.Files[0].Name)
	}
	e.Msg("条目定案")
}
