package run

import (
	"time"

	"github.com/John-Robertt/dbgaporg/internal/config"
	"github.com/John-Robertt/dbgaporg/internal/domain"
)

// Observer 用于把“运行进度/阶段/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件顺序与报告条目顺序一致（单线程执行，无并发事件）。
type Observer interface {
	// OnStart 在 Execute 开始时调用（应尽量早，保证用户第一时间看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在一个 MatchSet（或 unmatched 条目）定案时调用。
	OnItemDone(idx, total int, res domain.ItemResult)
}
