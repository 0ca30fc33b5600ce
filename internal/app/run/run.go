package run

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/dbgaporg/internal/accession"
	"github.com/John-Robertt/dbgaporg/internal/classify"
	"github.com/John-Robertt/dbgaporg/internal/config"
	"github.com/John-Robertt/dbgaporg/internal/domain"
	"github.com/John-Robertt/dbgaporg/internal/layout"
	"github.com/John-Robertt/dbgaporg/internal/match"
	"github.com/John-Robertt/dbgaporg/internal/scan"
)

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
//
// 错误策略：
// - 单文件/单组的问题一律降级为条目（unclassified/conflicted/failed），不中断批次
// - 结构性错误（扫描失败、study/version 身份不一致）生成合成 failed 条目并提前结束，
//   且保证发生在任何落盘之前
func Execute(eff config.EffectiveConfig, fsys layout.FS, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		RunID:        uuid.NewString(),
		Path:         eff.Path,
		Dest:         eff.Dest,
		StudyID:      eff.StudyID,
		StudyVersion: eff.StudyVersion,
		DryRun:       !eff.Apply,
		StartedAt:    started,
		Items:        make([]domain.ItemResult, 0, 64),
	}

	scanStarted := time.Now()
	// dest 永久排除：若输出根在输入目录内部，重复 run 不能把自己的产物当输入。
	excludes := append(append([]string(nil), eff.ExcludeDirs...), eff.Dest)
	records, err := scan.Scan(eff.Path, excludes)
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err)))
		return finish(rr)
	}
	scanDur := time.Since(scanStarted)

	classifyStarted := time.Now()
	classified := 0
	for i := range records {
		id, e := accession.Extract(records[i].Name)
		if e != nil {
			// 单个文件名无法解析绝不中断批次：记为 unclassified，继续。
			records[i].Role = domain.RoleUnclassified
			continue
		}
		records[i].ID = id
		records[i].Role = classify.Classify(id)
		classified++
	}
	classifyDur := time.Since(classifyStarted)

	// 身份校验：目录名声明的 study/version 必须与文件名内嵌的一致。
	// 不一致说明整批交付放错了地方，属于致命输入错误：在任何落盘之前终止。
	for i := range records {
		if records[i].Role == domain.RoleUnclassified {
			continue
		}
		id := records[i].ID
		if id.StudyID != eff.StudyID || id.StudyVersion != eff.StudyVersion {
			rr.Items = append(rr.Items, syntheticFailed(
				domain.ErrCodeStudyMismatch,
				fmt.Sprintf("文件 %q 属于 %s.%s，但输入目录声明 %s.%s",
					records[i].Name, id.StudyID, id.StudyVersion, eff.StudyID, eff.StudyVersion),
			))
			return finish(rr)
		}
	}

	matchStarted := time.Now()
	sets, unmatched := match.Match(records)
	matchDur := time.Since(matchStarted)

	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{"files": len(records)}, scanDur)
		obs.OnPhaseDone("classify", map[string]any{
			"classified":   classified,
			"unclassified": len(records) - classified,
		}, classifyDur)
		obs.OnPhaseDone("match", map[string]any{
			"sets":      len(sets),
			"unmatched": len(unmatched),
		}, matchDur)
	}

	// unmatched：每个输入文件单独形成一条 item（更可解释，便于用户逐个修复）。
	for _, u := range unmatched {
		rr.Items = append(rr.Items, unmatchedItem(u))
	}

	baseDir := layout.BaseDir(eff.Dest, eff.StudyID, eff.StudyVersion)
	plans := make([]layout.Plan, 0, len(sets))
	for _, set := range sets {
		plans = append(plans, layout.PlanSet(baseDir, set))
	}

	if !eff.Apply {
		for _, p := range plans {
			rr.Items = append(rr.Items, planItem(p, domain.StatusPlanned, "", ""))
		}
		emitItems(obs, rr.Items)
		return finish(rr)
	}

	results := layout.Materialize(fsys, baseDir, plans)
	for i, p := range plans {
		res := results[i]
		if res.ErrorCode != "" {
			rr.Items = append(rr.Items, planItem(p, domain.StatusFailed, res.ErrorCode, res.ErrorMsg))
			continue
		}
		rr.Items = append(rr.Items, planItem(p, domain.StatusOrganized, "", ""))
	}
	emitItems(obs, rr.Items)
	return finish(rr)
}

func finish(rr domain.RunReport) domain.RunReport {
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func emitItems(obs Observer, items []domain.ItemResult) {
	if obs == nil {
		return
	}
	for i, it := range items {
		obs.OnItemDone(i, len(items), it)
	}
}

func unmatchedItem(u domain.Unmatched) domain.ItemResult {
	status := domain.StatusConflicted
	if u.Kind == domain.UnmatchedNoMatch {
		status = domain.StatusUnclassified
	}
	return domain.ItemResult{
		Root:   u.File.ID.DatasetRoot,
		Kind:   u.Kind,
		Status: status,
		Files: []domain.FileResult{{
			Name: u.File.Name,
			Role: string(u.File.Role),
		}},
	}
}

func planItem(p layout.Plan, status, errCode, errMsg string) domain.ItemResult {
	files := make([]domain.FileResult, 0, len(p.Ops))
	for _, op := range p.Ops {
		files = append(files, domain.FileResult{
			Name: op.Record.Name,
			Role: string(op.Record.Role),
			Raw:  op.RawAbs,
			Link: op.LinkAbs,
		})
	}
	return domain.ItemResult{
		Root:      p.Root,
		Status:    status,
		ErrorCode: errCode,
		ErrorMsg:  errMsg,
		Files:     files,
	}
}

// syntheticFailed 生成结构性错误的合成条目（没有对应的 MatchSet）。
func syntheticFailed(errCode, errMsg string) domain.ItemResult {
	return domain.ItemResult{
		Status:    domain.StatusFailed,
		ErrorCode: errCode,
		ErrorMsg:  errMsg,
		Files:     []domain.FileResult{},
	}
}
