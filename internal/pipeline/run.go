// Package pipeline implements the Pipeline / Scheduler (spec.md §4.10):
// the central algorithm tying every other component together into one
// run. Wave scheduling is a generalization of the teacher's
// internal/service/dag.go DAGBuilder (see dag.go); the retry-loop shape
// in role.go borrows the *pattern* (not the code) of the teacher's
// internal/service/retry.go RetryPolicy, since this package's retry
// condition is spec-defined (returncode/empty-stdout/missing-sections)
// rather than the teacher's error-classification-driven retry.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/coordination"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/diffapply"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/executor"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/logging"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/prompt"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/runlog"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/sharding"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/snapshot"
)

// minFreeMemoryMB is the ambient preflight threshold checked before each
// wave fans its roles' instances out as subprocesses (SPEC_FULL.md §5).
// Not a spec.md-configurable value, mirroring the teacher's own
// hardcoded SafeExecutor default.
const minFreeMemoryMB = 256

// Pipeline holds everything one run needs: the frozen config plus every
// component the run sequence drives.
type Pipeline struct {
	Cfg               *core.AppConfig
	Workdir           string
	Providers         *cliadapter.Registry
	Snapper           *snapshot.Snapshotter
	GitAvailable      bool
	NoStreaming       bool
	DefaultTimeoutSec int
	TokenCounter      executor.TokenCounter
	LLMPlanner        sharding.LLMPlanner
	Logger            *logging.Logger

	RunID   string
	RunDir  string
	Board   *coordination.TaskBoard
	CoordLog *coordination.Log
	Events  *runlog.Writer

	SharedCtx *SharedContext
	ApplyGate *ApplyGate

	statusRows []statusRow
}

// New builds a Pipeline from static configuration. Per-run state (RunID,
// RunDir, Board, CoordLog, Events, SharedCtx, ApplyGate) is attached by
// Run.
func New(cfg *core.AppConfig, workdir string, providers *cliadapter.Registry, noStreaming bool) *Pipeline {
	gitAvailable := diffapply.Available(workdir)
	return &Pipeline{
		Cfg:               cfg,
		Workdir:           workdir,
		Providers:         providers,
		Snapper:           snapshot.New(cfg.Snapshot, ""),
		GitAvailable:      gitAvailable,
		NoStreaming:       noStreaming,
		DefaultTimeoutSec: 300,
		TokenCounter:      executor.DefaultTokenCounter(cfg.PromptLimits.TokenChars),
	}
}

// Run executes the full sequence of spec.md §4.10 steps 1-13.
func (p *Pipeline) Run(ctx context.Context, args RunArgs) (*RunResult, error) {
	runID := args.RunIDOverride
	if runID == "" {
		runID = fmt.Sprintf("run-%s", time.Now().UTC().Format("20060102-150405"))
	}
	p.RunID = runID
	p.RunDir = filepath.Join(p.Workdir, renderPathTemplate(p.Cfg.Paths.RunDirTemplate, runID))

	if err := os.MkdirAll(p.RunDir, 0o755); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "creating run dir: "+err.Error())
	}

	metaBuilder := runlog.NewBuilder(filepath.Join(p.RunDir, "run.json"), runID, p.Workdir, args.Task, runArgsMap(args))
	p.Events = runlog.New(filepath.Join(p.RunDir, "events.jsonl"), runID)
	_ = p.Events.Log(runlog.EventRunStart, map[string]string{"run_id": runID})

	result := &RunResult{RunID: runID, RunDir: p.RunDir}

	prepared, err := prepareTask(p.Workdir, args.Task, p.Cfg.TaskLimits.InlineMaxChars, p.RunDir)
	if err != nil {
		_ = metaBuilder.Finalize(core.RunStatusError, err.Error())
		return result, err
	}

	applySet, err := resolveApplySet(p.Cfg.Roles, args.ApplyRoles)
	if err != nil {
		_ = metaBuilder.Finalize(core.RunStatusError, err.Error())
		return result, err
	}

	snap, err := p.Snapper.Build(p.Workdir, nil)
	if err != nil {
		_ = metaBuilder.Finalize(core.RunStatusError, err.Error())
		return result, err
	}
	metaBuilder.SetSnapshot(core.SnapshotMeta{
		FilesCount: len(snap.Files), CacheHit: snap.CacheHit, DeltaUsed: snap.DeltaUsed, TotalBytes: snap.TotalBytes,
	})
	_ = p.Events.Log(runlog.EventSnapshot, map[string]int{"files": len(snap.Files), "bytes": snap.TotalBytes})

	boardPath := filepath.Join(p.Workdir, renderPathTemplate(p.Cfg.Coordination.TaskBoardPathTemplate, runID))
	logPath := filepath.Join(p.Workdir, renderPathTemplate(p.Cfg.Coordination.LogPathTemplate, runID))
	p.Board = coordination.NewTaskBoard(boardPath, p.Cfg.Coordination)
	p.CoordLog = coordination.NewLog(logPath)
	seedTaskBoard(p.Board, p.Cfg.Roles)

	seed := prompt.Context{
		"task":                  prepared.InPrompt,
		"task_full_path":        prepared.FullPath,
		"snapshot":              snap.Text,
		"task_board_path":       boardPath,
		"coordination_log_path": logPath,
		"last_applied_diff":     "",
		"repair_note":           "",
	}
	for _, r := range p.Cfg.Roles {
		seed[string(r.ID)+"_summary"] = ""
		seed[string(r.ID)+"_output"] = ""
	}
	p.SharedCtx = NewSharedContext(seed)

	applier := diffapply.New(p.Cfg.DiffApply, p.GitAvailable, p.Workdir, p.Cfg.DiffMessages)
	p.ApplyGate = NewApplyGate(applier, p.Snapper, p.Workdir, p.Cfg.DiffSafety, args.Confirm, p.SharedCtx)

	waves, err := NewDAGBuilder(p.Cfg.Roles).Waves()
	if err != nil {
		_ = metaBuilder.Finalize(core.RunStatusError, err.Error())
		return result, err
	}

	var anyFailure bool
	abortRun := false

	for _, wave := range waves {
		if abortRun {
			break
		}
		p.checkPreflight(len(wave))

		type waveResult struct {
			id  core.RoleID
			out roleOutcome
			err error
		}
		results := make(chan waveResult, len(wave))
		for _, id := range wave {
			role := p.Cfg.RoleByID(id)
			go func(role *core.RoleConfig) {
				out, err := p.runRole(ctx, role)
				results <- waveResult{id: role.ID, out: out, err: err}
			}(role)
		}
		for range wave {
			r := <-results
			if r.err != nil {
				anyFailure = true
			}
			if r.out.abort {
				abortRun = true
			}
			if !r.out.skipped && !r.out.abort {
				metaBuilder.SetRole(string(r.id), r.out.meta)
			}
			p.statusRows = append(p.statusRows, statusRow{
				role:    r.id,
				skipped: r.out.skipped,
				aborted: r.out.abort,
				failed:  r.err != nil,
			})
		}

		if args.Apply && args.ApplyMode == ApplyModeRole {
			for _, id := range wave {
				role := p.Cfg.RoleByID(id)
				if !role.ApplyDiff || !inApplySet(applySet, id) {
					continue
				}
				diff := p.SharedCtx.Get(string(id) + "_output")
				res := p.ApplyGate.Apply(ctx, extractDiff(diff))
				if !res.OK && args.FailFast {
					abortRun = true
				}
			}
		}

		if anyFailure && args.FailFast {
			abortRun = true
		}
	}

	if args.Apply && args.ApplyMode == ApplyModeEnd {
		for _, role := range p.Cfg.Roles {
			if !role.ApplyDiff || !inApplySet(applySet, role.ID) {
				continue
			}
			diff := p.SharedCtx.Get(string(role.ID) + "_output")
			res := p.ApplyGate.Apply(ctx, extractDiff(diff))
			if !res.OK && args.FailFast {
				abortRun = true
			}
		}
	}

	p.renderStatusTable()

	finalSummary := p.SharedCtx.Get(string(p.Cfg.FinalRoleID) + "_summary")
	finalSummary = prompt.Summarize(finalSummary, p.Cfg.FinalSummaryMaxChars)
	_ = fsutil.AtomicWriteFile(filepath.Join(p.RunDir, "final_summary.txt"), []byte(finalSummary), 0o644)
	fmt.Println(finalSummary)

	status := core.RunStatusOK
	if anyFailure || abortRun {
		status = core.RunStatusError
	}
	_ = metaBuilder.Finalize(status, "")
	_ = p.Events.Log(runlog.EventRunEnd, map[string]string{"status": string(status)})

	result.ReturnCode = 0
	if !args.IgnoreFail && (anyFailure || abortRun) {
		result.ReturnCode = 1
	}
	return result, nil
}

// checkPreflight warns (without aborting) when the host looks short on
// memory before fanning waveSize role instances out as subprocesses.
func (p *Pipeline) checkPreflight(waveSize int) {
	result := diagnostics.CheckMemory(minFreeMemoryMB)
	if result.OK || p.Logger == nil {
		return
	}
	p.Logger.Warn("preflight check", "warning", result.Warning, "wave_size", waveSize)
}

func runArgsMap(args RunArgs) map[string]any {
	return map[string]any{
		"apply":        args.Apply,
		"apply_mode":   string(args.ApplyMode),
		"fail_fast":    args.FailFast,
		"ignore_fail":  args.IgnoreFail,
		"no_streaming": args.NoStreaming,
	}
}

// renderPathTemplate substitutes "<run_id>" in a path template.
func renderPathTemplate(tmpl, runID string) string {
	return strings.ReplaceAll(tmpl, "<run_id>", runID)
}

// resolveApplySet validates --apply-roles against declared role ids
// (spec.md §4.10 step 3).
func resolveApplySet(roles []*core.RoleConfig, applyRoles []string) (map[core.RoleID]bool, error) {
	declared := make(map[core.RoleID]bool, len(roles))
	for _, r := range roles {
		declared[r.ID] = true
	}
	if len(applyRoles) == 0 {
		return declared, nil
	}
	set := make(map[core.RoleID]bool, len(applyRoles))
	var unknown []string
	for _, id := range applyRoles {
		rid := core.RoleID(strings.TrimSpace(id))
		if !declared[rid] {
			unknown = append(unknown, id)
			continue
		}
		set[rid] = true
	}
	if len(unknown) > 0 {
		return nil, core.ErrValidation(core.CodeUnknownApplyRole,
			fmt.Sprintf("unknown roles in --apply-roles: %s", strings.Join(unknown, ", ")))
	}
	return set, nil
}

func inApplySet(set map[core.RoleID]bool, id core.RoleID) bool {
	return set[id]
}

// seedTaskBoard creates one task-board entry per {role_id}#{k}, with
// dependencies expanded to all instance labels of each dependency role
// (spec.md §4.10 step 5).
func seedTaskBoard(board *coordination.TaskBoard, roles []*core.RoleConfig) {
	byID := make(map[core.RoleID]*core.RoleConfig, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	var declaredBefore []core.RoleID
	for _, r := range roles {
		deps := r.EffectiveDeps(declaredBefore)
		var depLabels []string
		for _, dep := range deps {
			if depRole, ok := byID[dep]; ok {
				for k := 1; k <= depRole.Instances; k++ {
					depLabels = append(depLabels, fmt.Sprintf("%s#%d", dep, k))
				}
			}
		}
		for k := 1; k <= r.Instances; k++ {
			id := fmt.Sprintf("%s#%d", r.ID, k)
			_ = board.Patch(id, func(e *core.TaskBoardEntry) {
				e.Title = id
				e.Status = core.TaskBoardOpen
				e.Deps = depLabels
			})
		}
		declaredBefore = append(declaredBefore, r.ID)
	}
}

// persistShardPlan writes {role_id}_shard_plan.json to the run directory.
func (p *Pipeline) persistShardPlan(roleID core.RoleID, plan *core.ShardPlan) {
	path := filepath.Join(p.RunDir, string(roleID)+"_shard_plan.json")
	blob, err := jsonIndent(plan)
	if err != nil {
		return
	}
	_ = fsutil.AtomicWriteFile(path, blob, 0o644)
}
