package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/diffutil"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/executor"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/prompt"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/runlog"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/sharding"
)

// instanceOutcome is one instance's final state after its retry loop.
type instanceOutcome struct {
	instance string
	ok       bool
	summary  string
	output   string
	diff     string
	meta     core.InstanceMeta
	shardID  string
	allowed  []string
}

// roleOutcome aggregates a role's combined summary/output and metadata.
type roleOutcome struct {
	summary string
	output  string
	meta    core.RoleMeta
	skipped bool
	abort   bool
}

// runRole executes one role per spec.md §4.10.1: the feedback-loop gate,
// template pre-validation, shard-plan construction, parallel instance
// fan-out with a bounded retry loop, and shard-barrier validation.
func (p *Pipeline) runRole(ctx context.Context, role *core.RoleConfig) (roleOutcome, error) {
	start := time.Now()

	if role.RunIfReviewCritical && p.Cfg.FeedbackLoop.Enabled {
		reviewerOutput := p.SharedCtx.Get("reviewer_output")
		if !containsAnyFold(reviewerOutput, p.Cfg.FeedbackLoop.CriticalPatterns) {
			p.SharedCtx.SetMany(map[string]string{
				string(role.ID) + "_summary": "",
				string(role.ID) + "_output":  "",
			})
			_ = p.Events.Log(runlog.EventRoleSkip, map[string]string{"role": string(role.ID)})
			return roleOutcome{skipped: true, meta: core.RoleMeta{DurationSec: time.Since(start).Seconds()}}, nil
		}
	}

	preValidateCtx := p.SharedCtx.Snapshot()
	preValidateCtx["role_id"] = string(role.ID)
	preValidateCtx["role_name"] = role.Name
	preValidateCtx["role_instance_id"] = "1"
	preValidateCtx["role_instance"] = fmt.Sprintf("%s#1", role.ID)
	if _, err := prompt.Render(role.PromptTemplate, preValidateCtx); err != nil {
		return roleOutcome{}, err
	}

	_ = p.Events.Log(runlog.EventRoleStart, map[string]string{"role": string(role.ID)})

	var plan *core.ShardPlan
	if role.ShardingEnabled() {
		plan = sharding.Plan(role, p.SharedCtx.Get("task"), p.LLMPlanner)
		if plan != nil {
			p.persistShardPlan(role.ID, plan)
			_ = p.Events.Log(runlog.EventShardPlanCreated, map[string]any{"role": string(role.ID), "shard_count": plan.ShardCount})
		}
	}

	outcomes := make([]instanceOutcome, role.Instances)
	g, gctx := errgroup.WithContext(ctx)
	for k := 1; k <= role.Instances; k++ {
		k := k
		g.Go(func() error {
			outcomes[k-1] = p.runInstance(gctx, role, k, plan)
			return nil
		})
	}
	_ = g.Wait()

	abort := false
	if plan != nil {
		var touches []instanceTouch
		for _, o := range outcomes {
			touches = append(touches, instanceTouch{
				Instance:     o.instance,
				AllowedPaths: o.allowed,
				TouchedPaths: diffutil.Parse(o.diff).TouchedPaths,
			})
		}
		shardAbort, err := validateShardBarrier(p.RunDir, role.ID, role.OverlapPolicy, role.EnforceAllowedPaths, touches)
		if err != nil {
			if shardAbort {
				_ = p.Events.Log(runlog.EventShardValidationError, map[string]string{"role": string(role.ID), "error": err.Error()})
				abort = true
			} else {
				_ = p.Events.Log(runlog.EventShardOverlapsDetected, map[string]string{"role": string(role.ID)})
			}
		} else {
			_ = p.Events.Log(runlog.EventShardValidationSuccess, map[string]string{"role": string(role.ID)})
		}
	}

	summary, output, meta := combineInstances(role, outcomes, start)
	p.SharedCtx.SetMany(map[string]string{
		string(role.ID) + "_summary": summary,
		string(role.ID) + "_output":  output,
	})
	_ = p.Events.Log(runlog.EventRoleEnd, map[string]string{"role": string(role.ID)})

	return roleOutcome{summary: summary, output: output, meta: meta, abort: abort}, nil
}

// runInstance runs one role-instance's bounded retry loop (spec.md
// §4.10.1).
func (p *Pipeline) runInstance(ctx context.Context, role *core.RoleConfig, k int, plan *core.ShardPlan) instanceOutcome {
	instance := fmt.Sprintf("%s#%d", role.ID, k)
	boardID := instance

	_ = p.Board.Patch(boardID, func(e *core.TaskBoardEntry) {
		e.Status = core.TaskBoardInProgress
		e.ClaimedBy = instance
	})
	_ = p.CoordLog.Send(instance, "claim", nil)

	instCtx := p.SharedCtx.Snapshot()
	instCtx["role_id"] = string(role.ID)
	instCtx["role_name"] = role.Name
	instCtx["role_instance_id"] = fmt.Sprintf("%d", k)
	instCtx["role_instance"] = instance

	var allowed []string
	var shardID string
	if plan != nil && k-1 < len(plan.Shards) {
		shard := plan.Shards[k-1]
		instCtx["task"] = shard.Content
		shardID = shard.ID
		allowed = shard.AllowedPaths
		instCtx["shard_id"] = shard.ID
		instCtx["shard_title"] = shard.Title
		instCtx["shard_goal"] = shard.Goal
		instCtx["allowed_paths"] = strings.Join(shard.AllowedPaths, ",")
	}

	retriesLeft := role.Retries
	shrink := 1.0
	repairNote := ""
	attempts := 0

	var last executor.Result
	var lastDiff string

	for {
		attempts++
		instCtx["repair_note"] = repairNote

		limit := effectiveLimit(role, p.Cfg)
		cascade := prompt.Cascade{
			EffectiveLimit:   limit,
			SnapshotMaxChars: p.Cfg.PromptLimits.SnapshotMaxChars,
			ShrinkFactor:     shrink,
		}
		renderedPrompt, err := cascade.Apply(role.PromptTemplate, instCtx)
		if err != nil {
			return instanceOutcome{instance: instance, ok: false, allowed: allowed, shardID: shardID}
		}

		planExec, err := selectExecutor(p.Providers, role, renderedPrompt, p.DefaultTimeoutSec)
		if err != nil {
			return instanceOutcome{instance: instance, ok: false, allowed: allowed, shardID: shardID}
		}

		instStart := time.Now()
		if p.NoStreaming {
			last, err = planExec.Exec.RunBlocking(ctx, planExec.Args, planExec.Stdin, planExec.Timeout)
		} else {
			last, err = planExec.Exec.RunStreaming(ctx, planExec.Args, planExec.Stdin, planExec.Timeout, p.TokenCounter, nil)
		}
		duration := time.Since(instStart)
		if err != nil {
			last.RC = 1
			last.Stderr = last.Stderr + "\n" + err.Error()
		}

		_ = p.Events.Log(runlog.EventAgentResult, map[string]any{
			"role":       string(role.ID),
			"instance":   instance,
			"returncode": last.RC,
			"chars":      len(last.Stdout),
			"attempt":    attempts,
		})

		missing := missingSections(last.Stdout, role.ExpectedSections)
		success := last.RC == 0 && last.Stdout != "" && len(missing) == 0
		retryable := last.RC == 124 || last.Stdout == "" || len(missing) > 0

		rc := last.RC
		lastDiff = extractDiff(last.Stdout)

		if success || !retryable || retriesLeft <= 0 {
			_ = p.Board.Patch(boardID, func(e *core.TaskBoardEntry) {
				e.Status = core.TaskBoardDone
				e.ReturnCode = &rc
			})
			_ = p.CoordLog.Send(instance, "complete", map[string]int{"returncode": rc})

			outChars := len(last.Stdout)
			if role.MaxOutputChars != nil && outChars > *role.MaxOutputChars {
				last.Stdout = last.Stdout[:*role.MaxOutputChars]
			}
			return instanceOutcome{
				instance: instance,
				ok:       success,
				summary:  prompt.Summarize(last.Stdout, p.Cfg.SummaryMaxChars),
				output:   last.Stdout,
				diff:     lastDiff,
				shardID:  shardID,
				allowed:  allowed,
				meta: core.InstanceMeta{
					ReturnCode:  last.RC,
					OutputChars: outChars,
					Attempts:    attempts,
					DurationSec: duration.Seconds(),
				},
			}
		}

		retriesLeft--
		shrink = p.Cfg.RoleDefaults.RetryPromptShrink
		if shrink <= 0 || shrink >= 1 {
			shrink = 0.5
		}
		repairNote = fmt.Sprintf("FEHLENDE SEKTIONEN: %s", strings.Join(missing, ", "))

		select {
		case <-ctx.Done():
			return instanceOutcome{instance: instance, ok: false, allowed: allowed, shardID: shardID}
		case <-time.After(time.Duration(p.Cfg.CLI.RetryBackoffSec * float64(time.Second))):
		}
	}
}

func missingSections(stdout string, expected []string) []string {
	var missing []string
	for _, s := range expected {
		if !strings.Contains(stdout, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// extractDiff pulls a unified diff out of an agent's stdout, if present
// (anything from the first "diff --git" header onward).
func extractDiff(stdout string) string {
	idx := strings.Index(stdout, "diff --git ")
	if idx < 0 {
		return ""
	}
	return stdout[idx:]
}

func containsAnyFold(haystack string, patterns []string) bool {
	lower := strings.ToLower(haystack)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// combineInstances joins each instance's "[name]\n<text>" blocks, per
// spec.md §4.10.1.
func combineInstances(role *core.RoleConfig, outcomes []instanceOutcome, start time.Time) (summary, output string, meta core.RoleMeta) {
	var summaryParts, outputParts []string
	instances := make(map[string]core.InstanceMeta, len(outcomes))

	for _, o := range outcomes {
		summaryParts = append(summaryParts, fmt.Sprintf("[%s]\n%s", o.instance, o.summary))
		outputParts = append(outputParts, fmt.Sprintf("[%s]\n%s", o.instance, o.output))
		instances[o.instance] = o.meta
	}

	summary = strings.Join(summaryParts, "\n\n")
	output = strings.Join(outputParts, "\n\n")
	if role.MaxOutputChars != nil {
		output = prompt.Summarize(output, *role.MaxOutputChars)
	}

	return summary, output, core.RoleMeta{Instances: instances, DurationSec: time.Since(start).Seconds()}
}

// effectiveLimit resolves the role's prompt budget, falling back to the
// family defaults (spec.md §4.8).
func effectiveLimit(role *core.RoleConfig, cfg *core.AppConfig) int {
	maxChars := role.MaxPromptChars
	if maxChars == nil && cfg.PromptLimits.MaxPromptChars > 0 {
		v := cfg.PromptLimits.MaxPromptChars
		maxChars = &v
	}
	maxTokens := role.MaxPromptTokens
	if maxTokens == nil && cfg.PromptLimits.MaxPromptTokens > 0 {
		v := cfg.PromptLimits.MaxPromptTokens
		maxTokens = &v
	}
	return prompt.EffectiveLimit(maxChars, maxTokens, cfg.PromptLimits.TokenChars)
}
