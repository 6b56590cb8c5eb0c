package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/coordination"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/prompt"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/runlog"
)

func catPipeline(t *testing.T, cfg *core.AppConfig) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	p := New(cfg, dir, cliadapter.NewRegistry(map[string]*core.CliProvider{
		"": {ID: "sh", ExecutionMode: core.ExecModeStdin, DefaultArgv: []string{"sh", "-c", "cat"}, TimeoutMultiplier: 1},
	}), true)
	p.RunDir = t.TempDir()
	p.Board = coordination.NewTaskBoard(p.RunDir+"/board.json", core.CoordinationConfig{})
	p.CoordLog = coordination.NewLog(p.RunDir + "/log.jsonl")
	p.Events = runlog.New(p.RunDir+"/events.jsonl", "run-test")
	p.SharedCtx = NewSharedContext(prompt.Context{"task": "do the thing", "reviewer_output": ""})
	return p
}

func TestRunInstance_SuccessOnExpectedSectionsPresent(t *testing.T) {
	role := &core.RoleConfig{
		ID: "writer", Instances: 1, Retries: 1,
		PromptTemplate:   "## Summary\nplease respond",
		ExpectedSections: []string{"## Summary"},
	}
	p := catPipeline(t, &core.AppConfig{Roles: []*core.RoleConfig{role}, RoleDefaults: core.RoleDefaults{RetryPromptShrink: 0.5}})

	out := p.runInstance(context.Background(), role, 1, nil)

	assert.True(t, out.ok)
	assert.Contains(t, out.output, "## Summary")
	assert.Equal(t, 1, out.meta.Attempts)
}

func TestRunInstance_RetriesOnMissingSectionThenGivesUp(t *testing.T) {
	role := &core.RoleConfig{
		ID: "writer", Instances: 1, Retries: 1,
		PromptTemplate:   "no matching section here",
		ExpectedSections: []string{"## Required"},
	}
	cfg := &core.AppConfig{Roles: []*core.RoleConfig{role}, RoleDefaults: core.RoleDefaults{RetryPromptShrink: 0.5}, CLI: core.CLIConfig{RetryBackoffSec: 0.01}}
	p := catPipeline(t, cfg)

	out := p.runInstance(context.Background(), role, 1, nil)

	assert.False(t, out.ok)
	assert.Equal(t, 2, out.meta.Attempts)
}

func TestRunRole_FeedbackGateSkipsWhenPatternAbsent(t *testing.T) {
	role := &core.RoleConfig{
		ID: "reviewer-dependent", Instances: 1, Retries: 0,
		PromptTemplate: "respond", RunIfReviewCritical: true,
	}
	cfg := &core.AppConfig{
		Roles:        []*core.RoleConfig{role},
		FeedbackLoop: core.FeedbackLoopConfig{Enabled: true, CriticalPatterns: []string{"CRITICAL"}},
	}
	p := catPipeline(t, cfg)

	out, err := p.runRole(context.Background(), role)

	require.NoError(t, err)
	assert.True(t, out.skipped)
}

func TestRunRole_FeedbackGateRunsWhenPatternPresent(t *testing.T) {
	role := &core.RoleConfig{
		ID: "reviewer-dependent", Instances: 1, Retries: 0,
		PromptTemplate: "respond", RunIfReviewCritical: true,
	}
	cfg := &core.AppConfig{
		Roles:        []*core.RoleConfig{role},
		FeedbackLoop: core.FeedbackLoopConfig{Enabled: true, CriticalPatterns: []string{"CRITICAL"}},
	}
	p := catPipeline(t, cfg)
	p.SharedCtx.Set("reviewer_output", "this was marked CRITICAL")

	out, err := p.runRole(context.Background(), role)

	require.NoError(t, err)
	assert.False(t, out.skipped)
}

func TestRunRole_CombinesMultipleInstances(t *testing.T) {
	role := &core.RoleConfig{ID: "writer", Instances: 2, Retries: 0, PromptTemplate: "respond"}
	cfg := &core.AppConfig{Roles: []*core.RoleConfig{role}}
	p := catPipeline(t, cfg)

	out, err := p.runRole(context.Background(), role)

	require.NoError(t, err)
	assert.Contains(t, out.output, "writer#1")
	assert.Contains(t, out.output, "writer#2")
	assert.Len(t, out.meta.Instances, 2)
}

func TestMissingSections_ReportsAbsentOnes(t *testing.T) {
	got := missingSections("has ## A only", []string{"## A", "## B"})
	assert.Equal(t, []string{"## B"}, got)
}

func TestExtractDiff_FindsDiffGitHeader(t *testing.T) {
	stdout := "some prose\ndiff --git a/x.go b/x.go\n--- a/x.go\n+++ b/x.go\n"
	got := extractDiff(stdout)
	assert.Contains(t, got, "diff --git a/x.go")
	assert.NotContains(t, got, "some prose")
}

func TestExtractDiff_EmptyWhenNoDiff(t *testing.T) {
	assert.Empty(t, extractDiff("just prose, no diff here"))
}

func TestContainsAnyFold_CaseInsensitive(t *testing.T) {
	assert.True(t, containsAnyFold("this is CRITICAL", []string{"critical"}))
	assert.False(t, containsAnyFold("all fine", []string{"critical"}))
}
