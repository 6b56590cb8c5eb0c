package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/coordination"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

func newTestBoard(t *testing.T) *coordination.TaskBoard {
	t.Helper()
	return coordination.NewTaskBoard(filepath.Join(t.TempDir(), "board.json"), core.CoordinationConfig{})
}

func singleRoleCfg() *core.AppConfig {
	role := &core.RoleConfig{
		ID: "writer", Name: "Writer", Instances: 1, Retries: 0,
		PromptTemplate: "write something about {task}",
	}
	return &core.AppConfig{
		Roles:                []*core.RoleConfig{role},
		FinalRoleID:          "writer",
		SummaryMaxChars:      2000,
		FinalSummaryMaxChars: 2000,
		Paths:                core.PathsConfig{RunDirTemplate: "runs/<run_id>"},
		Coordination: core.CoordinationConfig{
			TaskBoardPathTemplate: "runs/<run_id>/board.json",
			LogPathTemplate:       "runs/<run_id>/log.jsonl",
		},
	}
}

func catRegistry() *cliadapter.Registry {
	return cliadapter.NewRegistry(map[string]*core.CliProvider{
		"": {ID: "sh", ExecutionMode: core.ExecModeStdin, DefaultArgv: []string{"sh", "-c", "cat"}, TimeoutMultiplier: 1},
	})
}

func TestRun_SingleRoleEndToEnd(t *testing.T) {
	workdir := t.TempDir()
	p := New(singleRoleCfg(), workdir, catRegistry(), true)

	result, err := p.Run(context.Background(), RunArgs{Task: "a small task"})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ReturnCode)
	assert.NotEmpty(t, result.RunID)

	_, statErr := os.Stat(filepath.Join(result.RunDir, "run.json"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(result.RunDir, "events.jsonl"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(result.RunDir, "final_summary.txt"))
	assert.NoError(t, statErr)
}

func TestRun_UnknownApplyRoleFails(t *testing.T) {
	workdir := t.TempDir()
	p := New(singleRoleCfg(), workdir, catRegistry(), true)

	_, err := p.Run(context.Background(), RunArgs{Task: "x", ApplyRoles: []string{"ghost-role"}})

	require.Error(t, err)
	assert.Equal(t, core.CodeUnknownApplyRole, err.(*core.DomainError).Code)
}

func TestRun_ApplyAtEndAppliesRoleDiff(t *testing.T) {
	cfg := singleRoleCfg()
	cfg.Roles[0].PromptTemplate = "diff --git a/out.txt b/out.txt\n--- /dev/null\n+++ b/out.txt\n@@ -0,0 +1,1 @@\n+hello\n"
	cfg.Roles[0].ApplyDiff = true

	workdir := t.TempDir()
	p := New(cfg, workdir, catRegistry(), true)

	result, err := p.Run(context.Background(), RunArgs{Task: "x", Apply: true, ApplyMode: ApplyModeEnd})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ReturnCode)
	_, statErr := os.Stat(filepath.Join(workdir, "out.txt"))
	assert.NoError(t, statErr)
}

func TestResolveApplySet_AllRolesWhenEmpty(t *testing.T) {
	roles := []*core.RoleConfig{{ID: "a"}, {ID: "b"}}
	set, err := resolveApplySet(roles, nil)
	require.NoError(t, err)
	assert.True(t, set["a"])
	assert.True(t, set["b"])
}

func TestResolveApplySet_UnknownRoleErrors(t *testing.T) {
	roles := []*core.RoleConfig{{ID: "a"}}
	_, err := resolveApplySet(roles, []string{"b"})
	require.Error(t, err)
}

func TestRenderPathTemplate_SubstitutesRunID(t *testing.T) {
	got := renderPathTemplate("runs/<run_id>/board.json", "run-42")
	assert.Equal(t, "runs/run-42/board.json", got)
}

func TestSeedTaskBoard_ExpandsDependencyInstanceLabels(t *testing.T) {
	roles := []*core.RoleConfig{
		{ID: "a", Instances: 2, PromptTemplate: "x"},
		{ID: "b", Instances: 1, DependsOn: []core.RoleID{"a"}, PromptTemplate: "x"},
	}
	board := newTestBoard(t)
	seedTaskBoard(board, roles)

	read, err := board.Read()
	require.NoError(t, err)
	require.Len(t, read.Tasks, 3)

	var bEntry *core.TaskBoardEntry
	for i := range read.Tasks {
		if read.Tasks[i].ID == "b#1" {
			bEntry = &read.Tasks[i]
		}
	}
	require.NotNil(t, bEntry)
	assert.ElementsMatch(t, []string{"a#1", "a#2"}, bEntry.Deps)
}
