package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

func jsonEchoProviders() *cliadapter.Registry {
	return cliadapter.NewRegistry(map[string]*core.CliProvider{
		"": {ID: "sh", ExecutionMode: core.ExecModeStdin, DefaultArgv: []string{"sh", "-c", "cat"}, TimeoutMultiplier: 1},
	})
}

func TestCLILLMPlanner_ParsesJSONArrayResponse(t *testing.T) {
	// cat echoes stdin back; BuildCommandForRole puts the constructed prompt
	// on stdin, so this test overrides the provider to echo a canned JSON
	// response instead, via a shell one-liner.
	providers := cliadapter.NewRegistry(map[string]*core.CliProvider{
		"": {ID: "sh", ExecutionMode: core.ExecModeStdin, DefaultArgv: []string{
			"sh", "-c", `echo '[{"title":"a","goal":"g","content":"c1","allowed_paths":["a.go"]},{"title":"b","goal":"g2","content":"c2"}]'`,
		}, TimeoutMultiplier: 1},
	})
	planner := NewCLILLMPlanner(providers, 5)

	shards, err := planner.PlanShards("writer", "split this", 2)

	require.NoError(t, err)
	require.Len(t, shards, 2)
	assert.Equal(t, "shard-1", shards[0].ID)
	assert.Equal(t, "c1", shards[0].Content)
	assert.Equal(t, []string{"a.go"}, shards[0].AllowedPaths)
	assert.Equal(t, "shard-2", shards[1].ID)
}

func TestCLILLMPlanner_NonZeroExitReturnsError(t *testing.T) {
	providers := cliadapter.NewRegistry(map[string]*core.CliProvider{
		"": {ID: "sh", ExecutionMode: core.ExecModeStdin, DefaultArgv: []string{"sh", "-c", "exit 1"}, TimeoutMultiplier: 1},
	})
	planner := NewCLILLMPlanner(providers, 5)

	_, err := planner.PlanShards("writer", "split this", 2)

	require.Error(t, err)
}

func TestCLILLMPlanner_InvalidJSONReturnsError(t *testing.T) {
	providers := cliadapter.NewRegistry(map[string]*core.CliProvider{
		"": {ID: "sh", ExecutionMode: core.ExecModeStdin, DefaultArgv: []string{"sh", "-c", "echo not-json"}, TimeoutMultiplier: 1},
	})
	planner := NewCLILLMPlanner(providers, 5)

	_, err := planner.PlanShards("writer", "split this", 2)

	require.Error(t, err)
}

func TestCLILLMPlanner_DefaultsTimeoutWhenNonPositive(t *testing.T) {
	planner := NewCLILLMPlanner(jsonEchoProviders(), 0)
	assert.Equal(t, 60, planner.timeoutSec)
}
