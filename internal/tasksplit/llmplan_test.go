package tasksplit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

func echoProviders(script string) *cliadapter.Registry {
	return cliadapter.NewRegistry(map[string]*core.CliProvider{
		"": {ID: "sh", ExecutionMode: core.ExecModeStdin, DefaultArgv: []string{"sh", "-c", script}, TimeoutMultiplier: 1},
	})
}

func twoBlocks() []block {
	return []block{{title: "One", body: "# One\nfirst"}, {title: "Two", body: "# Two\nsecond"}}
}

func TestPlanWithLLM_ParsesValidContiguousGroups(t *testing.T) {
	providers := echoProviders(`echo '[{"start":1,"end":1,"title":"a"},{"start":2,"end":2,"title":"b"}]'`)

	groups := planWithLLM(providers, 5, twoBlocks())

	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Start)
	assert.Equal(t, 2, groups[1].End)
}

func TestPlanWithLLM_NonZeroExitReturnsNil(t *testing.T) {
	groups := planWithLLM(echoProviders("exit 1"), 5, twoBlocks())
	assert.Nil(t, groups)
}

func TestPlanWithLLM_InvalidJSONReturnsNil(t *testing.T) {
	groups := planWithLLM(echoProviders("echo not-json"), 5, twoBlocks())
	assert.Nil(t, groups)
}

func TestPlanWithLLM_GapInCoverageReturnsNil(t *testing.T) {
	providers := echoProviders(`echo '[{"start":1,"end":1,"title":"a"}]'`)
	groups := planWithLLM(providers, 5, twoBlocks())
	assert.Nil(t, groups)
}

func TestValidGroups_ExactContiguousCoverageIsValid(t *testing.T) {
	groups := []headingGroup{{Start: 1, End: 2}, {Start: 3, End: 3}}
	assert.True(t, validGroups(groups, 3))
}

func TestValidGroups_OverlapIsInvalid(t *testing.T) {
	groups := []headingGroup{{Start: 1, End: 2}, {Start: 2, End: 3}}
	assert.False(t, validGroups(groups, 3))
}

func TestValidGroups_GapIsInvalid(t *testing.T) {
	groups := []headingGroup{{Start: 1, End: 1}, {Start: 3, End: 3}}
	assert.False(t, validGroups(groups, 3))
}

func TestValidGroups_EmptyIsInvalid(t *testing.T) {
	assert.False(t, validGroups(nil, 3))
}
