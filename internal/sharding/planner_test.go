package sharding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

func TestPlan_ShardModeNoneReturnsNil(t *testing.T) {
	role := &core.RoleConfig{ID: "r", ShardMode: core.ShardModeNone, Instances: 3}
	assert.Nil(t, Plan(role, "task text", nil))
}

func TestPlan_SingleInstanceReturnsNil(t *testing.T) {
	role := &core.RoleConfig{ID: "r", ShardMode: core.ShardModeHeadings, Instances: 1}
	assert.Nil(t, Plan(role, "task text", nil))
}

func TestPlan_HeadingsModeBuildsPlan(t *testing.T) {
	role := &core.RoleConfig{ID: "r", ShardMode: core.ShardModeHeadings, Instances: 2, ShardCount: 2}
	plan := Plan(role, "# A\nbody a\n# B\nbody b\n", nil)
	require.NotNil(t, plan)
	assert.Equal(t, core.RoleID("r"), plan.RoleID)
	assert.Equal(t, 2, plan.ShardCount)
	assert.Len(t, plan.Shards, 2)
}

func TestPlan_FilesModeFallsBackToHeadingsWhenNoPaths(t *testing.T) {
	role := &core.RoleConfig{ID: "r", ShardMode: core.ShardModeFiles, Instances: 2, ShardCount: 2}
	plan := Plan(role, "# A\nno paths here\n# B\nstill none\n", nil)
	require.NotNil(t, plan)
	assert.Len(t, plan.Shards, 2)
}

func TestPlan_NoShardsProducedWrapsFullTask(t *testing.T) {
	role := &core.RoleConfig{ID: "r", ShardMode: core.ShardModeFiles, Instances: 2, ShardCount: 2}
	plan := Plan(role, "no headings and no paths", nil)
	require.NotNil(t, plan)
	require.Len(t, plan.Shards, 1)
	assert.Equal(t, "no headings and no paths", plan.Shards[0].Content)
}
