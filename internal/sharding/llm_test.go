package sharding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

type stubLLMPlanner struct {
	shards []core.Shard
	err    error
}

func (s stubLLMPlanner) PlanShards(roleID core.RoleID, taskText string, count int) ([]core.Shard, error) {
	return s.shards, s.err
}

func TestPlanLLM_NilPlannerReturnsNil(t *testing.T) {
	role := &core.RoleConfig{ID: "reviewer", ShardCount: 2}
	assert.Nil(t, planLLM(role, "task", nil))
}

func TestPlanLLM_ErrorCollapsesToNil(t *testing.T) {
	role := &core.RoleConfig{ID: "reviewer", ShardCount: 2}
	shards := planLLM(role, "task", stubLLMPlanner{err: errors.New("boom")})
	assert.Nil(t, shards)
}

func TestPlanLLM_ValidShardsArePassedThrough(t *testing.T) {
	role := &core.RoleConfig{ID: "reviewer", ShardCount: 2}
	got := planLLM(role, "task", stubLLMPlanner{shards: []core.Shard{
		{Content: "part one"},
		{ID: "custom-id", Content: "part two"},
	}})
	require.Len(t, got, 2)
	assert.Equal(t, "shard-1", got[0].ID)
	assert.Equal(t, "custom-id", got[1].ID)
}

func TestPlanLLM_EmptyContentShardsAreDropped(t *testing.T) {
	role := &core.RoleConfig{ID: "reviewer", ShardCount: 2}
	got := planLLM(role, "task", stubLLMPlanner{shards: []core.Shard{{Content: ""}}})
	assert.Nil(t, got)
}
