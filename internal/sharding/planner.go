// Package sharding implements the Sharding Planner (spec.md §4.9): a
// deterministic, pure function mapping (role, task_text) to an optional
// ShardPlan. The wave/level bookkeeping idiom (deterministic, sorted,
// greedy packing) is grounded on the teacher's
// internal/service/workflow/manifest_fs.go computeExecutionLevels (same
// "assign deterministically, sort for reproducibility" discipline,
// though that function computes DAG levels rather than shard groups).
package sharding

import (
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// LLMPlanner requests a JSON sub-task plan from an LLM, used only by
// shard_mode == "llm". Implemented by the pipeline using C5/C6.
type LLMPlanner interface {
	PlanShards(roleID core.RoleID, taskText string, count int) ([]core.Shard, error)
}

// Plan computes the ShardPlan for role over taskText, or nil if sharding
// is disabled, per spec.md §4.9.
func Plan(role *core.RoleConfig, taskText string, llm LLMPlanner) *core.ShardPlan {
	if role.ShardMode == core.ShardModeNone || role.Instances <= 1 {
		return nil
	}

	var shards []core.Shard
	switch role.ShardMode {
	case core.ShardModeHeadings:
		shards = planHeadings(taskText, role.ShardCount)
	case core.ShardModeFiles:
		maxPerShard := 0
		if role.MaxFilesPerShard != nil {
			maxPerShard = *role.MaxFilesPerShard
		}
		shards = planFiles(taskText, maxPerShard)
		if shards == nil {
			shards = planHeadings(taskText, role.ShardCount)
		}
	case core.ShardModeLLM:
		shards = planLLM(role, taskText, llm)
	default:
		shards = planHeadings(taskText, role.ShardCount)
	}

	if len(shards) == 0 {
		shards = []core.Shard{{ID: "shard-1", Content: taskText}}
	}

	return &core.ShardPlan{
		RoleID:              role.ID,
		ShardMode:           role.ShardMode,
		ShardCount:          len(shards),
		Shards:              shards,
		OverlapPolicy:       role.OverlapPolicy,
		EnforceAllowedPaths: role.EnforceAllowedPaths,
	}
}
