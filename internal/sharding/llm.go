package sharding

import (
	"log/slog"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// planLLM implements spec.md §4.9's "llm" strategy: ask the configured
// LLMPlanner for a JSON plan of exactly shard_count sub-tasks. Any failure
// (missing planner, request error, malformed shape) collapses to a single
// shard wrapping the full task text.
func planLLM(role *core.RoleConfig, taskText string, llm LLMPlanner) []core.Shard {
	if llm == nil {
		return nil
	}

	count := role.ShardCount
	if count <= 0 {
		count = role.Instances
	}

	shards, err := llm.PlanShards(role.ID, taskText, count)
	if err != nil {
		slog.Warn("llm shard plan failed, collapsing to single shard", "role", role.ID, "error", err)
		return nil
	}

	valid := make([]core.Shard, 0, len(shards))
	for i, s := range shards {
		if s.Content == "" {
			continue
		}
		if s.ID == "" {
			s.ID = shardID(i)
		}
		valid = append(valid, s)
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}
