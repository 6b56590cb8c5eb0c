package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/executor"
)

// cliLLMPlanner implements sharding.LLMPlanner and tasksplit's LLM-plan
// path on top of internal/cliadapter + internal/executor, so those
// packages never need to depend back on this one (spec.md §4.9's
// "llm" shard mode, §4.11 step 6's LLM-plan path).
type cliLLMPlanner struct {
	providers  *cliadapter.Registry
	timeoutSec int
}

// NewCLILLMPlanner builds an LLM-backed planner using the default CLI
// provider.
func NewCLILLMPlanner(providers *cliadapter.Registry, timeoutSec int) *cliLLMPlanner {
	if timeoutSec <= 0 {
		timeoutSec = 60
	}
	return &cliLLMPlanner{providers: providers, timeoutSec: timeoutSec}
}

type llmShardRecord struct {
	Title        string   `json:"title"`
	Goal         string   `json:"goal"`
	Content      string   `json:"content"`
	AllowedPaths []string `json:"allowed_paths"`
}

// PlanShards asks the default provider for exactly count sub-tasks shaped
// as {title, goal, content, allowed_paths} JSON records.
func (c *cliLLMPlanner) PlanShards(roleID core.RoleID, taskText string, count int) ([]core.Shard, error) {
	prompt := fmt.Sprintf(
		"Split the following task into exactly %d independent sub-tasks. "+
			"Respond with ONLY a JSON array, each element shaped as "+
			`{"title":"...","goal":"...","content":"...","allowed_paths":["..."]}.`+
			"\n\nTASK:\n%s", count, taskText)

	built, err := c.providers.BuildCommandForRole("", prompt, "", nil)
	if err != nil {
		return nil, err
	}
	if len(built.Argv) == 0 {
		return nil, core.ErrConfig(core.CodeProviderMissing, "default provider produced an empty command", "")
	}

	exec := executor.New(built.Argv[0])
	res, err := exec.RunBlocking(context.Background(), built.Argv[1:], built.StdinPayload, time.Duration(c.timeoutSec)*time.Second)
	if err != nil || res.RC != 0 {
		return nil, core.ErrExecution("LLM_SHARD_PLAN_FAILED", "llm shard plan request failed")
	}

	var records []llmShardRecord
	if err := json.Unmarshal([]byte(res.Stdout), &records); err != nil {
		return nil, core.ErrValidation("LLM_SHARD_PLAN_INVALID", "llm shard plan response was not valid JSON: "+err.Error())
	}

	shards := make([]core.Shard, 0, len(records))
	for i, rec := range records {
		shards = append(shards, core.Shard{
			ID:           fmt.Sprintf("shard-%d", i+1),
			Title:        rec.Title,
			Goal:         rec.Goal,
			Content:      rec.Content,
			AllowedPaths: rec.AllowedPaths,
		})
	}
	return shards, nil
}
