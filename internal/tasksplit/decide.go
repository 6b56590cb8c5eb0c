package tasksplit

import "github.com/hugo-lorenzo-mato/quorum-forge/internal/core"

// shouldSplit implements spec.md §4.11 step 2: always-split, or any
// heuristic threshold tripped (length, token estimate, heading count).
func shouldSplit(taskText string, cfg core.TaskSplitConfig, tokenChars int) bool {
	if cfg.DecisionMode == "always" {
		return true
	}
	if cfg.HeuristicMaxChars > 0 && len(taskText) > cfg.HeuristicMaxChars {
		return true
	}
	if cfg.HeuristicMaxTokens > 0 {
		chars := tokenChars
		if chars <= 0 {
			chars = 4
		}
		estTokens := (len(taskText) + chars - 1) / chars
		if estTokens > cfg.HeuristicMaxTokens {
			return true
		}
	}
	if cfg.HeuristicMaxHeadings > 0 && headingCount(splitBlocks(taskText)) > cfg.HeuristicMaxHeadings {
		return true
	}
	return false
}
