package tasksplit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/executor"
)

// headingGroup is one contiguous run of 1-indexed block numbers the LLM
// plan proposes to fold into a single chunk (spec.md §4.11 step 6).
type headingGroup struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Title string `json:"title"`
}

// planWithLLM asks the default CLI provider for contiguous heading
// groups, grounded on the same cliadapter+executor wiring as
// internal/pipeline's cliLLMPlanner (kept as a separate implementation
// here, rather than imported from internal/pipeline, so
// internal/tasksplit's dependency on internal/pipeline stays one-way:
// tasksplit invokes pipeline.Pipeline.Run, pipeline never reaches back
// into tasksplit). Returns nil on any failure, timeout, or invalid
// response, per spec.md §4.11 step 6's "if the LLM plan fails ... fall
// back to heuristic splitter."
func planWithLLM(providers *cliadapter.Registry, timeoutSec int, blocks []block) []headingGroup {
	if timeoutSec <= 0 {
		timeoutSec = 60
	}

	var titles strings.Builder
	for i, b := range blocks {
		fmt.Fprintf(&titles, "%d. %s\n", i+1, b.title)
	}

	prompt := fmt.Sprintf(
		"Group the following %d numbered sections into contiguous chunks for "+
			"independent processing. Respond with ONLY a JSON array of "+
			`{"start":N,"end":N,"title":"..."}, covering 1..%d exactly once, in order.`+
			"\n\nSECTIONS:\n%s", len(blocks), len(blocks), titles.String())

	built, err := providers.BuildCommandForRole("", prompt, "", nil)
	if err != nil || len(built.Argv) == 0 {
		return nil
	}

	exec := executor.New(built.Argv[0])
	res, err := exec.RunBlocking(context.Background(), built.Argv[1:], built.StdinPayload, time.Duration(timeoutSec)*time.Second)
	if err != nil || res.RC != 0 {
		return nil
	}

	var groups []headingGroup
	if err := json.Unmarshal([]byte(res.Stdout), &groups); err != nil {
		return nil
	}
	if !validGroups(groups, len(blocks)) {
		return nil
	}
	return groups
}

// validGroups checks groups cover 1..n exactly once, in contiguous,
// non-overlapping, ascending order (spec.md §4.11 step 6's "validate:
// covers 1..N exactly once, contiguous").
func validGroups(groups []headingGroup, n int) bool {
	if n == 0 || len(groups) == 0 {
		return false
	}
	next := 1
	for _, g := range groups {
		if g.Start != next || g.End < g.Start || g.End > n {
			return false
		}
		next = g.End + 1
	}
	return next == n+1
}
