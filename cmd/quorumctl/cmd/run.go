package cmd

import (
	"github.com/spf13/cobra"
)

// runCmd is spec.md §6's interactive/hybrid entry point. "Interactive"
// here means only that --apply-confirm's y/N prompt is reachable without
// extra flags (non-goal: no chat/TUI loop) — the pipeline sequence is
// identical to `task`.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline (interactive/hybrid)",
	RunE:  runRun,
}

func init() {
	registerRunFlags(runCmd)
}

// runRun backs both `quorumctl run` and bareword `quorumctl` invocation
// (spec.md §6: "Bareword invocation with no args ⇒ interactive run").
func runRun(cmd *cobra.Command, _ []string) error {
	return runPipelineFromFlags(cmd)
}
