package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/diffapply"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/snapshot"
)

// ApplyGate serializes diff application across the run (spec.md §4.10.2's
// "run-wide apply lock") and rebuilds the shared snapshot context entry
// after a successful apply.
type ApplyGate struct {
	mu       sync.Mutex
	applier  *diffapply.Applier
	snapper  *snapshot.Snapshotter
	workdir  string
	safety   core.DiffSafety
	confirm  bool
	ctxState *SharedContext
}

// NewApplyGate builds the run-wide apply coordinator.
func NewApplyGate(applier *diffapply.Applier, snapper *snapshot.Snapshotter, workdir string, safety core.DiffSafety, confirm bool, ctxState *SharedContext) *ApplyGate {
	return &ApplyGate{applier: applier, snapper: snapper, workdir: workdir, safety: safety, confirm: confirm, ctxState: ctxState}
}

// Apply applies one instance's diff under the run-wide lock. When applied,
// it rebuilds the snapshot, replaces the shared "snapshot" context entry,
// and sets "last_applied_diff" (spec.md §4.10.2).
func (g *ApplyGate) Apply(ctx context.Context, diffText string) diffapply.Result {
	if diffText == "" {
		return diffapply.Result{OK: true, Message: "nothing to apply"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.confirm && !confirmApply(diffText) {
		return diffapply.Result{OK: false, Message: "apply declined"}
	}

	result := g.applier.Apply(ctx, g.workdir, diffText, g.safety)
	if !result.OK {
		return result
	}

	if g.snapper != nil {
		snap, err := g.snapper.Build(g.workdir, nil)
		if err == nil {
			g.ctxState.Set("snapshot", snap.Text)
		}
	}
	g.ctxState.Set("last_applied_diff", diffText)
	return result
}

// confirmApply prompts on stdin/stdout for interactive confirmation
// (spec.md §4.10.2 "optionally confirm interactively").
func confirmApply(diffText string) bool {
	fmt.Printf("Apply the following diff? [y/N]\n%s\n", diffText)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return line == "y\n" || line == "Y\n" || line == "y\r\n"
}
