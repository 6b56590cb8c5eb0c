// Package diffapply implements the Diff Applier (spec.md §4.4): safety
// gating against a blocklist/allowlist, then delegation to one of two
// backends (external git, or an internal hunk-matching engine).
package diffapply

import (
	"context"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/diffutil"
)

// Backend applies a unified diff against a working directory.
type Backend interface {
	// Check reports whether diffText would apply cleanly, without mutating
	// workdir.
	Check(ctx context.Context, workdir, diffText string) error
	// Apply applies diffText to workdir.
	Apply(ctx context.Context, workdir, diffText string) error
}

// Applier wires safety gating (spec.md §4.4) in front of a Backend.
type Applier struct {
	backend  Backend
	messages core.MessageCatalog
}

// New builds an Applier. If cfg.UseGit and gitAvailable is true, the
// external git backend is used; otherwise the internal hunk engine is
// used, per spec.md §4.4's backend-selection order.
func New(cfg core.DiffApplyConfig, gitAvailable bool, workdir string, messages core.MessageCatalog) *Applier {
	var backend Backend
	if cfg.UseGit && gitAvailable {
		backend = NewGitBackend(workdir, cfg.ThreeWay)
	} else {
		backend = NewHunkBackend()
	}
	return &Applier{backend: backend, messages: messages}
}

// Result is the outcome of one Apply call.
type Result struct {
	OK      bool
	Message string
}

// Apply computes touched paths, enforces the blocklist/allowlist, and (if
// the diff passes) delegates to the backend's Check then Apply.
func (a *Applier) Apply(ctx context.Context, workdir, diffText string, safety core.DiffSafety) Result {
	parsed := diffutil.Parse(diffText)

	for _, path := range parsed.TouchedPaths {
		if !diffutil.Allowed(path, safety.Allowlist, safety.Blocklist) {
			return Result{OK: false, Message: a.messages.Get("blocked_path")}
		}
	}

	if err := a.backend.Check(ctx, workdir, parsed.Text); err != nil {
		msg := a.messages.Get("backend_check_failed")
		if msg == "" {
			msg = err.Error()
		} else {
			msg = msg + ": " + err.Error()
		}
		return Result{OK: false, Message: msg}
	}

	if err := a.backend.Apply(ctx, workdir, parsed.Text); err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	return Result{OK: true, Message: "applied"}
}
