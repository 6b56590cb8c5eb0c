// Package diagnostics provides an ambient preflight memory check run
// before each pipeline wave fans its roles' instances out as
// subprocesses, so a starved host degrades to a logged warning instead
// of a wall of exec failures.
//
// Grounded on the teacher's internal/diagnostics/safe_exec.go
// (SafeExecutor.RunPreflight) and internal/diagnostics/system_metrics.go,
// trimmed to the single check the pipeline actually wires in: the
// teacher's broader FD/goroutine/crash-dump monitoring has no
// SPEC_FULL.md component to serve and was dropped (see DESIGN.md).
package diagnostics
