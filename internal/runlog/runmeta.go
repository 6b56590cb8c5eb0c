package runlog

import (
	"encoding/json"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
)

// Builder accumulates one run's metadata and rewrites run.json on finalize
// (spec.md §4.10 step 13, §4.12).
type Builder struct {
	path string
	meta core.RunMeta
}

// NewBuilder starts a run.json builder at path, stamping the start time.
func NewBuilder(path, runID, workspace, task string, args map[string]any) *Builder {
	return &Builder{
		path: path,
		meta: core.RunMeta{
			RunID:     runID,
			StartTime: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
			Workspace: workspace,
			Task:      task,
			Args:      args,
			Roles:     map[string]core.RoleMeta{},
			Status:    core.RunStatusOK,
		},
	}
}

// SetSnapshot records the pre-run snapshot statistics.
func (b *Builder) SetSnapshot(meta core.SnapshotMeta) {
	b.meta.Snapshot = meta
}

// SetRole records (overwriting) one role's aggregated metadata.
func (b *Builder) SetRole(roleID string, meta core.RoleMeta) {
	b.meta.Roles[roleID] = meta
}

// Finalize stamps the end time, sets status/error, and atomically writes
// run.json.
func (b *Builder) Finalize(status core.RunStatus, errMsg string) error {
	b.meta.EndTime = time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	b.meta.Status = status
	b.meta.Error = errMsg

	blob, err := json.MarshalIndent(b.meta, "", "  ")
	if err != nil {
		return core.ErrState(core.CodeStateCorrupted, "marshaling run.json: "+err.Error())
	}
	if err := fsutil.AtomicWriteFile(b.path, blob, 0o644); err != nil {
		return core.ErrState(core.CodeStateCorrupted, "writing run.json: "+err.Error())
	}
	return nil
}
