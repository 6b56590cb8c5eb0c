package runlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

func TestBuilder_FinalizeWritesRunJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	b := NewBuilder(path, "run-1", "/work", "do the thing", map[string]any{"apply": false})
	b.SetSnapshot(core.SnapshotMeta{FilesCount: 3, TotalBytes: 100})
	b.SetRole("reviewer", core.RoleMeta{DurationSec: 1.5})

	require.NoError(t, b.Finalize(core.RunStatusOK, ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var meta core.RunMeta
	require.NoError(t, json.Unmarshal(data, &meta))

	assert.Equal(t, "run-1", meta.RunID)
	assert.Equal(t, core.RunStatusOK, meta.Status)
	assert.NotEmpty(t, meta.EndTime)
	assert.Equal(t, 3, meta.Snapshot.FilesCount)
	assert.Contains(t, meta.Roles, "reviewer")
}

func TestBuilder_FinalizeRecordsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	b := NewBuilder(path, "run-2", "/work", "task", nil)

	require.NoError(t, b.Finalize(core.RunStatusError, "dag blocked"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var meta core.RunMeta
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, core.RunStatusError, meta.Status)
	assert.Equal(t, "dag blocked", meta.Error)
}
