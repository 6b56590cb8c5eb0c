package tasksplit

import (
	"encoding/json"
	"path/filepath"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
)

func manifestPath(splitDir string) string {
	return filepath.Join(splitDir, "manifest.json")
}

// loadManifest returns nil (not an error) when no manifest file exists
// yet, so callers can treat "no manifest" and "resume disabled" the same
// way (spec.md §4.11 step 5).
func loadManifest(splitDir string) (*core.SplitManifest, error) {
	data, err := fsutil.ReadFileScoped(manifestPath(splitDir))
	if err != nil {
		return nil, nil
	}
	var m core.SplitManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "split manifest JSON is corrupt: "+err.Error())
	}
	return &m, nil
}

// saveManifest rewrites manifest.json atomically (spec.md §4.11 step 7
// "persist manifest after each chunk").
func saveManifest(splitDir string, m *core.SplitManifest) error {
	blob, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.AtomicWriteFile(manifestPath(splitDir), blob, 0o644)
}
