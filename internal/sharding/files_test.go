package sharding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFiles_NoPathsReturnsNil(t *testing.T) {
	shards := planFiles("no paths mentioned here", 0)
	assert.Nil(t, shards)
}

func TestPlanFiles_GroupsByTopLevelDirectory(t *testing.T) {
	text := "Update `internal/foo/bar.go` and also `internal/foo/baz.go`, plus `cmd/quorumctl/root.go`."
	shards := planFiles(text, 0)
	require.Len(t, shards, 2)

	dirs := map[string][]string{}
	for _, s := range shards {
		dirs[s.Title] = s.AllowedPaths
	}
	require.Contains(t, dirs, "internal")
	require.Contains(t, dirs, "cmd")
	assert.Equal(t, []string{"internal/**"}, dirs["internal"])
	assert.Equal(t, []string{"cmd/**"}, dirs["cmd"])
}

func TestPlanFiles_RootLevelFilesUseExplicitList(t *testing.T) {
	text := "Edit `README.md` please."
	shards := planFiles(text, 0)
	require.Len(t, shards, 1)
	assert.Equal(t, []string{"README.md"}, shards[0].AllowedPaths)
}

func TestPlanFiles_CapsFilesPerShard(t *testing.T) {
	text := "Touch `src/a.go`, `src/b.go`, `src/c.go`, `src/d.go`."
	shards := planFiles(text, 2)
	require.Len(t, shards, 2)
	for _, s := range shards {
		assert.Equal(t, []string{"src/**"}, s.AllowedPaths)
	}
}

func TestPlanFiles_IgnoresURLs(t *testing.T) {
	text := "See https://example.com/path/to/page.html for docs, and edit `internal/x/y.go`."
	shards := planFiles(text, 0)
	require.Len(t, shards, 1)
	assert.Equal(t, "internal", shards[0].Title)
}
