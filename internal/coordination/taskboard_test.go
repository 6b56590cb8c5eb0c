package coordination

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardCfg() core.CoordinationConfig {
	return core.CoordinationConfig{LockTimeoutSec: 2, LockPollIntervalMS: 5, LockStaleSec: 60}
}

func TestTaskBoard_ReadAbsentReturnsEmptyBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task_board.json")
	b := NewTaskBoard(path, boardCfg())

	board, err := b.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, board.Version)
	assert.Empty(t, board.Tasks)
}

func TestTaskBoard_PatchCreatesMissingEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task_board.json")
	b := NewTaskBoard(path, boardCfg())

	err := b.Patch("writer#0", func(e *core.TaskBoardEntry) {
		e.Title = "write docs"
		e.Status = core.TaskBoardOpen
	})
	require.NoError(t, err)

	board, err := b.Read()
	require.NoError(t, err)
	require.Len(t, board.Tasks, 1)
	assert.Equal(t, "writer#0", board.Tasks[0].ID)
	assert.Equal(t, "write docs", board.Tasks[0].Title)
	assert.Equal(t, 1, board.Version)
}

func TestTaskBoard_PatchUpdatesExistingEntryAndBumpsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task_board.json")
	b := NewTaskBoard(path, boardCfg())

	require.NoError(t, b.Patch("writer#0", func(e *core.TaskBoardEntry) { e.Status = core.TaskBoardOpen }))
	require.NoError(t, b.Patch("writer#0", func(e *core.TaskBoardEntry) { e.Status = core.TaskBoardDone }))

	board, err := b.Read()
	require.NoError(t, err)
	require.Len(t, board.Tasks, 1)
	assert.Equal(t, core.TaskBoardDone, board.Tasks[0].Status)
	assert.Equal(t, 2, board.Version)
}

func TestTaskBoard_ConcurrentPatchesAreSerialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task_board.json")
	b := NewTaskBoard(path, boardCfg())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = b.Patch("shared", func(e *core.TaskBoardEntry) { e.Title = "touched" })
		}(i)
	}
	wg.Wait()

	board, err := b.Read()
	require.NoError(t, err)
	require.Len(t, board.Tasks, 1)
	assert.Equal(t, 10, board.Version)
}
