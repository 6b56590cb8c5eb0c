package coordination

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
)

// TaskBoard coordinates concurrent updates to a JSON task-board file, per
// spec.md §4.7: an advisory cross-process FileLock plus an in-process
// mutex (within one process, a single-writer mutex additionally
// serializes access).
type TaskBoard struct {
	path string
	lock *FileLock
	mu   sync.Mutex
}

// NewTaskBoard builds a TaskBoard backed by path, with locking tuned by
// cfg.
func NewTaskBoard(path string, cfg core.CoordinationConfig) *TaskBoard {
	return &TaskBoard{
		path: path,
		lock: NewFileLock(path, cfg.LockStaleSec, cfg.LockPollIntervalMS, cfg.LockTimeoutSec),
	}
}

// Patch applies patch to the entry identified by taskID (creating it via
// patch if missing), bumping the board's version, under both the
// in-process mutex and the cross-process file lock (spec.md §4.7 steps
// 1-4).
func (b *TaskBoard) Patch(taskID string, patch func(entry *core.TaskBoardEntry)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.lock.Acquire(); err != nil {
		return err
	}
	defer b.lock.Release()

	board, err := b.read()
	if err != nil {
		return err
	}

	found := false
	for i := range board.Tasks {
		if board.Tasks[i].ID == taskID {
			patch(&board.Tasks[i])
			found = true
			break
		}
	}
	if !found {
		entry := core.TaskBoardEntry{ID: taskID}
		patch(&entry)
		board.Tasks = append(board.Tasks, entry)
	}
	board.Version++

	return b.write(board)
}

// Read returns the current board, or {version:0,tasks:[]} if absent, per
// spec.md §4.7 step 2. It does not take the lock; callers that need a
// consistent read-modify-write should use Patch.
func (b *TaskBoard) Read() (*core.TaskBoard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read()
}

func (b *TaskBoard) read() (*core.TaskBoard, error) {
	data, err := fsutil.ReadFileScoped(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &core.TaskBoard{Version: 0, Tasks: []core.TaskBoardEntry{}}, nil
		}
		return nil, err
	}
	var board core.TaskBoard
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "task board JSON is corrupt: "+err.Error())
	}
	return &board, nil
}

func (b *TaskBoard) write(board *core.TaskBoard) error {
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.AtomicWriteFile(b.path, data, 0o644)
}
