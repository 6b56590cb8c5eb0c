// Package coordination implements the Coordination Substrate (spec.md
// §4.7): a file-locked JSON task-board plus an append-only JSONL
// coordination log. The lock itself is a near-literal port of the
// teacher's internal/adapters/state/json.go AcquireLock/ReleaseLock
// (exclusive-create sibling lock file, PID-liveness + TTL staleness
// check), generalized from one hardcoded workflow-state lock to a
// reusable primitive any coordination-backed file can use.
package coordination

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
)

type lockInfo struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// FileLock is an advisory lock modeled as exclusive creation of a sibling
// "<path>.lock" file, per spec.md §4.7.
type FileLock struct {
	path          string
	staleAfter    time.Duration
	pollInterval  time.Duration
	acquireTimeout time.Duration
}

// NewFileLock builds a FileLock for targetPath (the lock file is
// targetPath + ".lock"). staleSec/pollMS/timeoutSec come from
// core.CoordinationConfig.
func NewFileLock(targetPath string, staleSec, pollMS, timeoutSec int) *FileLock {
	if staleSec <= 0 {
		staleSec = 300
	}
	if pollMS <= 0 {
		pollMS = 50
	}
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &FileLock{
		path:           targetPath + ".lock",
		staleAfter:     time.Duration(staleSec) * time.Second,
		pollInterval:   time.Duration(pollMS) * time.Millisecond,
		acquireTimeout: time.Duration(timeoutSec) * time.Second,
	}
}

// Acquire polls at pollInterval up to acquireTimeout, per spec.md §4.7
// step 1 ("poll with ~50 ms intervals up to lock_timeout_sec, then fail
// with timeout").
func (l *FileLock) Acquire() error {
	deadline := time.Now().Add(l.acquireTimeout)
	for {
		err := l.tryAcquireOnce()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return core.ErrState(core.CodeLockTimeout, fmt.Sprintf("timed out acquiring lock %s", l.path))
		}
		time.Sleep(l.pollInterval)
	}
}

func (l *FileLock) tryAcquireOnce() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	if data, err := fsutil.ReadFileScoped(l.path); err == nil {
		var info lockInfo
		if err := json.Unmarshal(data, &info); err == nil {
			if time.Since(info.AcquiredAt) < l.staleAfter && processAlive(info.PID) {
				return core.ErrState(core.CodeLockAcquireFailed, fmt.Sprintf("lock held by PID %d since %s", info.PID, info.AcquiredAt))
			}
		}
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale lock: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading lock file: %w", err)
	}

	hostname, _ := os.Hostname()
	info := lockInfo{PID: os.Getpid(), Hostname: hostname, AcquiredAt: time.Now()}
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshaling lock info: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return core.ErrState(core.CodeLockAcquireFailed, "lock file created by another process")
		}
		return fmt.Errorf("creating lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		_ = os.Remove(l.path)
		return fmt.Errorf("writing lock file: %w", err)
	}
	return nil
}

// Release removes the lock file, verifying ownership by PID first.
func (l *FileLock) Release() error {
	data, err := fsutil.ReadFileScoped(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading lock file: %w", err)
	}

	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("parsing lock info: %w", err)
	}
	if info.PID != os.Getpid() {
		return core.ErrState(core.CodeLockReleaseFailed, "lock owned by different process")
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}
