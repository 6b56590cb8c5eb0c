package coordination

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock_AcquireRelease(t *testing.T) {
	target := filepath.Join(t.TempDir(), "board.json")
	l := NewFileLock(target, 300, 5, 1)

	require.NoError(t, l.Acquire())
	_, err := os.Stat(target + ".lock")
	require.NoError(t, err)

	require.NoError(t, l.Release())
	_, err = os.Stat(target + ".lock")
	assert.True(t, os.IsNotExist(err))
}

func TestFileLock_SecondAcquireTimesOut(t *testing.T) {
	target := filepath.Join(t.TempDir(), "board.json")
	l1 := NewFileLock(target, 300, 5, 1)
	l2 := NewFileLock(target, 300, 5, 1)

	require.NoError(t, l1.Acquire())
	defer l1.Release()

	err := l2.Acquire()
	assert.Error(t, err)
}

func TestFileLock_DeadOwnerLockIsReclaimed(t *testing.T) {
	target := filepath.Join(t.TempDir(), "board.json")
	lockPath := target + ".lock"

	require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0o750))
	require.NoError(t, os.WriteFile(lockPath, []byte(`{"pid":999999,"hostname":"ghost","acquired_at":"2020-01-01T00:00:00Z"}`), 0o600))

	l := NewFileLock(target, 300, 5, 1)
	assert.NoError(t, l.Acquire())
}

func TestFileLock_ReleaseByDifferentPIDFails(t *testing.T) {
	target := filepath.Join(t.TempDir(), "board.json")
	lockPath := target + ".lock"

	require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0o750))
	require.NoError(t, os.WriteFile(lockPath, []byte(`{"pid":999999,"hostname":"other","acquired_at":"2099-01-01T00:00:00Z"}`), 0o600))

	l := NewFileLock(target, 300, 5, 1)
	err := l.Release()
	assert.Error(t, err)
}
