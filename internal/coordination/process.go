package coordination

import (
	"os"
	"runtime"
	"syscall"
)

// processAlive reports whether pid is still running, via signal 0 (no-op
// delivery, just an existence probe). Ported near-literally from the
// teacher's internal/adapters/state/compat.go processExists.
func processAlive(pid int) bool {
	if runtime.GOOS == "windows" && pid == os.Getpid() {
		return true
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
