package fsutil

import (
	"os"

	"github.com/google/renameio/v2"
)

// AtomicWriteFile writes data to path by writing a sibling temp file and
// renaming it into place, so concurrent readers never observe a partial
// write. Grounded on the teacher's internal/adapters/state/atomic_unix.go.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
