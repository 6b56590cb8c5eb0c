package executor

import (
	"bufio"
	"bytes"
	"io"
)

// pumpLines scans r line-by-line, invoking onLine for each; scanner errors
// are swallowed (the pipe can close abruptly on kill/timeout), mirroring
// the teacher's streamStderr in internal/adapters/cli/base.go.
func pumpLines(r io.Reader, _ *bytes.Buffer, onLine func(line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	return nil
}
