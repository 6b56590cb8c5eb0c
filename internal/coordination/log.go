package coordination

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// Log is the append-only JSONL coordination log (spec.md §4.7): one
// object per event, "{ts, sender, type, payload}". Writes are
// line-append; no lock is required (best-effort ordering), only an
// in-process mutex to keep concurrent writes from interleaving a
// single line.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog builds a Log backed by path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append writes one coordination event as a JSON line.
func (l *Log) Append(event core.CoordEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// Send is a convenience wrapper that stamps and appends an event in one
// call.
func (l *Log) Send(sender, typ string, payload any) error {
	return l.Append(core.NewCoordEvent(sender, typ, payload))
}
