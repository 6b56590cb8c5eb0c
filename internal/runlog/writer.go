// Package runlog implements the Run Metadata / JSONL Logger (spec.md
// §4.12): an append-only events.jsonl plus a run.json rewritten at
// finalize. The typed-event-struct idiom (a type tag plus a timestamp)
// is grounded on the teacher's internal/events/bus.go BaseEvent; this
// package drops the teacher's pub/sub bus entirely (events.jsonl has no
// subscribers, only a writer) and keeps only that struct shape. The
// append-without-cross-process-lock discipline mirrors
// internal/coordination.Log (spec.md §4.7's coordination log has the
// same "strictly append, no fsync required" contract).
package runlog

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// Event types, the exact set spec.md §4.12 names.
const (
	EventRunStart               = "run_start"
	EventSnapshot               = "snapshot"
	EventRoleStart              = "role_start"
	EventRoleSkip               = "role_skip"
	EventRoleEnd                = "role_end"
	EventAgentResult            = "agent_result"
	EventShardPlanCreated       = "shard_plan_created"
	EventShardValidationSuccess = "shard_validation_success"
	EventShardOverlapsDetected  = "shard_overlaps_detected"
	EventShardValidationError   = "shard_validation_error"
	EventRunEnd                 = "run_end"
)

// Event is one line of events.jsonl.
type Event struct {
	TS      string `json:"ts"`
	Type    string `json:"type"`
	RunID   string `json:"run_id"`
	Payload any    `json:"payload,omitempty"`
}

// Writer appends Events to one run's events.jsonl. Safe for concurrent use
// by multiple goroutines within this process (in-process mutex only, no
// flock — the file is owned by one orchestrator run, never shared across
// processes, unlike the coordination log).
type Writer struct {
	path  string
	runID string
	mu    sync.Mutex
}

// New opens (creating if absent) the events.jsonl at path for runID.
func New(path, runID string) *Writer {
	return &Writer{path: path, runID: runID}
}

// Log appends one event of the given type with payload.
func (w *Writer) Log(eventType string, payload any) error {
	event := Event{
		TS:      time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Type:    eventType,
		RunID:   w.runID,
		Payload: payload,
	}
	return w.append(event)
}

func (w *Writer) append(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	blob, err := json.Marshal(event)
	if err != nil {
		return core.ErrState(core.CodeStateCorrupted, "marshaling run log event: "+err.Error())
	}
	blob = append(blob, '\n')

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return core.ErrState(core.CodeStateCorrupted, "opening events log: "+err.Error())
	}
	defer f.Close()

	if _, err := f.Write(blob); err != nil {
		return core.ErrState(core.CodeStateCorrupted, "writing events log: "+err.Error())
	}
	return nil
}
