package core

import "time"

// CoordEvent is one line of the append-only coordination log
// (spec.md §3, §4.7, §6): {ts, sender, type, payload}.
type CoordEvent struct {
	TS      string `json:"ts"` // UTC ISO-8601 with trailing Z
	Sender  string `json:"sender"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NewCoordEvent stamps the current time in the exact format the coordination
// log requires.
func NewCoordEvent(sender, typ string, payload any) CoordEvent {
	return CoordEvent{
		TS:      time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Sender:  sender,
		Type:    typ,
		Payload: payload,
	}
}
