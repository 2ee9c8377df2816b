// Package events records the lifecycle of a daemon as JSON lines.
//
// Events are simple, synchronous, append-only records of what happened.
// The parent and the detached child append to the same file; the reader
// scans them back. Recording is best-effort: errors are written to
// stderr but never returned to callers.
package events

import "time"

// Event type constants.
const (
	DaemonSetup    = "daemon.setup"
	DaemonParent   = "daemon.parent"
	DaemonStarted  = "daemon.started"
	DaemonReleased = "daemon.released"
	DaemonStopped  = "daemon.stopped"
)

// Event is a single recorded occurrence.
type Event struct {
	Seq     uint64    `json:"seq"`
	Type    string    `json:"type"`
	Ts      time.Time `json:"ts"`
	Actor   string    `json:"actor"`
	Subject string    `json:"subject,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Recorder records events. Safe for concurrent use. Best-effort.
type Recorder interface {
	Record(e Event)
}

// Discard silently drops all events.
var Discard Recorder = discardRecorder{}

type discardRecorder struct{}

func (discardRecorder) Record(Event) {}
