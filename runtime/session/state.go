package session

import (
	"fmt"

	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

// Status is the lifecycle position of a session.
type Status int

// Session statuses.
const (
	StatusIdle Status = iota
	StatusCapturing
	StatusSubmitting
	StatusReady
	StatusFailed
)

// String returns the lowercase status name used in events and metrics.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusCapturing:
		return "capturing"
	case StatusSubmitting:
		return "submitting"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is a session state. Result is set only when Ready and Err only when Failed.
type State struct {
	Status Status
	Result *types.TranscriptionResult
	Err    error
}

// Snapshot is a point-in-time copy of one session.
type Snapshot struct {
	Kind  types.SessionKind
	State State
	// Source is the name of the payload being or last transcribed.
	Source string
	// Saving is true while a persist call is in flight.
	Saving bool
	// LastSave is the acknowledgement of the most recent successful persist.
	LastSave *types.SaveAck
}

// Loading reports whether the session waits on the network.
func (s Snapshot) Loading() bool {
	return s.State.Status == StatusSubmitting || s.Saving
}
