package events

import (
	"time"

	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

// EventType identifies the type of event emitted by a session.
type EventType string

const (
	// EventStateChanged marks a session state transition.
	EventStateChanged EventType = "session.state_changed"
	// EventSaveStarted marks the start of a persist call.
	EventSaveStarted EventType = "session.save.started"
	// EventSaveCompleted marks a successful persist call.
	EventSaveCompleted EventType = "session.save.completed"
	// EventSaveFailed marks a failed persist call.
	EventSaveFailed EventType = "session.save.failed"
	// EventResultDiscarded marks a transcription result that arrived after its
	// request was abandoned.
	EventResultDiscarded EventType = "session.result_discarded"
)

// EventData is implemented by every event payload.
type EventData interface {
	eventData()
}

// Event is one occurrence on a session.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Session   types.SessionKind
	// Seq increases by one for every event a store emits. Listeners can use it
	// to order events published from different goroutines.
	Seq  uint64
	Data EventData
}

// StateChangedData describes a transition. Result is set when entering Ready
// and Err when entering Failed.
type StateChangedData struct {
	From   string
	To     string
	Source string
	Result *types.TranscriptionResult
	Err    error
}

// SaveStartedData describes a persist call about to be made.
type SaveStartedData struct {
	Name string
}

// SaveCompletedData describes a successful persist call.
type SaveCompletedData struct {
	Name     string
	Ack      *types.SaveAck
	Duration time.Duration
}

// SaveFailedData describes a failed persist call.
type SaveFailedData struct {
	Name     string
	Err      error
	Duration time.Duration
}

// ResultDiscardedData describes a late result dropped after Abandon.
type ResultDiscardedData struct {
	Source string
	Err    error
}

func (StateChangedData) eventData()    {}
func (SaveStartedData) eventData()     {}
func (SaveCompletedData) eventData()   {}
func (SaveFailedData) eventData()      {}
func (ResultDiscardedData) eventData() {}
