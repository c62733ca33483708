package prometheus

import (
	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/runtime/events"
)

// Status constants for metric labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const stateSubmitting = "submitting"

// MetricsListener records session events as Prometheus metrics.
// Register it with an EventBus using SubscribeAll.
type MetricsListener struct{}

// NewMetricsListener creates a new MetricsListener.
func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

// Handle processes an event and records relevant metrics.
func (l *MetricsListener) Handle(event *events.Event) {
	session := event.Session.String()

	//exhaustive:ignore
	switch event.Type {
	case events.EventStateChanged:
		if data, ok := event.Data.(events.StateChangedData); ok {
			RecordTransition(session, data.From, data.To)
			switch {
			case data.To == stateSubmitting:
				SetSubmitting(session, true)
			case data.From == stateSubmitting:
				SetSubmitting(session, false)
			}
		}
	case events.EventSaveCompleted:
		if data, ok := event.Data.(events.SaveCompletedData); ok {
			RecordSave(session, StatusSuccess, "", data.Duration.Seconds())
		}
	case events.EventSaveFailed:
		if data, ok := event.Data.(events.SaveFailedData); ok {
			RecordSave(session, StatusError, string(pkgerrors.KindOf(data.Err)), data.Duration.Seconds())
		}
	case events.EventResultDiscarded:
		RecordDiscardedResult(session)
	default:
		// Ignore events that don't have metrics
	}
}

// Listener returns an events.Listener function that can be registered with an EventBus.
func (l *MetricsListener) Listener() events.Listener {
	return l.Handle
}
