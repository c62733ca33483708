package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ErVarunGupta/Streaming-App/runtime/events"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

// Span names.
const (
	SpanCapture    = "scribe.capture"
	SpanTranscribe = "scribe.transcribe"
	SpanSave       = "scribe.save"
)

type phase string

const (
	phaseCapture    phase = "capture"
	phaseTranscribe phase = "transcribe"
	phaseSave       phase = "save"
)

type spanKey struct {
	session types.SessionKind
	phase   phase
}

// OTelEventListener turns session events into spans: one per capture, one
// per transcription request and one per save. It is safe for concurrent use
// and can be passed to EventBus.SubscribeAll via OnEvent.
type OTelEventListener struct {
	tracer trace.Tracer
	parent context.Context //nolint:containedctx // parent for every span

	mu       sync.Mutex
	inflight map[spanKey]trace.Span
}

// NewOTelEventListener creates a listener whose spans are children of the
// span in parent, if any.
func NewOTelEventListener(parent context.Context, tracer trace.Tracer) *OTelEventListener {
	if parent == nil {
		parent = context.Background()
	}
	return &OTelEventListener{
		tracer:   tracer,
		parent:   parent,
		inflight: make(map[spanKey]trace.Span),
	}
}

// OnEvent handles one session event.
func (l *OTelEventListener) OnEvent(evt *events.Event) {
	switch data := evt.Data.(type) {
	case events.StateChangedData:
		l.handleTransition(evt.Session, data)
	case events.SaveStartedData:
		l.startSpan(spanKey{evt.Session, phaseSave}, SpanSave, trace.SpanKindClient,
			attribute.String("save.name", data.Name))
	case events.SaveCompletedData:
		attrs := []attribute.KeyValue{attribute.Int64("save.duration_ms", data.Duration.Milliseconds())}
		if data.Ack != nil {
			attrs = append(attrs, attribute.Int("http.status_code", data.Ack.StatusCode))
		}
		l.endSpan(spanKey{evt.Session, phaseSave}, nil, attrs...)
	case events.SaveFailedData:
		l.endSpan(spanKey{evt.Session, phaseSave}, data.Err,
			attribute.Int64("save.duration_ms", data.Duration.Milliseconds()))
	case events.ResultDiscardedData:
		// The abandoned span already ended on the transition to idle.
	}
}

// Listener returns OnEvent as an events.Listener.
func (l *OTelEventListener) Listener() events.Listener {
	return l.OnEvent
}

// Close ends every span still open.
func (l *OTelEventListener) Close() {
	l.mu.Lock()
	open := l.inflight
	l.inflight = make(map[spanKey]trace.Span)
	l.mu.Unlock()
	for _, span := range open {
		span.SetStatus(codes.Error, "listener closed")
		span.End()
	}
}

func (l *OTelEventListener) handleTransition(kind types.SessionKind, data events.StateChangedData) {
	switch data.From {
	case "capturing":
		l.endSpan(spanKey{kind, phaseCapture}, data.Err)
	case "submitting":
		attrs := []attribute.KeyValue{attribute.String("session.outcome", data.To)}
		if data.Result != nil {
			attrs = append(attrs,
				attribute.Int("transcription.text_length", len(data.Result.Text)),
				attribute.Int("transcription.summary_length", len(data.Result.Summary)))
		}
		l.endSpan(spanKey{kind, phaseTranscribe}, data.Err, attrs...)
	}

	switch data.To {
	case "capturing":
		l.startSpan(spanKey{kind, phaseCapture}, SpanCapture, trace.SpanKindInternal)
	case "submitting":
		l.startSpan(spanKey{kind, phaseTranscribe}, SpanTranscribe, trace.SpanKindClient,
			attribute.String("audio.name", data.Source))
	}
}

// startSpan opens the span for key. A span already open under key is ended
// first; that happens only when events of one session race each other.
func (l *OTelEventListener) startSpan(key spanKey, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) {
	attrs = append(attrs, attribute.String("session.kind", key.session.String()))
	_, span := l.tracer.Start(l.parent, name, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))

	l.mu.Lock()
	prev := l.inflight[key]
	l.inflight[key] = span
	l.mu.Unlock()

	if prev != nil {
		prev.SetStatus(codes.Error, "superseded")
		prev.End()
	}
}

func (l *OTelEventListener) endSpan(key spanKey, err error, attrs ...attribute.KeyValue) {
	l.mu.Lock()
	span, ok := l.inflight[key]
	delete(l.inflight, key)
	l.mu.Unlock()
	if !ok {
		return
	}
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
