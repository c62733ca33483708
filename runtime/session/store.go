// Package session manages the upload and recording transcription sessions.
//
// A Store owns exactly two independent sessions. Each moves through
//
//	Idle -> Submitting -> Ready | Failed -> Idle
//
// and the recording session additionally passes through Capturing while the
// microphone is live. Every transition is checked and applied under one
// mutex, so a late completion can never move a session into a state its
// table does not allow. Transitions are published on an events.EventBus.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
	"github.com/ErVarunGupta/Streaming-App/runtime/events"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/metrics/prometheus"
	"github.com/ErVarunGupta/Streaming-App/runtime/recorder"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

const componentName = "session"

// DefaultRecordingName is the save name used for recordings.
const DefaultRecordingName = "recording_output"

var (
	// ErrAbandoned is returned by Submit and StopRecording when the request
	// was abandoned before its result arrived.
	ErrAbandoned = errors.New("transcription abandoned")

	// ErrUnknownSession is returned for a session kind the store does not own.
	ErrUnknownSession = errors.New("unknown session")
)

// Transcriber turns a payload into text and summary.
type Transcriber interface {
	Transcribe(ctx context.Context, payload *audio.Payload) (*types.TranscriptionResult, error)
}

// Saver persists a result.
type Saver interface {
	Save(ctx context.Context, name string, result types.TranscriptionResult, kind types.SessionKind) (*types.SaveAck, error)
}

// Recorder captures microphone audio for the recording session.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (*recorder.Completion, error)
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder enables StartRecording and StopRecording.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithEventBus publishes session events on bus instead of a private one.
func WithEventBus(bus *events.EventBus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithRecordingName overrides the save name for recordings.
func WithRecordingName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.recordingName = name
		}
	}
}

type session struct {
	kind     types.SessionKind
	status   Status
	result   *types.TranscriptionResult
	err      error
	source   string
	payload  *audio.Payload
	saving   bool
	starting bool
	lastSave *types.SaveAck
	// gen identifies the request in flight; Abandon bumps it so the late
	// result is recognised and dropped.
	gen uint64
}

// Store holds the upload and recording sessions.
type Store struct {
	transcriber   Transcriber
	saver         Saver
	recorder      Recorder
	bus           *events.EventBus
	recordingName string

	mu       sync.Mutex
	sessions map[types.SessionKind]*session
	seq      uint64
}

// NewStore creates a Store with both sessions Idle. Session metrics are
// recorded from the store's event bus.
func NewStore(transcriber Transcriber, saver Saver, opts ...Option) *Store {
	s := &Store{
		transcriber:   transcriber,
		saver:         saver,
		recordingName: DefaultRecordingName,
		sessions:      make(map[types.SessionKind]*session, len(types.AllSessionKinds)),
	}
	for _, kind := range types.AllSessionKinds {
		s.sessions[kind] = &session{kind: kind}
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = events.NewEventBus()
	}
	s.bus.SubscribeAll(prometheus.NewMetricsListener().Listener())
	return s
}

// Events returns the bus carrying this store's events.
func (s *Store) Events() *events.EventBus {
	return s.bus
}

// Snapshot returns a copy of one session.
func (s *Store) Snapshot(kind types.SessionKind) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[kind]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownSession, kind)
	}
	return sess.snapshot(), nil
}

// Snapshots returns a copy of every session in display order.
func (s *Store) Snapshots() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, 0, len(types.AllSessionKinds))
	for _, kind := range types.AllSessionKinds {
		out = append(out, s.sessions[kind].snapshot())
	}
	return out
}

func (sess *session) snapshot() Snapshot {
	snap := Snapshot{
		Kind:   sess.kind,
		Source: sess.source,
		Saving: sess.saving,
		State:  State{Status: sess.status, Err: sess.err},
	}
	if sess.result != nil {
		r := *sess.result
		snap.State.Result = &r
	}
	if sess.lastSave != nil {
		a := *sess.lastSave
		snap.LastSave = &a
	}
	return snap
}

// Submit transcribes payload on the given session. It is allowed only from
// Idle with no save in flight; otherwise it fails fast without any network
// call. Submit blocks until the result arrives and returns it, or the error
// the session failed with. If the request is abandoned meanwhile it returns
// ErrAbandoned.
func (s *Store) Submit(ctx context.Context, kind types.SessionKind, payload *audio.Payload) (*types.TranscriptionResult, error) {
	if payload == nil {
		return nil, pkgerrors.New(componentName, "Submit", pkgerrors.ErrNoFileSelected)
	}

	s.mu.Lock()
	sess, err := s.lookupLocked(kind, "Submit")
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := sess.requireIdle("Submit"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ev := s.beginSubmitLocked(sess, payload)
	gen := sess.gen
	s.mu.Unlock()

	s.publish(ctx, ev)
	return s.await(ctx, kind, gen, payload)
}

// Retry resubmits the payload of a Failed session. The session passes
// through Idle, so the usual Submit rules apply.
func (s *Store) Retry(ctx context.Context, kind types.SessionKind) (*types.TranscriptionResult, error) {
	s.mu.Lock()
	sess, err := s.lookupLocked(kind, "Retry")
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if sess.status != StatusFailed || sess.payload == nil || sess.saving {
		from := sess.label()
		s.mu.Unlock()
		return nil, pkgerrors.InvalidTransition(componentName, "Retry", from)
	}
	payload := sess.payload
	reset := s.transitionLocked(sess, StatusIdle, nil, nil)
	submit := s.beginSubmitLocked(sess, payload)
	gen := sess.gen
	s.mu.Unlock()

	s.publish(ctx, reset, submit)
	return s.await(ctx, kind, gen, payload)
}

// Reset discards a Ready result or a Failed error and returns to Idle.
func (s *Store) Reset(kind types.SessionKind) error {
	s.mu.Lock()
	sess, err := s.lookupLocked(kind, "Reset")
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if sess.status != StatusReady && sess.status != StatusFailed {
		from := sess.label()
		s.mu.Unlock()
		return pkgerrors.InvalidTransition(componentName, "Reset", from)
	}
	ev := s.transitionLocked(sess, StatusIdle, nil, nil)
	sess.payload = nil
	sess.source = ""
	s.mu.Unlock()

	s.publish(context.Background(), ev)
	return nil
}

// Abandon detaches a Submitting session from its request and returns it to
// Idle. The request is not cancelled; its result is discarded on arrival.
func (s *Store) Abandon(kind types.SessionKind) error {
	s.mu.Lock()
	sess, err := s.lookupLocked(kind, "Abandon")
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if sess.status != StatusSubmitting {
		from := sess.label()
		s.mu.Unlock()
		return pkgerrors.InvalidTransition(componentName, "Abandon", from)
	}
	sess.gen++
	ev := s.transitionLocked(sess, StatusIdle, nil, nil)
	sess.payload = nil
	s.mu.Unlock()

	s.publish(context.Background(), ev)
	return nil
}

// Persist saves the Ready result of a session. The session state does not
// change; failures are returned to the caller. Only one save per session may
// be in flight.
func (s *Store) Persist(ctx context.Context, kind types.SessionKind) (*types.SaveAck, error) {
	s.mu.Lock()
	sess, err := s.lookupLocked(kind, "Persist")
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if sess.status != StatusReady || sess.result == nil {
		from := sess.label()
		s.mu.Unlock()
		return nil, pkgerrors.InvalidTransition(componentName, "Persist", from)
	}
	if sess.saving {
		s.mu.Unlock()
		return nil, pkgerrors.InvalidTransition(componentName, "Persist", "saving")
	}
	sess.saving = true
	result := *sess.result
	name := s.saveNameLocked(sess)
	started := s.eventLocked(sess, events.EventSaveStarted, events.SaveStartedData{Name: name})
	s.mu.Unlock()

	s.publish(ctx, started)

	ctx = logger.WithOperation(logger.WithSessionKind(ctx, kind.String()), "persist")
	begin := time.Now()
	ack, err := s.saver.Save(ctx, name, result, kind)
	elapsed := time.Since(begin)

	s.mu.Lock()
	sess.saving = false
	var done *events.Event
	if err != nil {
		done = s.eventLocked(sess, events.EventSaveFailed, events.SaveFailedData{Name: name, Err: err, Duration: elapsed})
	} else {
		sess.lastSave = ack
		done = s.eventLocked(sess, events.EventSaveCompleted, events.SaveCompletedData{Name: name, Ack: ack, Duration: elapsed})
	}
	s.mu.Unlock()

	s.publish(ctx, done)
	if err != nil {
		logger.TranscriptionError(ctx, "persist", err)
		return nil, err
	}
	return ack, nil
}

// StartRecording acquires the microphone and moves the recording session
// from Idle to Capturing. A microphone failure moves it to Failed.
func (s *Store) StartRecording(ctx context.Context) error {
	if s.recorder == nil {
		return pkgerrors.New(componentName, "StartRecording",
			fmt.Errorf("%w: no microphone configured", pkgerrors.ErrDeviceUnavailable))
	}

	s.mu.Lock()
	sess := s.sessions[types.SessionRecording]
	if sess.starting {
		s.mu.Unlock()
		return pkgerrors.InvalidTransition(componentName, "StartRecording", "starting")
	}
	if err := sess.requireIdle("StartRecording"); err != nil {
		s.mu.Unlock()
		return err
	}
	sess.starting = true
	s.mu.Unlock()

	startErr := s.recorder.Start(ctx)

	s.mu.Lock()
	sess.starting = false
	var ev *events.Event
	if startErr != nil {
		ev = s.transitionLocked(sess, StatusFailed, nil, startErr)
	} else {
		sess.source = ""
		sess.payload = nil
		ev = s.transitionLocked(sess, StatusCapturing, nil, nil)
	}
	s.mu.Unlock()

	s.publish(ctx, ev)
	return startErr
}

// StopRecording stops capture, waits for the recording to be finalized and
// submits it. The session stays Capturing until the payload is assembled,
// then moves to Submitting and on to Ready or Failed. Finalization is not
// interrupted by ctx; the transcription request is.
func (s *Store) StopRecording(ctx context.Context) (*types.TranscriptionResult, error) {
	if s.recorder == nil {
		return nil, pkgerrors.New(componentName, "StopRecording",
			fmt.Errorf("%w: no microphone configured", pkgerrors.ErrDeviceUnavailable))
	}

	s.mu.Lock()
	sess := s.sessions[types.SessionRecording]
	if sess.status != StatusCapturing {
		from := sess.label()
		s.mu.Unlock()
		return nil, pkgerrors.InvalidTransition(componentName, "StopRecording", from)
	}
	comp, err := s.recorder.Stop()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	payload, finalizeErr := comp.Wait(context.Background())

	s.mu.Lock()
	if sess.status != StatusCapturing {
		from := sess.label()
		s.mu.Unlock()
		return nil, pkgerrors.InvalidTransition(componentName, "StopRecording", from)
	}
	if finalizeErr != nil {
		ev := s.transitionLocked(sess, StatusFailed, nil, finalizeErr)
		s.mu.Unlock()
		s.publish(ctx, ev)
		return nil, finalizeErr
	}
	ev := s.beginSubmitLocked(sess, payload)
	gen := sess.gen
	s.mu.Unlock()

	s.publish(ctx, ev)
	return s.await(ctx, types.SessionRecording, gen, payload)
}

// CaptureLost moves a Capturing recording session to Failed. Wire it to
// the recorder's capture error callback.
func (s *Store) CaptureLost(err error) {
	s.mu.Lock()
	sess := s.sessions[types.SessionRecording]
	if sess.status != StatusCapturing {
		s.mu.Unlock()
		logger.Debug("Capture error outside capture ignored", "error", err, "status", sess.status.String())
		return
	}
	ev := s.transitionLocked(sess, StatusFailed, nil, err)
	s.mu.Unlock()

	s.publish(context.Background(), ev)
}

// await runs the transcription for request gen and applies its outcome,
// unless the request was abandoned meanwhile.
func (s *Store) await(
	ctx context.Context, kind types.SessionKind, gen uint64, payload *audio.Payload,
) (*types.TranscriptionResult, error) {
	ctx = logger.WithOperation(logger.WithSessionKind(ctx, kind.String()), "submit")
	result, err := s.transcriber.Transcribe(ctx, payload)
	if err == nil && result == nil {
		err = pkgerrors.Malformed(componentName, "Submit", errors.New("transcriber returned no result"))
	}

	s.mu.Lock()
	sess := s.sessions[kind]
	if sess.gen != gen || sess.status != StatusSubmitting {
		ev := s.eventLocked(sess, events.EventResultDiscarded, events.ResultDiscardedData{Source: payload.Name(), Err: err})
		s.mu.Unlock()
		s.publish(ctx, ev)
		return nil, ErrAbandoned
	}
	var ev *events.Event
	if err != nil {
		ev = s.transitionLocked(sess, StatusFailed, nil, err)
	} else {
		r := *result
		ev = s.transitionLocked(sess, StatusReady, &r, nil)
	}
	s.mu.Unlock()

	s.publish(ctx, ev)
	if err != nil {
		return nil, err
	}
	r := *result
	return &r, nil
}

func (s *Store) lookupLocked(kind types.SessionKind, op string) (*session, error) {
	sess, ok := s.sessions[kind]
	if !ok {
		return nil, pkgerrors.New(componentName, op, fmt.Errorf("%w: %q", ErrUnknownSession, kind))
	}
	return sess, nil
}

// requireIdle rejects anything but an Idle session with no save in flight.
func (sess *session) requireIdle(op string) error {
	if sess.status != StatusIdle || sess.saving {
		return pkgerrors.InvalidTransition(componentName, op, sess.label())
	}
	return nil
}

// label names the session position for errors, including an in-flight save.
func (sess *session) label() string {
	if sess.saving {
		return sess.status.String() + "+saving"
	}
	return sess.status.String()
}

func (s *Store) beginSubmitLocked(sess *session, payload *audio.Payload) *events.Event {
	sess.gen++
	sess.payload = payload
	sess.source = payload.Name()
	return s.transitionLocked(sess, StatusSubmitting, nil, nil)
}

func (s *Store) saveNameLocked(sess *session) string {
	if sess.kind == types.SessionRecording {
		return s.recordingName
	}
	return sess.source
}

// transitionLocked applies a state change and returns its event.
func (s *Store) transitionLocked(sess *session, to Status, result *types.TranscriptionResult, err error) *events.Event {
	from := sess.status
	sess.status = to
	sess.result = result
	sess.err = err

	data := events.StateChangedData{From: from.String(), To: to.String(), Source: sess.source, Err: err}
	if result != nil {
		r := *result
		data.Result = &r
	}
	return s.eventLocked(sess, events.EventStateChanged, data)
}

func (s *Store) eventLocked(sess *session, typ events.EventType, data events.EventData) *events.Event {
	s.seq++
	return &events.Event{
		Type:      typ,
		Timestamp: time.Now(),
		Session:   sess.kind,
		Seq:       s.seq,
		Data:      data,
	}
}

// publish delivers events outside the store lock so listeners may read snapshots.
func (s *Store) publish(ctx context.Context, evs ...*events.Event) {
	for _, ev := range evs {
		if data, ok := ev.Data.(events.StateChangedData); ok {
			logger.StateTransition(ctx, ev.Session.String(), data.From, data.To, "seq", ev.Seq)
		}
		s.bus.Publish(ev)
	}
}
