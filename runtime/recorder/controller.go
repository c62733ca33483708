package recorder

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/metrics/prometheus"
)

const componentName = "recorder"

// Default payload identity for recordings.
const (
	DefaultMIMEType = audio.MIMETypeWebM
	DefaultFileName = "record.webm"
)

// State is the controller lifecycle state.
type State int

// Controller states.
const (
	StateIdle State = iota
	StateCapturing
	StateFinalizing
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithMIMEType sets the MIME type of finalized payloads.
func WithMIMEType(mimeType string) Option {
	return func(c *Controller) {
		if mimeType != "" {
			c.mimeType = mimeType
		}
	}
}

// WithFileName sets the file name of finalized payloads.
func WithFileName(name string) Option {
	return func(c *Controller) {
		if name != "" {
			c.fileName = name
		}
	}
}

// WithEncoder applies enc to the concatenated capture. The encoder's MIME
// type and name replace the configured ones.
func WithEncoder(enc Encoder) Option {
	return func(c *Controller) { c.encoder = enc }
}

// OnCaptureError registers fn to be called when capture ends without Stop.
// fn runs on the capture goroutine after the controller is back to Idle.
func OnCaptureError(fn func(error)) Option {
	return func(c *Controller) { c.onCaptureError = fn }
}

// Controller records from a Microphone into a Buffer.
type Controller struct {
	mic            Microphone
	mimeType       string
	fileName       string
	encoder        Encoder
	onCaptureError func(error)

	buf *audio.Buffer

	mu       sync.Mutex
	state    State
	opening  bool
	stream   Stream
	pumpDone chan struct{}
	gen      uint64
}

// NewController creates a Controller reading from mic.
func NewController(mic Microphone, opts ...Option) *Controller {
	c := &Controller{
		mic:      mic,
		mimeType: DefaultMIMEType,
		fileName: DefaultFileName,
		buf:      audio.NewBuffer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state. A Start still acquiring the device reports Idle.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Buffered returns the number of bytes captured so far.
func (c *Controller) Buffered() int {
	return c.buf.Size()
}

// Start acquires the microphone and begins capture. It is allowed only from
// Idle, and not while another Start is still acquiring the device.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle || c.opening {
		from := c.state.String()
		if c.opening {
			from = "starting"
		}
		c.mu.Unlock()
		return pkgerrors.InvalidTransition(componentName, "Start", from)
	}
	c.opening = true
	c.mu.Unlock()

	stream, err := c.mic.Open(ctx)

	c.mu.Lock()
	c.opening = false
	if err != nil {
		c.mu.Unlock()
		err = classifyOpenError(err)
		logger.WarnContext(ctx, "Microphone unavailable", "error", err)
		return err
	}
	c.buf.Reset()
	c.gen++
	gen := c.gen
	done := make(chan struct{})
	c.state = StateCapturing
	c.stream = stream
	c.pumpDone = done
	c.mu.Unlock()

	logger.DebugContext(ctx, "Recording started")
	go c.pump(stream, gen, done)
	return nil
}

// pump appends chunks until the stream closes its channel. If that happens
// while still Capturing, the capture ended on its own.
func (c *Controller) pump(stream Stream, gen uint64, done chan struct{}) {
	defer close(done)
	for chunk := range stream.Chunks() {
		c.buf.Append(chunk)
	}

	c.mu.Lock()
	if c.gen != gen || c.state != StateCapturing {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.stream = nil
	c.buf.Reset()
	c.mu.Unlock()

	if err := stream.Close(); err != nil {
		logger.Warn("Failed to release microphone", "error", err)
	}
	err := classifyCaptureError(stream.Err())
	logger.Warn("Recording ended unexpectedly", "error", err)
	if c.onCaptureError != nil {
		c.onCaptureError(err)
	}
}

// Stop ends capture. It is allowed only while Capturing. The returned
// Completion resolves once every chunk has been drained into one payload;
// by then the buffer is empty and the controller is Idle again.
func (c *Controller) Stop() (*Completion, error) {
	c.mu.Lock()
	if c.state != StateCapturing {
		from := c.state.String()
		c.mu.Unlock()
		return nil, pkgerrors.InvalidTransition(componentName, "Stop", from)
	}
	c.state = StateFinalizing
	stream, done := c.stream, c.pumpDone
	c.mu.Unlock()

	comp := newCompletion()
	go c.finalize(stream, done, comp)
	return comp, nil
}

func (c *Controller) finalize(stream Stream, done <-chan struct{}, comp *Completion) {
	stopErr := stream.Stop()
	if stopErr != nil {
		// Close ends Chunks so the pump can finish.
		_ = stream.Close()
	}
	<-done
	if err := stream.Close(); err != nil {
		logger.Debug("Microphone close after stop", "error", err)
	}
	data := c.buf.Drain()

	c.mu.Lock()
	c.state = StateIdle
	c.stream = nil
	c.mu.Unlock()

	if stopErr != nil {
		comp.resolve(nil, pkgerrors.New(componentName, "Stop", fmt.Errorf("%w: %w", pkgerrors.ErrDeviceUnavailable, stopErr)))
		return
	}

	mimeType, name := c.mimeType, c.fileName
	if c.encoder != nil {
		encoded, encMIME, encName, err := c.encoder.Encode(data)
		if err != nil {
			comp.resolve(nil, pkgerrors.New(componentName, "Encode", err))
			return
		}
		data, mimeType, name = encoded, encMIME, encName
	}

	prometheus.RecordRecording(len(data))
	logger.Debug("Recording finalized", "bytes", len(data), "mime_type", mimeType)
	comp.resolve(audio.FromBytes(name, mimeType, data), nil)
}
