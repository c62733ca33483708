package recorder

import (
	"context"
	"fmt"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
)

// Microphone acquires capture streams. Open should fail with an error matching
// ErrPermissionDenied or ErrDeviceUnavailable when the device cannot be used.
type Microphone interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open capture stream.
type Stream interface {
	// Chunks delivers audio in arrival order and is closed when capture ends,
	// after Stop has flushed the final chunk or when the device is lost.
	Chunks() <-chan []byte
	// Stop ends capture and flushes buffered audio.
	Stop() error
	// Close releases the device and closes Chunks if still open. It is
	// idempotent.
	Close() error
	// Err reports why capture ended. It is nil after a normal Stop.
	Err() error
}

// MicrophoneFunc adapts a function to the Microphone interface.
type MicrophoneFunc func(ctx context.Context) (Stream, error)

// Open calls f(ctx).
func (f MicrophoneFunc) Open(ctx context.Context) (Stream, error) {
	return f(ctx)
}

// Encoder turns the concatenated capture into the submitted payload format.
type Encoder interface {
	Encode(data []byte) (encoded []byte, mimeType, name string, err error)
}

// WAVEncoder wraps raw PCM16 capture in a WAV container.
type WAVEncoder struct {
	SampleRate int
	Channels   int
}

const (
	wavFileName      = "record.wav"
	pcmBitsPerSample = 16
)

// Encode implements Encoder.
func (e WAVEncoder) Encode(data []byte) ([]byte, string, string, error) {
	if e.SampleRate <= 0 || e.Channels <= 0 {
		return nil, "", "", fmt.Errorf("invalid WAV format: %d Hz, %d channels", e.SampleRate, e.Channels)
	}
	if audio.IsSilent(data) {
		logger.Warn("Recording contains only silence", "bytes", len(data), "level", audio.Level(data))
	}
	return audio.WrapPCMAsWAV(data, e.SampleRate, e.Channels, pcmBitsPerSample), audio.MIMETypeWAV, wavFileName, nil
}

// classifyOpenError maps a microphone failure onto the error taxonomy.
// Errors already classified pass through unchanged.
func classifyOpenError(err error) error {
	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindPermissionDenied, pkgerrors.KindDeviceUnavailable:
		return pkgerrors.New(componentName, "Start", err)
	default:
		return pkgerrors.New(componentName, "Start", fmt.Errorf("%w: %w", pkgerrors.ErrDeviceUnavailable, err))
	}
}

// classifyCaptureError maps an unexpected end of capture onto the taxonomy.
func classifyCaptureError(err error) error {
	if err == nil {
		return pkgerrors.New(componentName, "Capture",
			fmt.Errorf("%w: capture ended unexpectedly", pkgerrors.ErrDeviceUnavailable))
	}
	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindPermissionDenied, pkgerrors.KindDeviceUnavailable:
		return pkgerrors.New(componentName, "Capture", err)
	default:
		return pkgerrors.New(componentName, "Capture", fmt.Errorf("%w: %w", pkgerrors.ErrDeviceUnavailable, err))
	}
}
