//go:build !portaudio

package recorder

import (
	"context"
	"fmt"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
)

// DefaultSampleRate is the capture rate used for PCM microphones.
const DefaultSampleRate = 16000

// NewDefaultMicrophone returns the platform microphone. This build has no
// audio backend, so Open always fails with DeviceUnavailable.
func NewDefaultMicrophone(sampleRate int) (Microphone, error) {
	return MicrophoneFunc(func(context.Context) (Stream, error) {
		return nil, fmt.Errorf("%w: built without portaudio support", pkgerrors.ErrDeviceUnavailable)
	}), nil
}

// DefaultEncoder returns the encoder matching NewDefaultMicrophone's output,
// or nil when capture is already in a container format.
func DefaultEncoder(sampleRate int) Encoder {
	return nil
}
