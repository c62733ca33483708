//go:build portaudio

package recorder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
)

const (
	// DefaultSampleRate is the capture rate used for PCM microphones (16kHz for speech).
	DefaultSampleRate = 16000
	channels          = 1
	// framesPerBuffer is 100ms of audio at 16kHz.
	framesPerBuffer = 1600
	chunkQueueSize  = 64
	maxReadFailures = 10
)

// PortAudioMicrophone captures mono PCM16 from the default input device.
type PortAudioMicrophone struct {
	sampleRate int
}

// NewDefaultMicrophone initializes PortAudio and returns the default input device.
func NewDefaultMicrophone(sampleRate int) (Microphone, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize PortAudio: %w", pkgerrors.ErrDeviceUnavailable, err)
	}
	return &PortAudioMicrophone{sampleRate: sampleRate}, nil
}

// DefaultEncoder wraps the raw PCM capture as WAV.
func DefaultEncoder(sampleRate int) Encoder {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return WAVEncoder{SampleRate: sampleRate, Channels: channels}
}

// Terminate releases PortAudio. Call once when no more streams will be opened.
func (m *PortAudioMicrophone) Terminate() error {
	return portaudio.Terminate()
}

// Open implements Microphone.
func (m *PortAudioMicrophone) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(m.sampleRate), len(in), in)
	if err != nil {
		return nil, classifyPortAudioError("failed to open input stream", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, classifyPortAudioError("failed to start input stream", err)
	}

	s := &portAudioStream{
		stream: stream,
		in:     in,
		chunks: make(chan []byte, chunkQueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.captureLoop()
	logger.Debug("PortAudio stream opened", "sample_rate", m.sampleRate, "frames_per_buffer", framesPerBuffer)
	return s, nil
}

func classifyPortAudioError(msg string, err error) error {
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "permission") || strings.Contains(lower, "denied") {
		return fmt.Errorf("%w: %s: %w", pkgerrors.ErrPermissionDenied, msg, err)
	}
	return fmt.Errorf("%w: %s: %w", pkgerrors.ErrDeviceUnavailable, msg, err)
}

type portAudioStream struct {
	stream *portaudio.Stream
	in     []int16
	chunks chan []byte
	stop   chan struct{}
	done   chan struct{}

	stopOnce  sync.Once
	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

func (s *portAudioStream) Chunks() <-chan []byte { return s.chunks }

func (s *portAudioStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// captureLoop reads frames until stopped or the device fails repeatedly.
func (s *portAudioStream) captureLoop() {
	defer close(s.done)
	defer close(s.chunks)

	failures := 0
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			failures++
			if failures >= maxReadFailures {
				s.mu.Lock()
				s.err = classifyPortAudioError("input stream failed", err)
				s.mu.Unlock()
				return
			}
			continue
		}
		failures = 0

		select {
		case s.chunks <- int16ToBytes(s.in):
		case <-s.stop:
			return
		}
	}
}

// Stop ends the capture loop after the frame in progress; every frame read
// before Stop has been delivered once Chunks is closed.
func (s *portAudioStream) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		err = s.stream.Stop()
	})
	return err
}

func (s *portAudioStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.stopOnce.Do(func() {
			close(s.stop)
			<-s.done
			_ = s.stream.Stop()
		})
		err = s.stream.Close()
	})
	return err
}

// int16ToBytes converts samples to PCM16 little-endian bytes.
func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		// #nosec G115 -- reinterpreting signed PCM as unsigned bits
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}
