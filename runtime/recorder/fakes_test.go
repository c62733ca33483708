package recorder_test

import (
	"context"
	"errors"
	"sync"

	"github.com/ErVarunGupta/Streaming-App/runtime/recorder"
)

// fakeStream is a controllable capture stream.
type fakeStream struct {
	chunks    chan []byte
	closeOnce sync.Once

	mu       sync.Mutex
	stopped  bool
	closed   int
	err      error
	stopErr  error
	pending  [][]byte // flushed on Stop
	closedCh chan struct{}
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		chunks:   make(chan []byte, 64),
		closedCh: make(chan struct{}),
	}
}

func (s *fakeStream) Chunks() <-chan []byte { return s.chunks }

func (s *fakeStream) send(chunk []byte) { s.chunks <- chunk }

func (s *fakeStream) endChannel() {
	s.closeOnce.Do(func() { close(s.chunks) })
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	s.stopped = true
	pending, stopErr := s.pending, s.stopErr
	s.mu.Unlock()
	if stopErr != nil {
		return stopErr
	}
	for _, p := range pending {
		s.chunks <- p
	}
	s.endChannel()
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed++
	first := s.closed == 1
	s.mu.Unlock()
	s.endChannel()
	if first {
		close(s.closedCh)
	}
	return nil
}

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// fail ends capture without Stop, as a lost device would.
func (s *fakeStream) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.endChannel()
}

func (s *fakeStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeMicrophone hands out pre-built streams, or fails with openErr.
type fakeMicrophone struct {
	mu      sync.Mutex
	streams []*fakeStream
	openErr error
	opens   int
	gate    chan struct{} // when set, Open blocks until closed
}

func (m *fakeMicrophone) Open(ctx context.Context) (recorder.Stream, error) {
	m.mu.Lock()
	m.opens++
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	if len(m.streams) == 0 {
		return nil, errors.New("no stream configured")
	}
	s := m.streams[0]
	m.streams = m.streams[1:]
	return s, nil
}
