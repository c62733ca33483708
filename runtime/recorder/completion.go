package recorder

import (
	"context"
	"sync"

	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
)

// Completion is the single-shot result of Controller.Stop.
type Completion struct {
	done    chan struct{}
	once    sync.Once
	payload *audio.Payload
	err     error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

func (c *Completion) resolve(p *audio.Payload, err error) {
	c.once.Do(func() {
		c.payload, c.err = p, err
		close(c.done)
	})
}

// Done is closed once the recording has been finalized.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the recording is finalized or ctx ends. Cancelling ctx
// does not stop finalization; a later Wait still observes the result.
func (c *Completion) Wait(ctx context.Context) (*audio.Payload, error) {
	select {
	case <-c.done:
		return c.payload, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
