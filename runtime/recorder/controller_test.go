package recorder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
	"github.com/ErVarunGupta/Streaming-App/runtime/recorder"
)

func waitCompletion(t *testing.T, comp *recorder.Completion) (*audio.Payload, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p, err := comp.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "completion never resolved")
	return p, err
}

func TestController_RecordsChunksInOrder(t *testing.T) {
	stream := newFakeStream()
	stream.pending = [][]byte{[]byte("-tail")}
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{stream}})

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, recorder.StateCapturing, c.State())

	chunks := []string{"alpha", "-beta", "-gamma"}
	want := 0
	for _, ch := range chunks {
		stream.send([]byte(ch))
		want += len(ch)
	}
	want += len("-tail")

	comp, err := c.Stop()
	require.NoError(t, err)

	p, err := waitCompletion(t, comp)
	require.NoError(t, err)
	data, err := p.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, "alpha-beta-gamma-tail", string(data))
	assert.Len(t, data, want)
	assert.Equal(t, recorder.DefaultMIMEType, p.MIMEType())
	assert.Equal(t, recorder.DefaultFileName, p.Name())
	assert.Equal(t, recorder.StateIdle, c.State())
	assert.Zero(t, c.Buffered())
	assert.True(t, stream.closeCount() >= 1, "stream must be released")
}

func TestController_StopRequiresCapturing(t *testing.T) {
	c := recorder.NewController(&fakeMicrophone{})

	comp, err := c.Stop()
	assert.Nil(t, comp)
	require.ErrorIs(t, err, pkgerrors.ErrInvalidStateTransition)
	assert.Equal(t, pkgerrors.KindInvalidStateTransition, pkgerrors.KindOf(err))
}

func TestController_DoubleStartRejected(t *testing.T) {
	stream := newFakeStream()
	mic := &fakeMicrophone{streams: []*fakeStream{stream}}
	c := recorder.NewController(mic)

	require.NoError(t, c.Start(context.Background()))
	err := c.Start(context.Background())
	require.ErrorIs(t, err, pkgerrors.ErrInvalidStateTransition)
	assert.Equal(t, 1, mic.opens, "second Start must not touch the device")

	comp, err := c.Stop()
	require.NoError(t, err)
	_, err = waitCompletion(t, comp)
	require.NoError(t, err)
}

func TestController_StartWhileAcquiringRejected(t *testing.T) {
	stream := newFakeStream()
	gate := make(chan struct{})
	mic := &fakeMicrophone{streams: []*fakeStream{stream}, gate: gate}
	c := recorder.NewController(mic)

	firstErr := make(chan error, 1)
	go func() { firstErr <- c.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		mic.mu.Lock()
		defer mic.mu.Unlock()
		return mic.opens == 1
	}, time.Second, 5*time.Millisecond)

	err := c.Start(context.Background())
	require.ErrorIs(t, err, pkgerrors.ErrInvalidStateTransition)

	close(gate)
	require.NoError(t, <-firstErr)
	assert.Equal(t, recorder.StateCapturing, c.State())
}

func TestController_StopWhileFinalizingRejected(t *testing.T) {
	stream := newFakeStream()
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{stream}})
	require.NoError(t, c.Start(context.Background()))

	comp, err := c.Stop()
	require.NoError(t, err)
	_, err = c.Stop()
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidStateTransition)

	_, err = waitCompletion(t, comp)
	require.NoError(t, err)
}

func TestController_OpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
		want    error
	}{
		{"permission", pkgerrors.ErrPermissionDenied, pkgerrors.ErrPermissionDenied},
		{"device", pkgerrors.ErrDeviceUnavailable, pkgerrors.ErrDeviceUnavailable},
		{"unclassified", errors.New("no such device"), pkgerrors.ErrDeviceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := recorder.NewController(&fakeMicrophone{openErr: tt.openErr})
			err := c.Start(context.Background())
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, recorder.StateIdle, c.State())
		})
	}
}

func TestController_CaptureLostReleasesStream(t *testing.T) {
	stream := newFakeStream()
	lost := make(chan error, 1)
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{stream}},
		recorder.OnCaptureError(func(err error) { lost <- err }))

	require.NoError(t, c.Start(context.Background()))
	stream.send([]byte("partial"))
	stream.fail(pkgerrors.ErrPermissionDenied)

	select {
	case err := <-lost:
		assert.ErrorIs(t, err, pkgerrors.ErrPermissionDenied)
	case <-time.After(2 * time.Second):
		t.Fatal("capture error not reported")
	}
	<-stream.closedCh
	assert.Equal(t, recorder.StateIdle, c.State())
	assert.Zero(t, c.Buffered())

	_, err := c.Stop()
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidStateTransition)
}

func TestController_CaptureEndsWithoutError(t *testing.T) {
	stream := newFakeStream()
	lost := make(chan error, 1)
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{stream}},
		recorder.OnCaptureError(func(err error) { lost <- err }))

	require.NoError(t, c.Start(context.Background()))
	stream.endChannel()

	select {
	case err := <-lost:
		assert.ErrorIs(t, err, pkgerrors.ErrDeviceUnavailable)
	case <-time.After(2 * time.Second):
		t.Fatal("capture end not reported")
	}
}

func TestController_StopFailureReleasesStream(t *testing.T) {
	stream := newFakeStream()
	stream.stopErr = errors.New("device gone")
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{stream}})

	require.NoError(t, c.Start(context.Background()))
	comp, err := c.Stop()
	require.NoError(t, err)

	p, err := waitCompletion(t, comp)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, pkgerrors.ErrDeviceUnavailable)
	assert.Equal(t, recorder.StateIdle, c.State())
	assert.True(t, stream.closeCount() >= 1)
}

func TestController_RestartAfterStop(t *testing.T) {
	first, second := newFakeStream(), newFakeStream()
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{first, second}})

	require.NoError(t, c.Start(context.Background()))
	first.send([]byte("one"))
	comp, err := c.Stop()
	require.NoError(t, err)
	p, err := waitCompletion(t, comp)
	require.NoError(t, err)
	data, _ := p.ReadAll()
	assert.Equal(t, "one", string(data))

	require.NoError(t, c.Start(context.Background()))
	second.send([]byte("two"))
	comp, err = c.Stop()
	require.NoError(t, err)
	p, err = waitCompletion(t, comp)
	require.NoError(t, err)
	data, _ = p.ReadAll()
	assert.Equal(t, "two", string(data), "buffer must not leak between recordings")
}

func TestController_Options(t *testing.T) {
	stream := newFakeStream()
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{stream}},
		recorder.WithMIMEType("audio/ogg"),
		recorder.WithFileName("take.ogg"))

	require.NoError(t, c.Start(context.Background()))
	stream.send([]byte("x"))
	comp, err := c.Stop()
	require.NoError(t, err)
	p, err := waitCompletion(t, comp)
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", p.MIMEType())
	assert.Equal(t, "take.ogg", p.Name())
}

func TestController_WAVEncoder(t *testing.T) {
	stream := newFakeStream()
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{stream}},
		recorder.WithEncoder(recorder.WAVEncoder{SampleRate: 16000, Channels: 1}))

	require.NoError(t, c.Start(context.Background()))
	stream.send(make([]byte, 320))
	comp, err := c.Stop()
	require.NoError(t, err)

	p, err := waitCompletion(t, comp)
	require.NoError(t, err)
	data, _ := p.ReadAll()
	assert.Equal(t, audio.MIMETypeWAV, p.MIMEType())
	assert.Equal(t, "record.wav", p.Name())
	assert.Len(t, data, 44+320)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func TestController_EncoderError(t *testing.T) {
	stream := newFakeStream()
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{stream}},
		recorder.WithEncoder(recorder.WAVEncoder{}))

	require.NoError(t, c.Start(context.Background()))
	comp, err := c.Stop()
	require.NoError(t, err)
	_, err = waitCompletion(t, comp)
	assert.Error(t, err)
	assert.Equal(t, recorder.StateIdle, c.State())
}

func TestCompletion_WaitHonoursContext(t *testing.T) {
	stream := newFakeStream()
	c := recorder.NewController(&fakeMicrophone{streams: []*fakeStream{stream}})
	require.NoError(t, c.Start(context.Background()))

	comp, err := c.Stop()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	select {
	case <-comp.Done():
		// Already finalized; nothing to assert about cancellation.
	default:
		_, err = comp.Wait(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	}

	_, err = waitCompletion(t, comp)
	assert.NoError(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", recorder.StateIdle.String())
	assert.Equal(t, "capturing", recorder.StateCapturing.String())
	assert.Equal(t, "finalizing", recorder.StateFinalizing.String())
	assert.Equal(t, "state(9)", recorder.State(9).String())
}
