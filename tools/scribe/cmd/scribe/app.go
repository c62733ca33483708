package main

import (
	"context"
	"io"

	"github.com/ErVarunGupta/Streaming-App/pkg/config"
	"github.com/ErVarunGupta/Streaming-App/runtime/events"
	"github.com/ErVarunGupta/Streaming-App/runtime/persistence"
	"github.com/ErVarunGupta/Streaming-App/runtime/recorder"
	"github.com/ErVarunGupta/Streaming-App/runtime/session"
	"github.com/ErVarunGupta/Streaming-App/runtime/stt"
	"github.com/ErVarunGupta/Streaming-App/runtime/telemetry"
)

// app is the client side: a session store wired to the endpoints, the
// microphone and a renderer.
type app struct {
	store    *session.Store
	bus      *events.EventBus
	spans    *telemetry.OTelEventListener
	render   *renderer
	shutdown func(context.Context) error
}

// newApp builds the client from cfg. Output is rendered to out.
func newApp(ctx context.Context, cfg *config.ScribeConfig, out io.Writer) (*app, error) {
	shutdown, err := telemetry.Setup(ctx, cfg.Spec.Tracing.Endpoint, cfg.Spec.Tracing.ServiceName)
	if err != nil {
		return nil, err
	}

	transcriber := stt.NewClient(cfg.Spec.Endpoints.TranscriptionURL,
		stt.WithTimeout(cfg.Spec.Endpoints.TranscribeTimeout))
	saver := persistence.NewClient(cfg.SaveURL(),
		persistence.WithTimeout(cfg.Spec.Endpoints.SaveTimeout))

	rec := cfg.Spec.Recording
	mic, err := recorder.NewDefaultMicrophone(rec.SampleRate)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	bus := events.NewEventBus()
	var store *session.Store
	opts := []recorder.Option{
		recorder.WithMIMEType(rec.MIMEType),
		recorder.WithFileName(rec.FileName),
		recorder.OnCaptureError(func(err error) { store.CaptureLost(err) }),
	}
	if enc := recorder.DefaultEncoder(rec.SampleRate); enc != nil {
		opts = append(opts, recorder.WithEncoder(enc))
	}
	ctrl := recorder.NewController(mic, opts...)

	store = session.NewStore(transcriber, saver,
		session.WithRecorder(ctrl),
		session.WithEventBus(bus),
		session.WithRecordingName(rec.SaveName))

	spans := telemetry.NewOTelEventListener(ctx, telemetry.Tracer(nil))
	bus.SubscribeAll(spans.Listener())
	render := newRenderer(out)
	bus.SubscribeAll(render.Handle)

	return &app{store: store, bus: bus, spans: spans, render: render, shutdown: shutdown}, nil
}

// Close ends open spans and flushes the tracer.
func (a *app) Close(ctx context.Context) error {
	a.spans.Close()
	return a.shutdown(ctx)
}
