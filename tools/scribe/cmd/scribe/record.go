package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ErVarunGupta/Streaming-App/runtime/events"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

const flagDuration = "duration"

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone, then transcribe and summarize",
	Long: `Record from the default microphone until Enter is pressed or --duration
elapses, then send the recording for transcription.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		save, _ := cmd.Flags().GetBool(flagSave)
		duration, _ := cmd.Flags().GetDuration(flagDuration)
		return runRecord(cmd.Context(), cmd, save, duration)
	},
}

func init() {
	recordCmd.Flags().Bool(flagSave, false, "save the result after transcription")
	recordCmd.Flags().Duration(flagDuration, 0, "stop automatically after this long (0 waits for Enter)")
}

var errCaptureLost = errors.New("recording stopped unexpectedly")

func runRecord(parent context.Context, cmd *cobra.Command, save bool, duration time.Duration) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	a, err := newApp(ctx, settings, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	failed := make(chan struct{}, 1)
	unsubscribe := a.bus.Subscribe(events.EventStateChanged, func(evt *events.Event) {
		if data, ok := evt.Data.(events.StateChangedData); ok &&
			evt.Session == types.SessionRecording && data.To == "failed" {
			select {
			case failed <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	if err := a.store.StartRecording(ctx); err != nil {
		return a.render.reported(err)
	}

	if err := waitForStop(ctx, cmd.InOrStdin(), duration, failed); err != nil {
		return a.render.reported(err)
	}

	// Finalization and the request run to completion even after Ctrl-C.
	if _, err := a.store.StopRecording(context.WithoutCancel(ctx)); err != nil {
		return a.render.reported(err)
	}
	if save {
		if _, err := a.store.Persist(ctx, types.SessionRecording); err != nil {
			return a.render.reported(err)
		}
	}
	return nil
}

// waitForStop returns when the user presses Enter, duration elapses or ctx
// is cancelled. It fails if capture ends on its own.
func waitForStop(ctx context.Context, in io.Reader, duration time.Duration, failed <-chan struct{}) error {
	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(in).ReadString('\n')
		close(enter)
	}()

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-enter:
	case <-timeout:
	case <-ctx.Done():
	case <-failed:
		return errCaptureLost
	}
	return nil
}
