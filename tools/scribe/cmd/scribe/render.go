package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/runtime/events"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

const (
	colorPrimary = "#7C3AED"
	colorSuccess = "#10B981"
	colorError   = "#EF4444"
	colorInfo    = "#3B82F6"
	colorGray    = "#6B7280"

	boxPaddingVertical   = 0
	boxPaddingHorizontal = 1
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorPrimary))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess)).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorInfo))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorPrimary)).
			Padding(boxPaddingVertical, boxPaddingHorizontal)
)

// renderer prints session events as they happen.
type renderer struct {
	mu       sync.Mutex
	out      io.Writer
	failures int
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

// Handle renders one event. It is an events.Listener.
func (r *renderer) Handle(evt *events.Event) {
	var line string
	switch data := evt.Data.(type) {
	case events.StateChangedData:
		line = r.transition(evt.Session, data)
	case events.SaveStartedData:
		line = infoStyle.Render(fmt.Sprintf("Saving %s...", data.Name))
	case events.SaveCompletedData:
		msg := "Output saved successfully!"
		if data.Ack != nil && data.Ack.Message != "" {
			msg = data.Ack.Message
		}
		line = successStyle.Render(msg)
	case events.SaveFailedData:
		line = errorStyle.Render("Failed to save: " + describeError(data.Err))
	case events.ResultDiscardedData:
		line = subtleStyle.Render("Discarded a late result for " + data.Source)
	}
	if line == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if isFailure(evt) {
		r.failures++
	}
	_, _ = fmt.Fprintln(r.out, line)
}

func isFailure(evt *events.Event) bool {
	switch data := evt.Data.(type) {
	case events.StateChangedData:
		return data.To == "failed"
	case events.SaveFailedData:
		return true
	}
	return false
}

// reported wraps err when the renderer has already shown a failure, so main
// does not print it a second time.
func (r *renderer) reported(err error) error {
	if err == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures == 0 {
		return err
	}
	return &reportedError{err: err}
}

type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func (r *renderer) transition(kind types.SessionKind, data events.StateChangedData) string {
	switch data.To {
	case "capturing":
		return infoStyle.Render("Recording... press Enter to stop.")
	case "submitting":
		return infoStyle.Render(fmt.Sprintf("Transcribing %s...", displayName(kind, data.Source)))
	case "ready":
		if data.Result == nil {
			return ""
		}
		return renderResult(*data.Result)
	case "failed":
		return errorStyle.Render("Error: " + describeError(data.Err))
	}
	return ""
}

func displayName(kind types.SessionKind, source string) string {
	if source != "" {
		return source
	}
	return kind.String()
}

func renderResult(result types.TranscriptionResult) string {
	text := strings.TrimSpace(result.Text)
	if text == "" {
		text = subtleStyle.Render("(no speech detected)")
	}
	summary := strings.TrimSpace(result.Summary)
	if summary == "" {
		summary = subtleStyle.Render("(none)")
	}
	body := titleStyle.Render("Transcribed Text") + "\n" + text + "\n\n" +
		titleStyle.Render("Summary") + "\n" + summary
	return boxStyle.Render(body)
}

// describeError turns an error into a message for the user.
func describeError(err error) string {
	if err == nil {
		return "unknown error"
	}
	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindNoFileSelected:
		return "please choose an audio file"
	case pkgerrors.KindPermissionDenied:
		return "microphone access was denied"
	case pkgerrors.KindDeviceUnavailable:
		return "no microphone is available"
	case pkgerrors.KindInvalidStateTransition:
		return "that action is not available right now"
	case pkgerrors.KindNetwork:
		return "could not reach the transcription service"
	case pkgerrors.KindServer:
		var ce *pkgerrors.ContextualError
		if errors.As(err, &ce) && ce.StatusCode != 0 {
			return fmt.Sprintf("the service returned an error (HTTP %d)", ce.StatusCode)
		}
		return "the service returned an error"
	case pkgerrors.KindMalformedResponse:
		return "the service sent an unexpected response"
	default:
		return err.Error()
	}
}
