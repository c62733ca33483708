// Package types holds the data shared by the transport, session and server packages.
package types

import "fmt"

// SessionKind identifies one of the two independent capture lifecycles.
// Its string form is the "type" field of a save request.
type SessionKind string

// Session kinds.
const (
	SessionUpload    SessionKind = "upload"
	SessionRecording SessionKind = "recording"
)

// AllSessionKinds lists every session kind in display order.
var AllSessionKinds = []SessionKind{SessionUpload, SessionRecording}

// String implements fmt.Stringer.
func (k SessionKind) String() string {
	return string(k)
}

// Valid reports whether k is a known session kind.
func (k SessionKind) Valid() bool {
	return k == SessionUpload || k == SessionRecording
}

// ParseSessionKind converts a wire value to a SessionKind.
func ParseSessionKind(s string) (SessionKind, error) {
	k := SessionKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown session kind %q", s)
	}
	return k, nil
}

// TranscriptionResult is the structured output of the transcription endpoint.
type TranscriptionResult struct {
	Text    string `json:"text"`
	Summary string `json:"summary"`
}

// Empty reports whether neither text nor summary is set.
func (r TranscriptionResult) Empty() bool {
	return r.Text == "" && r.Summary == ""
}

// SaveAck acknowledges a persisted transcription result.
type SaveAck struct {
	// StatusCode is the 2xx status returned by the save endpoint.
	StatusCode int `json:"status_code"`

	// Message is the optional "message" field of the response body.
	Message string `json:"message,omitempty"`
}
