package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinel errors for every failure the session manager can report.
// All of them are recoverable; callers match them with errors.Is.
var (
	// ErrNoFileSelected is returned when an upload is attempted without a file.
	ErrNoFileSelected = stderrors.New("no file selected")

	// ErrPermissionDenied is returned when microphone access is refused or revoked.
	ErrPermissionDenied = stderrors.New("microphone permission denied")

	// ErrDeviceUnavailable is returned when no usable audio input device exists.
	ErrDeviceUnavailable = stderrors.New("audio input device unavailable")

	// ErrInvalidStateTransition is returned when an operation is not allowed
	// from the current state.
	ErrInvalidStateTransition = stderrors.New("invalid state transition")

	// ErrNetwork is returned on connectivity failures and timeouts.
	ErrNetwork = stderrors.New("network error")

	// ErrServer is returned when an endpoint answers with a non-2xx status.
	ErrServer = stderrors.New("server error")

	// ErrMalformedResponse is returned when a response body lacks the expected shape.
	ErrMalformedResponse = stderrors.New("malformed response")
)

// Kind names an error category for logging, metrics and rendering.
type Kind string

// Error kinds, one per sentinel.
const (
	KindNone                   Kind = ""
	KindNoFileSelected         Kind = "no_file_selected"
	KindPermissionDenied       Kind = "permission_denied"
	KindDeviceUnavailable      Kind = "device_unavailable"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindNetwork                Kind = "network_error"
	KindServer                 Kind = "server_error"
	KindMalformedResponse      Kind = "malformed_response"
	KindUnknown                Kind = "unknown"
)

var kindTable = []struct {
	sentinel error
	kind     Kind
}{
	{ErrNoFileSelected, KindNoFileSelected},
	{ErrPermissionDenied, KindPermissionDenied},
	{ErrDeviceUnavailable, KindDeviceUnavailable},
	{ErrInvalidStateTransition, KindInvalidStateTransition},
	{ErrNetwork, KindNetwork},
	{ErrServer, KindServer},
	{ErrMalformedResponse, KindMalformedResponse},
}

// KindOf classifies err. It returns KindNone for nil and KindUnknown for
// errors outside the taxonomy.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, entry := range kindTable {
		if stderrors.Is(err, entry.sentinel) {
			return entry.kind
		}
	}
	return KindUnknown
}

// InvalidTransition builds an ErrInvalidStateTransition naming the rejected
// operation and the state it was attempted from.
func InvalidTransition(component, operation, from string) *ContextualError {
	return New(component, operation, fmt.Errorf("%w: not allowed from %s", ErrInvalidStateTransition, from)).
		WithDetails(map[string]any{"from": from})
}

// Network wraps a transport failure so that it matches both ErrNetwork and cause.
func Network(component, operation string, cause error) *ContextualError {
	return New(component, operation, fmt.Errorf("%w: %w", ErrNetwork, cause))
}

// Server builds an ErrServer carrying the HTTP status and response body.
func Server(component, operation string, status int, body string) *ContextualError {
	return New(component, operation, ErrServer).
		WithStatusCode(status).
		WithDetails(map[string]any{"body": body})
}

// Malformed wraps a decoding failure as ErrMalformedResponse.
func Malformed(component, operation string, cause error) *ContextualError {
	if cause == nil {
		return New(component, operation, ErrMalformedResponse)
	}
	return New(component, operation, fmt.Errorf("%w: %w", ErrMalformedResponse, cause))
}
