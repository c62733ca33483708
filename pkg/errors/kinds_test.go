package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want pkgerrors.Kind
	}{
		{"nil", nil, pkgerrors.KindNone},
		{"no file", pkgerrors.ErrNoFileSelected, pkgerrors.KindNoFileSelected},
		{"permission", fmt.Errorf("open: %w", pkgerrors.ErrPermissionDenied), pkgerrors.KindPermissionDenied},
		{"device", pkgerrors.New("recorder", "Start", pkgerrors.ErrDeviceUnavailable), pkgerrors.KindDeviceUnavailable},
		{"transition", pkgerrors.InvalidTransition("recorder", "Stop", "idle"), pkgerrors.KindInvalidStateTransition},
		{"network", pkgerrors.Network("stt", "Transcribe", context.DeadlineExceeded), pkgerrors.KindNetwork},
		{"server", pkgerrors.Server("stt", "Transcribe", 500, "boom"), pkgerrors.KindServer},
		{"malformed", pkgerrors.Malformed("stt", "Transcribe", nil), pkgerrors.KindMalformedResponse},
		{"unknown", errors.New("other"), pkgerrors.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkgerrors.KindOf(tt.err))
		})
	}
}

func TestNetwork_MatchesCause(t *testing.T) {
	err := pkgerrors.Network("persistence", "Save", context.DeadlineExceeded)

	assert.ErrorIs(t, err, pkgerrors.ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServer_CarriesStatusAndBody(t *testing.T) {
	err := pkgerrors.Server("stt", "Transcribe", 503, "unavailable")

	var ctxErr *pkgerrors.ContextualError
	require.ErrorAs(t, err, &ctxErr)
	assert.Equal(t, 503, ctxErr.StatusCode)
	assert.Equal(t, "unavailable", ctxErr.Detail("body"))
	assert.Equal(t, "[stt] Transcribe (status 503): server error", err.Error())
}

func TestInvalidTransition_NamesState(t *testing.T) {
	err := pkgerrors.InvalidTransition("session", "Reset", "submitting")

	assert.ErrorIs(t, err, pkgerrors.ErrInvalidStateTransition)
	assert.Contains(t, err.Error(), "not allowed from submitting")
	assert.Equal(t, "submitting", err.Detail("from"))
}

func TestMalformed_WrapsCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := pkgerrors.Malformed("stt", "Transcribe", cause)

	assert.ErrorIs(t, err, pkgerrors.ErrMalformedResponse)
	assert.ErrorIs(t, err, cause)
}
