// Package httputil provides shared HTTP client construction utilities.
// It centralizes timeout defaults and client creation so that the
// transcription and save clients use consistent configuration.
package httputil

import (
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Standard timeout defaults.
const (
	// DefaultTranscriptionTimeout bounds a single POST /stt call. Upload,
	// recognition and summarization all happen inside it, so it is the
	// longer of the two.
	DefaultTranscriptionTimeout = 60 * time.Second

	// DefaultSaveTimeout bounds a single POST /save call.
	DefaultSaveTimeout = 30 * time.Second
)

const (
	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	// MaxResponseBytes caps how much of a response body the clients read.
	MaxResponseBytes = 4 << 20

	// maxErrorBodyLen caps the response body kept on server errors.
	maxErrorBodyLen = 512
)

// NewHTTPClient returns an *http.Client configured with the given timeout.
// Requests are traced through otelhttp; with no tracer provider installed
// the instrumentation is a no-op.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// IsSuccess reports whether status is a 2xx code.
func IsSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// ReadBody reads at most MaxResponseBytes from r.
func ReadBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, MaxResponseBytes))
}

// ErrorBody returns body as a string suitable for error details, cut to a
// bounded length on a rune boundary.
func ErrorBody(body []byte) string {
	if len(body) <= maxErrorBodyLen {
		return string(body)
	}
	cut := body[:maxErrorBodyLen]
	for i := 0; i < utf8.UTFMax-1 && len(cut) > 0; i++ {
		if r, size := utf8.DecodeLastRune(cut); r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return string(cut) + "..."
}
