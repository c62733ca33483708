package persistence_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/pkg/httputil"
	"github.com/ErVarunGupta/Streaming-App/runtime/persistence"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

// saveRecorder is a fake /save endpoint that keeps every request it receives.
type saveRecorder struct {
	mu       sync.Mutex
	requests []persistence.SaveRequest
	ids      []string
	status   int
	body     string
}

func (s *saveRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req persistence.SaveRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.ids = append(s.ids, r.Header.Get(httputil.RequestIDHeader))
	status, body := s.status, s.body
	s.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClient_Save_Success(t *testing.T) {
	rec := &saveRecorder{body: `{"message": " File saved successfully at outputs/uploads/talk_20240101_120000.txt"}`}
	server := httptest.NewServer(rec)
	defer server.Close()

	client := persistence.NewClient(server.URL)
	ack, err := client.Save(context.Background(), "talk.mp3",
		types.TranscriptionResult{Text: "hello", Summary: "hi"}, types.SessionUpload)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, ack.StatusCode)
	assert.Equal(t, "File saved successfully at outputs/uploads/talk_20240101_120000.txt", ack.Message)
	require.Len(t, rec.requests, 1)
	assert.Equal(t, persistence.SaveRequest{Name: "talk.mp3", Text: "hello", Summary: "hi", Type: "upload"}, rec.requests[0])
}

func TestClient_Save_AnySuccessStatus(t *testing.T) {
	rec := &saveRecorder{status: http.StatusCreated, body: "saved"}
	server := httptest.NewServer(rec)
	defer server.Close()

	ack, err := persistence.NewClient(server.URL).Save(context.Background(), "recording_output",
		types.TranscriptionResult{Text: "a", Summary: "b"}, types.SessionRecording)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, ack.StatusCode)
	assert.Empty(t, ack.Message, "non-JSON bodies are accepted without a message")
	assert.Equal(t, "recording", rec.requests[0].Type)
}

func TestClient_Save_NotIdempotent(t *testing.T) {
	rec := &saveRecorder{body: `{"message":"ok"}`}
	server := httptest.NewServer(rec)
	defer server.Close()

	client := persistence.NewClient(server.URL)
	result := types.TranscriptionResult{Text: "hello", Summary: "hi"}
	for i := 0; i < 2; i++ {
		_, err := client.Save(context.Background(), "talk.mp3", result, types.SessionUpload)
		require.NoError(t, err)
	}

	require.Len(t, rec.requests, 2, "each save is a separate request")
	assert.Equal(t, rec.requests[0], rec.requests[1])
	assert.NotEqual(t, rec.ids[0], rec.ids[1], "each request has its own id")
}

func TestClient_Save_ServerError(t *testing.T) {
	rec := &saveRecorder{status: http.StatusBadRequest, body: `{"error":"Missing text or summary"}`}
	server := httptest.NewServer(rec)
	defer server.Close()

	_, err := persistence.NewClient(server.URL).Save(context.Background(), "x",
		types.TranscriptionResult{}, types.SessionUpload)
	require.ErrorIs(t, err, pkgerrors.ErrServer)

	var ce *pkgerrors.ContextualError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusBadRequest, ce.StatusCode)
	assert.Contains(t, ce.Detail("body"), "Missing text or summary")
}

func TestClient_Save_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := persistence.NewClient(url).Save(context.Background(), "x",
		types.TranscriptionResult{Text: "a", Summary: "b"}, types.SessionUpload)
	assert.ErrorIs(t, err, pkgerrors.ErrNetwork)
}

func TestClient_Save_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := persistence.NewClient(server.URL, persistence.WithTimeout(50*time.Millisecond)).Save(
		context.Background(), "x", types.TranscriptionResult{Text: "a", Summary: "b"}, types.SessionUpload)
	assert.ErrorIs(t, err, pkgerrors.ErrNetwork)
}

func TestClient_Save_InvalidKind(t *testing.T) {
	_, err := persistence.NewClient("http://127.0.0.1:1").Save(context.Background(), "x",
		types.TranscriptionResult{}, types.SessionKind("video"))
	assert.Error(t, err)
}

func TestClient_Endpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/save", persistence.NewClient("http://localhost:8080/").Endpoint())
	assert.NotNil(t, persistence.NewClient("http://x", persistence.WithHTTPClient(http.DefaultClient)))
}
