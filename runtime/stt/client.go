package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/pkg/httputil"
	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/metrics/prometheus"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

const (
	clientComponent = "stt"

	// TranscribePath is the backend endpoint for transcription.
	TranscribePath = "/stt"

	// FileField is the multipart field carrying the audio.
	FileField = "file"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Client submits audio to a transcription backend.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout bounds each Transcribe call. Zero or negative keeps the default.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: httputil.DefaultTranscriptionTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httputil.NewHTTPClient(c.timeout)
	}
	return c
}

// Endpoint returns the full transcription URL.
func (c *Client) Endpoint() string {
	return c.baseURL + TranscribePath
}

// transcribeResponse uses pointers so absent fields can be told apart from empty ones.
type transcribeResponse struct {
	Text    *string `json:"text"`
	Summary *string `json:"summary"`
}

// Transcribe uploads payload and returns the transcription. It makes a
// single attempt; callers decide whether to resubmit.
func (c *Client) Transcribe(ctx context.Context, payload *audio.Payload) (*types.TranscriptionResult, error) {
	if payload == nil {
		return nil, pkgerrors.New(clientComponent, "Transcribe", pkgerrors.ErrNoFileSelected)
	}

	body, contentType, err := buildMultipart(payload)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, requestID)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.do(ctx, body, contentType, requestID, payload)
	elapsed := time.Since(start)

	if err != nil {
		prometheus.RecordTranscription(prometheus.StatusError, string(pkgerrors.KindOf(err)), elapsed.Seconds())
		logger.TranscriptionError(ctx, "transcribe", err, "duration_ms", elapsed.Milliseconds())
		return nil, err
	}
	prometheus.RecordTranscription(prometheus.StatusSuccess, "", elapsed.Seconds())
	logger.TranscriptionResult(ctx, len(result.Text), len(result.Summary), elapsed.Milliseconds())
	return result, nil
}

func (c *Client) do(
	ctx context.Context, body *bytes.Buffer, contentType, requestID string, payload *audio.Payload,
) (*types.TranscriptionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return nil, pkgerrors.Network(clientComponent, "Transcribe", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(httputil.RequestIDHeader, requestID)

	logger.TranscriptionCall(ctx, c.Endpoint(), payload.Name(), payload.MIMEType(), "bytes", body.Len())

	resp, err := c.client.Do(req)
	if err != nil {
		logger.APIResponse(ctx, clientComponent, 0, "", err)
		return nil, pkgerrors.Network(clientComponent, "Transcribe", err)
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp.Body)
	if err != nil {
		return nil, pkgerrors.Network(clientComponent, "Transcribe", fmt.Errorf("failed to read response: %w", err))
	}
	logger.APIResponse(ctx, clientComponent, resp.StatusCode, string(respBody), nil)

	if !httputil.IsSuccess(resp.StatusCode) {
		return nil, pkgerrors.Server(clientComponent, "Transcribe", resp.StatusCode, httputil.ErrorBody(respBody))
	}
	return decodeTranscription(respBody)
}

func decodeTranscription(body []byte) (*types.TranscriptionResult, error) {
	var parsed transcribeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, pkgerrors.Malformed(clientComponent, "Transcribe", err)
	}
	if parsed.Text == nil || parsed.Summary == nil {
		return nil, pkgerrors.Malformed(clientComponent, "Transcribe",
			errors.New(`response must contain string fields "text" and "summary"`))
	}
	return &types.TranscriptionResult{Text: *parsed.Text, Summary: *parsed.Summary}, nil
}

// buildMultipart writes payload as form field "file", keeping its MIME type
// on the part.
func buildMultipart(payload *audio.Payload) (*bytes.Buffer, string, error) {
	rc, err := payload.Open()
	if err != nil {
		return nil, "", pkgerrors.New(clientComponent, "Transcribe",
			fmt.Errorf("%w: cannot read %s: %w", pkgerrors.ErrNoFileSelected, payload.Name(), err))
	}
	defer rc.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FileField, quoteEscaper.Replace(payload.Name())))
	mimeType := payload.MIMEType()
	if mimeType == "" {
		mimeType = audio.MIMETypeOctetStream
	}
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, rc); err != nil {
		return nil, "", pkgerrors.New(clientComponent, "Transcribe",
			fmt.Errorf("%w: cannot read %s: %w", pkgerrors.ErrNoFileSelected, payload.Name(), err))
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
