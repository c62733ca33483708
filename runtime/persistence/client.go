// Package persistence saves transcription results through the backend's
// /save endpoint.
//
// Saves are not idempotent: every successful call creates a new record on
// the backend, so calling Save twice with the same result stores it twice.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
	"github.com/ErVarunGupta/Streaming-App/pkg/httputil"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

const (
	componentName = "persistence"

	// SavePath is the backend endpoint for saving results.
	SavePath = "/save"
)

// SaveRequest is the JSON body of POST /save.
type SaveRequest struct {
	Name    string `json:"name"`
	Text    string `json:"text"`
	Summary string `json:"summary"`
	Type    string `json:"type"`
}

// saveResponse is the optional acknowledgement body.
type saveResponse struct {
	Message string `json:"message"`
}

// Client saves results to a backend.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

// WithTimeout bounds each Save call. Zero or negative keeps the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: httputil.DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httputil.NewHTTPClient(c.timeout)
	}
	return c
}

// Endpoint returns the full save URL.
func (c *Client) Endpoint() string {
	return c.baseURL + SavePath
}

// Save stores result under name for the given session kind. Any 2xx
// response is success; a JSON "message" in the body is returned in the ack.
func (c *Client) Save(
	ctx context.Context, name string, result types.TranscriptionResult, kind types.SessionKind,
) (*types.SaveAck, error) {
	if !kind.Valid() {
		return nil, pkgerrors.New(componentName, "Save", fmt.Errorf("unknown session kind %q", kind))
	}
	body, err := json.Marshal(SaveRequest{
		Name:    name,
		Text:    result.Text,
		Summary: result.Summary,
		Type:    kind.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode save request: %w", err)
	}

	requestID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, requestID)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Network(componentName, "Save", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httputil.RequestIDHeader, requestID)

	logger.APIRequest(ctx, componentName, http.MethodPost, c.Endpoint(), nil,
		map[string]any{"name": name, "type": kind.String(), "text_len": len(result.Text)})

	resp, err := c.client.Do(req)
	if err != nil {
		logger.APIResponse(ctx, componentName, 0, "", err)
		return nil, pkgerrors.Network(componentName, "Save", err)
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp.Body)
	if err != nil {
		return nil, pkgerrors.Network(componentName, "Save", fmt.Errorf("failed to read response: %w", err))
	}
	logger.APIResponse(ctx, componentName, resp.StatusCode, string(respBody), nil)

	if !httputil.IsSuccess(resp.StatusCode) {
		return nil, pkgerrors.Server(componentName, "Save", resp.StatusCode, httputil.ErrorBody(respBody))
	}

	ack := &types.SaveAck{StatusCode: resp.StatusCode}
	var parsed saveResponse
	if json.Unmarshal(respBody, &parsed) == nil {
		ack.Message = strings.TrimSpace(parsed.Message)
	}
	logger.InfoContext(ctx, "💾 Result saved", "name", name, "type", kind.String(), "status", resp.StatusCode)
	return ack, nil
}
