package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/ErVarunGupta/Streaming-App/pkg/httputil"
	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/metrics/prometheus"
)

const (
	openAIBaseURL            = "https://api.openai.com/v1"
	openAITranscribeEndpoint = "/audio/transcriptions"
	openAIProvider           = "openai"

	// ModelWhisper1 is the OpenAI Whisper model for transcription.
	ModelWhisper1 = "whisper-1"

	openAIServerErrorThreshold = 500
)

// OpenAIService implements Service using OpenAI's Whisper API.
type OpenAIService struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	model    string
	language string
}

// OpenAIOption configures the OpenAI STT service.
type OpenAIOption func(*OpenAIService)

// WithOpenAIBaseURL sets a custom base URL (for testing or proxies).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(s *OpenAIService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithOpenAIClient sets a custom HTTP client.
func WithOpenAIClient(client *http.Client) OpenAIOption {
	return func(s *OpenAIService) {
		s.client = client
	}
}

// WithOpenAIModel sets the STT model to use.
func WithOpenAIModel(model string) OpenAIOption {
	return func(s *OpenAIService) {
		if model != "" {
			s.model = model
		}
	}
}

// WithOpenAILanguage sets the default language hint.
func WithOpenAILanguage(language string) OpenAIOption {
	return func(s *OpenAIService) {
		s.language = language
	}
}

// NewOpenAI creates an OpenAI STT service using Whisper.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAIService {
	s := &OpenAIService{
		apiKey:  apiKey,
		baseURL: openAIBaseURL,
		client:  httputil.NewHTTPClient(httputil.DefaultTranscriptionTimeout),
		model:   ModelWhisper1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider identifier.
func (s *OpenAIService) Name() string {
	return "openai-whisper"
}

// Transcribe converts audio to text using OpenAI's Whisper API.
func (s *OpenAIService) Transcribe(
	ctx context.Context, payload *audio.Payload, config TranscriptionConfig,
) (string, error) {
	if payload == nil || payload.Size() == 0 {
		return "", ErrEmptyAudio
	}
	if !Supports(s, payload.Name()) {
		return "", fmt.Errorf("%w: %s", ErrInvalidFormat, payload.Name())
	}

	start := time.Now()
	text, err := s.transcribe(ctx, payload, config)
	status := prometheus.StatusSuccess
	if err != nil {
		status = prometheus.StatusError
	}
	prometheus.RecordProviderRequest(openAIProvider, "transcribe", status, time.Since(start).Seconds())
	return text, err
}

func (s *OpenAIService) transcribe(
	ctx context.Context, payload *audio.Payload, config TranscriptionConfig,
) (string, error) {
	body, contentType, err := s.buildForm(payload, config)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+openAITranscribeEndpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", contentType)

	logger.APIRequest(ctx, s.Name(), http.MethodPost, req.URL.String(),
		map[string]string{"Authorization": req.Header.Get("Authorization")},
		map[string]any{"file": payload.Name(), "mime_type": payload.MIMEType()})

	resp, err := s.client.Do(req)
	if err != nil {
		logger.APIResponse(ctx, s.Name(), 0, "", err)
		return "", NewTranscriptionError(openAIProvider, "", "request failed", err, true)
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	logger.APIResponse(ctx, s.Name(), resp.StatusCode, string(respBody), nil)

	if resp.StatusCode != http.StatusOK {
		return "", s.handleError(resp.StatusCode, respBody)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Text, nil
}

func (s *OpenAIService) buildForm(payload *audio.Payload, config TranscriptionConfig) (io.Reader, string, error) {
	rc, err := payload.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`,
		quoteEscaper.Replace(payload.Name())))
	header.Set("Content-Type", payload.MIMEType())
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	n, err := io.Copy(part, rc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}
	if n == 0 {
		return nil, "", ErrEmptyAudio
	}

	model := config.Model
	if model == "" {
		model = s.model
	}
	language := config.Language
	if language == "" {
		language = s.language
	}
	fields := [][2]string{{"model", model}, {"language", language}, {"prompt", config.Prompt}}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write %s field: %w", f[0], err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

// handleError processes an error response from OpenAI.
func (s *OpenAIService) handleError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		e := NewTranscriptionError(openAIProvider, fmt.Sprintf("%d", statusCode),
			httputil.ErrorBody(body), nil, statusCode >= openAIServerErrorThreshold)
		e.StatusCode = statusCode
		return e
	}

	retryable := statusCode == http.StatusTooManyRequests ||
		statusCode >= openAIServerErrorThreshold

	var cause error
	switch statusCode {
	case http.StatusTooManyRequests:
		cause = ErrRateLimited
	case http.StatusUnauthorized:
		cause = fmt.Errorf("invalid API key")
	case http.StatusBadRequest:
		if errResp.Error.Code == "audio_too_short" {
			cause = ErrAudioTooShort
		}
	}

	e := NewTranscriptionError(openAIProvider, errResp.Error.Code, errResp.Error.Message, cause, retryable)
	e.StatusCode = statusCode
	return e
}

// SupportedFormats returns audio formats supported by OpenAI Whisper.
func (s *OpenAIService) SupportedFormats() []string {
	return []string{
		"flac",
		"m4a",
		"mp3",
		"mp4",
		"mpeg",
		"mpga",
		"oga",
		"ogg",
		"wav",
		"webm",
	}
}
