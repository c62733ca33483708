// Package summarize condenses transcribed text into a short summary.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ErVarunGupta/Streaming-App/pkg/httputil"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/metrics/prometheus"
)

// Length hints for a summary, in tokens.
const (
	DefaultMinLength = 30
	DefaultMaxLength = 100
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = openai.GPT4oMini

const providerName = "openai"

// ErrEmptyText is returned when there is nothing to summarize.
var ErrEmptyText = errors.New("no text to summarize")

// Summarizer produces a summary of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Func adapts a function to the Summarizer interface.
type Func func(ctx context.Context, text string) (string, error)

// Summarize calls f.
func (f Func) Summarize(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// OpenAISummarizer summarizes with an OpenAI chat completion.
type OpenAISummarizer struct {
	client    *openai.Client
	model     string
	minLength int
	maxLength int
}

// Option configures an OpenAISummarizer.
type Option func(*openAIOptions)

type openAIOptions struct {
	baseURL   string
	model     string
	minLength int
	maxLength int
}

// WithBaseURL points the client at a compatible API, e.g. "http://host/v1".
func WithBaseURL(url string) Option {
	return func(o *openAIOptions) { o.baseURL = strings.TrimRight(url, "/") }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(o *openAIOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithLength sets the summary length hints. Non-positive values keep the defaults.
func WithLength(minLength, maxLength int) Option {
	return func(o *openAIOptions) {
		if minLength > 0 {
			o.minLength = minLength
		}
		if maxLength > 0 {
			o.maxLength = maxLength
		}
	}
}

// NewOpenAI creates a summarizer authenticated with apiKey.
func NewOpenAI(apiKey string, opts ...Option) *OpenAISummarizer {
	o := openAIOptions{model: DefaultModel, minLength: DefaultMinLength, maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(&o)
	}
	if o.minLength > o.maxLength {
		o.minLength = o.maxLength
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	cfg.HTTPClient = httputil.NewHTTPClient(httputil.DefaultTranscriptionTimeout)

	return &OpenAISummarizer{
		client:    openai.NewClientWithConfig(cfg),
		model:     o.model,
		minLength: o.minLength,
		maxLength: o.maxLength,
	}
}

// Model returns the chat model in use.
func (s *OpenAISummarizer) Model() string {
	return s.model
}

// Summarize returns a summary of text between the configured length hints.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.instructions()},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   s.maxLength,
		Temperature: 0,
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	status := prometheus.StatusSuccess
	if err != nil {
		status = prometheus.StatusError
	}
	prometheus.RecordProviderRequest(providerName, "summarize", status, time.Since(start).Seconds())

	if err != nil {
		logger.ErrorContext(ctx, "Summarization failed", "model", s.model, "error", err)
		return "", fmt.Errorf("summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("summarize: response has no choices")
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	logger.DebugContext(ctx, "Summary generated",
		"model", s.model, "input_length", len(text), "summary_length", len(summary),
		"total_tokens", resp.Usage.TotalTokens)
	return summary, nil
}

func (s *OpenAISummarizer) instructions() string {
	return fmt.Sprintf(
		"Summarize the user's transcribed speech in plain prose. "+
			"Use between %d and %d tokens. Do not add facts that are not in the text.",
		s.minLength, s.maxLength)
}
