package summarize_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErVarunGupta/Streaming-App/runtime/summarize"
)

func chatServer(t *testing.T, handle func(req openai.ChatCompletionRequest) (int, any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		code, body := handle(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
	}
}

func TestOpenAISummarizer_Success(t *testing.T) {
	server := chatServer(t, func(req openai.ChatCompletionRequest) (int, any) {
		assert.Equal(t, "gpt-test", req.Model)
		assert.Equal(t, 100, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "between 30 and 100 tokens")
		assert.Equal(t, "hello there", req.Messages[1].Content)
		return http.StatusOK, completion("  a greeting \n")
	})

	s := summarize.NewOpenAI("test-key",
		summarize.WithBaseURL(server.URL+"/v1/"),
		summarize.WithModel("gpt-test"))
	assert.Equal(t, "gpt-test", s.Model())

	summary, err := s.Summarize(context.Background(), "  hello there ")
	require.NoError(t, err)
	assert.Equal(t, "a greeting", summary)
}

func TestOpenAISummarizer_LengthHints(t *testing.T) {
	server := chatServer(t, func(req openai.ChatCompletionRequest) (int, any) {
		assert.Equal(t, 50, req.MaxTokens)
		assert.Contains(t, req.Messages[0].Content, "between 10 and 50 tokens")
		return http.StatusOK, completion("short")
	})

	s := summarize.NewOpenAI("test-key", summarize.WithBaseURL(server.URL+"/v1"), summarize.WithLength(10, 50))
	_, err := s.Summarize(context.Background(), "text")
	require.NoError(t, err)
}

func TestOpenAISummarizer_EmptyText(t *testing.T) {
	s := summarize.NewOpenAI("test-key", summarize.WithBaseURL("http://127.0.0.1:0/v1"))
	_, err := s.Summarize(context.Background(), "   ")
	require.ErrorIs(t, err, summarize.ErrEmptyText)
}

func TestOpenAISummarizer_APIError(t *testing.T) {
	server := chatServer(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "slow down", "type": "rate_limit"},
		}
	})

	s := summarize.NewOpenAI("test-key", summarize.WithBaseURL(server.URL+"/v1"))
	_, err := s.Summarize(context.Background(), "text")
	require.Error(t, err)

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
}

func TestOpenAISummarizer_NoChoices(t *testing.T) {
	server := chatServer(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusOK, openai.ChatCompletionResponse{}
	})

	s := summarize.NewOpenAI("test-key", summarize.WithBaseURL(server.URL+"/v1"))
	_, err := s.Summarize(context.Background(), "text")
	require.ErrorContains(t, err, "no choices")
}

func TestFunc(t *testing.T) {
	var s summarize.Summarizer = summarize.Func(func(_ context.Context, text string) (string, error) {
		return "sum:" + text, nil
	})
	out, err := s.Summarize(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "sum:x", out)
}
