// Package logger provides structured logging with automatic secret redaction.
//
// This package wraps Go's standard log/slog with convenience functions for:
//   - Transcription and save request logging
//   - Session state transition logging
//   - Automatic API key and bearer token redaction
//   - Contextual logging with request tracing
//   - Level-based verbosity control
//
// All exported functions use the global DefaultLogger which can be configured
// for different output formats and log levels.
package logger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"
)

var (
	// DefaultLogger is the global structured logger instance.
	// It is safe for concurrent use and initialized with slog.LevelInfo by default.
	DefaultLogger *slog.Logger

	// logOutput is where handlers built by this package write.
	logOutput io.Writer = os.Stderr

	// customHandler is set by SetLogger; Configure leaves it in place.
	customHandler slog.Handler
)

func init() {
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = ParseLevel(envLevel)
	}

	handler := slog.NewTextHandler(logOutput, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(NewHandler(handler, nil))
}

// ParseLevel converts a level name to a slog.Level. Unknown names map to info.
// "trace" is accepted as an alias for debug.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the logging level for all subsequent log operations.
// This is safe for concurrent use as it replaces the entire logger instance.
func SetLevel(level slog.Level) {
	handler := slog.NewTextHandler(logOutput, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(NewHandler(handler, nil))
}

// SetVerbose enables debug-level logging when verbose is true, otherwise sets info-level.
// This is a convenience wrapper around SetLevel for command-line verbose flags.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// SetOutput redirects log output. Pass nil to restore stderr.
// The current level is reset to info; call Configure or SetLevel afterwards if needed.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logOutput = w
	SetLevel(slog.LevelInfo)
}

// SetLogger installs a caller-provided handler. Subsequent Configure calls keep it.
// Pass nil to drop the custom handler and return to the default text handler.
func SetLogger(h slog.Handler) {
	customHandler = h
	if h == nil {
		SetLevel(slog.LevelInfo)
		return
	}
	DefaultLogger = slog.New(h)
}

// emit logs through DefaultLogger with the PC of the caller depth frames
// above it, so scope filtering sees the real call site rather than this
// package.
func emit(ctx context.Context, depth int, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !DefaultLogger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(2+depth, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = DefaultLogger.Handler().Handle(ctx, r)
}

// Info logs an informational message with structured key-value attributes.
// Args should be provided in key-value pairs: key1, value1, key2, value2, ...
func Info(msg string, args ...any) {
	emit(context.Background(), 1, slog.LevelInfo, msg, args...)
}

// InfoContext logs an informational message with context and structured attributes.
func InfoContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, 1, slog.LevelInfo, msg, args...)
}

// Debug logs a debug-level message. It is dropped unless debug logging is on.
func Debug(msg string, args ...any) {
	emit(context.Background(), 1, slog.LevelDebug, msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, 1, slog.LevelDebug, msg, args...)
}

// Warn logs a recoverable problem.
func Warn(msg string, args ...any) {
	emit(context.Background(), 1, slog.LevelWarn, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, 1, slog.LevelWarn, msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	emit(context.Background(), 1, slog.LevelError, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, 1, slog.LevelError, msg, args...)
}

// TranscriptionCall logs an outgoing transcription request.
func TranscriptionCall(ctx context.Context, endpoint, name, mimeType string, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"endpoint", RedactSensitiveData(endpoint),
		"name", name,
		"mime_type", mimeType,
	)
	allAttrs = append(allAttrs, attrs...)
	emit(ctx, 1, slog.LevelInfo, "🎙️ Transcription request", allAttrs...)
}

// TranscriptionResult logs a completed transcription.
func TranscriptionResult(ctx context.Context, textLen, summaryLen int, durationMs int64, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"text_len", textLen,
		"summary_len", summaryLen,
		"duration_ms", durationMs,
	)
	allAttrs = append(allAttrs, attrs...)
	emit(ctx, 1, slog.LevelInfo, "✅ Transcription complete", allAttrs...)
}

// TranscriptionError logs a failed transcription or save.
func TranscriptionError(ctx context.Context, operation string, err error, attrs ...any) {
	allAttrs := make([]any, 0, 4+len(attrs))
	allAttrs = append(allAttrs,
		"operation", operation,
		"error", err,
	)
	allAttrs = append(allAttrs, attrs...)
	emit(ctx, 1, slog.LevelError, "❌ Request failed", allAttrs...)
}

// StateTransition logs a session state change at debug level.
func StateTransition(ctx context.Context, session, from, to string, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"session", session,
		"from", from,
		"to", to,
	)
	allAttrs = append(allAttrs, attrs...)
	emit(ctx, 1, slog.LevelDebug, "🔁 Session transition", allAttrs...)
}

var (
	// apiKeyPatterns contains compiled regular expressions for detecting sensitive data.
	apiKeyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`sk-[a-zA-Z0-9_-]{32,}`),    // OpenAI API keys
		regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),    // Google API keys
		regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`), // Bearer tokens
	}
)

// RedactSensitiveData removes API keys and other sensitive information from strings.
// It replaces matched patterns with a redacted form that preserves the first few characters
// for debugging while hiding the sensitive portion.
//
// Supported patterns:
//   - OpenAI keys (sk-...): Shows first 4 chars
//   - Google keys (AIza...): Shows first 4 chars
//   - Bearer tokens: Shows only "Bearer [REDACTED]"
func RedactSensitiveData(input string) string {
	result := input

	for _, pattern := range apiKeyPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if strings.HasPrefix(match, "Bearer") {
				return "Bearer [REDACTED]"
			}
			if len(match) > 8 {
				return match[:4] + "...[REDACTED]"
			}
			return "[REDACTED]"
		})
	}

	return result
}

// APIRequest logs HTTP API request details at debug level with automatic redaction.
// This function is a no-op when debug logging is disabled.
//
// Sensitive data in URL, headers, and body are automatically redacted.
func APIRequest(ctx context.Context, component, method, url string, headers map[string]string, body interface{}) {
	if !DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	attrs := make([]any, 0, 10)
	attrs = append(attrs,
		"component", component,
		"method", method,
		"url", RedactSensitiveData(url),
	)

	if len(headers) > 0 {
		redactedHeaders := make(map[string]string, len(headers))
		for key, value := range headers {
			redactedHeaders[key] = RedactSensitiveData(value)
		}
		attrs = append(attrs, "headers", redactedHeaders)
	}

	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			attrs = append(attrs, "body_error", err.Error())
		} else {
			attrs = append(attrs, "body", RedactSensitiveData(string(bodyJSON)))
		}
	}

	emit(ctx, 1, slog.LevelDebug, "🔵 API Request", attrs...)
}

// APIResponse logs HTTP API response details at debug level with automatic redaction.
// This function is a no-op when debug logging is disabled.
//
// Status codes are logged with emoji indicators: 🟢 (2xx), 🟡 (3xx), 🔴 (4xx/5xx).
func APIResponse(ctx context.Context, component string, statusCode int, body string, err error) {
	if !DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	attrs := make([]any, 0, 6)
	attrs = append(attrs,
		"component", component,
		"status_code", statusCode,
	)

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		emit(ctx, 1, slog.LevelError, "🔴 API Response Error", attrs...)
		return
	}

	var emoji string
	switch {
	case statusCode >= 200 && statusCode < 300:
		emoji = "🟢"
	case statusCode >= 400:
		emoji = "🔴"
	default:
		emoji = "🟡"
	}

	if body != "" {
		attrs = append(attrs, "body", RedactSensitiveData(body))
	}

	emit(ctx, 1, slog.LevelDebug, emoji+" API Response", attrs...)
}
