package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restoreGlobals puts the package-level logger state back after a test that
// calls Configure.
func restoreGlobals(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger, levels := DefaultLogger, activeLevels
	var buf bytes.Buffer
	logOutput = &buf
	t.Cleanup(func() {
		SetOutput(nil)
		DefaultLogger, activeLevels = logger, levels
	})
	return &buf
}

func TestLevelTable_Lookup(t *testing.T) {
	table := NewLevelTable(slog.LevelInfo)
	table.Set("runtime", slog.LevelDebug)
	table.Set("runtime.stt", slog.LevelError)
	table.Set("/server/scribe/", slog.LevelWarn)

	tests := []struct {
		scope string
		want  slog.Level
	}{
		{"runtime", slog.LevelDebug},
		{"runtime/stt", slog.LevelError},
		{"runtime/stt/openai", slog.LevelError},
		{"runtime.session", slog.LevelDebug},
		{"server/scribe", slog.LevelWarn},
		{"tools/scribe/cmd/scribe", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Level(tt.scope))
		})
	}

	table.SetFallback(slog.LevelError)
	assert.Equal(t, slog.LevelError, table.Level("pkg/config"))
}

func TestLevelTable_FieldsAndMin(t *testing.T) {
	table := NewLevelTable(slog.LevelWarn)
	assert.Equal(t, slog.LevelWarn, table.Min())
	assert.Equal(t, 0, table.Len())

	table.Set("runtime/session", slog.LevelDebug, slog.String("team", "audio"))
	level, fields := table.Lookup("runtime/session")
	assert.Equal(t, slog.LevelDebug, level)
	assert.Equal(t, []slog.Attr{slog.String("team", "audio")}, fields)
	assert.Equal(t, slog.LevelDebug, table.Min())
	assert.Equal(t, 1, table.Len())

	_, fields = table.Lookup("runtime/stt")
	assert.Nil(t, fields)
}

func TestScopeFromFunc(t *testing.T) {
	tests := []struct {
		fn   string
		want string
	}{
		{"github.com/ErVarunGupta/Streaming-App/runtime/session.(*Store).Submit", "runtime/session"},
		{"github.com/ErVarunGupta/Streaming-App/runtime/stt.NewClient", "runtime/stt"},
		{"github.com/ErVarunGupta/Streaming-App/server/scribe.(*Server).handleTranscribe.func1", "server/scribe"},
		{"github.com/ErVarunGupta/Streaming-App/tools/scribe/cmd/scribe.runUpload", "tools/scribe/cmd/scribe"},
		{"github.com/other/package.Func", ""},
		{"main.main", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			assert.Equal(t, tt.want, scopeFromFunc(tt.fn))
		})
	}
}

func TestConfigure_InstallsLevels(t *testing.T) {
	restoreGlobals(t)

	require.NoError(t, Configure(&LoggingConfigSpec{
		DefaultLevel: "warn",
		Format:       FormatText,
		Modules:      []ModuleLoggingSpec{{Name: "runtime", Level: "debug"}},
	}))

	assert.Equal(t, slog.LevelDebug, Levels().Level("runtime/stt"))
	assert.Equal(t, slog.LevelWarn, Levels().Level("server/scribe"))
	assert.Same(t, DefaultLogger, slog.Default())
}

func TestConfigure_Nil(t *testing.T) {
	assert.NoError(t, Configure(nil))
}

func TestConfigure_JSONFormat(t *testing.T) {
	buf := restoreGlobals(t)

	require.NoError(t, Configure(&LoggingConfigSpec{
		DefaultLevel: "info",
		Format:       FormatJSON,
		CommonFields: map[string]string{"service": "scribe"},
	}))
	Info("test message", "key", "value")

	out := buf.String()
	assert.Contains(t, out, `"msg":"test message"`)
	assert.Contains(t, out, `"key":"value"`)
	assert.Contains(t, out, `"service":"scribe"`)
	assert.NotContains(t, out, `"`+ScopeKey+`"`, "no scope without module levels")
}

func TestConfigure_ScopeLevelAndFields(t *testing.T) {
	buf := restoreGlobals(t)

	require.NoError(t, Configure(&LoggingConfigSpec{
		DefaultLevel: "warn",
		Modules: []ModuleLoggingSpec{
			{Name: "runtime.logger", Level: "debug", Fields: map[string]string{"team": "audio"}},
		},
	}))
	Debug("visible")

	out := buf.String()
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, ScopeKey+"=runtime/logger")
	assert.Contains(t, out, "team=audio")
}

func TestConfigure_OtherScopeStaysQuiet(t *testing.T) {
	buf := restoreGlobals(t)

	require.NoError(t, Configure(&LoggingConfigSpec{
		DefaultLevel: "warn",
		Modules:      []ModuleLoggingSpec{{Name: "runtime/session", Level: "debug"}},
	}))
	Debug("hidden")
	Info("also hidden")
	Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestHandler_FiltersByScope(t *testing.T) {
	var buf bytes.Buffer
	table := NewLevelTable(slog.LevelDebug)
	table.Set("runtime/logger", slog.LevelWarn)
	log := slog.New(NewHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}), table))

	log.Info("filtered")
	log.Warn("kept")

	assert.NotContains(t, buf.String(), "filtered")
	assert.Contains(t, buf.String(), "kept")
}

func TestHandler_ScopeWithContextAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	table := NewLevelTable(slog.LevelDebug)
	h := NewHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}), table)
	log := slog.New(h.WithAttrs([]slog.Attr{slog.String("k", "v")}))

	log.InfoContext(WithSessionKind(context.Background(), "recording"), "msg")

	out := buf.String()
	assert.Contains(t, out, ScopeKey+"=runtime/logger")
	assert.Contains(t, out, "session_kind=recording")
	assert.Contains(t, out, "k=v")
}

func TestHandler_EnabledUsesTableMinimum(t *testing.T) {
	inner := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})
	h := NewHandler(inner, NewLevelTable(slog.LevelWarn))

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

func TestSetOutput(t *testing.T) {
	original := DefaultLogger
	t.Cleanup(func() {
		DefaultLogger = original
		SetOutput(nil)
	})

	var buf bytes.Buffer
	SetOutput(&buf)
	Info("test message")

	assert.Contains(t, buf.String(), "test message")
}
