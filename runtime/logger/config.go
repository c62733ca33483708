package logger

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// LevelTable holds the minimum level per package scope. A scope is a path
// below the module root such as "runtime/stt" and covers the packages under
// it; the most specific scope wins. Dotted names ("runtime.stt") are
// accepted too.
type LevelTable struct {
	mu       sync.RWMutex
	fallback slog.Level
	scopes   map[string]scopeLevel
}

type scopeLevel struct {
	level  slog.Level
	fields []slog.Attr
}

// NewLevelTable returns a table where every scope logs at fallback.
func NewLevelTable(fallback slog.Level) *LevelTable {
	return &LevelTable{fallback: fallback, scopes: make(map[string]scopeLevel)}
}

// Set configures scope. fields are added to every record from that scope.
func (t *LevelTable) Set(scope string, level slog.Level, fields ...slog.Attr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scopes[normalizeScope(scope)] = scopeLevel{level: level, fields: fields}
}

// SetFallback changes the level of scopes with no entry.
func (t *LevelTable) SetFallback(level slog.Level) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = level
}

// Lookup returns the level and extra fields for scope, walking up to the
// nearest configured parent.
func (t *LevelTable) Lookup(scope string) (slog.Level, []slog.Attr) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for s := normalizeScope(scope); s != ""; {
		if entry, ok := t.scopes[s]; ok {
			return entry.level, entry.fields
		}
		i := strings.LastIndex(s, "/")
		if i == -1 {
			break
		}
		s = s[:i]
	}
	return t.fallback, nil
}

// Level returns the level for scope.
func (t *LevelTable) Level(scope string) slog.Level {
	level, _ := t.Lookup(scope)
	return level
}

// Min returns the lowest level any scope logs at.
func (t *LevelTable) Min() slog.Level {
	t.mu.RLock()
	defer t.mu.RUnlock()
	low := t.fallback
	for _, entry := range t.scopes {
		low = min(low, entry.level)
	}
	return low
}

// Len returns the number of configured scopes.
func (t *LevelTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.scopes)
}

func normalizeScope(scope string) string {
	scope = strings.ReplaceAll(strings.TrimSpace(scope), ".", "/")
	return strings.Trim(scope, "/")
}

// activeLevels is the table installed by the last Configure call.
var activeLevels = NewLevelTable(slog.LevelInfo)

// Levels returns the table installed by the last Configure call.
func Levels() *LevelTable {
	return activeLevels
}

// LoggingConfigSpec is the input to Configure. pkg/config converts the
// manifest's logging block into it.
type LoggingConfigSpec struct {
	DefaultLevel string
	Format       string // "json" or "text"
	CommonFields map[string]string
	Modules      []ModuleLoggingSpec
}

// ModuleLoggingSpec sets the level and extra fields for one scope.
type ModuleLoggingSpec struct {
	Name   string
	Level  string
	Fields map[string]string
}

// Log formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Configure rebuilds the global logger from cfg. It is a no-op for a nil
// cfg or after SetLogger installed a custom handler.
func Configure(cfg *LoggingConfigSpec) error {
	if cfg == nil || customHandler != nil {
		return nil
	}

	fallback := slog.LevelInfo
	if cfg.DefaultLevel != "" {
		fallback = ParseLevel(cfg.DefaultLevel)
	}
	levels := NewLevelTable(fallback)
	for _, mod := range cfg.Modules {
		levels.Set(mod.Name, ParseLevel(mod.Level), attrsOf(mod.Fields)...)
	}
	activeLevels = levels

	base := newBaseHandler(cfg.Format, levels.Min())
	if levels.Len() == 0 {
		levels = nil
	}
	DefaultLogger = slog.New(NewHandler(base, levels, attrsOf(cfg.CommonFields)...))
	slog.SetDefault(DefaultLogger)
	return nil
}

func newBaseHandler(format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.NewJSONHandler(logOutput, opts)
	}
	return slog.NewTextHandler(logOutput, opts)
}

// attrsOf converts m to attributes in key order.
func attrsOf(m map[string]string) []slog.Attr {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, m[k]))
	}
	return attrs
}
