package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBaseURL, cfg.Spec.Endpoints.TranscriptionURL)
	assert.Equal(t, DefaultBaseURL, cfg.SaveURL())
	assert.Equal(t, 60*time.Second, cfg.Spec.Endpoints.TranscribeTimeout)
	assert.Equal(t, "recording_output", cfg.Spec.Recording.SaveName)

	err := cfg.ValidateServer()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "server.provider.apiKey", verr.Field)
}

func TestParse_OverridesDefaults(t *testing.T) {
	data := []byte(`
apiVersion: scribe.streaming-app.io/v1alpha1
kind: ScribeConfig
metadata:
  name: staging
spec:
  endpoints:
    transcriptionURL: https://stt.example.com
    saveURL: https://save.example.com
    transcribeTimeout: 90s
  logging:
    defaultLevel: debug
    format: json
  server:
    sink: redis
    redis:
      address: localhost:6379
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "staging", cfg.Metadata.Name)
	assert.Equal(t, "https://save.example.com", cfg.SaveURL())
	assert.Equal(t, 90*time.Second, cfg.Spec.Endpoints.TranscribeTimeout)
	assert.Equal(t, 30*time.Second, cfg.Spec.Endpoints.SaveTimeout)
	assert.Equal(t, LogFormatJSON, cfg.Spec.Logging.Format)
	assert.Equal(t, SinkRedis, cfg.Spec.Server.Sink)
	assert.Equal(t, DefaultRedisPrefix, cfg.Spec.Server.Redis.KeyPrefix)
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.Spec.Server.MaxBodyBytes)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("kind: Other\n"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "kind", verr.Field)

	_, err = Parse([]byte("kind: ScribeConfig\nspec:\n  unknownField: 1\n"))
	require.ErrorContains(t, err, "failed to parse config file")

	_, err = Parse([]byte("kind: [\n"))
	require.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "scribe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: ScribeConfig\nspec:\n  metrics:\n    address: :9090\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Spec.Metrics.Address)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvTranscriptionURL: "http://stt:9000",
		EnvLogLevel:         "debug",
		EnvOpenAIAPIKey:     "sk-test",
		EnvSink:             "redis",
		EnvRedisAddress:     "redis:6379",
		EnvMaxBodyBytes:     "1024",
		EnvSaveURL:          "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://stt:9000", cfg.Spec.Endpoints.TranscriptionURL)
	assert.Equal(t, "http://stt:9000", cfg.SaveURL())
	assert.Equal(t, "debug", cfg.Spec.Logging.DefaultLevel)
	assert.Equal(t, "sk-test", cfg.Spec.Server.Provider.APIKey)
	assert.Equal(t, int64(1024), cfg.Spec.Server.MaxBodyBytes)
	require.NoError(t, cfg.ValidateServer())
}

func TestApplyEnv_BadInteger(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{EnvMaxBodyBytes: "lots"}))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, EnvMaxBodyBytes, verr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScribeConfig)
		field  string
	}{
		{"missing transcription url", func(c *ScribeConfig) { c.Spec.Endpoints.TranscriptionURL = "" }, "endpoints.transcriptionURL"},
		{"relative url", func(c *ScribeConfig) { c.Spec.Endpoints.TranscriptionURL = "localhost:8080" }, "endpoints.transcriptionURL"},
		{"ftp save url", func(c *ScribeConfig) { c.Spec.Endpoints.SaveURL = "ftp://host" }, "endpoints.saveURL"},
		{"negative timeout", func(c *ScribeConfig) { c.Spec.Endpoints.SaveTimeout = -time.Second }, "endpoints.saveTimeout"},
		{"bad mime", func(c *ScribeConfig) { c.Spec.Recording.MIMEType = "webm" }, "recording.mimeType"},
		{"bad log level", func(c *ScribeConfig) { c.Spec.Logging.DefaultLevel = "loud" }, "logging.defaultLevel"},
		{"bad version", func(c *ScribeConfig) { c.APIVersion = "v0" }, "apiVersion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			var verr *ValidationError
			require.ErrorAs(t, cfg.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScribeConfig)
		field  string
	}{
		{"no address", func(c *ScribeConfig) { c.Spec.Server.Address = "" }, "server.address"},
		{"unknown sink", func(c *ScribeConfig) { c.Spec.Server.Sink = "s3" }, "server.sink"},
		{"file sink without dir", func(c *ScribeConfig) { c.Spec.Server.OutputDir = "" }, "server.outputDir"},
		{"redis sink without address", func(c *ScribeConfig) { c.Spec.Server.Sink = SinkRedis }, "server.redis.address"},
		{"zero body", func(c *ScribeConfig) { c.Spec.Server.MaxBodyBytes = 0 }, "server.maxBodyBytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Spec.Server.Provider.APIKey = "sk"
			tt.mutate(cfg)
			var verr *ValidationError
			require.ErrorAs(t, cfg.ValidateServer(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "config validation error: a: bad (got: x)",
		(&ValidationError{Field: "a", Message: "bad", Value: "x"}).Error())
	assert.Equal(t, "config validation error: a: bad", (&ValidationError{Field: "a", Message: "bad"}).Error())
}
