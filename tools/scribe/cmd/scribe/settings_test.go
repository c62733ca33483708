package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErVarunGupta/Streaming-App/pkg/config"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestResolveSettings_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := resolveSettings(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultBaseURL, cfg.Spec.Endpoints.TranscriptionURL)
	assert.Equal(t, config.DefaultBaseURL, cfg.SaveURL())
}

func TestResolveSettings_EnvThenFlags(t *testing.T) {
	resetViper(t)
	env := envMap(map[string]string{
		config.EnvTranscriptionURL: "http://env-host:9000",
		config.EnvSaveURL:          "http://env-save:9001",
	})

	cfg, err := resolveSettings(env)
	require.NoError(t, err)
	assert.Equal(t, "http://env-host:9000", cfg.Spec.Endpoints.TranscriptionURL)
	assert.Equal(t, "http://env-save:9001", cfg.SaveURL())

	viper.Set(flagURL, "http://flag-host:7000")
	cfg, err = resolveSettings(env)
	require.NoError(t, err)
	assert.Equal(t, "http://flag-host:7000", cfg.Spec.Endpoints.TranscriptionURL)
	assert.Equal(t, "http://env-save:9001", cfg.SaveURL())
}

func TestResolveSettings_Manifest(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "scribe.yaml")
	manifest := `apiVersion: scribe.streaming-app.io/v1alpha1
kind: ScribeConfig
metadata:
  name: test
spec:
  endpoints:
    transcriptionURL: http://manifest-host:8000
`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))
	viper.Set(flagConfig, path)

	cfg, err := resolveSettings(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "http://manifest-host:8000", cfg.Spec.Endpoints.TranscriptionURL)

	cfg, err = resolveSettings(envMap(map[string]string{config.EnvTranscriptionURL: "http://env-host:9000"}))
	require.NoError(t, err)
	assert.Equal(t, "http://env-host:9000", cfg.Spec.Endpoints.TranscriptionURL)
}

func TestResolveSettings_EnvFile(t *testing.T) {
	resetViper(t)
	const key = "SCRIBE_TEST_ENV_FILE_MARKER"
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	viper.Set(flagEnvFile, path)

	_, err := resolveSettings(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "loaded", os.Getenv(key))
}

func TestResolveSettings_MissingEnvFileIgnored(t *testing.T) {
	resetViper(t)
	viper.Set(flagEnvFile, filepath.Join(t.TempDir(), "absent.env"))

	_, err := resolveSettings(envMap(nil))
	assert.NoError(t, err)
}

func TestResolveSettings_InvalidURL(t *testing.T) {
	resetViper(t)
	viper.Set(flagURL, "ftp://example.com")

	_, err := resolveSettings(envMap(nil))
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "endpoints.transcriptionURL", verr.Field)
}

func TestResolveSettings_LogLevelFlag(t *testing.T) {
	resetViper(t)
	viper.Set(flagLogLevel, "debug")

	cfg, err := resolveSettings(envMap(map[string]string{config.EnvLogLevel: "error"}))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Spec.Logging.DefaultLevel)
}
