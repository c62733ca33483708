package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ErVarunGupta/Streaming-App/pkg/httputil"
)

// Defaults.
const (
	DefaultBaseURL       = "http://localhost:8080"
	DefaultServerAddress = ":8080"
	DefaultOutputDir     = "outputs"
	DefaultMaxBodyBytes  = 25 << 20
	DefaultRedisPrefix   = "scribe"
	DefaultSampleRate    = 16000
	DefaultRecordingMIME = "audio/webm"
	DefaultRecordingFile = "record.webm"
	DefaultRecordingSave = "recording_output"
	DefaultSummaryModel  = "gpt-4o-mini"
	DefaultWhisperModel  = "whisper-1"
	DefaultServerTimeout = 2 * time.Minute
	DefaultSummaryMin    = 30
	DefaultSummaryMax    = 100
)

// Environment variables read by ApplyEnv.
const (
	EnvTranscriptionURL = "SCRIBE_TRANSCRIPTION_URL"
	EnvSaveURL          = "SCRIBE_SAVE_URL"
	EnvLogLevel         = "SCRIBE_LOG_LEVEL"
	EnvLogFormat        = "SCRIBE_LOG_FORMAT"
	EnvServerAddress    = "SCRIBE_SERVER_ADDRESS"
	EnvOutputDir        = "SCRIBE_OUTPUT_DIR"
	EnvSink             = "SCRIBE_SINK"
	EnvRedisAddress     = "SCRIBE_REDIS_ADDRESS"
	EnvMetricsAddress   = "SCRIBE_METRICS_ADDRESS"
	EnvOTLPEndpoint     = "SCRIBE_OTLP_ENDPOINT"
	EnvMaxBodyBytes     = "SCRIBE_MAX_BODY_BYTES"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
)

// Default returns a complete configuration for local development.
func Default() *ScribeConfig {
	return &ScribeConfig{
		APIVersion: APIVersion,
		Kind:       KindScribeConfig,
		Metadata:   ObjectMeta{Name: "default"},
		Spec: ScribeConfigSpec{
			Endpoints: EndpointsConfig{
				TranscriptionURL:  DefaultBaseURL,
				TranscribeTimeout: httputil.DefaultTranscriptionTimeout,
				SaveTimeout:       httputil.DefaultSaveTimeout,
			},
			Recording: RecordingConfig{
				MIMEType:   DefaultRecordingMIME,
				FileName:   DefaultRecordingFile,
				SaveName:   DefaultRecordingSave,
				SampleRate: DefaultSampleRate,
			},
			Logging: DefaultLoggingConfig(),
			Server: ServerConfig{
				Address:      DefaultServerAddress,
				OutputDir:    DefaultOutputDir,
				Sink:         SinkFile,
				Redis:        RedisConfig{KeyPrefix: DefaultRedisPrefix},
				MaxBodyBytes: DefaultMaxBodyBytes,
				ReadTimeout:  DefaultServerTimeout,
				WriteTimeout: DefaultServerTimeout,
				Provider: ProviderConfig{
					TranscribeModel:  DefaultWhisperModel,
					SummaryModel:     DefaultSummaryModel,
					SummaryMinTokens: DefaultSummaryMin,
					SummaryMaxTokens: DefaultSummaryMax,
				},
			},
			Tracing: TracingConfig{ServiceName: "scribe"},
		},
	}
}

// Load reads a manifest from path over Default. An empty path returns Default.
func Load(path string) (*ScribeConfig, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest over Default. Fields the manifest omits keep
// their defaults; unknown fields are rejected.
func Parse(data []byte) (*ScribeConfig, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}
	var probe struct {
		APIVersion string `yaml:"apiVersion"`
		Kind       string `yaml:"kind"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if probe.Kind != KindScribeConfig {
		return nil, &ValidationError{Field: "kind", Message: "must be " + KindScribeConfig, Value: probe.Kind}
	}

	if err := strictUnmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the environment variables that are set.
// lookup is usually os.LookupEnv.
func (c *ScribeConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	s := &c.Spec
	strs := []struct {
		env string
		dst *string
	}{
		{EnvTranscriptionURL, &s.Endpoints.TranscriptionURL},
		{EnvSaveURL, &s.Endpoints.SaveURL},
		{EnvLogLevel, &s.Logging.DefaultLevel},
		{EnvLogFormat, &s.Logging.Format},
		{EnvServerAddress, &s.Server.Address},
		{EnvOutputDir, &s.Server.OutputDir},
		{EnvSink, &s.Server.Sink},
		{EnvRedisAddress, &s.Server.Redis.Address},
		{EnvMetricsAddress, &s.Metrics.Address},
		{EnvOTLPEndpoint, &s.Tracing.Endpoint},
		{EnvOpenAIAPIKey, &s.Server.Provider.APIKey},
		{EnvOpenAIBaseURL, &s.Server.Provider.BaseURL},
	}
	for _, e := range strs {
		if v, ok := lookup(e.env); ok && v != "" {
			*e.dst = v
		}
	}
	if v, ok := lookup(EnvMaxBodyBytes); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &ValidationError{Field: EnvMaxBodyBytes, Message: "must be an integer", Value: v}
		}
		s.Server.MaxBodyBytes = n
	}
	return nil
}

// SaveURL returns the save base URL, falling back to the transcription URL.
func (c *ScribeConfig) SaveURL() string {
	if c.Spec.Endpoints.SaveURL != "" {
		return c.Spec.Endpoints.SaveURL
	}
	return c.Spec.Endpoints.TranscriptionURL
}

func strictUnmarshal(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
