// Package config loads scribe configuration from a K8s-style YAML manifest
// and environment variables.
package config

import "time"

// ObjectMeta is a simplified metadata block for config manifests.
type ObjectMeta struct {
	Name        string            `yaml:"name,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// ScribeConfig is the configuration manifest.
//
//	apiVersion: scribe.streaming-app.io/v1alpha1
//	kind: ScribeConfig
//	metadata:
//	  name: local
//	spec:
//	  endpoints:
//	    transcriptionURL: http://localhost:8080
type ScribeConfig struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   ObjectMeta       `yaml:"metadata,omitempty"`
	Spec       ScribeConfigSpec `yaml:"spec"`
}

// ScribeConfigSpec holds every setting.
type ScribeConfigSpec struct {
	Endpoints EndpointsConfig   `yaml:"endpoints"`
	Recording RecordingConfig   `yaml:"recording"`
	Logging   LoggingConfigSpec `yaml:"logging"`
	Server    ServerConfig      `yaml:"server"`
	Metrics   MetricsConfig     `yaml:"metrics"`
	Tracing   TracingConfig     `yaml:"tracing"`
}

// EndpointsConfig locates the transcription and save endpoints used by the client.
type EndpointsConfig struct {
	// TranscriptionURL is the base URL serving POST /stt.
	TranscriptionURL string `yaml:"transcriptionURL"`
	// SaveURL is the base URL serving POST /save. Empty means TranscriptionURL.
	SaveURL           string        `yaml:"saveURL,omitempty"`
	TranscribeTimeout time.Duration `yaml:"transcribeTimeout,omitempty"`
	SaveTimeout       time.Duration `yaml:"saveTimeout,omitempty"`
}

// RecordingConfig configures microphone capture.
type RecordingConfig struct {
	MIMEType   string `yaml:"mimeType,omitempty"`
	FileName   string `yaml:"fileName,omitempty"`
	SaveName   string `yaml:"saveName,omitempty"`
	SampleRate int    `yaml:"sampleRate,omitempty"`
}

// Sink types for ServerConfig.Sink.
const (
	SinkFile  = "file"
	SinkRedis = "redis"
)

// ServerConfig configures the development backend.
type ServerConfig struct {
	Address      string         `yaml:"address"`
	OutputDir    string         `yaml:"outputDir"`
	Sink         string         `yaml:"sink"`
	Redis        RedisConfig    `yaml:"redis,omitempty"`
	MaxBodyBytes int64          `yaml:"maxBodyBytes,omitempty"`
	ReadTimeout  time.Duration  `yaml:"readTimeout,omitempty"`
	WriteTimeout time.Duration  `yaml:"writeTimeout,omitempty"`
	Provider     ProviderConfig `yaml:"provider"`
}

// RedisConfig configures the redis sink.
type RedisConfig struct {
	Address   string        `yaml:"address,omitempty"`
	KeyPrefix string        `yaml:"keyPrefix,omitempty"`
	TTL       time.Duration `yaml:"ttl,omitempty"`
}

// ProviderConfig configures the speech and summary models behind the backend.
type ProviderConfig struct {
	// APIKey is normally supplied through OPENAI_API_KEY.
	APIKey           string `yaml:"apiKey,omitempty"`
	BaseURL          string `yaml:"baseURL,omitempty"`
	TranscribeModel  string `yaml:"transcribeModel,omitempty"`
	SummaryModel     string `yaml:"summaryModel,omitempty"`
	Language         string `yaml:"language,omitempty"`
	SummaryMinTokens int    `yaml:"summaryMinTokens,omitempty"`
	SummaryMaxTokens int    `yaml:"summaryMaxTokens,omitempty"`
}

// MetricsConfig configures the Prometheus exporter. Empty Address disables it.
type MetricsConfig struct {
	Address string `yaml:"address,omitempty"`
}

// TracingConfig configures OTLP export. Empty Endpoint disables it.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint,omitempty"`
	ServiceName string `yaml:"serviceName,omitempty"`
}
