package config

import (
	"net/url"
	"strings"
)

// ValidationError reports one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
	Value   string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return "config validation error: " + e.Field + ": " + e.Message + " (got: " + e.Value + ")"
	}
	return "config validation error: " + e.Field + ": " + e.Message
}

// Validate checks the settings every command relies on. Server settings are
// checked by ValidateServer.
func (c *ScribeConfig) Validate() error {
	if c.APIVersion != "" && c.APIVersion != APIVersion {
		return &ValidationError{Field: "apiVersion", Message: "unsupported version", Value: c.APIVersion}
	}
	if c.Kind != "" && c.Kind != KindScribeConfig {
		return &ValidationError{Field: "kind", Message: "must be " + KindScribeConfig, Value: c.Kind}
	}

	s := &c.Spec
	if err := validateBaseURL("endpoints.transcriptionURL", s.Endpoints.TranscriptionURL, true); err != nil {
		return err
	}
	if err := validateBaseURL("endpoints.saveURL", s.Endpoints.SaveURL, false); err != nil {
		return err
	}
	if s.Endpoints.TranscribeTimeout < 0 {
		return &ValidationError{Field: "endpoints.transcribeTimeout", Message: "must not be negative",
			Value: s.Endpoints.TranscribeTimeout.String()}
	}
	if s.Endpoints.SaveTimeout < 0 {
		return &ValidationError{Field: "endpoints.saveTimeout", Message: "must not be negative",
			Value: s.Endpoints.SaveTimeout.String()}
	}
	if s.Recording.SampleRate < 0 {
		return &ValidationError{Field: "recording.sampleRate", Message: "must not be negative"}
	}
	if s.Recording.MIMEType != "" && !strings.Contains(s.Recording.MIMEType, "/") {
		return &ValidationError{Field: "recording.mimeType", Message: "must be a MIME type", Value: s.Recording.MIMEType}
	}
	if err := validateBaseURL("tracing.endpoint", s.Tracing.Endpoint, false); err != nil {
		return err
	}
	return s.Logging.Validate()
}

// ValidateServer checks the backend settings in addition to Validate.
func (c *ScribeConfig) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	srv := &c.Spec.Server
	if srv.Address == "" {
		return &ValidationError{Field: "server.address", Message: "is required"}
	}
	switch srv.Sink {
	case SinkFile:
		if srv.OutputDir == "" {
			return &ValidationError{Field: "server.outputDir", Message: "is required for the file sink"}
		}
	case SinkRedis:
		if srv.Redis.Address == "" {
			return &ValidationError{Field: "server.redis.address", Message: "is required for the redis sink"}
		}
	default:
		return &ValidationError{Field: "server.sink", Message: "must be file or redis", Value: srv.Sink}
	}
	if srv.MaxBodyBytes <= 0 {
		return &ValidationError{Field: "server.maxBodyBytes", Message: "must be positive"}
	}
	if srv.Provider.APIKey == "" {
		return &ValidationError{Field: "server.provider.apiKey", Message: "is required (set OPENAI_API_KEY)"}
	}
	return nil
}

func validateBaseURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: field, Message: "must be an absolute http(s) URL", Value: raw}
	}
	return nil
}
