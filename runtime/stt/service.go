package stt

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
)

// Service transcribes audio to text. The backend uses it behind POST /stt.
type Service interface {
	// Name returns the provider identifier (for logging/debugging).
	Name() string

	// Transcribe converts the payload's audio to text.
	Transcribe(ctx context.Context, payload *audio.Payload, config TranscriptionConfig) (string, error)

	// SupportedFormats returns supported file extensions without the dot.
	SupportedFormats() []string
}

// TranscriptionConfig configures a provider call.
type TranscriptionConfig struct {
	// Language is a hint for the transcription language (e.g., "en", "es").
	Language string

	// Model is the provider-specific model. Empty uses the service default.
	Model string

	// Prompt guides transcription of domain-specific vocabulary.
	Prompt string
}

// Supports reports whether svc accepts a file with the given name. Names
// without an extension are accepted and left to the provider.
func Supports(svc Service, name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return true
	}
	for _, f := range svc.SupportedFormats() {
		if f == ext {
			return true
		}
	}
	return false
}
