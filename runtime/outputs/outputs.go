// Package outputs stores saved transcriptions.
package outputs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

// DefaultName is the record name when a save request carries none.
const DefaultName = "audio_output"

var (
	// ErrInvalidRecord is returned for records missing text or summary.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
)

// Record is one saved transcription.
type Record struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Text      string            `json:"text"`
	Summary   string            `json:"summary"`
	Kind      types.SessionKind `json:"type"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewRecord builds a record with a fresh ID. An empty name becomes
// DefaultName and any kind other than upload is stored as a recording.
func NewRecord(name, text, summary string, kind types.SessionKind) *Record {
	if name == "" {
		name = DefaultName
	}
	if kind != types.SessionUpload {
		kind = types.SessionRecording
	}
	return &Record{
		ID:        uuid.NewString(),
		Name:      name,
		Text:      strings.TrimSpace(text),
		Summary:   strings.TrimSpace(summary),
		Kind:      kind,
		CreatedAt: time.Now(),
	}
}

// Validate reports ErrInvalidRecord when text or summary is empty.
func (r *Record) Validate() error {
	if r == nil || r.Text == "" || r.Summary == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Sink persists records. Every Save creates a new record; nothing is
// overwritten. The returned location names where the record went.
type Sink interface {
	Save(ctx context.Context, rec *Record) (location string, err error)
}

// Render formats a record the way it is written to disk.
func Render(rec *Record) string {
	var b strings.Builder
	b.WriteString("# Transcribed Text:\n")
	b.WriteString(rec.Text)
	b.WriteString("\n\n# Summary:\n")
	b.WriteString(rec.Summary)
	return b.String()
}
