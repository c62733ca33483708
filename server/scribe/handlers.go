package scribeserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ErVarunGupta/Streaming-App/runtime/audio"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/outputs"
	"github.com/ErVarunGupta/Streaming-App/runtime/stt"
	"github.com/ErVarunGupta/Streaming-App/runtime/summarize"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

// Error messages returned in {"error": ...} bodies.
const (
	msgNoFile         = "No file provided"
	msgNoData         = "No data provided"
	msgMissingFields  = "Missing text or summary"
	msgTooLarge       = "Request body too large"
	msgTranscribeFail = "Transcription failed"
	msgSummarizeFail  = "Summarization failed"
	msgSaveFail       = "Failed to save output"
)

type transcribeResponse struct {
	Text    string `json:"text"`
	Summary string `json:"summary"`
}

// saveRequest mirrors the client's save body. Fields are pointers so that
// absent and empty can be told apart.
type saveRequest struct {
	Name    *string `json:"name"`
	Text    *string `json:"text"`
	Summary *string `json:"summary"`
	Type    *string `json:"type"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)

	payload, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		logger.DebugContext(ctx, "Upload rejected", "error", err)
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}

	start := time.Now()
	text, err := s.speech.Transcribe(ctx, payload, s.sttConfig)
	if err != nil {
		logger.TranscriptionError(ctx, "server.transcribe", err, "provider", s.speech.Name())
		writeError(w, transcribeStatus(err), msgTranscribeFail)
		return
	}

	summary, err := s.summarizer.Summarize(ctx, text)
	switch {
	case errors.Is(err, summarize.ErrEmptyText):
		summary = ""
	case err != nil:
		logger.TranscriptionError(ctx, "server.summarize", err)
		writeError(w, http.StatusBadGateway, msgSummarizeFail)
		return
	}

	logger.TranscriptionResult(ctx, len(text), len(summary), time.Since(start).Milliseconds(),
		"file", payload.Name())
	writeJSON(w, http.StatusOK, transcribeResponse{Text: text, Summary: summary})
}

// readUpload extracts the "file" part as a payload.
func readUpload(r *http.Request) (*audio.Payload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(stt.FileField)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == audio.MIMETypeOctetStream {
		mimeType = audio.InferMIMEType(header.Filename)
	}
	return audio.FromBytes(header.Filename, mimeType, data), nil
}

// transcribeStatus maps provider errors: bad input is the caller's fault,
// anything else is an upstream failure.
func transcribeStatus(err error) int {
	switch {
	case errors.Is(err, stt.ErrEmptyAudio),
		errors.Is(err, stt.ErrInvalidFormat),
		errors.Is(err, stt.ErrAudioTooShort):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoData)
		return
	}
	// An empty object counts as no data.
	var fields map[string]json.RawMessage
	var req saveRequest
	if json.Unmarshal(body, &fields) != nil || len(fields) == 0 || json.Unmarshal(body, &req) != nil {
		writeError(w, http.StatusBadRequest, msgNoData)
		return
	}

	text, summary := deref(req.Text, ""), deref(req.Summary, "")
	if strings.TrimSpace(text) == "" || strings.TrimSpace(summary) == "" {
		writeError(w, http.StatusBadRequest, msgMissingFields)
		return
	}

	kind := types.SessionKind(deref(req.Type, types.SessionUpload.String()))
	rec := outputs.NewRecord(deref(req.Name, outputs.DefaultName), text, summary, kind)

	location, err := s.sink.Save(ctx, rec)
	if err != nil {
		logger.ErrorContext(ctx, "Save failed", "name", rec.Name, "error", err)
		writeError(w, http.StatusInternalServerError, msgSaveFail)
		return
	}

	logger.InfoContext(ctx, "Output saved", "location", location, "kind", rec.Kind.String())
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf(" File saved successfully at %s", location),
	})
}

func deref(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
