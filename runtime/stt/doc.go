// Package stt turns audio into text.
//
// Client is the session-side transcription client: it posts an
// audio.Payload as multipart form field "file" to a backend's /stt endpoint
// and decodes {"text", "summary"}. Each call makes exactly one attempt under
// a bounded timeout, and failures are classified as NetworkError,
// ServerError or MalformedResponse.
//
// Service is the provider side used by the backend itself. OpenAIService
// implements it with the Whisper transcription API.
package stt
