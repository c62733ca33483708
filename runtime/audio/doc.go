// Package audio holds the audio handed to a transcription session.
//
// A Payload is an immutable (name, MIME type, content) triple. Payloads come
// from a user-selected File (FromFile), from a path on disk (OpenLocalFile),
// or from bytes assembled by the recorder (FromBytes). Content is opened
// lazily so selecting a large file costs nothing until it is submitted.
//
// Buffer accumulates microphone chunks in arrival order while a recording is
// in progress. WrapPCMAsWAV and Level help with raw PCM16 capture.
package audio
