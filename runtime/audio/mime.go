package audio

import (
	"mime"
	"path/filepath"
	"strings"
)

// Audio MIME type constants.
const (
	MIMETypeWAV         = "audio/wav"
	MIMETypeMP3         = "audio/mpeg"
	MIMETypeFLAC        = "audio/flac"
	MIMETypeOGG         = "audio/ogg"
	MIMETypeM4A         = "audio/mp4"
	MIMETypeAAC         = "audio/aac"
	MIMETypeWebM        = "audio/webm"
	MIMETypeOctetStream = "application/octet-stream"
)

// InferMIMEType returns the MIME type for a file name based on its extension.
// Unknown extensions map to application/octet-stream.
func InferMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".wav":
		return MIMETypeWAV
	case ".mp3":
		return MIMETypeMP3
	case ".flac":
		return MIMETypeFLAC
	case ".ogg", ".oga", ".opus":
		return MIMETypeOGG
	case ".m4a":
		return MIMETypeM4A
	case ".aac":
		return MIMETypeAAC
	case ".webm", ".weba":
		return MIMETypeWebM
	case ".mp4":
		return "video/mp4"
	}
	if ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			if mt, _, err := mime.ParseMediaType(t); err == nil {
				return mt
			}
			return t
		}
	}
	return MIMETypeOctetStream
}
