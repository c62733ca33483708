package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	pkgerrors "github.com/ErVarunGupta/Streaming-App/pkg/errors"
)

const componentName = "audio"

// File is a user-selected audio file. Implementations report the declared name
// and MIME type and open the content on demand.
type File interface {
	Name() string
	MIMEType() string
	Open() (io.ReadCloser, error)
}

// Payload is audio ready for submission. It is immutable once created.
type Payload struct {
	name     string
	mimeType string
	size     int64
	open     func() (io.ReadCloser, error)
}

// Name returns the file name sent with the payload.
func (p *Payload) Name() string { return p.name }

// MIMEType returns the payload content type.
func (p *Payload) MIMEType() string { return p.mimeType }

// Size returns the content length in bytes, or -1 when unknown.
func (p *Payload) Size() int64 { return p.size }

// Open returns a fresh reader over the payload content. Callers must close it.
func (p *Payload) Open() (io.ReadCloser, error) {
	return p.open()
}

// ReadAll reads the whole payload content.
func (p *Payload) ReadAll() ([]byte, error) {
	rc, err := p.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// String implements fmt.Stringer.
func (p *Payload) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", p.name, p.mimeType, p.size)
}

// FromFile wraps a selected file as a payload without reading it.
// A nil file means nothing was selected.
func FromFile(file File) (*Payload, error) {
	if file == nil {
		return nil, pkgerrors.New(componentName, "FromFile", pkgerrors.ErrNoFileSelected)
	}
	size := int64(-1)
	if sized, ok := file.(interface{ Size() int64 }); ok {
		size = sized.Size()
	}
	return &Payload{
		name:     file.Name(),
		mimeType: file.MIMEType(),
		size:     size,
		open:     file.Open,
	}, nil
}

// FromBytes builds an in-memory payload. The data is copied.
func FromBytes(name, mimeType string, data []byte) *Payload {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Payload{
		name:     name,
		mimeType: mimeType,
		size:     int64(len(buf)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		},
	}
}

// LocalFile is a File backed by a path on disk.
type LocalFile struct {
	path     string
	mimeType string
	size     int64
}

// OpenLocalFile validates path and returns it as a File. The MIME type is
// inferred from the extension.
func OpenLocalFile(path string) (*LocalFile, error) {
	if path == "" {
		return nil, pkgerrors.New(componentName, "OpenLocalFile", pkgerrors.ErrNoFileSelected)
	}
	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, pkgerrors.New(componentName, "OpenLocalFile",
			fmt.Errorf("%w: %w", pkgerrors.ErrNoFileSelected, err))
	}
	if info.IsDir() {
		return nil, pkgerrors.New(componentName, "OpenLocalFile",
			fmt.Errorf("%w: %s is a directory", pkgerrors.ErrNoFileSelected, cleanPath))
	}
	return &LocalFile{
		path:     cleanPath,
		mimeType: InferMIMEType(cleanPath),
		size:     info.Size(),
	}, nil
}

// Name returns the base name of the file.
func (f *LocalFile) Name() string { return filepath.Base(f.path) }

// Path returns the cleaned path.
func (f *LocalFile) Path() string { return f.path }

// MIMEType returns the inferred content type.
func (f *LocalFile) MIMEType() string { return f.mimeType }

// Size returns the size observed when the file was opened.
func (f *LocalFile) Size() int64 { return f.size }

// Open opens the file for reading.
func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}
