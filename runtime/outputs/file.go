package outputs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/types"
)

// Directory names under the FileSink base directory.
const (
	UploadsDir    = "uploads"
	RecordingsDir = "recordings"
)

const (
	timestampLayout = "20060102_150405"
	maxCollisions   = 1000
	dirPerm         = 0o755
	filePerm        = 0o644
)

// FileSink writes each record to its own text file.
type FileSink struct {
	baseDir string
	now     func() time.Time
}

// FileOption configures a FileSink.
type FileOption func(*FileSink)

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) FileOption {
	return func(s *FileSink) { s.now = now }
}

// NewFileSink creates baseDir/uploads and baseDir/recordings and returns a
// sink writing into them.
func NewFileSink(baseDir string, opts ...FileOption) (*FileSink, error) {
	s := &FileSink{baseDir: baseDir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	for _, dir := range []string{UploadsDir, RecordingsDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), dirPerm); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	return s, nil
}

// Dir returns the directory records of kind are written to.
func (s *FileSink) Dir(kind types.SessionKind) string {
	if kind == types.SessionUpload {
		return filepath.Join(s.baseDir, UploadsDir)
	}
	return filepath.Join(s.baseDir, RecordingsDir)
}

// Save writes rec to <dir>/<base>_<YYYYMMDD_HHMMSS>.txt and returns the path.
// Saves within the same second get a numeric suffix.
func (s *FileSink) Save(ctx context.Context, rec *Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stem := fileStem(rec.Name) + "_" + s.now().Format(timestampLayout)
	dir := s.Dir(rec.Kind)
	content := []byte(Render(rec))

	for i := 0; i < maxCollisions; i++ {
		name := stem + ".txt"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.txt", stem, i)
		}
		path := filepath.Join(dir, name)
		err := writeNew(path, content)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("write record: %w", err)
		}
		logger.DebugContext(ctx, "Record written", "path", path, "kind", rec.Kind.String())
		return path, nil
	}
	return "", fmt.Errorf("write record: too many files named %s", stem)
}

// fileStem strips directories and the extension from a user-supplied name.
func fileStem(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == ".." || base == "/" {
		return DefaultName
	}
	return base
}

func writeNew(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
