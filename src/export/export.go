package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrEncode is returned when the encoder for the chosen format fails.
	ErrEncode = errors.New("encode failed")
	// ErrWrite is returned when the destination cannot be written.
	ErrWrite = errors.New("write failed")
)

// Export crops img to r and writes it to path in format f.
// Nothing is left at path unless the whole image was encoded and flushed.
func Export(ctx context.Context, img *image.RGBA, r image.Rectangle, f Format, path string, opts Options) error {
	if !f.Valid() {
		return fmt.Errorf("%w: unsupported format %v", ErrEncode, f)
	}
	cropped, err := Crop(img, r)
	if err != nil {
		return err
	}
	return WriteFile(ctx, cropped, f, path, opts)
}

// WriteFile encodes img into a temporary file next to path and renames it
// into place once encoding succeeded.
func WriteFile(ctx context.Context, img image.Image, f Format, path string, opts Options) (err error) {
	if path == "" {
		return fmt.Errorf("%w: empty destination path", ErrWrite)
	}
	dir := filepath.Dir(path)
	if err := checkWritable(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = tmp.Close()
		}
		_ = os.Remove(tmpName)
	}()

	ew := &errWriter{w: tmp}
	bw := bufio.NewWriter(ew)
	if encErr := Encode(bw, img, f, opts); encErr != nil {
		if ew.err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, ew.err)
		}
		return fmt.Errorf("%w: %s: %w", ErrEncode, f, encErr)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	_ = tmp.Chmod(0o644)
	closed = true
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// DefaultPath returns a file name in dir that does not exist yet,
// e.g. screenshot_1700000000.png.
func DefaultPath(dir string, f Format, now time.Time) string {
	base := fmt.Sprintf("screenshot_%d", now.Unix())
	path := filepath.Join(dir, base+"."+f.Extension())
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.%s", base, i, f.Extension()))
	}
}

// errWriter remembers the first write error so encoder failures caused by
// the disk can be told apart from encoder failures.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
