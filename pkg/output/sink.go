// Package output writes rendered pixels to image files.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Output formats
const (
	FormatPPM = "ppm"
	FormatPNG = "png"
)

var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrNotStarted    = errors.New("pixel written before Begin")
	ErrPixelCount    = errors.New("pixel count does not match image size")
)

// PixelSink receives 8-bit pixels in row-major order starting at the top-left.
// Begin is called exactly once before the first pixel.
type PixelSink interface {
	Begin(width, height int) error
	WritePixel(r, g, b uint8) error
	Close() error
}

// FormatForPath picks an output format from a file extension, defaulting to PPM
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG
	default:
		return FormatPPM
	}
}

// WriteFile hands a sink for format to render and stores the result at path.
// An empty format is inferred from the extension. Output goes to a temporary file in
// the same directory that replaces path only after render and the sink both succeed,
// so a failed or cancelled render leaves path untouched.
func WriteFile(path, format string, render func(PixelSink) error) (err error) {
	if format == "" {
		format = FormatForPath(path)
	}
	format = strings.ToLower(format)
	if format != FormatPPM && format != FormatPNG {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := file.Name()
	closed := false
	defer func() {
		if !closed {
			file.Close()
		}
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	var sink PixelSink
	if format == FormatPNG {
		sink = NewPNGWriter(file)
	} else {
		sink = NewPPMWriter(file)
	}

	if err := render(sink); err != nil {
		return err
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("failed to finish %s output: %w", format, err)
	}

	closed = true
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
