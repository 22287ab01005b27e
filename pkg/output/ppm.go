package output

import (
	"bufio"
	"fmt"
	"io"
)

// PPMWriter writes the plain-text P3 format: a "P3\n<w> <h>\n255\n" header
// followed by one "r g b" line per pixel.
type PPMWriter struct {
	w         *bufio.Writer
	started   bool
	remaining int
}

// NewPPMWriter creates a P3 writer over w
func NewPPMWriter(w io.Writer) *PPMWriter {
	return &PPMWriter{w: bufio.NewWriter(w)}
}

// Begin writes the header
func (p *PPMWriter) Begin(width, height int) error {
	p.started = true
	p.remaining = width * height
	_, err := fmt.Fprintf(p.w, "P3\n%d %d\n255\n", width, height)
	return err
}

// WritePixel writes one pixel line
func (p *PPMWriter) WritePixel(r, g, b uint8) error {
	if !p.started {
		return ErrNotStarted
	}
	if p.remaining <= 0 {
		return ErrPixelCount
	}
	p.remaining--
	_, err := fmt.Fprintf(p.w, "%d %d %d\n", r, g, b)
	return err
}

// Close flushes buffered output
func (p *PPMWriter) Close() error {
	if err := p.w.Flush(); err != nil {
		return err
	}
	if p.started && p.remaining != 0 {
		return fmt.Errorf("%w: %d pixels missing", ErrPixelCount, p.remaining)
	}
	return nil
}
