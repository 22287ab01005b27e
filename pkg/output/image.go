package output

import (
	"image"
	"image/color"
	"image/png"
	"io"
)

// ImageSink collects pixels into an in-memory RGBA image
type ImageSink struct {
	img  *image.RGBA
	next int
}

// NewImageSink creates an empty image sink
func NewImageSink() *ImageSink {
	return &ImageSink{}
}

// Begin allocates the image
func (s *ImageSink) Begin(width, height int) error {
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	s.next = 0
	return nil
}

// WritePixel stores the next pixel
func (s *ImageSink) WritePixel(r, g, b uint8) error {
	if s.img == nil {
		return ErrNotStarted
	}
	width := s.img.Rect.Dx()
	if s.next >= width*s.img.Rect.Dy() {
		return ErrPixelCount
	}
	s.img.SetRGBA(s.next%width, s.next/width, color.RGBA{R: r, G: g, B: b, A: 255})
	s.next++
	return nil
}

// Close is a no-op
func (s *ImageSink) Close() error {
	return nil
}

// Image returns the collected image, or nil before Begin
func (s *ImageSink) Image() *image.RGBA {
	return s.img
}

// PNGWriter collects pixels and encodes them as PNG on Close
type PNGWriter struct {
	ImageSink
	w io.Writer
}

// NewPNGWriter creates a PNG writer over w
func NewPNGWriter(w io.Writer) *PNGWriter {
	return &PNGWriter{w: w}
}

// Close encodes the image
func (p *PNGWriter) Close() error {
	if p.img == nil {
		return ErrNotStarted
	}
	return png.Encode(p.w, p.img)
}
