package renderer

import (
	"fmt"
	"io"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// WriterLogger implements core.Logger on top of any writer.
// The CLI uses it to keep progress on stderr when the image goes to stdout.
type WriterLogger struct {
	w io.Writer
}

func (wl *WriterLogger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(wl.w, format, args...)
}

// NewWriterLogger creates a logger writing to w
func NewWriterLogger(w io.Writer) core.Logger {
	return &WriterLogger{w: w}
}

// silentLogger discards everything
type silentLogger struct{}

func (silentLogger) Printf(string, ...interface{}) {}

// NewSilentLogger returns a logger that discards all output
func NewSilentLogger() core.Logger {
	return silentLogger{}
}
