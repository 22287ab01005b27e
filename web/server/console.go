package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	serverLog   core.Logger
}

// NewWebLogger creates a new web logger for a specific render.
// Every message is also written to serverLog when it is non-nil.
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage, serverLog core.Logger) core.Logger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
		serverLog:   serverLog,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	if wl.serverLog != nil {
		wl.serverLog.Printf("[%s] %s", wl.renderID, message)
	}

	if wl.consoleChan == nil {
		return
	}

	// Non-blocking: a slow browser must never stall rendering
	select {
	case wl.consoleChan <- ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   message,
		Timestamp: time.Now(),
		Level:     levelFor(message),
	}:
	default:
	}
}

func levelFor(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		return "error"
	case strings.Contains(lower, "cancelled") || strings.Contains(lower, "warning"):
		return "warning"
	default:
		return "info"
	}
}
