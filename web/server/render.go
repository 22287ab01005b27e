package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// TileUpdate represents a single tile update sent via SSE
type TileUpdate struct {
	TileX       int    `json:"tileX"`
	TileY       int    `json:"tileY"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber  int    `json:"passNumber"`
	TileNumber  int    `json:"tileNumber"`  // Current tile number in this pass (1-based)
	TotalTiles  int    `json:"totalTiles"`  // Total number of tiles in the image
	TotalPasses int    `json:"totalPasses"` // Total number of passes planned
}

// PassUpdate is sent via SSE when a pass finishes
type PassUpdate struct {
	RenderID        string  `json:"renderId"`
	PassNumber      int     `json:"passNumber"`
	TotalPasses     int     `json:"totalPasses"`
	IsLast          bool    `json:"isLast"`
	ElapsedMs       int64   `json:"elapsedMs"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	ImageData       string  `json:"imageData"` // Base64 encoded PNG of the whole image
	TotalPixels     int     `json:"totalPixels"`
	TotalSamples    int     `json:"totalSamples"`
	AverageSamples  float64 `json:"averageSamples"`
	MaxSamples      int     `json:"maxSamples"`
	MinSamples      int     `json:"minSamples"`
	MaxSamplesUsed  int     `json:"maxSamplesUsed"`
	MeanLuminance   float64 `json:"meanLuminance"`
	LuminanceStdDev float64 `json:"luminanceStdDev"`
	PrimitiveCount  int     `json:"primitiveCount"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "start", "console", "tile", "passComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender handles progressive rendering with real-time tile streaming via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	setSSEHeaders(w)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Single writer goroutine owns w; it exits once sseEventChan is closed
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := parseRenderRequest(r)
	if err != nil {
		sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	renderID := uuid.NewString()
	consoleChan := make(chan ConsoleMessage, 50)
	webLogger := NewWebLogger(renderID, consoleChan, s.logger)

	// Stop the console streamer before sseEventChan is closed
	consoleCtx, stopConsole := context.WithCancel(ctx)
	var consoleWG sync.WaitGroup
	consoleWG.Add(1)
	go func() {
		defer consoleWG.Done()
		streamConsoleMessages(consoleCtx, consoleChan, sseEventChan)
	}()
	defer func() {
		stopConsole()
		consoleWG.Wait()
	}()

	sceneObj, err := s.createScene(req.Scene, req.Width)
	if err != nil {
		sendEvent(ctx, sseEventChan, "error", err.Error())
		return
	}
	// Unset request values keep the scene's own sampling settings
	sceneObj.SamplingConfig = scene.MergeSamplingConfig(sceneObj.SamplingConfig, scene.SamplingConfig{
		SamplesPerPixel: req.MaxSamples,
		MaxDepth:        req.MaxDepth,
	})

	raytracer := renderer.NewProgressiveRaytracer(sceneObj, renderer.ProgressiveConfig{
		TileSize:           DefaultTileSize,
		InitialSamples:     1,
		MaxSamplesPerPixel: sceneObj.SamplingConfig.SamplesPerPixel,
		MaxPasses:          req.MaxPasses,
		Seed:               time.Now().UnixNano(),
	}, webLogger)

	start, _ := json.Marshal(map[string]interface{}{
		"renderId": renderID,
		"width":    raytracer.Width(),
		"height":   raytracer.Height(),
	})
	sendEvent(ctx, sseEventChan, "start", string(start))

	startTime := time.Now()
	passChan, tileChan, errChan := raytracer.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: true})
	s.handleRenderingEvents(ctx, sseEventChan, passChan, tileChan, errChan, renderResult{
		renderID:  renderID,
		scene:     sceneObj,
		req:       req,
		width:     raytracer.Width(),
		height:    raytracer.Height(),
		startTime: startTime,
	})
}

type renderResult struct {
	renderID      string
	scene         *scene.Scene
	req           *RenderRequest
	width, height int
	startTime     time.Time
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes every event from sseEventChan until it is closed.
// After a disconnect the remaining events are drained without writing.
func writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	for event := range sseEventChan {
		if ctx.Err() != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages as SSE events until ctx is done
func streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for {
		select {
		case consoleMsg := <-consoleChan:
			data, err := json.Marshal(consoleMsg)
			if err != nil {
				continue
			}
			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}
		case <-ctx.Done():
			return
		}
	}
}

// sendEvent queues an event unless the client has gone away
func sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType, data string) {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
	}
}

// handleRenderingEvents forwards renderer output until every result channel is closed
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent,
	passChan <-chan renderer.PassResult, tileChan <-chan renderer.TileCompletionResult, errChan <-chan error,
	result renderResult) {

	var renderErr error
	for passChan != nil || tileChan != nil || errChan != nil {
		select {
		case passResult, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			s.handlePassComplete(ctx, sseEventChan, passResult, result)

		case tileResult, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			s.handleTileUpdate(ctx, sseEventChan, tileResult)

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			renderErr = err

		case <-ctx.Done():
			return
		}
	}

	if renderErr != nil {
		sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Rendering failed: %v", renderErr))
		return
	}
	sendEvent(ctx, sseEventChan, "complete", "Rendering completed")
}

// handlePassComplete sends a pass completion event with the full image
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, passResult renderer.PassResult, result renderResult) {
	imageData, err := imageToBase64PNG(passResult.Image)
	if err != nil {
		s.logger.Printf("Error encoding pass %d image: %v\n", passResult.PassNumber, err)
		return
	}

	stats := passResult.Stats
	update := PassUpdate{
		RenderID:        result.renderID,
		PassNumber:      passResult.PassNumber,
		TotalPasses:     result.req.MaxPasses,
		IsLast:          passResult.IsLast,
		ElapsedMs:       time.Since(result.startTime).Milliseconds(),
		Width:           result.width,
		Height:          result.height,
		ImageData:       imageData,
		TotalPixels:     stats.TotalPixels,
		TotalSamples:    stats.TotalSamples,
		AverageSamples:  stats.AverageSamples,
		MaxSamples:      stats.MaxSamples,
		MinSamples:      stats.MinSamples,
		MaxSamplesUsed:  stats.MaxSamplesUsed,
		MeanLuminance:   stats.MeanLuminance,
		LuminanceStdDev: stats.LuminanceStdDev,
		PrimitiveCount:  result.scene.GetPrimitiveCount(),
	}

	data, err := json.Marshal(update)
	if err != nil {
		s.logger.Printf("Error marshaling pass update: %v\n", err)
		return
	}
	sendEvent(ctx, sseEventChan, "passComplete", string(data))
}

// handleTileUpdate sends a tile update event
func (s *Server) handleTileUpdate(ctx context.Context, sseEventChan chan<- SSEEvent, tileResult renderer.TileCompletionResult) {
	tileData, err := imageToBase64PNG(tileResult.TileImage)
	if err != nil {
		s.logger.Printf("Error encoding tile image (%d, %d): %v\n", tileResult.TileX, tileResult.TileY, err)
		return
	}

	data, err := json.Marshal(TileUpdate{
		TileX:       tileResult.TileX,
		TileY:       tileResult.TileY,
		ImageData:   tileData,
		PassNumber:  tileResult.PassNumber,
		TileNumber:  tileResult.TileNumber,
		TotalTiles:  tileResult.TotalTiles,
		TotalPasses: tileResult.TotalPasses,
	})
	if err != nil {
		s.logger.Printf("Error marshaling tile update: %v\n", err)
		return
	}
	sendEvent(ctx, sseEventChan, "tile", string(data))
}

// parseRenderRequest parses and validates the render query parameters.
// Width, maxSamples and maxDepth are zero when absent so the scene's values apply.
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.MaxSamples, err = parseIntParam(query, "maxSamples", 0, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(query, "maxPasses", renderer.DefaultProgressiveConfig().MaxPasses, 1, 100); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", 0, 1, 500); err != nil {
		return nil, err
	}
	return req, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
