package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

const (
	DefaultPort     = 8080
	DefaultTileSize = 64

	minWidth = 16
	maxWidth = 2000
)

// Config holds the web server settings
type Config struct {
	Port      int    // TCP port to listen on
	ScenesDir string // Directory searched for YAML/TOML scene files
	StaticDir string // Optional directory served at "/"
}

// Server handles web requests for the sphere tracer
type Server struct {
	port      int
	scenesDir string
	logger    core.Logger
	mux       *http.ServeMux
}

// NewServer creates a new web server with its routes registered
func NewServer(config Config, logger core.Logger) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if logger == nil {
		logger = renderer.NewSilentLogger()
	}

	s := &Server{
		port:      config.Port,
		scenesDir: config.ScenesDir,
		logger:    logger,
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	if config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(config.StaticDir)))
	}

	return s
}

// Handler returns the server's request router
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting web server on http://localhost:%d\n", s.port)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		if err := <-errChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string `json:"scene"`      // Scene ID, e.g. "default" or "file:glass-trio"
	Width      int    `json:"width"`      // Image width; height follows the scene's aspect ratio
	MaxSamples int    `json:"maxSamples"` // Maximum samples per pixel; 0 uses the scene's value
	MaxPasses  int    `json:"maxPasses"`  // Maximum number of passes
	MaxDepth   int    `json:"maxDepth"`   // Maximum ray bounce depth; 0 uses the scene's value
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = "default"
	}

	sceneObj, err := s.createScene(sceneName, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	camera := renderer.NewCamera(sceneObj.CameraConfig)
	sampling := sceneObj.SamplingConfig
	response := map[string]interface{}{
		"scene": sceneName,
		"defaults": map[string]interface{}{
			"width":           camera.ImageWidth(),
			"height":          camera.ImageHeight(),
			"samplesPerPixel": sampling.SamplesPerPixel,
			"maxDepth":        sampling.MaxDepth,
			"maxPasses":       renderer.DefaultProgressiveConfig().MaxPasses,
			"primitiveCount":  sceneObj.GetPrimitiveCount(),
		},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": minWidth, "max": maxWidth},
			"maxSamples": map[string]int{"min": 1, "max": 10000},
			"maxPasses":  map[string]int{"min": 1, "max": 100},
			"maxDepth":   map[string]int{"min": 1, "max": 500},
		},
	}

	writeJSON(w, http.StatusOK, response)
}

// createScene resolves a scene ID from the catalog. Raw filesystem paths are rejected.
// A positive width overrides the scene's image width.
func (s *Server) createScene(sceneID string, width int) (*scene.Scene, error) {
	override := scene.CameraConfig{Width: width}

	if !strings.HasPrefix(sceneID, "file:") {
		for _, info := range scene.ListBuiltinScenes() {
			if info.ID == sceneID {
				return scene.Load(sceneID, override)
			}
		}
		return nil, fmt.Errorf("%w: %q", scene.ErrUnknownScene, sceneID)
	}

	return scene.LoadFrom(s.scenesDir, sceneID, override)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
