package renderer

import (
	"context"
	"fmt"
	"image"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
	"github.com/df07/go-sphere-tracer/pkg/output"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// DefaultTileSize is the edge length of a square render tile
const DefaultTileSize = 32

// DefaultSeed is the base seed for tile samplers
const DefaultSeed int64 = 42

// RenderConfig controls how a render is split across workers
type RenderConfig struct {
	TileSize   int   // Edge length of a square tile in pixels
	NumWorkers int   // Number of parallel workers (0 = use CPU count)
	Seed       int64 // Tile i samples with seed Seed+i
}

// DefaultRenderConfig returns sensible default values
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		TileSize:   DefaultTileSize,
		NumWorkers: 0,
		Seed:       DefaultSeed,
	}
}

// Raytracer renders a scene to completion at its configured sample count
type Raytracer struct {
	scene        *scene.Scene
	camera       *Camera
	config       RenderConfig
	sampling     scene.SamplingConfig
	tileRenderer *TileRenderer
	logger       core.Logger
}

// NewRaytracer creates a raytracer for s. Samples per pixel floor at 1 and max depth at 0.
func NewRaytracer(s *scene.Scene, config RenderConfig, logger core.Logger) *Raytracer {
	if config.TileSize <= 0 {
		config.TileSize = DefaultTileSize
	}
	if logger == nil {
		logger = NewSilentLogger()
	}

	sampling := s.SamplingConfig
	sampling.SamplesPerPixel = max(1, sampling.SamplesPerPixel)
	sampling.MaxDepth = max(0, sampling.MaxDepth)

	camera := NewCamera(s.CameraConfig)
	pt := integrator.NewPathTracingIntegrator(sampling)

	return &Raytracer{
		scene:        s,
		camera:       camera,
		config:       config,
		sampling:     sampling,
		tileRenderer: NewTileRenderer(s, camera, pt),
		logger:       logger,
	}
}

// Width returns the image width in pixels
func (rt *Raytracer) Width() int {
	return rt.camera.ImageWidth()
}

// Height returns the image height in pixels
func (rt *Raytracer) Height() int {
	return rt.camera.ImageHeight()
}

// Render traces every pixel and then hands them to sink in row-major order from the top-left.
// The sink is not closed. Cancelling ctx stops the render before the next tile starts.
func (rt *Raytracer) Render(ctx context.Context, sink output.PixelSink) (RenderStats, error) {
	pixelStats, stats, err := rt.renderPixels(ctx)
	if err != nil {
		return stats, err
	}

	if err := sink.Begin(rt.Width(), rt.Height()); err != nil {
		return stats, fmt.Errorf("failed to start output: %w", err)
	}
	for y := range pixelStats {
		for x := range pixelStats[y] {
			r, g, b := ColorToBytes(pixelStats[y][x].GetColor())
			if err := sink.WritePixel(r, g, b); err != nil {
				return stats, fmt.Errorf("failed to write pixel (%d, %d): %w", x, y, err)
			}
		}
	}

	return stats, nil
}

// RenderImage renders into an in-memory image
func (rt *Raytracer) RenderImage(ctx context.Context) (*image.RGBA, RenderStats, error) {
	sink := output.NewImageSink()
	stats, err := rt.Render(ctx, sink)
	if err != nil {
		return nil, stats, err
	}
	return sink.Image(), stats, nil
}

func (rt *Raytracer) renderPixels(ctx context.Context) ([][]PixelStats, RenderStats, error) {
	width, height := rt.Width(), rt.Height()
	pixelStats := newPixelGrid(width, height)
	tiles := NewTileGrid(width, height, rt.config.TileSize, rt.config.Seed)

	pool := NewWorkerPool(rt.tileRenderer, rt.config.NumWorkers, len(tiles))
	pool.Start(ctx)
	defer pool.Stop()

	for taskID, tile := range tiles {
		pool.SubmitTask(TileTask{
			Tile:          tile,
			PassNumber:    1,
			TargetSamples: rt.sampling.SamplesPerPixel,
			TaskID:        taskID,
			PixelStats:    pixelStats,
		})
	}
	var firstErr error
	completed := 0
	for range tiles {
		result, ok := pool.GetResult()
		if !ok {
			return nil, RenderStats{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		tiles[result.TaskID].PassesCompleted++
		completed++
		rt.logger.Printf("\rRendering %.1f%%", 100.0*float64(completed)/float64(len(tiles)))
	}

	if firstErr != nil {
		rt.logger.Printf("\nRendering cancelled after %d of %d tiles\n", completed, len(tiles))
		return nil, RenderStats{}, fmt.Errorf("render interrupted: %w", firstErr)
	}
	rt.logger.Printf("\nImage finished rendering\n")

	return pixelStats, collectStats(pixelStats, rt.sampling.SamplesPerPixel), nil
}
