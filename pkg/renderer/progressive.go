package renderer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize           int   // Size of each tile
	InitialSamples     int   // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int   // Maximum total samples per pixel
	MaxPasses          int   // Maximum number of passes
	NumWorkers         int   // Number of parallel workers (0 = use CPU count)
	Seed               int64 // Base seed for tile samplers
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:           64,
		InitialSamples:     1,
		MaxSamplesPerPixel: 50,
		MaxPasses:          7, // 1, then evenly spaced up to 50
		NumWorkers:         0,
		Seed:               DefaultSeed,
	}
}

// ProgressiveRaytracer renders in passes of increasing sample count, keeping
// per-pixel accumulators between passes so each pass refines the last.
type ProgressiveRaytracer struct {
	scene         *scene.Scene
	width, height int
	config        ProgressiveConfig
	tiles         []*Tile
	currentPass   int
	pixelStats    [][]PixelStats // Shared pixel statistics array (global image coordinates)
	workerPool    *WorkerPool
	logger        core.Logger
}

// NewProgressiveRaytracer creates a new progressive raytracer
func NewProgressiveRaytracer(s *scene.Scene, config ProgressiveConfig, logger core.Logger) *ProgressiveRaytracer {
	if config.TileSize <= 0 {
		config.TileSize = DefaultTileSize
	}
	config.InitialSamples = max(1, config.InitialSamples)
	config.MaxSamplesPerPixel = max(config.InitialSamples, config.MaxSamplesPerPixel)
	config.MaxPasses = max(1, config.MaxPasses)
	if logger == nil {
		logger = NewSilentLogger()
	}

	camera := NewCamera(s.CameraConfig)
	width, height := camera.ImageWidth(), camera.ImageHeight()
	tiles := NewTileGrid(width, height, config.TileSize, config.Seed)
	pt := integrator.NewPathTracingIntegrator(s.SamplingConfig)

	return &ProgressiveRaytracer{
		scene:      s,
		width:      width,
		height:     height,
		config:     config,
		tiles:      tiles,
		pixelStats: newPixelGrid(width, height),
		workerPool: NewWorkerPool(NewTileRenderer(s, camera, pt), config.NumWorkers, len(tiles)),
		logger:     logger,
	}
}

// Width returns the image width in pixels
func (pr *ProgressiveRaytracer) Width() int {
	return pr.width
}

// Height returns the image height in pixels
func (pr *ProgressiveRaytracer) Height() int {
	return pr.height
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *ProgressiveRaytracer) getSamplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if pr.config.MaxPasses == 1 {
		return pr.config.MaxSamplesPerPixel
	}

	if passNumber == 1 {
		return pr.config.InitialSamples
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := pr.config.MaxSamplesPerPixel - pr.config.InitialSamples
	remainingPasses := pr.config.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := pr.config.InitialSamples + (passNumber-1)*samplesPerPass

	// The final pass takes whatever is left
	if passNumber == pr.config.MaxPasses {
		targetSamples = pr.config.MaxSamplesPerPixel
	}

	return targetSamples
}

// RenderPass renders a single progressive pass. The worker pool must already be started.
func (pr *ProgressiveRaytracer) RenderPass(passNumber int, tileCallback func(TileCompletionResult)) (*image.RGBA, RenderStats, error) {
	pr.currentPass = passNumber
	targetSamples := pr.getSamplesForPass(passNumber)

	pr.logger.Printf("Pass %d: Target %d samples per pixel (using %d workers)...\n",
		passNumber, targetSamples, pr.workerPool.GetNumWorkers())

	for taskID, tile := range pr.tiles {
		pr.workerPool.SubmitTask(TileTask{
			Tile:          tile,
			PassNumber:    passNumber,
			TargetSamples: targetSamples,
			TaskID:        taskID,
			PixelStats:    pr.pixelStats,
		})
	}

	// Tile callbacks are dispatched from this goroutine only
	for i := 0; i < len(pr.tiles); i++ {
		result, ok := pr.workerPool.GetResult()
		if !ok {
			return nil, RenderStats{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			return nil, RenderStats{}, result.Error
		}

		tile := pr.tiles[result.TaskID]
		tile.PassesCompleted++

		if tileCallback != nil {
			tileCallback(TileCompletionResult{
				TileX:       tile.Bounds.Min.X / pr.config.TileSize,
				TileY:       tile.Bounds.Min.Y / pr.config.TileSize,
				TileImage:   pr.extractTileImage(tile),
				PassNumber:  passNumber,
				TileNumber:  i + 1,
				TotalTiles:  len(pr.tiles),
				TotalPasses: pr.config.MaxPasses,
			})
		}
	}

	img, stats := pr.assembleCurrentImage(targetSamples)
	return img, stats, nil
}

// extractTileImage extracts a tile image from the shared pixel stats array
func (pr *ProgressiveRaytracer) extractTileImage(tile *Tile) *image.RGBA {
	bounds := tile.Bounds
	tileImage := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			stats := &pr.pixelStats[y][x]
			if stats.SampleCount > 0 {
				tileImage.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, ColorToRGBA(stats.GetColor()))
			}
		}
	}

	return tileImage
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileX      int // Tile coordinates (not pixel coordinates)
	TileY      int
	TileImage  *image.RGBA // Image data for just this tile
	PassNumber int         // Which pass this tile was rendered in

	// Progress information
	TileNumber  int // Current tile number in this pass (1-based)
	TotalTiles  int // Total number of tiles in the image
	TotalPasses int // Total number of passes planned
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// RenderProgressive runs all passes in a goroutine and reports through the returned channels.
// If options.TileUpdates is false the tile channel is closed immediately.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan TileCompletionResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	tileChan := make(chan TileCompletionResult, 100)
	errChan := make(chan error, 1)

	if !options.TileUpdates {
		close(tileChan)
	}

	go func() {
		defer close(passChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer close(errChan)

		pr.workerPool.Start(ctx)
		defer pr.workerPool.Stop()

		pr.logger.Printf("Starting progressive rendering with %d passes...\n", pr.config.MaxPasses)

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			select {
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			startTime := time.Now()

			var tileCallback func(TileCompletionResult)
			if options.TileUpdates {
				tileCallback = func(result TileCompletionResult) {
					select {
					case tileChan <- result:
					case <-ctx.Done():
					default:
						// Slow consumer; the next pass image supersedes this tile
					}
				}
			}

			img, stats, err := pr.RenderPass(pass, tileCallback)
			if err != nil {
				errChan <- err
				return
			}

			actualSamples := int(stats.AverageSamples)
			pr.logger.Printf("Pass %d completed in %v (actual: %d samples/pixel)\n",
				pass, time.Since(startTime), actualSamples)

			isLast := pass == pr.config.MaxPasses || actualSamples >= pr.config.MaxSamplesPerPixel
			select {
			case passChan <- PassResult{PassNumber: pass, Image: img, Stats: stats, IsLast: isLast}:
			case <-ctx.Done():
				return
			}

			if isLast {
				break
			}
		}
	}()

	return passChan, tileChan, errChan
}

// assembleCurrentImage creates an image from the current state of the shared pixel stats
func (pr *ProgressiveRaytracer) assembleCurrentImage(targetSamples int) (*image.RGBA, RenderStats) {
	img := image.NewRGBA(image.Rect(0, 0, pr.width, pr.height))
	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			img.SetRGBA(x, y, ColorToRGBA(pr.pixelStats[y][x].GetColor()))
		}
	}
	return img, collectStats(pr.pixelStats, targetSamples)
}
