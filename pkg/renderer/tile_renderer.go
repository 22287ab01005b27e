package renderer

import (
	"image"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// TileRenderer samples the pixels of one tile with an integrator
type TileRenderer struct {
	scene      *scene.Scene
	camera     *Camera
	integrator integrator.Integrator
}

// NewTileRenderer creates a new tile renderer with the given scene, camera and integrator
func NewTileRenderer(s *scene.Scene, camera *Camera, integratorInst integrator.Integrator) *TileRenderer {
	return &TileRenderer{
		scene:      s,
		camera:     camera,
		integrator: integratorInst,
	}
}

// RenderTileBounds tops up every pixel within bounds to targetSamples samples.
// Tiles never overlap, so concurrent calls on distinct tiles may share pixelStats.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, targetSamples int) RenderStats {
	stats := RenderStats{
		TotalPixels: bounds.Dx() * bounds.Dy(),
		MaxSamples:  targetSamples,
		MinSamples:  targetSamples,
	}

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			samplesUsed := tr.samplePixel(i, j, &pixelStats[j][i], sampler, targetSamples)
			stats.TotalSamples += samplesUsed
			stats.MinSamples = min(stats.MinSamples, samplesUsed)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}

func (tr *TileRenderer) samplePixel(i, j int, ps *PixelStats, sampler core.Sampler, targetSamples int) int {
	initialSampleCount := ps.SampleCount
	for ps.SampleCount < targetSamples {
		ray := tr.camera.GetRay(i, j, sampler)
		ps.AddSample(tr.integrator.RayColor(ray, tr.scene, sampler))
	}
	return ps.SampleCount - initialSampleCount
}
