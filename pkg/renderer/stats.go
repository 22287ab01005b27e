package renderer

import (
	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels     int     // Total number of pixels rendered
	TotalSamples    int     // Total number of samples taken
	AverageSamples  float64 // Average samples per pixel
	MaxSamples      int     // Target samples per pixel
	MinSamples      int     // Minimum samples taken per pixel
	MaxSamplesUsed  int     // Maximum samples actually used by any pixel
	MeanLuminance   float64 // Mean linear luminance across pixels
	LuminanceStdDev float64 // Standard deviation of pixel luminance
}

// PixelStats accumulates the samples of a single pixel
type PixelStats struct {
	ColorAccum  core.Vec3 // RGB accumulator for final result
	SampleCount int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// newPixelGrid allocates a height x width grid of pixel accumulators
func newPixelGrid(width, height int) [][]PixelStats {
	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}
	return pixelStats
}

// collectStats summarises sample counts and luminance over the whole grid
func collectStats(pixelStats [][]PixelStats, targetSamples int) RenderStats {
	stats := RenderStats{
		MaxSamples: targetSamples,
		MinSamples: targetSamples,
	}

	var luminance []float64
	for y := range pixelStats {
		for x := range pixelStats[y] {
			pixel := &pixelStats[y][x]
			stats.TotalPixels++
			stats.TotalSamples += pixel.SampleCount
			stats.MinSamples = min(stats.MinSamples, pixel.SampleCount)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, pixel.SampleCount)
			luminance = append(luminance, pixel.GetColor().Luminance())
		}
	}

	if stats.TotalPixels == 0 {
		return stats
	}
	stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	if len(luminance) > 1 {
		stats.MeanLuminance, stats.LuminanceStdDev = stat.MeanStdDev(luminance, nil)
	} else {
		stats.MeanLuminance = luminance[0]
	}
	return stats
}
