package renderer

import (
	"context"
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// MockIntegrator returns a constant color and counts calls
type MockIntegrator struct {
	returnColor core.Vec3
	callCount   atomic.Int64
}

func (m *MockIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler) core.Vec3 {
	m.callCount.Add(1)
	return m.returnColor
}

func newMockTileRenderer(width int) (*TileRenderer, *MockIntegrator, *Camera) {
	s := createTestScene(width, 1)
	camera := NewCamera(s.CameraConfig)
	mock := &MockIntegrator{returnColor: core.NewVec3(0.25, 0.5, 1)}
	return NewTileRenderer(s, camera, mock), mock, camera
}

func TestTileRendererTopsUpToTarget(t *testing.T) {
	tr, mock, camera := newMockTileRenderer(16)
	grid := newPixelGrid(camera.ImageWidth(), camera.ImageHeight())
	bounds := image.Rect(2, 1, 6, 4)
	sampler := core.NewSeededSampler(1)

	stats := tr.RenderTileBounds(bounds, grid, sampler, 4)
	assert.Equal(t, 12, stats.TotalPixels)
	assert.Equal(t, 48, stats.TotalSamples)
	assert.Equal(t, 4.0, stats.AverageSamples)
	assert.Equal(t, int64(48), mock.callCount.Load())

	stats = tr.RenderTileBounds(bounds, grid, sampler, 6)
	assert.Equal(t, 24, stats.TotalSamples, "only the missing samples are taken")
	assert.Equal(t, 2, stats.MinSamples)
	assert.Equal(t, 6, grid[1][2].SampleCount)
	assert.Equal(t, core.NewVec3(0.25, 0.5, 1), grid[3][5].GetColor())

	assert.Equal(t, 0, grid[0][0].SampleCount, "pixels outside bounds are untouched")
	assert.Equal(t, 0, grid[4][6].SampleCount)
}

func TestNewTileGrid(t *testing.T) {
	testCases := []struct {
		name          string
		width, height int
		tileSize      int
		expectedTiles int
		lastBounds    image.Rectangle
	}{
		{"exact fit", 64, 32, 32, 2, image.Rect(32, 0, 64, 32)},
		{"partial edge tiles", 70, 40, 32, 6, image.Rect(64, 32, 70, 40)},
		{"single tile", 10, 5, 64, 1, image.Rect(0, 0, 10, 5)},
		{"default tile size", 40, 40, 0, 4, image.Rect(32, 32, 40, 40)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tiles := NewTileGrid(tc.width, tc.height, tc.tileSize, 42)
			require.Len(t, tiles, tc.expectedTiles)
			assert.Equal(t, tc.lastBounds, tiles[len(tiles)-1].Bounds)

			covered := 0
			for i, tile := range tiles {
				assert.Equal(t, i, tile.ID)
				covered += tile.Bounds.Dx() * tile.Bounds.Dy()
			}
			assert.Equal(t, tc.width*tc.height, covered)
		})
	}
}

func TestTileSamplersAreSeededByID(t *testing.T) {
	a := NewTileGrid(64, 64, 32, 7)
	b := NewTileGrid(64, 64, 32, 7)
	other := NewTileGrid(64, 64, 32, 8)

	first := a[1].Sampler.Get1D()
	assert.Equal(t, first, b[1].Sampler.Get1D())
	assert.Equal(t, core.NewSeededSampler(8).Get1D(), first, "tile 1 of seed 7 uses seed 8")
	assert.Equal(t, first, other[0].Sampler.Get1D())
	assert.NotEqual(t, first, b[0].Sampler.Get1D())
}

func TestWorkerPoolReportsCancellation(t *testing.T) {
	tr, mock, camera := newMockTileRenderer(16)
	grid := newPixelGrid(camera.ImageWidth(), camera.ImageHeight())
	tiles := NewTileGrid(camera.ImageWidth(), camera.ImageHeight(), 4, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(tr, 2, len(tiles))
	assert.Equal(t, 2, pool.GetNumWorkers())
	pool.Start(ctx)
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TargetSamples: 1, TaskID: i, PixelStats: grid})
	}
	pool.Stop()

	results := 0
	for result, ok := pool.GetResult(); ok; result, ok = pool.GetResult() {
		assert.ErrorIs(t, result.Error, context.Canceled)
		results++
	}
	assert.Equal(t, len(tiles), results)
	assert.Equal(t, int64(0), mock.callCount.Load())
}
