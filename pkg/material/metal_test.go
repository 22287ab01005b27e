package material

import (
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetal_FuzznessClamp(t *testing.T) {
	tests := []struct {
		name             string
		inputFuzzness    float64
		expectedFuzzness float64
	}{
		{"Valid fuzzness 0.0", 0.0, 0.0},
		{"Valid fuzzness 0.5", 0.5, 0.5},
		{"Valid fuzzness 1.0", 1.0, 1.0},
		{"Clamp above 1.0", 1.5, 1.0},
		{"Clamp below 0.0", -0.5, 0.0},
		{"Clamp large positive", 10.0, 1.0},
		{"Clamp large negative", -10.0, 0.0},
	}

	albedo := core.NewVec3(0.8, 0.8, 0.8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metal := NewMetal(albedo, tt.inputFuzzness)
			assert.Equal(t, tt.expectedFuzzness, metal.Fuzzness)
		})
	}
}

func TestMetal_PerfectReflection(t *testing.T) {
	albedo := core.NewVec3(0.9, 0.9, 0.9)
	metal := NewMetal(albedo, 0.0)
	sampler := core.NewSeededSampler(42)

	// Ray hitting surface at 45 degrees, deliberately not normalized
	rayIn := core.NewRay(core.NewVec3(0, 1, 1), core.NewVec3(0, -3, -3))
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 0, 1),
	}

	scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
	require.True(t, didScatter, "metal should scatter")

	expected := core.NewVec3(0, -1, 1).Normalize()
	assert.InDelta(t, 0, scatter.Scattered.Direction.Subtract(expected).Length(), 1e-10)
	assert.InDelta(t, 1.0, scatter.Scattered.Direction.Length(), 1e-10, "mirror reflection is normalized")
	assert.Equal(t, albedo, scatter.Attenuation)
	assert.Equal(t, hit.Point, scatter.Scattered.Origin)
}

func TestMetal_FuzzyReflection(t *testing.T) {
	metal := NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.5)
	sampler := core.NewSeededSampler(42)

	rayIn := core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1))
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 0, 1),
	}
	mirror := core.NewVec3(0, 0, 1)

	directions := make([]core.Vec3, 10)
	for i := range directions {
		scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
		require.True(t, didScatter)
		directions[i] = scatter.Scattered.Direction

		// perturbation is bounded by the fuzz radius around the mirror direction
		assert.InDelta(t, 0.5, directions[i].Subtract(mirror).Length(), 1e-9)
	}

	allSame := true
	for i := 1; i < len(directions); i++ {
		if directions[i].Subtract(directions[0]).Length() > 1e-10 {
			allSame = false
			break
		}
	}
	assert.False(t, allSame, "fuzzy metal should produce varying reflection directions")
}

func TestMetal_BelowSurfaceStillScatters(t *testing.T) {
	metal := NewMetal(core.NewVec3(0.8, 0.8, 0.8), 1.0)
	sampler := core.NewSeededSampler(123)

	// Grazing ray with maximum fuzz regularly produces directions under the surface
	rayIn := core.NewRay(core.NewVec3(-1, 0, 0.01), core.NewVec3(1, 0, -0.01))
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 0, 1),
	}

	below := 0
	for i := 0; i < 1000; i++ {
		scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
		require.True(t, didScatter)
		if scatter.Scattered.Direction.Dot(hit.Normal) <= 0 {
			below++
		}
	}
	assert.Greater(t, below, 0, "expected some scattered rays below the surface")
}
