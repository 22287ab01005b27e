package material

import (
	"math"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDielectric_AttenuationIsWhite(t *testing.T) {
	glass := NewDielectric(1.5)
	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(1, -1, 0))
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		T:         1.0,
		FrontFace: true,
		Material:  glass,
	}

	sampler := core.NewSeededSampler(42)
	for i := 0; i < 100; i++ {
		result, scattered := glass.Scatter(ray, hit, sampler)
		require.True(t, scattered, "dielectric should always scatter")
		assert.Equal(t, core.NewVec3(1, 1, 1), result.Attenuation)
		assert.Equal(t, hit.Point, result.Scattered.Origin)
	}
}

func TestDielectric_ReflectsAndRefracts(t *testing.T) {
	glass := NewDielectric(1.5)
	// near-grazing entry so Schlick reflectance is large enough to observe both outcomes
	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(1, -0.2, 0))
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		FrontFace: true,
	}

	reflections, refractions := 0, 0
	sampler := core.NewSeededSampler(7)
	for i := 0; i < 2000; i++ {
		result, _ := glass.Scatter(ray, hit, sampler)
		if result.Scattered.Direction.Y > 0 {
			reflections++
		} else {
			refractions++
		}
	}

	assert.Greater(t, reflections, 0)
	assert.Greater(t, refractions, reflections)
}

func TestDielectric_TotalInternalReflection(t *testing.T) {
	glass := NewDielectric(1.5)
	normal := core.NewVec3(0, 1, 0)
	criticalAngle := math.Asin(1 / 1.5)

	// Never trigger Schlick reflection: only the critical angle decides
	neverReflect := fixedSampler{v1: 0.999999}

	tests := []struct {
		name          string
		angle         float64 // angle between -direction and normal
		expectReflect bool
	}{
		{"well below critical", criticalAngle * 0.5, false},
		{"just below critical", criticalAngle - 0.01, false},
		{"just beyond critical", criticalAngle + 0.01, true},
		{"far beyond critical", criticalAngle + 0.5, true},
		{"grazing", math.Pi/2 - 0.001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Travelling from inside the glass towards the surface (back face)
			direction := core.NewVec3(math.Sin(tt.angle), -math.Cos(tt.angle), 0)
			ray := core.NewRay(core.NewVec3(0, 1, 0), direction)
			hit := HitRecord{
				Point:     core.NewVec3(0, 0, 0),
				Normal:    normal,
				FrontFace: false,
				Material:  glass,
			}

			result, scattered := glass.Scatter(ray, hit, neverReflect)
			require.True(t, scattered)

			reflected := core.Reflect(direction, normal)
			isReflection := result.Scattered.Direction.Subtract(reflected).Length() < 1e-9
			assert.Equal(t, tt.expectReflect, isReflection, "direction %v", result.Scattered.Direction)
		})
	}
}

func TestDielectric_TotalInternalReflectionAnySample(t *testing.T) {
	glass := NewDielectric(1.5)
	direction := core.NewVec3(1, -0.1, 0).Normalize()
	hit := HitRecord{Normal: core.NewVec3(0, 1, 0), FrontFace: false}

	for seed := int64(0); seed < 20; seed++ {
		result, _ := glass.Scatter(core.NewRay(core.Vec3{}, direction), hit, core.NewSeededSampler(seed))
		assert.Greater(t, result.Scattered.Direction.Y, 0.0, "beyond the critical angle the ray must reflect")
	}
}

func TestReflectance(t *testing.T) {
	tests := []struct {
		name     string
		cosine   float64
		ratio    float64
		expected float64
	}{
		{"normal incidence glass", 1.0, 1.5, 0.04},
		{"normal incidence inverse ratio", 1.0, 1 / 1.5, 0.04},
		{"grazing incidence", 0.0, 1.5, 1.0},
		{"matched media", 1.0, 1.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Reflectance(tt.cosine, tt.ratio), 1e-9)
		})
	}
}
