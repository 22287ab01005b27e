package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomVec3Range(t *testing.T) {
	sampler := NewSeededSampler(42)

	for i := 0; i < 1000; i++ {
		v := RandomVec3Range(sampler, -2, 3)
		for _, c := range []float64{v.X, v.Y, v.Z} {
			require.GreaterOrEqual(t, c, -2.0)
			require.Less(t, c, 3.0)
		}
	}
}

func TestRandomVec3(t *testing.T) {
	sampler := NewSeededSampler(7)

	for i := 0; i < 1000; i++ {
		v := RandomVec3(sampler)
		for _, c := range []float64{v.X, v.Y, v.Z} {
			require.GreaterOrEqual(t, c, 0.0)
			require.Less(t, c, 1.0)
		}
	}
}

func TestRandomUnitVector_IsUnitLength(t *testing.T) {
	sampler := NewSeededSampler(42)

	for i := 0; i < 1000; i++ {
		v := RandomUnitVector(sampler)
		require.InDelta(t, 1.0, v.Length(), 1e-9)
	}
}

func TestRandomUnitVector_IsUnbiased(t *testing.T) {
	sampler := NewSeededSampler(99)
	const n = 20000

	sum := Vec3{}
	for i := 0; i < n; i++ {
		sum = sum.Add(RandomUnitVector(sampler))
	}
	mean := sum.Divide(n)

	// The mean of a uniform distribution on the sphere is the origin
	assert.Less(t, mean.Length(), 0.03, "mean direction %v", mean)
}

func TestRandomInUnitDisk(t *testing.T) {
	sampler := NewSeededSampler(42)

	for i := 0; i < 1000; i++ {
		p := RandomInUnitDisk(sampler)
		require.Equal(t, 0.0, p.Z)
		require.Less(t, p.LengthSquared(), 1.0)
	}
}

func TestRandomSampler_Deterministic(t *testing.T) {
	a := NewSeededSampler(123)
	b := NewSeededSampler(123)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Get1D(), b.Get1D())
		assert.Equal(t, a.Get2D(), b.Get2D())
		assert.Equal(t, a.Get3D(), b.Get3D())
	}

	s := NewSeededSampler(1).Get2D()
	assert.False(t, math.IsNaN(s.X) || math.IsNaN(s.Y))
}
