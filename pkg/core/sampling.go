package core

import (
	"math"
	"math/rand"
)

// Vec2 represents a 2D sample
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler backed by a fresh generator with the given seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// RandomVec3 returns a vector with each component uniform in [0, 1)
func RandomVec3(sampler Sampler) Vec3 {
	return sampler.Get3D()
}

// RandomVec3Range returns a vector with each component uniform in [min, max)
func RandomVec3Range(sampler Sampler, min, max float64) Vec3 {
	u := sampler.Get3D()
	span := max - min
	return NewVec3(min+span*u.X, min+span*u.Y, min+span*u.Z)
}

// RandomUnitVector returns a uniformly distributed unit vector.
// Points are rejection-sampled inside the unit ball and then normalized; samples
// with squared length at or below 1e-160 are rejected so normalizing cannot overflow.
func RandomUnitVector(sampler Sampler) Vec3 {
	for {
		p := RandomVec3Range(sampler, -1, 1)
		lensq := p.LengthSquared()
		if 1e-160 < lensq && lensq <= 1 {
			return p.Divide(math.Sqrt(lensq))
		}
	}
}

// RandomInUnitDisk returns a uniform point in the unit disk on the z=0 plane
func RandomInUnitDisk(sampler Sampler) Vec3 {
	for {
		s := sampler.Get2D()
		p := NewVec3(2*s.X-1, 2*s.Y-1, 0)
		if p.LengthSquared() < 1 {
			return p
		}
	}
}
