package material

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
)

// Metal represents a metallic material with specular reflection
type Metal struct {
	Albedo   core.Vec3 // Metal color
	Fuzzness float64   // 0.0 = perfect mirror, 1.0 = very fuzzy
}

// NewMetal creates a new metal material
func NewMetal(albedo core.Vec3, fuzzness float64) *Metal {
	// Clamp fuzzness to valid range
	if fuzzness > 1.0 {
		fuzzness = 1.0
	}
	if fuzzness < 0.0 {
		fuzzness = 0.0
	}
	return &Metal{Albedo: albedo, Fuzzness: fuzzness}
}

// Scatter implements the Material interface for metal scattering.
// Rays perturbed below the surface are still reported as scattered.
func (m *Metal) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	reflected := core.Reflect(rayIn.Direction, hit.Normal)
	reflected = reflected.Normalize().Add(core.RandomUnitVector(sampler).Multiply(m.Fuzzness))

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, reflected),
		Attenuation: m.Albedo,
	}, true
}

func (m *Metal) sealed() {}
