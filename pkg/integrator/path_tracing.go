package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// shadowAcneEpsilon is the lower bound of the hit window; it keeps a
// scattered ray from re-hitting the surface it just left.
const shadowAcneEpsilon = 0.001

// PathTracingIntegrator implements unidirectional path tracing with a sky gradient as the only light
type PathTracingIntegrator struct {
	config scene.SamplingConfig
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config scene.SamplingConfig) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		config: config,
	}
}

// RayColor traces ray through the scene for at most MaxDepth bounces
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler) core.Vec3 {
	return pt.rayColor(ray, s, sampler, pt.config.MaxDepth)
}

func (pt *PathTracingIntegrator) rayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler, depth int) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := s.Hit(ray, core.NewInterval(shadowAcneEpsilon, math.Inf(1)))
	if !isHit {
		return pt.backgroundGradient(ray, s.Background)
	}
	if hit.Material == nil {
		panic(fmt.Sprintf("path tracing: hit at t=%g has no material", hit.T))
	}

	scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter {
		return core.Vec3{}
	}

	return scatter.Attenuation.MultiplyVec(pt.rayColor(scatter.Scattered, s, sampler, depth-1))
}

// backgroundGradient blends from bottom to top by the height of the unit ray direction
func (pt *PathTracingIntegrator) backgroundGradient(r core.Ray, bg scene.Background) core.Vec3 {
	unitDirection := r.Direction.Normalize()
	a := 0.5 * (unitDirection.Y + 1.0)
	return bg.Bottom.Multiply(1.0 - a).Add(bg.Top.Multiply(a))
}
