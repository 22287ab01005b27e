package integrator

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes the linear radiance carried back along ray
	RayColor(ray core.Ray, scene *scene.Scene, sampler core.Sampler) core.Vec3
}
