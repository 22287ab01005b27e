package material

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
)

// fixedSampler returns the same values on every call
type fixedSampler struct {
	v1 float64
	v2 core.Vec2
	v3 core.Vec3
}

func (f fixedSampler) Get1D() float64   { return f.v1 }
func (f fixedSampler) Get2D() core.Vec2 { return f.v2 }
func (f fixedSampler) Get3D() core.Vec3 { return f.v3 }
