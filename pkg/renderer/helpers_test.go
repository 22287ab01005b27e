package renderer

import (

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/material"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// fixedSampler returns the same values on every draw
type fixedSampler struct {
	v1 float64
	v2 core.Vec2
	v3 core.Vec3
}

func (f *fixedSampler) Get1D() float64   { return f.v1 }
func (f *fixedSampler) Get2D() core.Vec2 { return f.v2 }
func (f *fixedSampler) Get3D() core.Vec3 { return f.v3 }

// centerSampler jitters every sample to the pixel center
func centerSampler() *fixedSampler {
	return &fixedSampler{v1: 0.5, v2: core.NewVec2(0.5, 0.5), v3: core.NewVec3(0.5, 0.5, 0.5)}
}

// createTestScene returns a small, cheap single-sphere scene
func createTestScene(width, samples int) *scene.Scene {
	s := scene.NewScene("test")
	s.CameraConfig.Width = width
	s.SamplingConfig = scene.SamplingConfig{SamplesPerPixel: samples, MaxDepth: 5}
	s.AddSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	s.AddSphere(core.NewVec3(0, -100.5, -1), 100, material.NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.3))
	return s
}
