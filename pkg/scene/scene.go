package scene

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// Scene contains all the elements needed for rendering.
// Shapes are appended while the scene is built and treated as read-only while rendering.
type Scene struct {
	Name           string
	Shapes         []geometry.Shape // Objects in the scene, in insertion order
	CameraConfig   CameraConfig
	SamplingConfig SamplingConfig
	Background     Background
}

// Background is the sky gradient returned for rays that escape the scene
type Background struct {
	Top    core.Vec3 // Color seen looking straight up
	Bottom core.Vec3 // Color seen looking straight down
}

// DefaultBackground returns the white-to-sky-blue gradient
func DefaultBackground() Background {
	return Background{
		Top:    core.NewVec3(0.5, 0.7, 1.0),
		Bottom: core.NewVec3(1.0, 1.0, 1.0),
	}
}

// NewScene creates an empty scene with default camera, sampling and background
func NewScene(name string) *Scene {
	return &Scene{
		Name:           name,
		Shapes:         make([]geometry.Shape, 0),
		CameraConfig:   DefaultCameraConfig(),
		SamplingConfig: DefaultSamplingConfig(),
		Background:     DefaultBackground(),
	}
}

// Add appends a shape to the scene
func (s *Scene) Add(shape geometry.Shape) {
	s.Shapes = append(s.Shapes, shape)
}

// AddSphere appends a sphere with the given material
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat material.Material) *geometry.Sphere {
	sphere := geometry.NewSphere(center, radius, mat)
	s.Add(sphere)
	return sphere
}

// Hit finds the closest intersection strictly inside rayT.
// Each accepted hit shrinks the search window so later shapes can only win with a closer hit.
func (s *Scene) Hit(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
	var closest *material.HitRecord
	window := rayT

	for _, shape := range s.Shapes {
		if hit, isHit := shape.Hit(ray, window); isHit {
			closest = hit
			window = window.WithMax(hit.T)
		}
	}

	return closest, closest != nil
}

// GetPrimitiveCount returns the number of shapes in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Shapes)
}
