package scene

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// NewSingleSphereScene creates one diffuse sphere in front of a pinhole camera at the origin
func NewSingleSphereScene(cameraOverrides ...CameraConfig) *Scene {
	s := NewScene("single-sphere")
	if len(cameraOverrides) > 0 {
		s.CameraConfig = MergeCameraConfig(s.CameraConfig, cameraOverrides[0])
	}

	s.AddSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	return s
}
