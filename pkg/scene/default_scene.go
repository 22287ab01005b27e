package scene

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// NewDefaultScene creates the ground, diffuse, hollow glass and fuzzy metal sphere scene
func NewDefaultScene(cameraOverrides ...CameraConfig) *Scene {
	defaultCameraConfig := CameraConfig{
		LookFrom:      core.NewVec3(-2, 2, 1),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   16.0 / 9.0,
		Width:         400,
		DefocusAngle:  10.0,
		FocusDistance: 3.4,
	}

	s := NewScene("default")
	s.CameraConfig = defaultCameraConfig
	if len(cameraOverrides) > 0 {
		s.CameraConfig = MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	materialGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	materialCenter := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	materialLeft := material.NewDielectric(1.50)
	materialBubble := material.NewDielectric(1.00 / 1.50)
	materialRight := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 1.0)

	s.AddSphere(core.NewVec3(0.0, -100.5, -1.0), 100.0, materialGround)
	s.AddSphere(core.NewVec3(0.0, 0.0, -1.2), 0.5, materialCenter)
	s.AddSphere(core.NewVec3(-1.0, 0.0, -1.0), 0.5, materialLeft)
	s.AddSphere(core.NewVec3(-1.0, 0.0, -1.0), 0.4, materialBubble)
	s.AddSphere(core.NewVec3(1.0, 0.0, -1.0), 0.5, materialRight)

	return s
}
