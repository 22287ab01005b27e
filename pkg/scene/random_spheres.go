package scene

import (
	"math/rand"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// randomSpheresSeed keeps the generated layout stable between runs
const randomSpheresSeed = 1

// NewRandomSpheresScene creates a field of small random spheres around three large feature spheres
func NewRandomSpheresScene(cameraOverrides ...CameraConfig) *Scene {
	defaultCameraConfig := CameraConfig{
		LookFrom:      core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   16.0 / 9.0,
		Width:         400,
		DefocusAngle:  0.6,
		FocusDistance: 10.0,
	}

	s := NewScene("spheres")
	s.CameraConfig = defaultCameraConfig
	if len(cameraOverrides) > 0 {
		s.CameraConfig = MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel: 50,
		MaxDepth:        50,
	}

	s.AddSphere(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(randomSpheresSeed)))
	glass := material.NewDielectric(1.5)
	clearing := core.NewVec3(4, 0.2, 0)

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := sampler.Get1D()
			offset := sampler.Get2D()
			center := core.NewVec3(float64(a)+0.9*offset.X, 0.2, float64(b)+0.9*offset.Y)

			if center.Subtract(clearing).Length() <= 0.9 {
				continue
			}

			switch {
			case chooseMat < 0.8:
				albedo := core.RandomVec3(sampler).MultiplyVec(core.RandomVec3(sampler))
				s.AddSphere(center, 0.2, material.NewLambertian(albedo))
			case chooseMat < 0.95:
				albedo := core.RandomVec3Range(sampler, 0.5, 1)
				fuzz := 0.5 * sampler.Get1D()
				s.AddSphere(center, 0.2, material.NewMetal(albedo, fuzz))
			default:
				s.AddSphere(center, 0.2, glass)
			}
		}
	}

	s.AddSphere(core.NewVec3(0, 1, 0), 1.0, glass)
	s.AddSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1)))
	s.AddSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0))

	return s
}
