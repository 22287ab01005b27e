package scene

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
)

// CameraConfig describes where the camera is and how it projects onto the image
type CameraConfig struct {
	LookFrom      core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera looks at
	Up            core.Vec3 // Camera-relative "up" direction
	VFov          float64   // Vertical field of view in degrees
	AspectRatio   float64   // Width / height
	Width         int       // Image width in pixels
	DefocusAngle  float64   // Variation angle of rays through each pixel, in degrees
	FocusDistance float64   // Distance from LookFrom to the plane of perfect focus
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// DefaultCameraConfig returns a camera at the origin looking down -z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		LookFrom:      core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          90,
		AspectRatio:   16.0 / 9.0,
		Width:         400,
		DefocusAngle:  0,
		FocusDistance: 1,
	}
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}
}

// MergeCameraConfig overrides base with the non-zero fields of override
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if override.LookFrom != (core.Vec3{}) {
		result.LookFrom = override.LookFrom
	}
	if override.LookAt != (core.Vec3{}) {
		result.LookAt = override.LookAt
	}
	if override.Up != (core.Vec3{}) {
		result.Up = override.Up
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.DefocusAngle != 0 {
		result.DefocusAngle = override.DefocusAngle
	}
	if override.FocusDistance != 0 {
		result.FocusDistance = override.FocusDistance
	}
	return result
}

// MergeSamplingConfig overrides base with the positive fields of override
func MergeSamplingConfig(base, override SamplingConfig) SamplingConfig {
	result := base
	if override.SamplesPerPixel > 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth > 0 {
		result.MaxDepth = override.MaxDepth
	}
	return result
}
