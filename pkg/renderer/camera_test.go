package renderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

func assertVecInDelta(t *testing.T, expected, actual core.Vec3, delta float64) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, delta, "X")
	assert.InDelta(t, expected.Y, actual.Y, delta, "Y")
	assert.InDelta(t, expected.Z, actual.Z, delta, "Z")
}

func TestCameraImageSize(t *testing.T) {
	testCases := []struct {
		name           string
		width          int
		aspectRatio    float64
		expectedWidth  int
		expectedHeight int
	}{
		{"16:9 at 400", 400, 16.0 / 9.0, 400, 225},
		{"square", 100, 1.0, 100, 100},
		{"height floors at 1", 1, 16.0 / 9.0, 1, 1},
		{"zero width clamps", 0, 1.0, 1, 1},
		{"non-positive aspect ratio", 50, 0, 50, 50},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := scene.DefaultCameraConfig()
			config.Width = tc.width
			config.AspectRatio = tc.aspectRatio
			camera := NewCamera(config)

			assert.Equal(t, tc.expectedWidth, camera.ImageWidth())
			assert.Equal(t, tc.expectedHeight, camera.ImageHeight())
		})
	}
}

func TestCameraGetCameraForward(t *testing.T) {
	config := scene.DefaultCameraConfig()
	config.LookFrom = core.NewVec3(1, 2, 3)
	config.LookAt = core.NewVec3(1, 2, -7)
	camera := NewCamera(config)

	assertVecInDelta(t, core.NewVec3(0, 0, -1), camera.GetCameraForward(), 1e-12)
}

func TestCameraPixelCenters(t *testing.T) {
	// vfov 90 with focus distance 1 gives a 2-unit tall viewport one unit in front of the camera
	config := scene.DefaultCameraConfig()
	config.Width = 400
	camera := NewCamera(config)
	sampler := centerSampler()

	viewportWidth := 2.0 * 16.0 / 9.0
	du := viewportWidth / 400
	dv := 2.0 / 225

	ray := camera.GetRay(0, 0, sampler)
	assertVecInDelta(t, core.Vec3{}, ray.Origin, 1e-12)
	assertVecInDelta(t, core.NewVec3(-viewportWidth/2+du/2, 1-dv/2, -1), ray.Direction, 1e-9)

	next := camera.GetRay(1, 0, sampler)
	assertVecInDelta(t, core.NewVec3(du, 0, 0), next.Direction.Subtract(ray.Direction), 1e-9)

	below := camera.GetRay(0, 1, sampler)
	assertVecInDelta(t, core.NewVec3(0, -dv, 0), below.Direction.Subtract(ray.Direction), 1e-9)
}

func TestCameraJitterStaysInsidePixel(t *testing.T) {
	config := scene.DefaultCameraConfig()
	config.Width = 100
	config.AspectRatio = 1
	camera := NewCamera(config)
	pixel := 2.0 / 100
	center := camera.GetRay(50, 50, centerSampler()).Direction

	sampler := core.NewSeededSampler(5)
	for i := 0; i < 100; i++ {
		d := camera.GetRay(50, 50, sampler).Direction.Subtract(center)
		assert.LessOrEqual(t, math.Abs(d.X), pixel/2+1e-12)
		assert.LessOrEqual(t, math.Abs(d.Y), pixel/2+1e-12)
		assert.InDelta(t, 0, d.Z, 1e-12)
	}
}

func TestCameraDefocusDisk(t *testing.T) {
	config := scene.DefaultCameraConfig()
	config.LookFrom = core.NewVec3(0, 0, 5)
	config.LookAt = core.Vec3{}
	config.FocusDistance = 5
	config.DefocusAngle = 10
	camera := NewCamera(config)

	radius := 5 * math.Tan(5*math.Pi/180)
	sampler := core.NewSeededSampler(9)
	moved := false
	for i := 0; i < 100; i++ {
		ray := camera.GetRay(200, 112, sampler)
		offset := ray.Origin.Subtract(config.LookFrom)
		assert.LessOrEqual(t, offset.Length(), radius+1e-12)
		assert.InDelta(t, 0, offset.Z, 1e-12, "origin stays in the lens plane")
		if offset.Length() > 0 {
			moved = true
		}
	}
	assert.True(t, moved)
}

func TestCameraFocusDistanceDefaultsToLookDistance(t *testing.T) {
	config := scene.DefaultCameraConfig()
	config.LookFrom = core.NewVec3(0, 0, 4)
	config.LookAt = core.Vec3{}
	config.FocusDistance = 0
	camera := NewCamera(config)

	ray := camera.GetRay(0, 0, centerSampler())
	assert.InDelta(t, -4, ray.Direction.Z, 1e-9)
}

func TestSingleSphereCenterAndCorner(t *testing.T) {
	s := scene.NewSingleSphereScene()
	camera := NewCamera(s.CameraConfig)
	require.Equal(t, 400, camera.ImageWidth())
	require.Equal(t, 225, camera.ImageHeight())

	pt := integrator.NewPathTracingIntegrator(s.SamplingConfig)
	sampler := core.NewSeededSampler(11)
	validT := core.NewInterval(0.001, math.Inf(1))

	t.Run("center pixel hits the sphere", func(t *testing.T) {
		ray := camera.GetRay(200, 112, sampler)
		hit, ok := s.Hit(ray, validT)
		require.True(t, ok)
		assert.True(t, hit.FrontFace)
	})

	t.Run("corner pixel is pure background", func(t *testing.T) {
		ray := camera.GetRay(0, 0, sampler)
		_, ok := s.Hit(ray, validT)
		require.False(t, ok)

		a := 0.5 * (ray.Direction.Normalize().Y + 1)
		expected := s.Background.Bottom.Multiply(1 - a).Add(s.Background.Top.Multiply(a))
		assertVecInDelta(t, expected, pt.RayColor(ray, s, sampler), 1e-12)
	})
}
