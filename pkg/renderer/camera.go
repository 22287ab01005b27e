package renderer

import (
	"math"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// Camera generates rays for rendering
type Camera struct {
	config       scene.CameraConfig
	imageWidth   int
	imageHeight  int
	center       core.Vec3 // Camera center
	pixel00      core.Vec3 // Location of pixel (0,0)'s center
	pixelDeltaU  core.Vec3 // Offset to the pixel to the right
	pixelDeltaV  core.Vec3 // Offset to the pixel below
	u, v, w      core.Vec3 // Camera frame basis vectors
	defocusDiskU core.Vec3 // Defocus disk horizontal radius
	defocusDiskV core.Vec3 // Defocus disk vertical radius
}

// NewCamera derives the viewport and defocus disk from config.
// Degenerate sizes are clamped: width and height floor at 1, a non-positive
// aspect ratio becomes 1 and a non-positive focus distance becomes the look distance.
func NewCamera(config scene.CameraConfig) *Camera {
	width := max(1, config.Width)
	aspectRatio := config.AspectRatio
	if aspectRatio <= 0 {
		aspectRatio = 1
	}
	height := max(1, int(float64(width)/aspectRatio))

	focusDistance := config.FocusDistance
	if focusDistance <= 0 {
		focusDistance = config.LookFrom.Subtract(config.LookAt).Length()
	}
	if focusDistance <= 0 {
		focusDistance = 1
	}

	theta := degreesToRadians(config.VFov)
	h := math.Tan(theta / 2)
	viewportHeight := 2 * h * focusDistance
	viewportWidth := viewportHeight * aspectRatio

	center := config.LookFrom
	w := config.LookFrom.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	// Viewport edges: u runs left to right, v runs top to bottom
	viewportU := u.Multiply(viewportWidth)
	viewportV := v.Negate().Multiply(viewportHeight)

	pixelDeltaU := viewportU.Divide(float64(width))
	pixelDeltaV := viewportV.Divide(float64(height))

	viewportUpperLeft := center.
		Subtract(w.Multiply(focusDistance)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))
	pixel00 := viewportUpperLeft.Add(pixelDeltaU.Add(pixelDeltaV).Multiply(0.5))

	defocusRadius := focusDistance * math.Tan(degreesToRadians(config.DefocusAngle/2))

	return &Camera{
		config:       config,
		imageWidth:   width,
		imageHeight:  height,
		center:       center,
		pixel00:      pixel00,
		pixelDeltaU:  pixelDeltaU,
		pixelDeltaV:  pixelDeltaV,
		u:            u,
		v:            v,
		w:            w,
		defocusDiskU: u.Multiply(defocusRadius),
		defocusDiskV: v.Multiply(defocusRadius),
	}
}

// ImageWidth returns the rendered image width in pixels
func (c *Camera) ImageWidth() int {
	return c.imageWidth
}

// ImageHeight returns the rendered image height in pixels
func (c *Camera) ImageHeight() int {
	return c.imageHeight
}

// GetRay returns a ray through a random point inside pixel (i, j), where j counts rows from the top.
// The origin is the camera center, or a point on the defocus disk when the defocus angle is positive.
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	offset := sampler.Get2D()
	pixelSample := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i) + offset.X - 0.5)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offset.Y - 0.5))

	origin := c.center
	if c.config.DefocusAngle > 0 {
		origin = c.defocusDiskSample(sampler)
	}

	return core.NewRay(origin, pixelSample.Subtract(origin))
}

// GetCameraForward returns the direction the camera is looking
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.w.Negate()
}

func (c *Camera) defocusDiskSample(sampler core.Sampler) core.Vec3 {
	p := core.RandomInUnitDisk(sampler)
	return c.center.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
