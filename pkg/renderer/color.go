package renderer

import (
	"image/color"
	"math"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// intensity keeps 256*value below 256 so 1.0 maps to 255
var intensity = core.NewInterval(0.000, 0.999)

// LinearToGamma applies gamma 2; non-positive (and NaN) values map to 0
func LinearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

// ColorToBytes converts a linear color to 8-bit gamma-corrected channels
func ColorToBytes(c core.Vec3) (r, g, b uint8) {
	return toByte(c.X), toByte(c.Y), toByte(c.Z)
}

// ColorToRGBA converts a linear color to an opaque RGBA pixel
func ColorToRGBA(c core.Vec3) color.RGBA {
	r, g, b := ColorToBytes(c)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func toByte(linear float64) uint8 {
	return uint8(256 * intensity.Clamp(LinearToGamma(linear)))
}
