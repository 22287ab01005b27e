package geometry

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// Shape is anything a ray can hit. New geometry is added as another
// implementation in this package rather than from outside it.
type Shape interface {
	// Hit reports the intersection strictly inside rayT, if any
	Hit(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool)

	sealed()
}
