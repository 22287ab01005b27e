package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// vec3Value is a pflag.Value accepting "x,y,z"
type vec3Value struct {
	v   *core.Vec3
	set bool
}

var _ pflag.Value = (*vec3Value)(nil)

func newVec3Value(p *core.Vec3) *vec3Value {
	return &vec3Value{v: p}
}

func (f *vec3Value) String() string {
	if f.v == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", f.v.X, f.v.Y, f.v.Z)
}

func (f *vec3Value) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expected x,y,z but got %q", s)
	}

	var xs [3]float64
	for i, part := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return fmt.Errorf("invalid component %q: %w", part, err)
		}
		xs[i] = x
	}

	*f.v = core.NewVec3(xs[0], xs[1], xs[2])
	f.set = true
	return nil
}

func (f *vec3Value) Type() string {
	return "vec3"
}
