package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

var (
	ErrUnknownScene      = errors.New("unknown scene")
	ErrUnsupportedFormat = errors.New("unsupported scene file format")
	ErrInvalidScene      = errors.New("invalid scene")
)

// Scene file formats
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// SceneFile is the on-disk description of a scene, shared by the YAML and TOML decoders
type SceneFile struct {
	Name       string                  `yaml:"name" toml:"name"`
	Camera     CameraFile              `yaml:"camera" toml:"camera"`
	Background BackgroundFile          `yaml:"background" toml:"background"`
	Materials  map[string]MaterialFile `yaml:"materials" toml:"materials"`
	Spheres    []SphereFile            `yaml:"spheres" toml:"spheres"`
}

// CameraFile holds camera and sampling settings; omitted fields keep their defaults
type CameraFile struct {
	LookFrom        Vector  `yaml:"look_from" toml:"look_from"`
	LookAt          Vector  `yaml:"look_at" toml:"look_at"`
	Up              Vector  `yaml:"up" toml:"up"`
	VFov            float64 `yaml:"vfov" toml:"vfov"`
	AspectRatio     float64 `yaml:"aspect_ratio" toml:"aspect_ratio"`
	Width           int     `yaml:"image_width" toml:"image_width"`
	DefocusAngle    float64 `yaml:"defocus_angle" toml:"defocus_angle"`
	FocusDistance   float64 `yaml:"focus_distance" toml:"focus_distance"`
	SamplesPerPixel int     `yaml:"samples_per_pixel" toml:"samples_per_pixel"`
	MaxDepth        int     `yaml:"max_depth" toml:"max_depth"`
}

// BackgroundFile overrides the sky gradient
type BackgroundFile struct {
	Top    Color `yaml:"top" toml:"top"`
	Bottom Color `yaml:"bottom" toml:"bottom"`
}

// MaterialFile describes one named material
type MaterialFile struct {
	Type            string  `yaml:"type" toml:"type"` // lambertian, metal or dielectric
	Albedo          Color   `yaml:"albedo" toml:"albedo"`
	Fuzz            float64 `yaml:"fuzz" toml:"fuzz"`
	RefractionIndex float64 `yaml:"refraction_index" toml:"refraction_index"`
}

// SphereFile places a sphere and references a material by name
type SphereFile struct {
	Center   Vector  `yaml:"center" toml:"center"`
	Radius   float64 `yaml:"radius" toml:"radius"`
	Material string  `yaml:"material" toml:"material"`
}

// Vector is a [x, y, z] triple that remembers whether it was present in the file
type Vector struct {
	Value core.Vec3
	Valid bool
}

// UnmarshalYAML decodes a [x, y, z] sequence
func (v *Vector) UnmarshalYAML(node *yaml.Node) error {
	var xs []float64
	if err := node.Decode(&xs); err != nil {
		return fmt.Errorf("line %d: expected [x, y, z]: %w", node.Line, err)
	}
	return v.set(xs)
}

// UnmarshalTOML decodes a [x, y, z] array
func (v *Vector) UnmarshalTOML(data interface{}) error {
	xs, err := tomlFloats(data)
	if err != nil {
		return err
	}
	return v.set(xs)
}

func (v *Vector) set(xs []float64) error {
	if len(xs) != 3 {
		return fmt.Errorf("expected 3 components, got %d", len(xs))
	}
	v.Value = core.NewVec3(xs[0], xs[1], xs[2])
	v.Valid = true
	return nil
}

// Color is either an [r, g, b] triple in linear [0,1] units or a CSS color name
type Color struct {
	Value core.Vec3
	Valid bool
}

// UnmarshalYAML decodes a color name or an [r, g, b] sequence
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return c.setName(node.Value)
	}
	var xs []float64
	if err := node.Decode(&xs); err != nil {
		return fmt.Errorf("line %d: expected color name or [r, g, b]: %w", node.Line, err)
	}
	return c.set(xs)
}

// UnmarshalTOML decodes a color name or an [r, g, b] array
func (c *Color) UnmarshalTOML(data interface{}) error {
	if name, ok := data.(string); ok {
		return c.setName(name)
	}
	xs, err := tomlFloats(data)
	if err != nil {
		return err
	}
	return c.set(xs)
}

func (c *Color) set(xs []float64) error {
	if len(xs) != 3 {
		return fmt.Errorf("expected 3 color components, got %d", len(xs))
	}
	c.Value = core.NewVec3(xs[0], xs[1], xs[2])
	c.Valid = true
	return nil
}

func (c *Color) setName(name string) error {
	rgba, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("unknown color name %q", name)
	}
	c.Value = core.NewVec3(float64(rgba.R)/255, float64(rgba.G)/255, float64(rgba.B)/255)
	c.Valid = true
	return nil
}

func tomlFloats(data interface{}) ([]float64, error) {
	items, ok := data.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an array, got %T", data)
	}
	xs := make([]float64, len(items))
	for i, item := range items {
		switch n := item.(type) {
		case int64:
			xs[i] = float64(n)
		case float64:
			xs[i] = n
		default:
			return nil, fmt.Errorf("element %d: expected a number, got %T", i, item)
		}
	}
	return xs, nil
}

// FormatForPath returns the scene file format implied by a file extension
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// IsSceneFile reports whether path has a scene file extension
func IsSceneFile(path string) bool {
	_, err := FormatForPath(path)
	return err == nil
}

// DecodeSceneFile parses scene file data. Unknown keys are rejected.
func DecodeSceneFile(data []byte, format string) (*SceneFile, error) {
	var sf SceneFile

	switch format {
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
		}
	case FormatTOML:
		meta, err := toml.Decode(string(data), &sf)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidScene, undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return &sf, nil
}

// LoadFile reads and builds a scene from a YAML or TOML file
func LoadFile(path string) (*Scene, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	sf, err := DecodeSceneFile(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	name := sf.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	s, err := sf.Build(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Build turns the file description into a scene
func (sf *SceneFile) Build(name string) (*Scene, error) {
	s := NewScene(name)
	s.CameraConfig = sf.Camera.cameraConfig(s.CameraConfig)
	s.SamplingConfig = MergeSamplingConfig(s.SamplingConfig, SamplingConfig{
		SamplesPerPixel: sf.Camera.SamplesPerPixel,
		MaxDepth:        sf.Camera.MaxDepth,
	})
	if sf.Background.Top.Valid {
		s.Background.Top = sf.Background.Top.Value
	}
	if sf.Background.Bottom.Valid {
		s.Background.Bottom = sf.Background.Bottom.Value
	}

	materials, err := sf.buildMaterials()
	if err != nil {
		return nil, err
	}

	for i, sphere := range sf.Spheres {
		if !sphere.Center.Valid {
			return nil, fmt.Errorf("%w: sphere %d has no center", ErrInvalidScene, i)
		}
		mat, ok := materials[sphere.Material]
		if !ok {
			return nil, fmt.Errorf("%w: sphere %d references unknown material %q", ErrInvalidScene, i, sphere.Material)
		}
		s.AddSphere(sphere.Center.Value, sphere.Radius, mat)
	}

	return s, nil
}

func (cf CameraFile) cameraConfig(base CameraConfig) CameraConfig {
	result := MergeCameraConfig(base, CameraConfig{
		VFov:          cf.VFov,
		AspectRatio:   cf.AspectRatio,
		Width:         cf.Width,
		DefocusAngle:  cf.DefocusAngle,
		FocusDistance: cf.FocusDistance,
	})
	// Vectors are applied by presence so that an explicit [0, 0, 0] is honoured
	if cf.LookFrom.Valid {
		result.LookFrom = cf.LookFrom.Value
	}
	if cf.LookAt.Valid {
		result.LookAt = cf.LookAt.Value
	}
	if cf.Up.Valid {
		result.Up = cf.Up.Value
	}
	return result
}

func (sf *SceneFile) buildMaterials() (map[string]material.Material, error) {
	names := make([]string, 0, len(sf.Materials))
	for name := range sf.Materials {
		names = append(names, name)
	}
	sort.Strings(names)

	materials := make(map[string]material.Material, len(names))
	for _, name := range names {
		mf := sf.Materials[name]
		albedo := core.NewVec3(0.5, 0.5, 0.5)
		if mf.Albedo.Valid {
			albedo = mf.Albedo.Value
		}

		switch strings.ToLower(mf.Type) {
		case "lambertian", "diffuse":
			materials[name] = material.NewLambertian(albedo)
		case "metal":
			materials[name] = material.NewMetal(albedo, mf.Fuzz)
		case "dielectric", "glass":
			if mf.RefractionIndex <= 0 {
				return nil, fmt.Errorf("%w: material %q needs a positive refraction_index", ErrInvalidScene, name)
			}
			materials[name] = material.NewDielectric(mf.RefractionIndex)
		default:
			return nil, fmt.Errorf("%w: material %q has unknown type %q", ErrInvalidScene, name, mf.Type)
		}
	}
	return materials, nil
}
