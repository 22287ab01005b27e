package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

const inspectEpsilon = 0.001

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// InspectResult contains the hit record and the shape that produced it
type InspectResult struct {
	Hit       bool
	HitRecord *material.HitRecord
	Shape     geometry.Shape
}

// pixelCenterSampler always returns 0.5 so rays go through the pixel center
// and leave the lens at the camera center.
type pixelCenterSampler struct{}

func (pixelCenterSampler) Get1D() float64 { return 0.5 }
func (pixelCenterSampler) Get2D() core.Vec2 {
	return core.NewVec2(0.5, 0.5)
}
func (pixelCenterSampler) Get3D() core.Vec3 {
	return core.NewVec3(0.5, 0.5, 0.5)
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(c core.Vec3) string {
	r, g, b := renderer.ColorToBytes(c)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// extractMaterialInfo describes a material for the inspector
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = vecArray(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = vecArray(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["color"] = "#ffffff"
		return "dielectric", properties

	default:
		return "unknown", properties
	}
}

// extractGeometryInfo describes a shape for the inspector
func extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = vecArray(geom.Center)
		properties["radius"] = geom.Radius
		return "sphere", properties
	default:
		return "unknown", properties
	}
}

// inspectPixel casts a ray through the center of pixel (x, y) and reports the closest hit
func inspectPixel(sceneObj *scene.Scene, pixelX, pixelY int) InspectResult {
	camera := renderer.NewCamera(sceneObj.CameraConfig)
	ray := camera.GetRay(pixelX, pixelY, pixelCenterSampler{})

	hit, isHit := sceneObj.Hit(ray, core.NewInterval(inspectEpsilon, math.Inf(1)))
	if !isHit {
		return InspectResult{Hit: false}
	}

	// Scene.Hit doesn't say which shape won, so find the one hitting at the same t
	for _, shape := range sceneObj.Shapes {
		if shapeHit, ok := shape.Hit(ray, core.NewInterval(inspectEpsilon, hit.T+inspectEpsilon)); ok && shapeHit.T == hit.T {
			return InspectResult{Hit: true, HitRecord: hit, Shape: shape}
		}
	}

	return InspectResult{Hit: true, HitRecord: hit}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sceneID := query.Get("scene")
	if sceneID == "" {
		sceneID = "default"
	}
	width, err := parseIntParam(query, "width", 0, minWidth, maxWidth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(query.Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(query.Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	sceneObj, err := s.createScene(sceneID, width)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	camera := renderer.NewCamera(sceneObj.CameraConfig)
	if pixelX < 0 || pixelX >= camera.ImageWidth() || pixelY < 0 || pixelY >= camera.ImageHeight() {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	result := inspectPixel(sceneObj, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := extractMaterialInfo(result.HitRecord.Material)
	geometryType, geometryProps := extractGeometryInfo(result.Shape)

	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        vecArray(result.HitRecord.Point),
		Normal:       vecArray(result.HitRecord.Normal),
		Distance:     result.HitRecord.T,
		FrontFace:    result.HitRecord.FrontFace,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	})
}
