package server

import (
	"fmt"
	"net/http"

	"github.com/chewxy/math32"
	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/df07/go-gpu-pathtracer/pkg/session"
)

// inspectEpsilon keeps the pick ray from hitting the lens
const inspectEpsilon = 1e-4

// InspectResponse represents the JSON response for triangle picking
type InspectResponse struct {
	Hit         bool          `json:"hit"`
	Triangle    uint32        `json:"triangle"`
	Distance    float32       `json:"distance"`
	Point       core.Vec3     `json:"point"`
	Normal      core.Vec3     `json:"normal"`
	Barycentric [2]float32    `json:"barycentric"`
	Light       bool          `json:"light"`
	Material    *MaterialInfo `json:"material,omitempty"`
}

// MaterialInfo describes the material of a picked triangle
type MaterialInfo struct {
	Index    uint32    `json:"index"`
	Name     string    `json:"name"`
	Diffuse  core.Vec3 `json:"diffuse"`
	Emission core.Vec3 `json:"emission"`
	Color    string    `json:"color"`
}

// inspectPixel casts the pinhole ray through the center of pixel (x, y) and
// returns the closest triangle, using the same traversal as the executor
func inspectPixel(scene *session.Scene, camera renderer.Camera, width, height, x, y int) InspectResponse {
	ndcX, ndcY := renderer.PixelNDC(x, y, width, height)
	origin, direction := camera.Ray(ndcX, ndcY, renderer.AspectRatio(width, height))

	hit, ok := scene.Tree.Intersect(scene.Mesh, origin, direction, inspectEpsilon, math32.Inf(1))
	if !ok {
		return InspectResponse{Hit: false}
	}

	mesh := scene.Mesh
	tri := mesh.Triangle(int(hit.Triangle))
	resp := InspectResponse{
		Hit:         true,
		Triangle:    hit.Triangle,
		Distance:    hit.T,
		Point:       origin.Add(direction.Multiply(hit.T)),
		Normal:      tri.Normal(mesh),
		Barycentric: [2]float32{hit.U, hit.V},
		Light:       isLight(mesh, hit.Triangle),
	}
	if int(tri.Material) < len(mesh.Materials) {
		resp.Material = materialInfo(tri.Material, mesh.Materials[tri.Material])
	}
	return resp
}

func isLight(mesh *geometry.Mesh, triangle uint32) bool {
	for _, idx := range mesh.LightIndices {
		if idx == triangle {
			return true
		}
	}
	return false
}

func materialInfo(index uint32, mat geometry.Material) *MaterialInfo {
	diffuse := mat.DiffuseOrDefault()
	return &MaterialInfo{
		Index:    index,
		Name:     mat.Name,
		Diffuse:  diffuse,
		Emission: mat.EmissionOrDefault(),
		Color: fmt.Sprintf("#%02x%02x%02x",
			colorByte(diffuse[0]), colorByte(diffuse[1]), colorByte(diffuse[2])),
	}
}

func colorByte(v float32) int {
	return int(math32.Min(math32.Max(v, 0), 1) * 255)
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	scene := s.session.Scene()
	if scene == nil {
		writeError(w, http.StatusNotFound, session.ErrNoScene.Error())
		return
	}

	settings := s.session.Settings()
	query := r.URL.Query()
	x, err := parseIntParam(query, "x", -1, 0, settings.Width-1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	y, err := parseIntParam(query, "y", -1, 0, settings.Height-1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if x < 0 || y < 0 {
		writeError(w, http.StatusBadRequest, "x and y are required")
		return
	}

	writeJSON(w, http.StatusOK, inspectPixel(scene, s.session.Camera(), settings.Width, settings.Height, x, y))
}
