package geometry

import (
	"errors"
	"fmt"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// ErrInvalidMesh is returned when a mesh references vertices or materials that do not exist
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is the flat geometry store handed over by the loaders.
// It is owned by the scene that loaded it and read-only afterwards.
type Mesh struct {
	Positions    []float32  // 3 floats per vertex
	Normals      []float32  // 3 floats per vertex, same count as Positions
	Indices      []uint32   // 3 vertex indices per triangle, triangle-major
	MaterialIDs  []uint32   // one material index per triangle
	Materials    []Material // material descriptions indexed by MaterialIDs
	LightIndices []uint32   // triangles whose material is emissive
}

// VertexCount returns the number of vertices
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Vertex returns the position of vertex i
func (m *Mesh) Vertex(i uint32) core.Vec3 {
	return core.NewVec3(m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2])
}

// Normal returns the shading normal of vertex i
func (m *Mesh) Normal(i uint32) core.Vec3 {
	return core.NewVec3(m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2])
}

// Triangle returns triangle t
func (m *Mesh) Triangle(t int) Triangle {
	tri := Triangle{V: [3]uint32{m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]}}
	if t < len(m.MaterialIDs) {
		tri.Material = m.MaterialIDs[t]
	}
	return tri
}

// Bounds returns the bounds of every referenced vertex
func (m *Mesh) Bounds() core.AABB {
	if m.TriangleCount() == 0 {
		return core.AABB{}
	}
	box := core.EmptyAABB()
	for _, idx := range m.Indices {
		box = box.Extend(m.Vertex(idx))
	}
	return box
}

// Validate checks the structural invariants the BSP builder and packer rely on
func (m *Mesh) Validate() error {
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: position array length %d is not a multiple of 3", ErrInvalidMesh, len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: index array length %d is not a multiple of 3", ErrInvalidMesh, len(m.Indices))
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normals for %d positions", ErrInvalidMesh, len(m.Normals)/3, m.VertexCount())
	}
	if len(m.MaterialIDs) != m.TriangleCount() {
		return fmt.Errorf("%w: %d material ids for %d triangles", ErrInvalidMesh, len(m.MaterialIDs), m.TriangleCount())
	}

	vertexCount := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= vertexCount {
			return fmt.Errorf("%w: triangle %d references vertex %d (have %d)", ErrInvalidMesh, i/3, idx, vertexCount)
		}
	}
	for t, id := range m.MaterialIDs {
		if int(id) >= len(m.Materials) {
			return fmt.Errorf("%w: triangle %d references material %d (have %d)", ErrInvalidMesh, t, id, len(m.Materials))
		}
	}
	for _, light := range m.LightIndices {
		if int(light) >= m.TriangleCount() {
			return fmt.Errorf("%w: light index %d out of range", ErrInvalidMesh, light)
		}
	}
	return nil
}

// DeriveLightIndices recomputes LightIndices from the materials
func (m *Mesh) DeriveLightIndices() {
	m.LightIndices = m.LightIndices[:0]
	for t, id := range m.MaterialIDs {
		if int(id) < len(m.Materials) && m.Materials[id].IsEmissive() {
			m.LightIndices = append(m.LightIndices, uint32(t))
		}
	}
}

// ComputeNormals fills Normals with area-weighted vertex normals
func (m *Mesh) ComputeNormals() {
	normals := make([]core.Vec3, m.VertexCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		v0, v1, v2 := tri.Vertices(m)
		// Unnormalized cross product weights by twice the triangle area
		faceNormal := v1.Subtract(v0).Cross(v2.Subtract(v0))
		for _, idx := range tri.V {
			normals[idx] = normals[idx].Add(faceNormal)
		}
	}

	m.Normals = make([]float32, 0, len(m.Positions))
	for _, n := range normals {
		n = n.Normalize()
		m.Normals = append(m.Normals, n[0], n[1], n[2])
	}
}
