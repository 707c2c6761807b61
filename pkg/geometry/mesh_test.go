package geometry

import (
	"errors"
	"testing"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// newQuadMesh builds the 2-triangle, 4-vertex unit quad in the XY plane
func newQuadMesh() *Mesh {
	return &Mesh{
		Positions:   []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:     []uint32{0, 1, 2, 0, 2, 3},
		MaterialIDs: []uint32{0, 0},
		Materials:   []Material{{Name: "default"}},
	}
}

func TestMesh_CountsAndBounds(t *testing.T) {
	mesh := newQuadMesh()

	if mesh.VertexCount() != 4 {
		t.Errorf("Expected 4 vertices, got %d", mesh.VertexCount())
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("Expected 2 triangles, got %d", mesh.TriangleCount())
	}

	bounds := mesh.Bounds()
	if bounds.Min != core.NewVec3(0, 0, 0) || bounds.Max != core.NewVec3(1, 1, 0) {
		t.Errorf("Unexpected bounds %v", bounds)
	}

	if err := mesh.Validate(); err != nil {
		t.Errorf("Quad mesh should validate, got %v", err)
	}
}

func TestMesh_ValidateRejectsBadReferences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Mesh)
	}{
		{"vertex out of range", func(m *Mesh) { m.Indices[5] = 9 }},
		{"material out of range", func(m *Mesh) { m.MaterialIDs[1] = 3 }},
		{"missing material ids", func(m *Mesh) { m.MaterialIDs = m.MaterialIDs[:1] }},
		{"ragged indices", func(m *Mesh) { m.Indices = m.Indices[:4] }},
		{"normals mismatch", func(m *Mesh) { m.Normals = []float32{0, 0, 1} }},
		{"light out of range", func(m *Mesh) { m.LightIndices = []uint32{2} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh := newQuadMesh()
			tt.mutate(mesh)
			err := mesh.Validate()
			if !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("Expected ErrInvalidMesh, got %v", err)
			}
		})
	}
}

func TestMesh_EmptyMeshIsValid(t *testing.T) {
	mesh := &Mesh{}
	if err := mesh.Validate(); err != nil {
		t.Errorf("Empty mesh should validate, got %v", err)
	}
	if bounds := mesh.Bounds(); bounds != (core.AABB{}) {
		t.Errorf("Empty mesh should have zero bounds, got %v", bounds)
	}
}

func TestMesh_DeriveLightIndices(t *testing.T) {
	mesh := newQuadMesh()
	mesh.Materials = append(mesh.Materials, NewMaterial("lamp", core.NewVec3(1, 1, 1), core.NewVec3(5, 5, 5)))
	mesh.MaterialIDs[1] = 1

	mesh.DeriveLightIndices()
	if len(mesh.LightIndices) != 1 || mesh.LightIndices[0] != 1 {
		t.Errorf("Expected light indices [1], got %v", mesh.LightIndices)
	}
}

func TestMesh_ComputeNormals(t *testing.T) {
	mesh := newQuadMesh()
	mesh.ComputeNormals()

	if len(mesh.Normals) != len(mesh.Positions) {
		t.Fatalf("Expected one normal per vertex, got %d floats", len(mesh.Normals))
	}
	for i := uint32(0); i < uint32(mesh.VertexCount()); i++ {
		if n := mesh.Normal(i); !n.ApproxEqual(core.NewVec3(0, 0, 1), 1e-6) {
			t.Errorf("Vertex %d: expected +Z normal, got %v", i, n)
		}
	}
}

func TestMaterial_Defaults(t *testing.T) {
	var m Material
	if m.DiffuseOrDefault() != DefaultDiffuse {
		t.Errorf("Expected default diffuse 0.8, got %v", m.DiffuseOrDefault())
	}
	if !m.EmissionOrDefault().IsZero() || m.IsEmissive() {
		t.Error("Material without emission should be black and non-emissive")
	}
}
