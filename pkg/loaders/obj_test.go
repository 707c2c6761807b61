package loaders

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

const quadOBJ = `# unit quad with a light material
mtllib scene.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
usemtl light
f 1//1 2//1 3//1 4//1
`

const sceneMTL = `newmtl light
Kd 0.5 0.5 0.5
Ke 10 10 10

newmtl red
Kd 0.9 0.1 0.1
`

// mapOpener serves material libraries from memory
func mapOpener(files map[string]string) MaterialOpener {
	return func(name string) (io.ReadCloser, error) {
		content, ok := files[name]
		if !ok {
			return nil, os.ErrNotExist
		}
		return io.NopCloser(strings.NewReader(content)), nil
	}
}

func TestParseOBJ_QuadWithMaterials(t *testing.T) {
	mesh, err := ParseOBJ(strings.NewReader(quadOBJ), mapOpener(map[string]string{"scene.mtl": sceneMTL}))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if mesh.VertexCount() != 4 {
		t.Errorf("Expected 4 vertices, got %d", mesh.VertexCount())
	}
	if mesh.TriangleCount() != 2 {
		t.Fatalf("Expected the quad to be fanned into 2 triangles, got %d", mesh.TriangleCount())
	}
	wantIndices := []uint32{0, 1, 2, 0, 2, 3}
	for i, want := range wantIndices {
		if mesh.Indices[i] != want {
			t.Errorf("Index %d: expected %d, got %d", i, want, mesh.Indices[i])
		}
	}

	if len(mesh.Materials) != 1 || mesh.Materials[0].Name != "light" {
		t.Fatalf("Expected the light material only, got %+v", mesh.Materials)
	}
	if e := mesh.Materials[0].EmissionOrDefault(); e != core.NewVec3(10, 10, 10) {
		t.Errorf("Expected emission 10, got %v", e)
	}
	if len(mesh.LightIndices) != 2 {
		t.Errorf("Expected both triangles to be lights, got %v", mesh.LightIndices)
	}
	if n := mesh.Normal(2); n != core.NewVec3(0, 0, 1) {
		t.Errorf("Expected file normal (0,0,1), got %v", n)
	}
}

func TestParseOBJ_NegativeIndicesAndComputedNormals(t *testing.T) {
	src := `v 0 0 0
v 0 0 -1
v 1 0 0
f -3 -1 -2
`
	mesh, err := ParseOBJ(strings.NewReader(src), nil)
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if mesh.TriangleCount() != 1 {
		t.Fatalf("Expected 1 triangle, got %d", mesh.TriangleCount())
	}
	if mesh.Materials[0].Name != defaultMaterialName {
		t.Errorf("Expected default material, got %q", mesh.Materials[0].Name)
	}
	if d := mesh.Materials[0].DiffuseOrDefault(); d != geometry.DefaultDiffuse {
		t.Errorf("Expected default diffuse, got %v", d)
	}
	// (1,0,0) x (0,0,-1) points up
	if n := mesh.Normal(0); !n.ApproxEqual(core.NewVec3(0, 1, 0), 1e-6) {
		t.Errorf("Expected computed normal (0,1,0), got %v", n)
	}
}

func TestParseOBJ_SharedVerticesAreDeduplicated(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
usemtl a
f 1 2 3
usemtl b
f 1 3 4
usemtl a
f 1/1 2/2 4/4
`
	mesh, err := ParseOBJ(strings.NewReader(src), nil)
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if mesh.VertexCount() != 4 {
		t.Errorf("Expected 4 shared vertices, got %d", mesh.VertexCount())
	}
	if len(mesh.Materials) != 2 {
		t.Errorf("Expected 2 materials, got %d", len(mesh.Materials))
	}
	wantIDs := []uint32{0, 1, 0}
	for i, want := range wantIDs {
		if mesh.MaterialIDs[i] != want {
			t.Errorf("Triangle %d: expected material %d, got %d", i, want, mesh.MaterialIDs[i])
		}
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"index out of range", "v 0 0 0\nf 1 2 3\n"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"bad vertex", "v 0 zero 0\n"},
		{"degenerate face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"missing library", "mtllib nowhere.mtl\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseOBJ(strings.NewReader(tt.src), mapOpener(nil)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestParseMTL(t *testing.T) {
	materials, err := ParseMTL(strings.NewReader(sceneMTL))
	if err != nil {
		t.Fatalf("ParseMTL failed: %v", err)
	}
	if len(materials) != 2 {
		t.Fatalf("Expected 2 materials, got %d", len(materials))
	}
	if materials[1].Name != "red" || materials[1].Emission != nil {
		t.Errorf("Expected non-emissive red, got %+v", materials[1])
	}
	if d := materials[1].DiffuseOrDefault(); d != core.NewVec3(0.9, 0.1, 0.1) {
		t.Errorf("Unexpected red diffuse %v", d)
	}

	if _, err := ParseMTL(strings.NewReader("Kd 1 1 1\n")); err == nil {
		t.Error("Expected an error for Kd before newmtl")
	}
}

func TestLoadOBJ_ResolvesLibraryNextToFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scene.mtl"), []byte(sceneMTL), 0644); err != nil {
		t.Fatal(err)
	}
	objPath := filepath.Join(dir, "quad.obj")
	if err := os.WriteFile(objPath, []byte(quadOBJ), 0644); err != nil {
		t.Fatal(err)
	}

	mesh, err := LoadMesh(objPath)
	if err != nil {
		t.Fatalf("LoadMesh failed: %v", err)
	}
	if !mesh.Materials[0].IsEmissive() {
		t.Error("Expected the library's emissive material to be applied")
	}
}

func TestLoadMesh_UnsupportedFormat(t *testing.T) {
	if _, err := LoadMesh("model.stl"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := LoadMesh(filepath.Join(t.TempDir(), "missing.obj")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
