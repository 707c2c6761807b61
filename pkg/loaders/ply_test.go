package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// createTestPLY writes a binary little-endian unit square as two triangles
func createTestPLY(t *testing.T, filename string, includeNormals bool) {
	var buf bytes.Buffer

	buf.WriteString("ply\n")
	buf.WriteString("format binary_little_endian 1.0\n")
	buf.WriteString("comment test square\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	if includeNormals {
		buf.WriteString("property float nx\n")
		buf.WriteString("property float ny\n")
		buf.WriteString("property float nz\n")
	}
	buf.WriteString("property uchar red\n")
	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("property uchar flags\n")
	buf.WriteString("end_header\n")

	vertices := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for _, v := range vertices {
		binary.Write(&buf, binary.LittleEndian, v)
		if includeNormals {
			binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1})
		}
		buf.WriteByte(255)
	}

	faces := [][3]int32{{0, 1, 2}, {0, 2, 3}}
	for _, f := range faces {
		buf.WriteByte(3)
		binary.Write(&buf, binary.LittleEndian, f)
		buf.WriteByte(0)
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to create test PLY file: %v", err)
	}
}

func TestLoadPLY_Binary(t *testing.T) {
	for _, withNormals := range []bool{true, false} {
		testFile := filepath.Join(t.TempDir(), "square.ply")
		createTestPLY(t, testFile, withNormals)

		mesh, err := LoadMesh(testFile)
		if err != nil {
			t.Fatalf("Failed to load PLY (normals=%v): %v", withNormals, err)
		}

		if mesh.VertexCount() != 4 || mesh.TriangleCount() != 2 {
			t.Fatalf("Expected 4 vertices and 2 triangles, got %d and %d", mesh.VertexCount(), mesh.TriangleCount())
		}
		if v := mesh.Vertex(2); v != core.NewVec3(1, 1, 0) {
			t.Errorf("Expected vertex 2 at (1,1,0), got %v", v)
		}
		if len(mesh.Normals) != len(mesh.Positions) {
			t.Fatalf("Expected a normal per vertex, got %d floats", len(mesh.Normals))
		}
		if n := mesh.Normal(0); !n.ApproxEqual(core.NewVec3(0, 0, 1), 1e-6) {
			t.Errorf("Expected normal (0,0,1), got %v", n)
		}
		if len(mesh.MaterialIDs) != 2 || len(mesh.Materials) != 1 {
			t.Errorf("Expected one default material for both triangles")
		}
	}
}

func TestParsePLY_ASCIIWithPolygon(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 5
property float x
property float y
property float z
element face 1
property list uchar uint vertex_indices
end_header
0 0 0
1 0 0
2 1 0
1 2 0
0 1 0
5 0 1 2 3 4
`
	mesh, err := ParsePLY(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}
	if mesh.TriangleCount() != 3 {
		t.Fatalf("Expected pentagon fanned into 3 triangles, got %d", mesh.TriangleCount())
	}
	want := []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4}
	for i := range want {
		if mesh.Indices[i] != want[i] {
			t.Errorf("Index %d: expected %d, got %d", i, want[i], mesh.Indices[i])
		}
	}
}

func TestParsePLY_BigEndian(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_big_endian 1.0\nelement vertex 3\nproperty double x\nproperty double y\nproperty double z\nelement face 1\nproperty list uchar ushort vertex_indices\nend_header\n")
	binary.Write(&buf, binary.BigEndian, [9]float64{0, 0, 0, 1, 0, 0, 0, 1, 0})
	buf.WriteByte(3)
	binary.Write(&buf, binary.BigEndian, [3]uint16{0, 1, 2})

	mesh, err := ParsePLY(&buf)
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}
	if v := mesh.Vertex(1); v != core.NewVec3(1, 0, 0) {
		t.Errorf("Expected vertex 1 at (1,0,0), got %v", v)
	}
}

func TestParsePLY_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not a ply", "obj\nend_header\n"},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nend_header\n"},
		{"truncated header", "ply\nformat ascii 1.0\n"},
		{"truncated body", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n"},
		{"index out of range", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n3 0 1 2\n"},
		{"negative index", "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 -1 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePLY(strings.NewReader(tt.src)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
