package bsp

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

// newTriangleSoup creates n small random triangles inside a 100-unit cube
func newTriangleSoup(n int, seed int64) *geometry.Mesh {
	random := rand.New(rand.NewSource(seed))
	b := geometry.NewMeshBuilder()
	mat := b.AddMaterial(geometry.Material{Name: "default"})
	for i := 0; i < n; i++ {
		base := core.NewVec3(random.Float32()*100, random.Float32()*100, random.Float32()*100)
		b.AddTriangle(
			base,
			base.Add(core.NewVec3(random.Float32(), 0, 0)),
			base.Add(core.NewVec3(0, random.Float32(), random.Float32())),
			mat,
		)
	}
	return b.Build()
}

// newStackedMesh creates n identical triangles, so every centroid coincides
func newStackedMesh(n int) *geometry.Mesh {
	b := geometry.NewMeshBuilder()
	mat := b.AddMaterial(geometry.Material{Name: "default"})
	for i := 0; i < n; i++ {
		b.AddTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), mat)
	}
	return b.Build()
}

func TestBuild_QuadIsSingleLeaf(t *testing.T) {
	// 2-triangle, 4-vertex quad with the default threshold of 4
	mesh := &geometry.Mesh{
		Positions:   []float32{0, 0, 0, 2, 0, 0, 2, 1, 0, 0, 1, 0},
		Indices:     []uint32{0, 1, 2, 0, 2, 3},
		MaterialIDs: []uint32{0, 0},
		Materials:   []geometry.Material{{}},
	}

	tree, err := Build(mesh, DefaultConfig())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(tree.Nodes) != 1 {
		t.Fatalf("Expected exactly one node, got %d", len(tree.Nodes))
	}
	root := tree.Nodes[0]
	if !root.IsLeaf() || root.Start != 0 || root.Count != 2 {
		t.Errorf("Expected root leaf [0,+2), got %+v", root)
	}
	want := core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(2, 1, 0))
	if tree.RootBounds() != want {
		t.Errorf("Expected root bounds %v, got %v", want, tree.RootBounds())
	}
	if err := tree.Validate(mesh); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestBuild_EmptyMeshProducesEmptyLeaf(t *testing.T) {
	tree, err := Build(&geometry.Mesh{}, DefaultConfig())
	if err != nil {
		t.Fatalf("Empty mesh must not fail: %v", err)
	}
	if len(tree.Nodes) != 1 || !tree.Nodes[0].IsLeaf() || tree.Nodes[0].Count != 0 {
		t.Errorf("Expected a single empty leaf, got %+v", tree.Nodes)
	}
	if len(tree.TriIndices) != 0 {
		t.Errorf("Expected no tree ids, got %v", tree.TriIndices)
	}

	stats := tree.Stats()
	if stats.EmptyLeaves != 1 || stats.TotalNodes != 1 {
		t.Errorf("Unexpected stats for empty tree: %+v", stats)
	}
}

func TestBuild_InvalidMeshFails(t *testing.T) {
	mesh := &geometry.Mesh{
		Positions:   []float32{0, 0, 0},
		Indices:     []uint32{0, 0, 7},
		MaterialIDs: []uint32{0},
		Materials:   []geometry.Material{{}},
	}
	if _, err := Build(mesh, DefaultConfig()); !errors.Is(err, geometry.ErrInvalidMesh) {
		t.Errorf("Expected ErrInvalidMesh, got %v", err)
	}
}

func TestBuild_LeafThresholdBoundary(t *testing.T) {
	cfg := DefaultConfig()

	// Exactly the threshold: single leaf
	mesh := newTriangleSoup(cfg.LeafThreshold, 1)
	tree, err := Build(mesh, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if stats := tree.Stats(); stats.TotalNodes != 1 {
		t.Errorf("Expected 1 node for %d triangles, got %d", cfg.LeafThreshold, stats.TotalNodes)
	}

	// One more: must split
	mesh = newTriangleSoup(cfg.LeafThreshold+1, 1)
	tree, err = Build(mesh, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if stats := tree.Stats(); stats.LeafNodes < 2 {
		t.Errorf("Expected a split for %d triangles, got %+v", cfg.LeafThreshold+1, stats)
	}
}

func TestBuild_PartitionAndContainment(t *testing.T) {
	tests := []struct {
		name string
		mesh *geometry.Mesh
	}{
		{"random soup", newTriangleSoup(500, 7)},
		{"cornell box", geometry.NewCornellBox()},
		{"coincident centroids", newStackedMesh(37)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Build(tt.mesh, DefaultConfig())
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if err := tree.Validate(tt.mesh); err != nil {
				t.Fatalf("Validate failed: %v", err)
			}

			// Multiset of leaf triangles equals the triangle set
			counts := make(map[uint32]int)
			for _, leaf := range tree.Leaves() {
				for _, id := range tree.LeafTriangles(leaf) {
					counts[id]++
				}
			}
			if len(counts) != tt.mesh.TriangleCount() {
				t.Errorf("Leaves reference %d distinct triangles, mesh has %d", len(counts), tt.mesh.TriangleCount())
			}
			for id, c := range counts {
				if c != 1 {
					t.Errorf("Triangle %d referenced %d times", id, c)
				}
			}

			// Non-root nodes are never empty
			for i, n := range tree.Nodes {
				if i > 0 && n.IsLeaf() && n.Count == 0 {
					t.Errorf("Node %d is an empty non-root leaf", i)
				}
			}
		})
	}
}

func TestBuild_CoincidentCentroidsTerminate(t *testing.T) {
	mesh := newStackedMesh(64)
	tree, err := Build(mesh, DefaultConfig())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	stats := tree.Stats()
	// Even split by index halves the set each level: 64 -> 4 needs 4 levels
	if stats.MaxDepth != 4 {
		t.Errorf("Expected depth 4 from even splitting, got %d", stats.MaxDepth)
	}
	if stats.MaxLeafSize > DefaultConfig().LeafThreshold {
		t.Errorf("Expected leaves at or under threshold, got max %d", stats.MaxLeafSize)
	}
}

func TestBuild_MaxDepthStopsRecursion(t *testing.T) {
	mesh := newTriangleSoup(300, 3)
	tree, err := Build(mesh, Config{LeafThreshold: 1, MaxDepth: 3})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	stats := tree.Stats()
	if stats.MaxDepth > 3 {
		t.Errorf("Expected max depth 3, got %d", stats.MaxDepth)
	}
	if stats.TotalTriangles != 300 {
		t.Errorf("Expected all 300 triangles in leaves, got %d", stats.TotalTriangles)
	}
	if err := tree.Validate(mesh); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestBuild_TiesGoLeft(t *testing.T) {
	// Centroids at exactly x = 0, 1, 2 (twice each) with threshold 1: the root midpoint is x=1
	b := geometry.NewMeshBuilder()
	mat := b.AddMaterial(geometry.Material{})
	for _, x := range []float32{0, 1, 2, 0, 1, 2} {
		b.AddTriangle(core.NewVec3(x-1, 0, 0), core.NewVec3(x+1, 0, 0), core.NewVec3(x, 3, 0), mat)
	}
	mesh := b.Build()

	tree, err := Build(mesh, Config{LeafThreshold: 1, MaxDepth: 20})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	root := tree.Nodes[0]
	if root.IsLeaf() || root.Axis != 0 || root.Split != 1 {
		t.Fatalf("Expected root split on X at 1, got %+v", root)
	}
	left := tree.subtreeTriangles(root.Left)
	if len(left) != 4 {
		t.Errorf("Expected the 4 triangles at x<=1 on the left, got %v", left)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	mesh := newTriangleSoup(200, 11)
	a, err := Build(mesh, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(mesh, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Nodes) != len(b.Nodes) {
		t.Fatalf("Node counts differ: %d vs %d", len(a.Nodes), len(b.Nodes))
	}
	for i := range a.Nodes {
		if a.Nodes[i] != b.Nodes[i] || a.Bounds[i] != b.Bounds[i] {
			t.Fatalf("Node %d differs between builds", i)
		}
	}
	for i := range a.TriIndices {
		if a.TriIndices[i] != b.TriIndices[i] {
			t.Fatalf("Tree id %d differs between builds", i)
		}
	}
}

func TestValidate_DetectsCorruption(t *testing.T) {
	mesh := newTriangleSoup(50, 5)
	tree, err := Build(mesh, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Duplicate a triangle id: one triangle referenced twice, another never
	tree.TriIndices[0] = tree.TriIndices[1]
	if err := tree.Validate(mesh); !errors.Is(err, ErrInvalidTree) {
		t.Errorf("Expected ErrInvalidTree for duplicated ids, got %v", err)
	}
}

func TestStats_WriteTable(t *testing.T) {
	tree, err := Build(geometry.NewCornellBox(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	tree.Stats().WriteTable(&buf)
	out := buf.String()
	for _, want := range []string{"nodes", "leaves", "max depth", "36"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in stats table:\n%s", want, out)
		}
	}
}
