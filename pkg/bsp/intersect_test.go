package bsp

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

// bruteForce finds the closest hit by testing every triangle
func bruteForce(mesh *geometry.Mesh, origin, direction core.Vec3) (Hit, bool) {
	closest := Hit{T: math32.Inf(1)}
	found := false
	for i := 0; i < mesh.TriangleCount(); i++ {
		v0, v1, v2 := mesh.Triangle(i).Vertices(mesh)
		if tHit, u, v, ok := geometry.IntersectTriangle(origin, direction, v0, v1, v2, 1e-4, closest.T); ok {
			closest = Hit{T: tHit, Triangle: uint32(i), U: u, V: v}
			found = true
		}
	}
	return closest, found
}

func TestIntersect_MatchesBruteForce(t *testing.T) {
	mesh := geometry.NewCornellBox()
	tree, err := Build(mesh, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	eye := core.NewVec3(277, 275, -570)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			target := core.NewVec3(float32(x)*37, float32(y)*37, 555)
			direction := target.Subtract(eye).Normalize()

			want, wantOK := bruteForce(mesh, eye, direction)
			got, gotOK := tree.Intersect(mesh, eye, direction, 1e-4, math32.Inf(1))
			if wantOK != gotOK {
				t.Fatalf("Ray (%d,%d): brute force hit=%v, tree hit=%v", x, y, wantOK, gotOK)
			}
			if wantOK && math32.Abs(want.T-got.T) > 1e-2 {
				t.Errorf("Ray (%d,%d): expected t=%v, got t=%v", x, y, want.T, got.T)
			}
		}
	}
}

func TestIntersect_EmptyTreeMisses(t *testing.T) {
	mesh := &geometry.Mesh{}
	tree, err := Build(mesh, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tree.Intersect(mesh, core.Vec3{}, core.NewVec3(0, 0, 1), 0, 100); ok {
		t.Error("Empty tree should never report a hit")
	}
}
