package bsp

import (
	"github.com/chewxy/math32"
	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

// Hit describes the closest intersection found by Intersect
type Hit struct {
	T        float32 // ray parameter
	Triangle uint32  // index into the mesh
	U, V     float32 // barycentrics
}

// Intersect traverses the tree the same way the executor does: test node bounds,
// descend near child first, test leaf triangles linearly. Used for host-side picking.
func (t *Tree) Intersect(mesh *geometry.Mesh, origin, direction core.Vec3, tMin, tMax float32) (Hit, bool) {
	closest := Hit{T: math32.Inf(1)}
	found := false

	stack := make([]uint32, 0, 64)
	stack = append(stack, t.Root())
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.Nodes[node]
		if n.IsLeaf() && n.Count == 0 {
			continue
		}
		if !t.Bounds[node].Hit(origin, direction, tMin, tMax) {
			continue
		}

		if n.IsLeaf() {
			for _, id := range t.TriIndices[n.Start : n.Start+n.Count] {
				v0, v1, v2 := mesh.Triangle(int(id)).Vertices(mesh)
				if tHit, u, v, ok := geometry.IntersectTriangle(origin, direction, v0, v1, v2, tMin, tMax); ok {
					// Shrink the interval so farther nodes get culled
					tMax = tHit
					closest = Hit{T: tHit, Triangle: id, U: u, V: v}
					found = true
				}
			}
			continue
		}

		// Push far child first so the near one is popped next
		near, far := n.Left, n.Right
		if direction[n.Axis] < 0 {
			near, far = far, near
		}
		stack = append(stack, far, near)
	}

	return closest, found
}
