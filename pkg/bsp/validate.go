package bsp

import (
	"errors"
	"fmt"

	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

// ErrInvalidTree is returned by Validate when a structural invariant does not hold
var ErrInvalidTree = errors.New("invalid bsp tree")

// boundsTolerance absorbs float32 rounding in containment checks
const boundsTolerance = 1e-4

// Validate checks the tree against the mesh it was built from:
//   - leaf ranges partition TriIndices and reference every triangle exactly once
//   - child bounds are contained in parent bounds
//   - every leaf triangle's centroid lies inside the leaf bounds
//   - split nodes send centroids <= Split left and >= Split right
func (t *Tree) Validate(mesh *geometry.Mesh) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidTree)
	}
	if len(t.Nodes) != len(t.Bounds) {
		return fmt.Errorf("%w: %d nodes but %d bounds", ErrInvalidTree, len(t.Nodes), len(t.Bounds))
	}
	if len(t.TriIndices) != mesh.TriangleCount() {
		return fmt.Errorf("%w: %d tree ids for %d triangles", ErrInvalidTree, len(t.TriIndices), mesh.TriangleCount())
	}

	seen := make([]int, mesh.TriangleCount())
	covered := make([]bool, len(t.TriIndices))
	visited := make([]bool, len(t.Nodes))

	var walk func(node uint32) error
	walk = func(node uint32) error {
		if int(node) >= len(t.Nodes) {
			return fmt.Errorf("%w: child index %d out of range", ErrInvalidTree, node)
		}
		if visited[node] {
			return fmt.Errorf("%w: node %d reachable twice", ErrInvalidTree, node)
		}
		visited[node] = true

		n := t.Nodes[node]
		box := t.Bounds[node]

		if n.IsLeaf() {
			if int(n.Start)+int(n.Count) > len(t.TriIndices) {
				return fmt.Errorf("%w: leaf %d range [%d,+%d) out of range", ErrInvalidTree, node, n.Start, n.Count)
			}
			for i := n.Start; i < n.Start+n.Count; i++ {
				if covered[i] {
					return fmt.Errorf("%w: tree id slot %d owned by two leaves", ErrInvalidTree, i)
				}
				covered[i] = true

				id := t.TriIndices[i]
				if int(id) >= len(seen) {
					return fmt.Errorf("%w: leaf %d references triangle %d", ErrInvalidTree, node, id)
				}
				seen[id]++

				centroid := mesh.Triangle(int(id)).Centroid(mesh)
				if !box.Contains(centroid, boundsTolerance) {
					return fmt.Errorf("%w: triangle %d centroid %v outside leaf %d bounds", ErrInvalidTree, id, centroid, node)
				}
			}
			return nil
		}

		if n.Axis > 2 {
			return fmt.Errorf("%w: node %d has axis %d", ErrInvalidTree, node, n.Axis)
		}
		for _, child := range []uint32{n.Left, n.Right} {
			if int(child) >= len(t.Nodes) {
				return fmt.Errorf("%w: node %d child %d out of range", ErrInvalidTree, node, child)
			}
			if !box.ContainsBox(t.Bounds[child], boundsTolerance) {
				return fmt.Errorf("%w: node %d child %d bounds escape parent", ErrInvalidTree, node, child)
			}
		}
		if err := t.checkSide(mesh, n.Left, n.Axis, n.Split, true); err != nil {
			return err
		}
		if err := t.checkSide(mesh, n.Right, n.Axis, n.Split, false); err != nil {
			return err
		}

		if err := walk(n.Left); err != nil {
			return err
		}
		return walk(n.Right)
	}

	if err := walk(t.Root()); err != nil {
		return err
	}

	for slot, ok := range covered {
		if !ok {
			return fmt.Errorf("%w: tree id slot %d not owned by any leaf", ErrInvalidTree, slot)
		}
	}
	for id, count := range seen {
		if count != 1 {
			return fmt.Errorf("%w: triangle %d referenced %d times", ErrInvalidTree, id, count)
		}
	}
	return nil
}

// checkSide verifies every triangle under node sits on the expected side of the plane
func (t *Tree) checkSide(mesh *geometry.Mesh, node uint32, axis uint8, split float32, left bool) error {
	for _, id := range t.subtreeTriangles(node) {
		c := mesh.Triangle(int(id)).Centroid(mesh)[axis]
		if left && c > split {
			return fmt.Errorf("%w: triangle %d centroid %v right of plane %v but in left subtree", ErrInvalidTree, id, c, split)
		}
		if !left && c < split {
			return fmt.Errorf("%w: triangle %d centroid %v left of plane %v but in right subtree", ErrInvalidTree, id, c, split)
		}
	}
	return nil
}

// subtreeTriangles returns every triangle referenced below node
func (t *Tree) subtreeTriangles(node uint32) []uint32 {
	var ids []uint32
	stack := []uint32{node}
	for len(stack) > 0 {
		n := t.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if n.IsLeaf() {
			ids = append(ids, t.TriIndices[n.Start:n.Start+n.Count]...)
			continue
		}
		if int(n.Left) < len(t.Nodes) && int(n.Right) < len(t.Nodes) {
			stack = append(stack, n.Right, n.Left)
		}
	}
	return ids
}
