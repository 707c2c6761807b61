package bsp

import "github.com/df07/go-gpu-pathtracer/pkg/core"

// LeafAxis is the axis tag that marks a leaf node
const LeafAxis = 3

// NoChild is stored in the child slots of a leaf
const NoChild = ^uint32(0)

// Node is one entry of the flat node array.
// A split node partitions its triangles by centroid along Axis at Split:
// centroid <= Split goes Left, the rest goes Right.
// A leaf node owns TriIndices[Start : Start+Count].
type Node struct {
	Axis  uint8   // 0, 1, 2 for splits; LeafAxis for leaves
	Split float32 // split plane offset (split nodes only)
	Left  uint32  // child node indices (split nodes only)
	Right uint32
	Start uint32 // leaf range (leaf nodes only)
	Count uint32
}

// IsLeaf reports whether the node is a leaf
func (n Node) IsLeaf() bool {
	return n.Axis == LeafAxis
}

// NewLeaf creates a leaf node over [start, start+count)
func NewLeaf(start, count uint32) Node {
	return Node{Axis: LeafAxis, Start: start, Count: count, Left: NoChild, Right: NoChild}
}

// NewSplit creates a split node
func NewSplit(axis uint8, split float32, left, right uint32) Node {
	return Node{Axis: axis, Split: split, Left: left, Right: right}
}

// Tree is a BSP tree stored as parallel arrays addressed by node index.
// Node 0 is the root; nodes are laid out in depth-first pre-order.
type Tree struct {
	Nodes      []Node      // node records
	Bounds     []core.AABB // Bounds[i] tightly bounds the triangles under Nodes[i]
	TriIndices []uint32    // triangle indices reordered so every leaf range is contiguous
}

// Root returns the root node index
func (t *Tree) Root() uint32 {
	return 0
}

// RootBounds returns the bounds of the whole scene
func (t *Tree) RootBounds() core.AABB {
	if len(t.Bounds) == 0 {
		return core.AABB{}
	}
	return t.Bounds[0]
}

// Leaves returns the leaf node indices in pre-order
func (t *Tree) Leaves() []uint32 {
	var leaves []uint32
	for i, node := range t.Nodes {
		if node.IsLeaf() {
			leaves = append(leaves, uint32(i))
		}
	}
	return leaves
}

// LeafTriangles returns the triangle indices owned by a leaf
func (t *Tree) LeafTriangles(node uint32) []uint32 {
	n := t.Nodes[node]
	return t.TriIndices[n.Start : n.Start+n.Count]
}
