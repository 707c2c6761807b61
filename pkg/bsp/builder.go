package bsp

import (
	"fmt"
	"sort"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

// Config controls when the builder stops splitting
type Config struct {
	LeafThreshold int // subsets with this many or fewer triangles become leaves
	MaxDepth      int // nodes at this depth become leaves regardless of size
}

// DefaultConfig returns the leaf threshold and depth limit the executor is tuned for
func DefaultConfig() Config {
	return Config{
		LeafThreshold: 4,
		MaxDepth:      20,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.LeafThreshold < 1 {
		c.LeafThreshold = def.LeafThreshold
	}
	if c.MaxDepth < 1 {
		c.MaxDepth = def.MaxDepth
	}
	return c
}

// builder holds per-triangle data computed once up front
type builder struct {
	cfg       Config
	centroids []core.Vec3
	boxes     []core.AABB
	scratch   []uint32
	tree      *Tree
}

// Build partitions the mesh triangles into a BSP tree.
//
// Each node splits along the longest axis of its centroid bounds at the midpoint of that extent.
// When the midpoint leaves one side empty (all centroids equal, or float rounding) the subset
// is sorted by centroid and split evenly by index instead, so recursion always terminates.
// A mesh without triangles yields a single empty leaf.
func Build(mesh *geometry.Mesh, cfg Config) (*Tree, error) {
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("bsp build: %w", err)
	}

	numTriangles := mesh.TriangleCount()
	b := &builder{
		cfg:       cfg.normalized(),
		centroids: make([]core.Vec3, numTriangles),
		boxes:     make([]core.AABB, numTriangles),
		scratch:   make([]uint32, numTriangles),
		tree: &Tree{
			TriIndices: make([]uint32, numTriangles),
		},
	}

	for i := 0; i < numTriangles; i++ {
		tri := mesh.Triangle(i)
		b.centroids[i] = tri.Centroid(mesh)
		b.boxes[i] = tri.BoundingBox(mesh)
		b.tree.TriIndices[i] = uint32(i)
	}

	if numTriangles == 0 {
		b.tree.Nodes = []Node{NewLeaf(0, 0)}
		b.tree.Bounds = []core.AABB{{}}
		return b.tree, nil
	}

	b.build(0, uint32(numTriangles), 0)
	return b.tree, nil
}

// build emits the node for TriIndices[start:start+count] and returns its index
func (b *builder) build(start, count uint32, depth int) uint32 {
	ids := b.tree.TriIndices[start : start+count]

	bounds := b.boxes[ids[0]]
	centroidBounds := core.NewAABB(b.centroids[ids[0]], b.centroids[ids[0]])
	for _, id := range ids[1:] {
		bounds = bounds.Union(b.boxes[id])
		centroidBounds = centroidBounds.Extend(b.centroids[id])
	}

	index := uint32(len(b.tree.Nodes))
	b.tree.Nodes = append(b.tree.Nodes, Node{})
	b.tree.Bounds = append(b.tree.Bounds, bounds)

	// Base case: few triangles or too deep
	if int(count) <= b.cfg.LeafThreshold || depth >= b.cfg.MaxDepth {
		b.tree.Nodes[index] = NewLeaf(start, count)
		return index
	}

	axis := centroidBounds.LongestAxis()
	split := (centroidBounds.Min[axis] + centroidBounds.Max[axis]) * 0.5
	leftCount := b.partition(ids, axis, split)

	if leftCount == 0 || leftCount == count {
		split, leftCount = b.splitEvenly(ids, axis)
	}

	left := b.build(start, leftCount, depth+1)
	right := b.build(start+leftCount, count-leftCount, depth+1)
	b.tree.Nodes[index] = NewSplit(uint8(axis), split, left, right)

	return index
}

// partition stably moves ids with centroid <= split to the front and returns how many there are
func (b *builder) partition(ids []uint32, axis int, split float32) uint32 {
	scratch := b.scratch[:0]
	leftCount := 0
	for _, id := range ids {
		if b.centroids[id][axis] <= split {
			ids[leftCount] = id
			leftCount++
		} else {
			scratch = append(scratch, id)
		}
	}
	copy(ids[leftCount:], scratch)
	return uint32(leftCount)
}

// splitEvenly sorts ids by centroid along axis and cuts them in half.
// The returned plane is the centroid of the last left triangle.
func (b *builder) splitEvenly(ids []uint32, axis int) (float32, uint32) {
	sort.SliceStable(ids, func(i, j int) bool {
		return b.centroids[ids[i]][axis] < b.centroids[ids[j]][axis]
	})
	mid := len(ids) / 2
	return b.centroids[ids[mid-1]][axis], uint32(mid)
}
