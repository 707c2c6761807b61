package pack

import (
	"fmt"

	"github.com/df07/go-gpu-pathtracer/pkg/bsp"
	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// UnpackTree decodes packed node, AABB and tree id buffers back into a tree.
// triangleCount disambiguates the single zero word written for an empty id list.
func UnpackTree(nodes, aabbs, treeIDs []byte, triangleCount int) (*bsp.Tree, error) {
	if len(nodes)%NodeSize != 0 {
		return nil, fmt.Errorf("%w: node buffer length %d", ErrCorruptBuffer, len(nodes))
	}
	if len(aabbs)%AABBSize != 0 {
		return nil, fmt.Errorf("%w: aabb buffer length %d", ErrCorruptBuffer, len(aabbs))
	}
	nodeCount := len(nodes) / NodeSize
	if nodeCount != len(aabbs)/AABBSize {
		return nil, fmt.Errorf("%w: %d nodes but %d aabbs", ErrCorruptBuffer, nodeCount, len(aabbs)/AABBSize)
	}
	if len(treeIDs) < triangleCount*WordSize {
		return nil, fmt.Errorf("%w: tree id buffer holds %d bytes, need %d", ErrCorruptBuffer, len(treeIDs), triangleCount*WordSize)
	}

	tree := &bsp.Tree{
		Nodes:      make([]bsp.Node, nodeCount),
		Bounds:     make([]core.AABB, nodeCount),
		TriIndices: make([]uint32, triangleCount),
	}

	for i := 0; i < nodeCount; i++ {
		offset := i * NodeSize
		word0 := getU32(nodes, offset)
		axis := word0 & 3
		if axis == bsp.LeafAxis {
			start, count := getU32(nodes, offset+4), word0>>2
			if int(start)+int(count) > triangleCount {
				return nil, fmt.Errorf("%w: leaf %d range [%d,+%d) exceeds %d triangles", ErrCorruptBuffer, i, start, count, triangleCount)
			}
			tree.Nodes[i] = bsp.NewLeaf(start, count)
		} else {
			left, right := getU32(nodes, offset+8), getU32(nodes, offset+12)
			if int(left) >= nodeCount || int(right) >= nodeCount {
				return nil, fmt.Errorf("%w: node %d children %d/%d out of range", ErrCorruptBuffer, i, left, right)
			}
			tree.Nodes[i] = bsp.NewSplit(uint8(axis), getF32(nodes, offset+4), left, right)
		}
		tree.Bounds[i] = getAABB(aabbs, i*AABBSize)
	}

	for i := range tree.TriIndices {
		tree.TriIndices[i] = getU32(treeIDs, i*WordSize)
	}

	return tree, nil
}
