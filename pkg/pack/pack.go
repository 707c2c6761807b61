// Package pack flattens a mesh and its BSP tree into the little-endian
// buffers the executor binds. Layouts are fixed; see the record constants.
package pack

import (
	"errors"
	"fmt"

	"github.com/df07/go-gpu-pathtracer/pkg/bsp"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

// ErrCorruptBuffer is returned when a packed buffer cannot be decoded
var ErrCorruptBuffer = errors.New("corrupt packed buffer")

// Buffers holds every scene buffer ready for upload
type Buffers struct {
	Attribs   []byte
	Indices   []byte
	Materials []byte
	Lights    []byte
	TreeIDs   []byte
	Nodes     []byte
	AABBs     []byte
	RootAABB  []byte

	VertexCount   int
	TriangleCount int
	MaterialCount int
	LightCount    int
	NodeCount     int
}

// Pack encodes mesh and tree. The output depends only on its inputs.
func Pack(mesh *geometry.Mesh, tree *bsp.Tree) (*Buffers, error) {
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	if len(tree.Nodes) != len(tree.Bounds) {
		return nil, fmt.Errorf("pack: %w: %d nodes but %d bounds", bsp.ErrInvalidTree, len(tree.Nodes), len(tree.Bounds))
	}
	if len(tree.TriIndices) != mesh.TriangleCount() {
		return nil, fmt.Errorf("pack: %w: tree covers %d triangles, mesh has %d", bsp.ErrInvalidTree, len(tree.TriIndices), mesh.TriangleCount())
	}

	b := &Buffers{
		VertexCount:   mesh.VertexCount(),
		TriangleCount: mesh.TriangleCount(),
		MaterialCount: len(mesh.Materials),
		LightCount:    len(mesh.LightIndices),
		NodeCount:     len(tree.Nodes),
	}

	b.Attribs = packAttribs(mesh)
	b.Indices = packIndices(mesh)
	b.Materials = packMaterials(mesh.Materials)
	b.Lights = packWords(mesh.LightIndices)
	b.TreeIDs = packWords(tree.TriIndices)
	b.Nodes = packNodes(tree.Nodes)

	b.AABBs = make([]byte, len(tree.Bounds)*AABBSize)
	for i, box := range tree.Bounds {
		putAABB(b.AABBs, i*AABBSize, box)
	}
	b.RootAABB = make([]byte, AABBSize)
	putAABB(b.RootAABB, 0, tree.RootBounds())

	return b, nil
}

func packAttribs(mesh *geometry.Mesh) []byte {
	buf := make([]byte, mesh.VertexCount()*AttribSize)
	hasNormals := len(mesh.Normals) == len(mesh.Positions)
	for i := 0; i < mesh.VertexCount(); i++ {
		offset := i * AttribSize
		putVec4(buf, offset, mesh.Vertex(uint32(i)), 1)
		if hasNormals {
			putVec4(buf, offset+16, mesh.Normal(uint32(i)), 0)
		}
	}
	return buf
}

func packIndices(mesh *geometry.Mesh) []byte {
	buf := make([]byte, mesh.TriangleCount()*IndexSize)
	for t := 0; t < mesh.TriangleCount(); t++ {
		tri := mesh.Triangle(t)
		offset := t * IndexSize
		putU32(buf, offset, tri.V[0])
		putU32(buf, offset+4, tri.V[1])
		putU32(buf, offset+8, tri.V[2])
		putU32(buf, offset+12, tri.Material)
	}
	return buf
}

func packMaterials(materials []geometry.Material) []byte {
	buf := make([]byte, len(materials)*MaterialSize)
	for i, mat := range materials {
		offset := i * MaterialSize
		putVec4(buf, offset, mat.EmissionOrDefault(), 0)
		putVec4(buf, offset+16, mat.DiffuseOrDefault(), 0)
	}
	return buf
}

// packNodes encodes the node records.
// word0 holds the axis in bits 0-1 and, for leaves, the count in bits 2-31.
func packNodes(nodes []bsp.Node) []byte {
	buf := make([]byte, len(nodes)*NodeSize)
	for i, n := range nodes {
		offset := i * NodeSize
		if n.IsLeaf() {
			putU32(buf, offset, uint32(bsp.LeafAxis)|n.Count<<2)
			putU32(buf, offset+4, n.Start)
			putU32(buf, offset+8, leafChild)
			putU32(buf, offset+12, leafChild)
			continue
		}
		putU32(buf, offset, uint32(n.Axis))
		putF32(buf, offset+4, n.Split)
		putU32(buf, offset+8, n.Left)
		putU32(buf, offset+12, n.Right)
	}
	return buf
}
