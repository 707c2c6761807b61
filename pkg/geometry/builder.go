package geometry

import (
	"github.com/chewxy/math32"
	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// MeshBuilder assembles a Mesh from quads, boxes and single triangles.
// Every face gets its own vertices so flat faces keep flat normals.
type MeshBuilder struct {
	mesh      Mesh
	materials map[string]uint32
}

// NewMeshBuilder creates an empty builder
func NewMeshBuilder() *MeshBuilder {
	return &MeshBuilder{materials: make(map[string]uint32)}
}

// AddMaterial registers a material and returns its index.
// Registering the same name twice returns the existing index.
func (b *MeshBuilder) AddMaterial(mat Material) uint32 {
	if id, ok := b.materials[mat.Name]; ok && mat.Name != "" {
		return id
	}
	id := uint32(len(b.mesh.Materials))
	b.mesh.Materials = append(b.mesh.Materials, mat)
	if mat.Name != "" {
		b.materials[mat.Name] = id
	}
	return id
}

func (b *MeshBuilder) addVertex(p, n core.Vec3) uint32 {
	idx := uint32(len(b.mesh.Positions) / 3)
	b.mesh.Positions = append(b.mesh.Positions, p[0], p[1], p[2])
	b.mesh.Normals = append(b.mesh.Normals, n[0], n[1], n[2])
	return idx
}

// AddTriangle appends a flat-shaded triangle
func (b *MeshBuilder) AddTriangle(v0, v1, v2 core.Vec3, material uint32) {
	n := v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	i0 := b.addVertex(v0, n)
	i1 := b.addVertex(v1, n)
	i2 := b.addVertex(v2, n)
	b.mesh.Indices = append(b.mesh.Indices, i0, i1, i2)
	b.mesh.MaterialIDs = append(b.mesh.MaterialIDs, material)
}

// AddQuad appends the parallelogram corner, corner+u, corner+u+v, corner+v as two triangles.
// The face normal is u × v.
func (b *MeshBuilder) AddQuad(corner, u, v core.Vec3, material uint32) {
	n := u.Cross(v).Normalize()
	i0 := b.addVertex(corner, n)
	i1 := b.addVertex(corner.Add(u), n)
	i2 := b.addVertex(corner.Add(u).Add(v), n)
	i3 := b.addVertex(corner.Add(v), n)
	b.mesh.Indices = append(b.mesh.Indices, i0, i1, i2, i0, i2, i3)
	b.mesh.MaterialIDs = append(b.mesh.MaterialIDs, material, material)
}

// AddBox appends the 6 faces of a box with the given half-extents, rotated by yaw radians around +Y
func (b *MeshBuilder) AddBox(center, halfSize core.Vec3, yaw float32, material uint32) {
	// The 8 corners of a unit box centered at origin
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}

	sin, cos := math32.Sin(yaw), math32.Cos(yaw)
	for i, c := range corners {
		c = core.NewVec3(c[0]*halfSize[0], c[1]*halfSize[1], c[2]*halfSize[2])
		c = core.NewVec3(c[0]*cos+c[2]*sin, c[1], -c[0]*sin+c[2]*cos)
		corners[i] = c.Add(center)
	}

	// Each face as corner plus two edges, wound so the normal points outwards
	faces := [6][3]int{
		{4, 5, 7}, // front (+Z)
		{1, 0, 2}, // back (-Z)
		{0, 4, 3}, // left (-X)
		{5, 1, 6}, // right (+X)
		{7, 6, 3}, // top (+Y)
		{0, 1, 4}, // bottom (-Y)
	}
	for _, f := range faces {
		corner := corners[f[0]]
		b.AddQuad(corner, corners[f[1]].Subtract(corner), corners[f[2]].Subtract(corner), material)
	}
}

// Build finalizes the mesh and derives its light indices.
// The builder must not be used afterwards.
func (b *MeshBuilder) Build() *Mesh {
	mesh := b.mesh
	mesh.DeriveLightIndices()
	return &mesh
}
