package geometry

import "github.com/df07/go-gpu-pathtracer/pkg/core"

// Triangle is three vertex indices into a Mesh plus a material index
type Triangle struct {
	V        [3]uint32
	Material uint32
}

// Vertices returns the three corner positions of the triangle in mesh
func (t Triangle) Vertices(mesh *Mesh) (core.Vec3, core.Vec3, core.Vec3) {
	return mesh.Vertex(t.V[0]), mesh.Vertex(t.V[1]), mesh.Vertex(t.V[2])
}

// Centroid returns the average of the three corners
func (t Triangle) Centroid(mesh *Mesh) core.Vec3 {
	v0, v1, v2 := t.Vertices(mesh)
	return v0.Add(v1).Add(v2).Multiply(1.0 / 3.0)
}

// BoundingBox returns the tight bounds of the three corners
func (t Triangle) BoundingBox(mesh *Mesh) core.AABB {
	v0, v1, v2 := t.Vertices(mesh)
	return core.NewAABBFromPoints(v0, v1, v2)
}

// Normal returns the geometric (face) normal
func (t Triangle) Normal(mesh *Mesh) core.Vec3 {
	v0, v1, v2 := t.Vertices(mesh)
	return v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
}

// IntersectTriangle tests a ray against triangle (v0, v1, v2) using the Möller-Trumbore algorithm.
// Returns the ray parameter and barycentrics of the hit.
func IntersectTriangle(origin, direction, v0, v1, v2 core.Vec3, tMin, tMax float32) (t, u, v float32, ok bool) {
	const epsilon = 1e-8

	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)

	h := direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the plane of the triangle
	if a > -epsilon && a < epsilon {
		return 0, 0, 0, false
	}

	f := 1 / a
	s := origin.Subtract(v0)
	u = f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = f * direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = f * edge2.Dot(q)
	if t < tMin || t > tMax {
		return 0, 0, 0, false
	}

	return t, u, v, true
}
