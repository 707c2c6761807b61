package core

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Vec3 is a float32 3-vector laid out exactly as it is uploaded to the GPU
type Vec3 f32.Vec3

// Vec4 is a padded float32 4-vector
type Vec4 f32.Vec4

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

// Add returns the sum of two vectors
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v[0] + other[0], v[1] + other[1], v[2] + other[2]}
}

// Subtract returns the difference of two vectors
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{v[0] - other[0], v[1] - other[1], v[2] - other[2]}
}

// Multiply returns the vector scaled by a scalar
func (v Vec3) Multiply(scalar float32) Vec3 {
	return Vec3{v[0] * scalar, v[1] * scalar, v[2] * scalar}
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(other Vec3) float32 {
	return v[0]*other[0] + v[1]*other[1] + v[2]*other[2]
}

// Cross returns the cross product of two vectors
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v[1]*other[2] - v[2]*other[1],
		v[2]*other[0] - v[0]*other[2],
		v[0]*other[1] - v[1]*other[0],
	}
}

// Length returns the magnitude of the vector
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.Dot(v))
}

// Normalize returns a unit vector in the same direction
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{}
	}
	return v.Multiply(1 / length)
}

// Min returns the component-wise minimum of two vectors
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{math32.Min(v[0], other[0]), math32.Min(v[1], other[1]), math32.Min(v[2], other[2])}
}

// Max returns the component-wise maximum of two vectors
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{math32.Max(v[0], other[0]), math32.Max(v[1], other[1]), math32.Max(v[2], other[2])}
}

// IsZero reports whether every component is zero
func (v Vec3) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// ApproxEqual compares two vectors component-wise within tolerance
func (v Vec3) ApproxEqual(other Vec3, tolerance float32) bool {
	return math32.Abs(v[0]-other[0]) <= tolerance &&
		math32.Abs(v[1]-other[1]) <= tolerance &&
		math32.Abs(v[2]-other[2]) <= tolerance
}

// Vec4 pads the vector with w, as the executor expects vec4 aligned records
func (v Vec3) Vec4(w float32) Vec4 {
	return Vec4{v[0], v[1], v[2], w}
}
