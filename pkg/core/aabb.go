package core

import "github.com/chewxy/math32"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns an inverted box that any Extend call will replace
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	box := AABB{Min: points[0], Max: points[0]}
	for _, point := range points[1:] {
		box = box.Extend(point)
	}
	return box
}

// Extend grows the box to contain point
func (aabb AABB) Extend(point Vec3) AABB {
	return AABB{Min: aabb.Min.Min(point), Max: aabb.Max.Max(point)}
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: aabb.Min.Min(other.Min), Max: aabb.Max.Max(other.Max)}
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (aabb AABB) LongestAxis() int {
	size := aabb.Size()
	if size[0] >= size[1] && size[0] >= size[2] {
		return 0 // X axis
	}
	if size[1] >= size[2] {
		return 1 // Y axis
	}
	return 2 // Z axis
}

// IsValid returns true if this is a valid AABB (min <= max for all axes)
func (aabb AABB) IsValid() bool {
	return aabb.Min[0] <= aabb.Max[0] &&
		aabb.Min[1] <= aabb.Max[1] &&
		aabb.Min[2] <= aabb.Max[2]
}

// Contains reports whether point lies inside the box, padded by tolerance
func (aabb AABB) Contains(point Vec3, tolerance float32) bool {
	for axis := 0; axis < 3; axis++ {
		if point[axis] < aabb.Min[axis]-tolerance || point[axis] > aabb.Max[axis]+tolerance {
			return false
		}
	}
	return true
}

// ContainsBox reports whether other lies fully inside the box, padded by tolerance
func (aabb AABB) ContainsBox(other AABB, tolerance float32) bool {
	return aabb.Contains(other.Min, tolerance) && aabb.Contains(other.Max, tolerance)
}

// Hit tests if a ray intersects with this AABB using the slab method
func (aabb AABB) Hit(origin, direction Vec3, tMin, tMax float32) bool {
	for axis := 0; axis < 3; axis++ {
		// Ray parallel to this slab
		if math32.Abs(direction[axis]) < 1e-8 {
			if origin[axis] < aabb.Min[axis] || origin[axis] > aabb.Max[axis] {
				return false
			}
			continue
		}

		invDirection := 1 / direction[axis]
		t1 := (aabb.Min[axis] - origin[axis]) * invDirection
		t2 := (aabb.Max[axis] - origin[axis]) * invDirection
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math32.Max(tMin, t1)
		tMax = math32.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}

	return true
}
