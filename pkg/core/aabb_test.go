package core

import "testing"

func TestAABB_FromPointsAndUnion(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(1, 2, 3), NewVec3(-1, 5, 0), NewVec3(0, 0, 4))
	if box.Min != NewVec3(-1, 0, 0) || box.Max != NewVec3(1, 5, 4) {
		t.Errorf("Unexpected bounds %v", box)
	}

	other := NewAABB(NewVec3(2, 2, 2), NewVec3(3, 3, 3))
	union := box.Union(other)
	if union.Min != NewVec3(-1, 0, 0) || union.Max != NewVec3(3, 5, 4) {
		t.Errorf("Unexpected union %v", union)
	}
	if !union.ContainsBox(box, 0) || !union.ContainsBox(other, 0) {
		t.Error("Union should contain both inputs")
	}
}

func TestAABB_EmptyExtend(t *testing.T) {
	box := EmptyAABB()
	if box.IsValid() {
		t.Error("Empty box should not be valid before extension")
	}

	box = box.Extend(NewVec3(1, 1, 1))
	if !box.IsValid() || box.Min != box.Max {
		t.Errorf("Single point box should be degenerate but valid, got %v", box)
	}
}

func TestAABB_LongestAxis(t *testing.T) {
	tests := []struct {
		name string
		box  AABB
		axis int
	}{
		{"X longest", NewAABB(NewVec3(0, 0, 0), NewVec3(5, 1, 1)), 0},
		{"Y longest", NewAABB(NewVec3(0, 0, 0), NewVec3(1, 5, 1)), 1},
		{"Z longest", NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 5)), 2},
		{"tie prefers X", NewAABB(NewVec3(0, 0, 0), NewVec3(2, 2, 2)), 0},
		{"flat in X", NewAABB(NewVec3(0, 0, 0), NewVec3(0, 3, 3)), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.LongestAxis(); got != tt.axis {
				t.Errorf("Expected axis %d, got %d", tt.axis, got)
			}
		})
	}
}

func TestAABB_Hit(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	// Ray straight at the box
	if !box.Hit(NewVec3(0, 0, -5), NewVec3(0, 0, 1), 0, 100) {
		t.Error("Expected ray along +Z to hit box")
	}

	// Ray pointing away
	if box.Hit(NewVec3(0, 0, -5), NewVec3(0, 0, -1), 0, 100) {
		t.Error("Expected ray pointing away to miss")
	}

	// Parallel ray outside the slab
	if box.Hit(NewVec3(0, 2, -5), NewVec3(0, 0, 1), 0, 100) {
		t.Error("Expected parallel ray outside slab to miss")
	}

	// Hit happens beyond tMax
	if box.Hit(NewVec3(0, 0, -5), NewVec3(0, 0, 1), 0, 2) {
		t.Error("Expected hit beyond tMax to be rejected")
	}
}

func TestAABB_ContainsTolerance(t *testing.T) {
	box := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	p := NewVec3(1.00001, 0.5, 0.5)
	if box.Contains(p, 0) {
		t.Error("Point just outside should not be contained without tolerance")
	}
	if !box.Contains(p, 1e-4) {
		t.Error("Point just outside should be contained with tolerance")
	}
}
