package geometry

import (
	"math"
	"testing"
)

// TestDirection tests direction vectors between endpoint pairs
func TestDirection(t *testing.T) {
	tests := []struct {
		name string
		from Vec3
		to   Vec3
		want Vec3
		ok   bool
	}{
		{"along x", Vec3{0, 0, 0}, Vec3{5, 0, 0}, Vec3{1, 0, 0}, true},
		{"along y", Vec3{2, 1, 0}, Vec3{2, 4, 0}, Vec3{0, 1, 0}, true},
		{"reversed", Vec3{5, 0, 0}, Vec3{0, 0, 0}, Vec3{-1, 0, 0}, true},
		{"diagonal", Vec3{0, 0, 0}, Vec3{3, 4, 0}, Vec3{0.6, 0.8, 0}, true},
		{"coincident endpoints", Vec3{1, 1, 1}, Vec3{1, 1, 1}, Vec3{}, false},
		{"sub-epsilon chord", Vec3{0, 0, 0}, Vec3{1e-12, 0, 0}, Vec3{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Direction(tt.from, tt.to)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if !approxEqual(got, tt.want) {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

// TestDirectionIsUnit tests that every defined direction has magnitude 1
func TestDirectionIsUnit(t *testing.T) {
	pairs := []struct{ from, to Vec3 }{
		{Vec3{0, 0, 0}, Vec3{1, 2, 3}},
		{Vec3{-4, 7, 0.5}, Vec3{12, -3, 9}},
		{Vec3{0, 0, 0}, Vec3{0, 0, 1e-3}},
	}

	for _, p := range pairs {
		dir, ok := Direction(p.from, p.to)
		if !ok {
			t.Fatalf("Expected a direction for %+v -> %+v", p.from, p.to)
		}
		if m := dir.Magnitude(); math.Abs(m-1.0) > 1e-9 {
			t.Errorf("Expected unit magnitude, got %v", m)
		}
	}
}

// TestDot tests dot products used by the flow classifier
func TestDot(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
		want float64
	}{
		{"parallel", Vec3{1, 0, 0}, Vec3{1, 0, 0}, 1.0},
		{"antiparallel", Vec3{1, 0, 0}, Vec3{-1, 0, 0}, -1.0},
		{"orthogonal", Vec3{1, 0, 0}, Vec3{0, 1, 0}, 0.0},
		{"oblique", Vec3{1, 0, 0}, Vec3{0.6, 0.8, 0}, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Dot(tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestCrossZ tests the Z component the side classifier reads
func TestCrossZ(t *testing.T) {
	main := Vec3{1, 0, 0}

	// Branch to +Y: Z of main x branch is positive
	if z := main.Cross(Vec3{0, 1, 0}).Z; z <= 0 {
		t.Errorf("Expected positive Z for +Y branch, got %v", z)
	}

	// Branch to -Y: Z is negative
	if z := main.Cross(Vec3{0, -1, 0}).Z; z >= 0 {
		t.Errorf("Expected negative Z for -Y branch, got %v", z)
	}

	// Colinear branch: Z is zero
	if z := main.Cross(Vec3{1, 0, 0}).Z; z != 0 {
		t.Errorf("Expected zero Z for colinear branch, got %v", z)
	}
}

// TestNormalizeZero tests that degenerate vectors report no direction
func TestNormalizeZero(t *testing.T) {
	if _, ok := (Vec3{}).Normalize(); ok {
		t.Error("Expected no direction for the zero vector")
	}
	if _, ok := (Vec3{1e-10, 1e-10, 0}).Normalize(); ok {
		t.Error("Expected no direction below the degenerate length")
	}
}

func approxEqual(a, b Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}
