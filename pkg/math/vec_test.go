package math

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero vector should normalize to zero, got %v", got)
	}
}

func TestVec3NearlyZeroAndNaN(t *testing.T) {
	if !(Vec3{1e-6, -1e-6, 0}).IsNearlyZero(1e-4) {
		t.Error("expected tiny vector to be nearly zero")
	}
	if (Vec3{0, 0, 0.01}).IsNearlyZero(1e-4) {
		t.Error("expected 0.01 to exceed tolerance")
	}
	if !(Vec3{0, math.NaN(), 0}).HasNaN() {
		t.Error("expected NaN to be detected")
	}
}

func TestAABB(t *testing.T) {
	b := EmptyAABB()
	if b.IsValid() {
		t.Error("empty box should be invalid")
	}

	b = b.Extend(Vec3{1, -2, 3}).Extend(Vec3{-1, 4, 0})
	if !b.IsValid() {
		t.Fatal("box with points should be valid")
	}
	if b.Min != (Vec3{-1, -2, 0}) || b.Max != (Vec3{1, 4, 3}) {
		t.Errorf("bounds = %v..%v", b.Min, b.Max)
	}
	if c := b.Center(); c != (Vec3{0, 1, 1.5}) {
		t.Errorf("center = %v", c)
	}

	corners := b.Corners()
	seen := make(map[Vec3]bool)
	for _, c := range corners {
		seen[c] = true
		if c.X != b.Min.X && c.X != b.Max.X {
			t.Errorf("corner %v not on box", c)
		}
	}
	if len(seen) != 8 {
		t.Errorf("expected 8 distinct corners, got %d", len(seen))
	}

	s := b.Scale(-2)
	if s.Min != (Vec3{-2, -8, -6}) || s.Max != (Vec3{2, 4, 0}) {
		t.Errorf("scaled bounds = %v..%v", s.Min, s.Max)
	}
}
