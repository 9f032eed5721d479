package warp

import (
	"testing"

	"github.com/Faultbox/mpcdi-warp/pkg/math"
)

func eyeAt(x float64) FrustumRequest {
	return FrustumRequest{EyeOrigin: math.Vec3{X: x}, WorldScale: 1, ZNear: 10, ZFar: 1000}
}

func tagged(n int) FrustumResult {
	return FrustumResult{Attempts: n, Valid: true}
}

func TestCacheEvictsOldest(t *testing.T) {
	c := NewFrustumCache(2)
	c.Insert(eyeAt(0), tagged(1))
	c.Insert(eyeAt(10), tagged(2))
	c.Insert(eyeAt(20), tagged(3))

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.TryGet(eyeAt(0), 0.1); ok {
		t.Error("A should have been evicted")
	}
	if r, ok := c.TryGet(eyeAt(10), 0.1); !ok || r.Attempts != 2 {
		t.Errorf("B: ok=%v attempts=%d", ok, r.Attempts)
	}
	if r, ok := c.TryGet(eyeAt(20), 0.1); !ok || r.Attempts != 3 {
		t.Errorf("C: ok=%v attempts=%d", ok, r.Attempts)
	}
}

func TestCacheHitPromotes(t *testing.T) {
	c := NewFrustumCache(2)
	c.Insert(eyeAt(0), tagged(1))
	c.Insert(eyeAt(10), tagged(2))

	// Touching A makes B the least recently used.
	if _, ok := c.TryGet(eyeAt(0), 0.1); !ok {
		t.Fatal("A should hit")
	}
	c.Insert(eyeAt(20), tagged(3))

	if _, ok := c.TryGet(eyeAt(10), 0.1); ok {
		t.Error("B should have been evicted")
	}
	if _, ok := c.TryGet(eyeAt(0), 0.1); !ok {
		t.Error("A should survive")
	}
}

func TestCacheTolerance(t *testing.T) {
	c := NewFrustumCache(4)
	req := eyeAt(0)
	req.EyeOffset = math.Vec3{Y: 3}
	c.Insert(req, tagged(1))

	tests := []struct {
		name string
		req  FrustumRequest
		hit  bool
	}{
		{"same eye via origin", FrustumRequest{EyeOrigin: math.Vec3{Y: 3}, WorldScale: 1, ZNear: 10, ZFar: 1000}, true},
		{"within tolerance", FrustumRequest{EyeOrigin: math.Vec3{X: 0.05}, EyeOffset: math.Vec3{Y: 3}, WorldScale: 1, ZNear: 10, ZFar: 1000}, true},
		{"outside tolerance", FrustumRequest{EyeOrigin: math.Vec3{X: 0.5}, EyeOffset: math.Vec3{Y: 3}, WorldScale: 1, ZNear: 10, ZFar: 1000}, false},
		{"different near", FrustumRequest{EyeOffset: math.Vec3{Y: 3}, WorldScale: 1, ZNear: 5, ZFar: 1000}, false},
		{"different scale", FrustumRequest{EyeOffset: math.Vec3{Y: 3}, WorldScale: 2, ZNear: 10, ZFar: 1000}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := c.TryGet(tc.req, 0.1); ok != tc.hit {
				t.Errorf("hit = %v, want %v", ok, tc.hit)
			}
		})
	}
}

func TestCacheDepthZeroClears(t *testing.T) {
	c := NewFrustumCache(3)
	c.Insert(eyeAt(0), tagged(1))
	c.Insert(eyeAt(10), tagged(2))

	c.SetDepth(1)
	if c.Len() != 1 {
		t.Errorf("Len after shrink = %d, want 1", c.Len())
	}
	if _, ok := c.TryGet(eyeAt(10), 0.1); !ok {
		t.Error("newest entry should survive a shrink")
	}

	c.SetDepth(0)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	c.Insert(eyeAt(0), tagged(1))
	if c.Len() != 0 {
		t.Errorf("Len after insert at depth 0 = %d, want 0", c.Len())
	}
}
