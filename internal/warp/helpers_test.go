package warp

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/mpcdi-warp/pkg/math"
	"github.com/Faultbox/mpcdi-warp/pkg/mpcdi"
)

func nearlyEqual(a, b, tol float64) bool {
	return gomath.Abs(a-b) <= tol
}

// flatPoints returns a w x h lattice in the XY plane with unit spacing,
// already in engine convention.
func flatPoints(w, h int) []math.Vec3 {
	pts := make([]math.Vec3, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pts = append(pts, math.Vec3{X: float64(x), Y: float64(y)})
		}
	}
	return pts
}

// wallPoints returns a 5x5 wall at X=100 spanning Y and Z in [-50, 50],
// rows top-down. With flipped set the grid runs right to left, which turns
// the surface normal from +X to -X.
func wallPoints(flipped bool) []math.Vec3 {
	pts := make([]math.Vec3, 0, 25)
	for j := 0; j < 5; j++ {
		for i := 0; i < 5; i++ {
			y := -50 + 25*float64(i)
			if flipped {
				y = -y
			}
			pts = append(pts, math.Vec3{X: 100, Y: y, Z: 50 - 25*float64(j)})
		}
	}
	return pts
}

// curvedPoints returns a w x h cylindrical section around the origin, bulging
// toward +X, rows top-down, in engine convention.
func curvedPoints(w, h int) []math.Vec3 {
	pts := make([]math.Vec3, 0, w*h)
	for j := 0; j < h; j++ {
		z := 40 - 80*float64(j)/float64(h-1)
		for i := 0; i < w; i++ {
			a := -0.6 + 1.2*float64(i)/float64(w-1)
			pts = append(pts, math.Vec3{X: 200 * gomath.Cos(a), Y: 200 * gomath.Sin(a), Z: z})
		}
	}
	return pts
}

func newGrid(t *testing.T, pts []math.Vec3, w, h int) *Grid {
	t.Helper()
	g, err := BuildGrid(pts, w, h, Conversion{
		Profile:    mpcdi.Profile3D,
		WorldScale: 1,
		EngineAxis: true,
		Epsilon:    1e-4,
	})
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	return g
}

func solveSettings(method FrustumMethod) Settings {
	s := DefaultSettings()
	s.Method = method
	return s
}
