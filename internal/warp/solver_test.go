package warp

import (
	"testing"

	"github.com/Faultbox/mpcdi-warp/pkg/math"
	"github.com/Faultbox/mpcdi-warp/pkg/mpcdi"
	"github.com/Faultbox/mpcdi-warp/pkg/pfm"
)

func wallRequest() FrustumRequest {
	return FrustumRequest{WorldScale: 1, ZNear: 10, ZFar: 1000}
}

func TestSolveFallsBackToInvertedNormal(t *testing.T) {
	// The flipped wall's normal points back at the eye, so the first probe
	// finds every point behind the view plane.
	g := NewGridGeometry(newGrid(t, wallPoints(true), 5, 5))
	if n := g.SurfaceNormal(); !n.Equals(math.Vec3{X: -1}, 1e-12) {
		t.Fatalf("SurfaceNormal = %v, want (-1,0,0)", n)
	}

	res := Solve(g, wallRequest(), solveSettings(MethodFullCPU))
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
	if res.Policy != PolicyRuntimeNormalInverted {
		t.Errorf("Policy = %v, want %v", res.Policy, PolicyRuntimeNormalInverted)
	}
	if !res.Valid {
		t.Fatal("result should be valid after fallback")
	}
	if res.Behind != 0 {
		t.Errorf("Behind = %d, want 0", res.Behind)
	}
	if !nearlyEqual(res.Angles.Left, -0.5, 1e-12) || !nearlyEqual(res.Angles.Top, 0.5, 1e-12) {
		t.Errorf("Angles = %+v", res.Angles)
	}
}

func TestSolveFallsBackToInvertedPlane(t *testing.T) {
	g := NewGridGeometry(newGrid(t, wallPoints(true), 5, 5))
	s := solveSettings(MethodTextureBox)
	s.Projection = PolicyStaticSurfacePlane

	res := Solve(g, wallRequest(), s)
	if res.Attempts != 2 || res.Policy != PolicyRuntimePlaneInverted || !res.Valid {
		t.Errorf("got attempts=%d policy=%v valid=%v", res.Attempts, res.Policy, res.Valid)
	}
}

func TestSolveWithoutAutoFix(t *testing.T) {
	g := NewGridGeometry(newGrid(t, wallPoints(true), 5, 5))
	s := solveSettings(MethodFullCPU)
	s.AutoFix = false

	res := Solve(g, wallRequest(), s)
	if res.Valid {
		t.Error("result should be invalid")
	}
	if res.Attempts != 1 || res.Behind != 25 {
		t.Errorf("Attempts = %d, Behind = %d, want 1 and 25", res.Attempts, res.Behind)
	}
}

func TestSolveDynamicIsTerminal(t *testing.T) {
	// One point in front of the eye and one behind it: no direction works.
	pts := []math.Vec3{{X: 100, Y: 10, Z: 10}, {X: -50, Y: 10, Z: 10}}
	g := NewGridGeometry(newGrid(t, pts, 2, 1))

	tests := []struct {
		policy   ProjectionPolicy
		attempts int
		final    ProjectionPolicy
	}{
		{PolicyDynamicLookAtCenter, 1, PolicyDynamicLookAtCenter},
		{PolicyStaticSurfaceNormal, 2, PolicyRuntimeNormalInverted},
	}
	for _, tc := range tests {
		t.Run(tc.policy.String(), func(t *testing.T) {
			s := solveSettings(MethodFullCPU)
			s.Projection = tc.policy
			res := Solve(g, wallRequest(), s)
			if res.Valid {
				t.Error("result should be invalid")
			}
			if res.Attempts != tc.attempts || res.Policy != tc.final {
				t.Errorf("Attempts = %d, Policy = %v, want %d and %v", res.Attempts, res.Policy, tc.attempts, tc.final)
			}
		})
	}
}

func TestSolveEmptyGeometry(t *testing.T) {
	g := NewGridGeometry(&Grid{Width: 2, Height: 2, Points: make([]Point, 4)})
	res := Solve(g, wallRequest(), DefaultSettings())
	if res.Valid || res.Attempts != 0 {
		t.Errorf("Valid = %v, Attempts = %d", res.Valid, res.Attempts)
	}
}

func TestSolveWorldToUV(t *testing.T) {
	g := NewGridGeometry(newGrid(t, wallPoints(false), 5, 5))
	for _, reversed := range []bool{false, true} {
		s := solveSettings(MethodTextureBox)
		s.ReversedZ = reversed
		res := Solve(g, wallRequest(), s)
		if !res.Valid || res.Attempts != 1 {
			t.Fatalf("Valid = %v, Attempts = %d", res.Valid, res.Attempts)
		}

		tests := []struct {
			world  math.Vec3
			ux, uy float64
		}{
			{math.Vec3{X: 100}, 0, 0},
			{math.Vec3{X: 100, Y: 50, Z: 50}, 1, 1},
			{math.Vec3{X: 100, Y: -50, Z: -50}, -1, -1},
			{math.Vec3{X: 100, Y: 50, Z: -50}, 1, -1},
		}
		for _, tc := range tests {
			p := res.WorldToUV.TransformVec4(tc.world.Point())
			if !nearlyEqual(p.X/p.W, tc.ux, 1e-9) || !nearlyEqual(p.Y/p.W, tc.uy, 1e-9) {
				t.Errorf("reversed=%v %v -> (%g, %g), want (%g, %g)", reversed, tc.world, p.X/p.W, p.Y/p.W, tc.ux, tc.uy)
			}
		}
	}
}

func TestSolveRejectsBadNearPlane(t *testing.T) {
	g := NewGridGeometry(newGrid(t, wallPoints(false), 5, 5))
	req := wallRequest()
	req.ZNear = 0
	if res := Solve(g, req, DefaultSettings()); res.Valid {
		t.Error("zero near plane should be invalid")
	}
}

func TestSolveStereoModes(t *testing.T) {
	g := NewGridGeometry(newGrid(t, wallPoints(false), 5, 5))
	req := wallRequest()
	req.EyeOffset = math.Vec3{Y: 10}

	s := solveSettings(MethodFullCPU)
	s.Projection = PolicyDynamicLookAtCenter

	s.Stereo = StereoSymmetricAABB
	sym := Solve(g, req, s)
	s.Stereo = StereoAsymmetricAABB
	asym := Solve(g, req, s)

	if !sym.Valid || !asym.Valid {
		t.Fatalf("valid: sym=%v asym=%v", sym.Valid, asym.Valid)
	}
	for name, res := range map[string]FrustumResult{"symmetric": sym, "asymmetric": asym} {
		if o := res.CameraToWorld.Origin(); !o.Equals(req.EyeLocation(), 1e-9) {
			t.Errorf("%s origin = %v, want eye location", name, o)
		}
	}

	// Symmetric keeps looking straight ahead from the camera origin, so the
	// frustum is shifted by the eye offset.
	if fwd := sym.CameraToWorld.Axis(0); !fwd.Equals(math.Vec3{X: 1}, 1e-12) {
		t.Errorf("symmetric forward = %v, want (1,0,0)", fwd)
	}
	if !nearlyEqual(sym.Angles.Left, -0.6, 1e-12) || !nearlyEqual(sym.Angles.Right, 0.4, 1e-12) {
		t.Errorf("symmetric angles = %+v", sym.Angles)
	}

	want := math.Vec3{X: 100, Y: -10}.Normalize()
	if fwd := asym.CameraToWorld.Axis(0); !fwd.Equals(want, 1e-12) {
		t.Errorf("asymmetric forward = %v, want %v", fwd, want)
	}
}

func TestStrategyAgreement(t *testing.T) {
	g := NewGridGeometry(newGrid(t, curvedPoints(32, 24), 32, 24))

	results := make(map[FrustumMethod]FrustumResult)
	for _, m := range []FrustumMethod{MethodAABB, MethodFullCPU, MethodTextureBox} {
		res := Solve(g, wallRequest(), solveSettings(m))
		if !res.Valid {
			t.Fatalf("%v: invalid result", m)
		}
		results[m] = res
	}

	full := results[MethodFullCPU].Angles
	if box := results[MethodAABB].Angles; !box.Contains(full, 1e-9) {
		t.Errorf("aabb %+v does not contain full %+v", box, full)
	}
	if tex := results[MethodTextureBox].Angles; !tex.Contains(full, 1e-6) || !full.Contains(tex, 1e-6) {
		t.Errorf("texture box %+v differs from full %+v", tex, full)
	}
}

func TestSolveTopDownCaptureFacesAway(t *testing.T) {
	// A wall 300 units ahead as calibration tools export it: MPCDI axes,
	// rows top-down and columns left to right as seen by the viewer.
	pts := make([]math.Vec3, 0, 25)
	for j := 0; j < 5; j++ {
		for i := 0; i < 5; i++ {
			pts = append(pts, math.Vec3{X: 50 - 25*float64(i), Y: 50 - 25*float64(j), Z: 300})
		}
	}
	img, err := pfm.FromPoints(pts, 5, 5)
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	r := NewRegion("front", DefaultSettings())
	if err := r.LoadFromPFM(img, mpcdi.Profile3D, 1, false); err != nil {
		t.Fatalf("LoadFromPFM: %v", err)
	}
	if n := r.SurfaceNormal(); !n.Equals(math.Vec3{X: 1}, 1e-12) {
		t.Errorf("SurfaceNormal = %v, want (1,0,0)", n)
	}
	if n := r.SurfacePlaneNormal(); !n.Equals(math.Vec3{X: 1}, 1e-12) {
		t.Errorf("SurfacePlaneNormal = %v, want (1,0,0)", n)
	}

	for _, m := range []FrustumMethod{MethodAABB, MethodFullCPU, MethodTextureBox} {
		s := solveSettings(m)
		s.AutoFix = false
		res := r.SolveWith(FrustumRequest{WorldScale: 1, ZNear: 10, ZFar: 1000}, s)
		if !res.Valid || res.Attempts != 1 || res.Policy != PolicyStaticSurfaceNormal {
			t.Errorf("%v: valid=%v attempts=%d policy=%v", m, res.Valid, res.Attempts, res.Policy)
		}
	}
}
