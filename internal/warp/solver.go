package warp

import (
	"go.uber.org/zap"

	"github.com/Faultbox/mpcdi-warp/pkg/math"
)

// FrustumRequest describes one eye looking at a region.
type FrustumRequest struct {
	EyeOrigin math.Vec3
	// EyeOffset is the stereo offset of the eye from the camera origin.
	EyeOffset  math.Vec3
	WorldScale float64
	ZNear      float64
	ZFar       float64
}

// EyeLocation returns the origin plus the eye offset.
func (r FrustumRequest) EyeLocation() math.Vec3 {
	return r.EyeOrigin.Add(r.EyeOffset)
}

func (r FrustumRequest) scale() float64 {
	if r.WorldScale == 0 {
		return 1
	}
	return r.WorldScale
}

// FrustumResult is a solved frustum. Callers must check Valid before using
// the matrices.
type FrustumResult struct {
	Angles      Angles
	AABBCorners [8]math.Vec3

	ProjectionMatrix math.Mat4
	CameraToWorld    math.Mat4
	WorldToCamera    math.Mat4
	// WorldToUV = WorldToCamera x GameToRender x ProjectionMatrix.
	WorldToUV math.Mat4

	WorldScale float64
	Valid      bool

	// Policy is the projection policy that produced the result.
	Policy ProjectionPolicy
	// Attempts counts probe runs (1 or 2).
	Attempts int
	// Behind counts samples left behind the view plane by the last attempt.
	Behind int
}

// Solve fits a frustum to g for req using s. It never fails loudly: when no
// usable frustum exists the result has Valid=false.
func Solve(g Geometry, req FrustumRequest, s Settings) FrustumResult {
	ws := req.scale()
	res := FrustumResult{
		Angles:           emptyAngles(),
		WorldScale:       ws,
		Policy:           s.Projection,
		ProjectionMatrix: math.Identity(),
		CameraToWorld:    math.Identity(),
		WorldToCamera:    math.Identity(),
		WorldToUV:        math.Identity(),
	}

	bounds := g.Bounds()
	if !g.IsValid() || !bounds.IsValid() {
		return res
	}

	scaled := bounds.Scale(ws)
	center := scaled.Center()
	eye := req.EyeLocation()
	res.AABBCorners = scaled.Corners()

	var lookAt math.Vec3
	switch s.Stereo {
	case StereoSymmetricAABB:
		lookAt = center.Sub(req.EyeOrigin).Normalize()
	default:
		lookAt = center.Sub(eye).Normalize()
	}

	policy := s.Projection
	var probe ProbeResult
	for {
		res.Attempts++
		res.Policy = policy
		res.CameraToWorld = math.LookFrom(eye, policyDirection(policy, g, lookAt))
		res.WorldToCamera = res.CameraToWorld.Inverse()

		probe = Probe(g, ProbeOptions{
			Method:       s.Method,
			WorldToLocal: res.WorldToCamera,
			WorldScale:   ws,
			Corners:      res.AABBCorners,
			BoxSize:      s.TextureBoxSize,
		})
		if probe.AllInFront || !s.AutoFix {
			break
		}

		next, retry := NextPolicy(policy)
		warpLog().Debug("frustum behind view plane",
			zap.Stringer("policy", policy),
			zap.Stringer("next", next),
			zap.Int("behind", len(probe.Behind)),
			zap.Bool("retry", retry))
		if !retry {
			break
		}
		policy = next
	}

	res.Angles = probe.Angles
	res.Behind = len(probe.Behind)
	if !probe.AllInFront {
		return res
	}

	a := probe.Angles
	if a.Right-a.Left < math.SmallNumber || a.Top-a.Bottom < math.SmallNumber || req.ZNear <= 0 {
		return res
	}

	n := req.ZNear
	res.ProjectionMatrix = math.OffAxisPerspective(a.Left*n, a.Right*n, a.Bottom*n, a.Top*n, n, req.ZFar, s.ReversedZ)
	res.WorldToUV = res.WorldToCamera.Mul(math.GameToRender()).Mul(res.ProjectionMatrix)
	res.Valid = true
	return res
}
