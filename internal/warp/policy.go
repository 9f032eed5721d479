package warp

import "github.com/Faultbox/mpcdi-warp/pkg/math"

// NextPolicy is the fallback transition taken when a probe finds points behind
// the view plane. retry reports whether the solver should probe again with next.
//
//	StaticSurfaceNormal -> RuntimeNormalInverted (retry)
//	StaticSurfacePlane  -> RuntimePlaneInverted  (retry)
//	anything else       -> DynamicLookAtCenter   (terminal)
func NextPolicy(p ProjectionPolicy) (next ProjectionPolicy, retry bool) {
	switch p {
	case PolicyStaticSurfaceNormal:
		return PolicyRuntimeNormalInverted, true
	case PolicyStaticSurfacePlane:
		return PolicyRuntimePlaneInverted, true
	default:
		return PolicyDynamicLookAtCenter, false
	}
}

// policyDirection returns the view direction a policy aligns the frustum to.
// Static policies fall back to lookAt when the geometry has no usable normal.
func policyDirection(p ProjectionPolicy, g Geometry, lookAt math.Vec3) math.Vec3 {
	var dir math.Vec3
	switch p {
	case PolicyStaticSurfaceNormal:
		dir = g.SurfaceNormal()
	case PolicyStaticSurfacePlane:
		dir = g.SurfacePlaneNormal()
	case PolicyRuntimeNormalInverted:
		dir = g.SurfaceNormal().Neg()
	case PolicyRuntimePlaneInverted:
		dir = g.SurfacePlaneNormal().Neg()
	default:
		return lookAt
	}
	if dir == (math.Vec3{}) {
		return lookAt
	}
	return dir
}
