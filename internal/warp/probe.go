package warp

import (
	gomath "math"

	"github.com/Faultbox/mpcdi-warp/pkg/math"
)

// Angles are frustum extents as tangents of the view angle: Top/Bottom measure
// up/down (Z over X), Left/Right measure sideways (Y over X).
type Angles struct {
	Top, Bottom, Left, Right float64
}

// emptyAngles returns accumulators that any projected point will overwrite.
func emptyAngles() Angles {
	return Angles{
		Top:    gomath.Inf(-1),
		Bottom: gomath.Inf(1),
		Left:   gomath.Inf(1),
		Right:  gomath.Inf(-1),
	}
}

// Degrees converts the tangents into angles in degrees.
func (a Angles) Degrees() Angles {
	deg := func(t float64) float64 { return gomath.Atan(t) * 180 / gomath.Pi }
	return Angles{Top: deg(a.Top), Bottom: deg(a.Bottom), Left: deg(a.Left), Right: deg(a.Right)}
}

// Contains reports whether a encloses other, allowing tolerance of slack.
func (a Angles) Contains(other Angles, tolerance float64) bool {
	return a.Top >= other.Top-tolerance &&
		a.Bottom <= other.Bottom+tolerance &&
		a.Left <= other.Left+tolerance &&
		a.Right >= other.Right-tolerance
}

// ProbeResult is the outcome of projecting sample points into a view.
type ProbeResult struct {
	// AllInFront is true when at least one point was sampled and none lies
	// behind the view plane.
	AllInFront bool
	Angles     Angles
	// Sampled counts the points considered.
	Sampled int
	// Behind holds the sample indices that fell behind the view plane.
	Behind []int
}

// projectPoint folds one world-space point into the result. Points behind the
// view plane are recorded but do not stop the scan.
func (r *ProbeResult) projectPoint(worldToLocal math.Mat4, p math.Vec3) {
	idx := r.Sampled
	r.Sampled++

	v := worldToLocal.TransformVec4(p.Point())
	if v.W <= 0 || v.X <= 0 {
		r.Behind = append(r.Behind, idx)
		return
	}

	// Engine convention: X is forward.
	y := v.Y / v.X
	z := v.Z / v.X
	r.Angles.Top = gomath.Max(r.Angles.Top, z)
	r.Angles.Bottom = gomath.Min(r.Angles.Bottom, z)
	r.Angles.Right = gomath.Max(r.Angles.Right, y)
	r.Angles.Left = gomath.Min(r.Angles.Left, y)
}

// ProbeOptions carries the per-solve inputs of Probe.
type ProbeOptions struct {
	Method FrustumMethod
	// WorldToLocal maps world space into the candidate camera space.
	WorldToLocal math.Mat4
	// WorldScale multiplies geometry points before projection.
	WorldScale float64
	// Corners are the world-space bounding box corners used by MethodAABB.
	Corners [8]math.Vec3
	// BoxSize is the lattice size used by MethodTextureBox.
	BoxSize int
}

// Probe projects the samples selected by opts.Method and returns the angular
// extents that bound them.
func Probe(g Geometry, opts ProbeOptions) ProbeResult {
	r := ProbeResult{Angles: emptyAngles()}

	switch opts.Method {
	case MethodAABB:
		if g.IsValid() {
			for _, c := range opts.Corners {
				r.projectPoint(opts.WorldToLocal, c)
			}
		}
	case MethodFullCPU:
		g.VisitPoints(func(p math.Vec3) {
			r.projectPoint(opts.WorldToLocal, p.Scale(opts.WorldScale))
		})
	default:
		for _, p := range g.BoxSamples(opts.BoxSize) {
			r.projectPoint(opts.WorldToLocal, p.Scale(opts.WorldScale))
		}
	}

	r.AllInFront = r.Sampled > 0 && len(r.Behind) == 0
	return r
}
