// Package warp turns MPCDI warp geometry into per-region warp grids, surface
// summaries and perspective-correct asymmetric view frustums.
//
// A Region owns the geometry of one projector region. It is built from a
// geometry warp file, a PFM point map, a raw point array or a static mesh, and
// solves frustums for arbitrary eye positions through Region.Solve. Solved
// frustums are memoized per region in a small most-recently-used cache that is
// dropped whenever the geometry changes.
package warp

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors.
var (
	ErrUnknownMethod     = errors.New("unknown frustum method")
	ErrUnknownStereoMode = errors.New("unknown stereo mode")
	ErrUnknownPolicy     = errors.New("unknown projection policy")
	ErrInvalidSettings   = errors.New("invalid warp settings")
)

// FrustumMethod selects how warp points are sampled when fitting a frustum.
type FrustumMethod uint8

// Frustum sampling strategies.
const (
	MethodAABB       FrustumMethod = iota // 8 bounding box corners
	MethodFullCPU                         // every valid point
	MethodTextureBox                      // fixed lattice resampled from the grid
)

// String returns the configuration name of the method.
func (m FrustumMethod) String() string {
	switch m {
	case MethodAABB:
		return "aabb"
	case MethodFullCPU:
		return "full_cpu"
	case MethodTextureBox:
		return "texture_box"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseFrustumMethod parses a method name such as "texture_box".
func ParseFrustumMethod(s string) (FrustumMethod, error) {
	switch normalizeName(s) {
	case "aabb":
		return MethodAABB, nil
	case "fullcpu", "cpu", "perfectcpu":
		return MethodFullCPU, nil
	case "texturebox":
		return MethodTextureBox, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// StereoMode selects where the view direction is measured from.
type StereoMode uint8

// Stereo modes.
const (
	// StereoAsymmetricAABB aims from the eye location (origin + eye offset)
	// at the bounding box center.
	StereoAsymmetricAABB StereoMode = iota
	// StereoSymmetricAABB aims from the camera origin, ignoring the eye offset,
	// while the frustum itself is still placed at the eye location.
	StereoSymmetricAABB
)

// String returns the configuration name of the mode.
func (m StereoMode) String() string {
	switch m {
	case StereoAsymmetricAABB:
		return "asymmetric_aabb"
	case StereoSymmetricAABB:
		return "symmetric_aabb"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseStereoMode parses a mode name such as "symmetric_aabb".
func ParseStereoMode(s string) (StereoMode, error) {
	switch normalizeName(s) {
	case "asymmetricaabb", "asymmetric":
		return StereoAsymmetricAABB, nil
	case "symmetricaabb", "symmetric":
		return StereoSymmetricAABB, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStereoMode, s)
}

// ProjectionPolicy selects the direction the frustum is aligned to.
type ProjectionPolicy uint8

// Projection alignment policies. The two runtime variants are only reached
// through automatic fallback and cannot be configured.
const (
	PolicyStaticSurfaceNormal ProjectionPolicy = iota
	PolicyStaticSurfacePlane
	PolicyDynamicLookAtCenter
	PolicyRuntimeNormalInverted
	PolicyRuntimePlaneInverted
)

// String returns the name of the policy.
func (p ProjectionPolicy) String() string {
	switch p {
	case PolicyStaticSurfaceNormal:
		return "static_surface_normal"
	case PolicyStaticSurfacePlane:
		return "static_surface_plane"
	case PolicyDynamicLookAtCenter:
		return "dynamic_look_at_center"
	case PolicyRuntimeNormalInverted:
		return "runtime_normal_inverted"
	case PolicyRuntimePlaneInverted:
		return "runtime_plane_inverted"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// ParseProjectionPolicy parses a configurable policy name.
func ParseProjectionPolicy(s string) (ProjectionPolicy, error) {
	switch normalizeName(s) {
	case "staticsurfacenormal", "normal":
		return PolicyStaticSurfaceNormal, nil
	case "staticsurfaceplane", "plane":
		return PolicyStaticSurfacePlane, nil
	case "dynamiclookatcenter", "dynamic":
		return PolicyDynamicLookAtCenter, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

// NoiseSettings tunes detached-point removal. Radii and runs are fractions of
// the grid width (X) and height (Y).
type NoiseSettings struct {
	MaxPasses int
	SearchX   float64
	SearchY   float64
	MinRunX   float64
	MinRunY   float64
}

// DefaultNoiseSettings returns the calibrated noise removal thresholds.
func DefaultNoiseSettings() NoiseSettings {
	return NoiseSettings{
		MaxPasses: 50,
		SearchX:   0.03,
		SearchY:   0.03,
		MinRunX:   0.02,
		MinRunY:   0.03,
	}
}

// Settings holds every tunable of the geometry engine. It is passed explicitly
// to regions and solves; there is no package-level mutable state.
type Settings struct {
	Method     FrustumMethod
	Stereo     StereoMode
	Projection ProjectionPolicy
	AutoFix    bool

	// CacheDepth bounds the number of cached frustums per region; 0 disables
	// the cache and drops anything already cached.
	CacheDepth int
	// CacheTolerance is the eye distance under which a cached frustum is reused.
	CacheTolerance float64

	// TextureBoxSize is the lattice size of the TextureBOX strategy.
	TextureBoxSize int
	// ReversedZ maps the near plane to depth 1 and the far plane to 0.
	ReversedZ bool

	// PointEpsilon is the distance from the origin under which a warp point is invalid.
	PointEpsilon float64
	Noise        NoiseSettings
}

// DefaultSettings returns the process-wide defaults.
func DefaultSettings() Settings {
	return Settings{
		Method:         MethodTextureBox,
		Stereo:         StereoAsymmetricAABB,
		Projection:     PolicyStaticSurfaceNormal,
		AutoFix:        true,
		CacheDepth:     0,
		CacheTolerance: 0.1,
		TextureBoxSize: 16,
		ReversedZ:      true,
		PointEpsilon:   1e-4,
		Noise:          DefaultNoiseSettings(),
	}
}

// Validate rejects settings no solve could use.
func (s Settings) Validate() error {
	switch {
	case s.Method > MethodTextureBox:
		return fmt.Errorf("%w: method %v", ErrInvalidSettings, s.Method)
	case s.Stereo > StereoSymmetricAABB:
		return fmt.Errorf("%w: stereo mode %v", ErrInvalidSettings, s.Stereo)
	case s.Projection > PolicyDynamicLookAtCenter:
		return fmt.Errorf("%w: projection policy %v is not configurable", ErrInvalidSettings, s.Projection)
	case s.CacheDepth < 0:
		return fmt.Errorf("%w: cache depth %d", ErrInvalidSettings, s.CacheDepth)
	case s.CacheTolerance < 0:
		return fmt.Errorf("%w: cache tolerance %g", ErrInvalidSettings, s.CacheTolerance)
	case s.TextureBoxSize < 2:
		return fmt.Errorf("%w: texture box size %d", ErrInvalidSettings, s.TextureBoxSize)
	case s.PointEpsilon < 0:
		return fmt.Errorf("%w: point epsilon %g", ErrInvalidSettings, s.PointEpsilon)
	case s.Noise.MaxPasses < 0:
		return fmt.Errorf("%w: noise passes %d", ErrInvalidSettings, s.Noise.MaxPasses)
	}
	return nil
}
