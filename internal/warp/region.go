package warp

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/mpcdi-warp/internal/blend"
	"github.com/Faultbox/mpcdi-warp/internal/logger"
	"github.com/Faultbox/mpcdi-warp/pkg/math"
	"github.com/Faultbox/mpcdi-warp/pkg/mpcdi"
	"github.com/Faultbox/mpcdi-warp/pkg/pfm"
)

// Region owns the warp geometry, blend maps and frustum cache of one projector
// region. All methods are safe for concurrent use: the render path calls Solve
// while a reload path replaces geometry. Replacement is always wholesale, so a
// Solve that takes the lock after a reload never sees a stale frustum.
type Region struct {
	ID string

	mu            sync.Mutex
	settings      Settings
	profile       mpcdi.ProfileType
	geometry      Geometry
	alpha         *blend.Map
	beta          *blend.Map
	cache         *FrustumCache
	cacheDisabled bool
}

// NewRegion creates an empty region.
func NewRegion(id string, s Settings) *Region {
	return &Region{
		ID:       id,
		settings: s,
		cache:    NewFrustumCache(s.CacheDepth),
	}
}

// Settings returns the region's default solve settings.
func (r *Region) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// SetSettings replaces the default solve settings. Cached frustums are dropped
// because they were solved under the old settings.
func (r *Region) SetSettings(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = s
	r.cache.Clear()
	r.cache.SetDepth(s.CacheDepth)
}

// LoadFromWarpFile builds the region geometry from a parsed geometry warp file.
func (r *Region) LoadFromWarpFile(f *mpcdi.GeometryWarpFile, profile mpcdi.ProfileType) error {
	grid, err := GridFromWarpFile(f, profile, r.Settings().PointEpsilon)
	if err != nil {
		return fmt.Errorf("region %s: %w", r.ID, err)
	}
	r.commitGrid(grid, profile)
	return nil
}

// LoadFromPFM builds the region geometry from a decoded PFM point map.
// With engineAxis set the points are already in engine convention and only
// worldScale is applied.
func (r *Region) LoadFromPFM(img *pfm.Image, profile mpcdi.ProfileType, worldScale float64, engineAxis bool) error {
	grid, err := GridFromPFM(img, Conversion{
		Profile:    profile,
		WorldScale: worldScale,
		EngineAxis: engineAxis,
		Epsilon:    r.Settings().PointEpsilon,
	})
	if err != nil {
		return fmt.Errorf("region %s: %w", r.ID, err)
	}
	r.commitGrid(grid, profile)
	return nil
}

// LoadFromPointArray builds the region geometry from raw row-major triples.
func (r *Region) LoadFromPointArray(points []math.Vec3, width, height int, profile mpcdi.ProfileType, worldScale float64, engineAxis bool) error {
	grid, err := BuildGrid(points, width, height, Conversion{
		Profile:    profile,
		WorldScale: worldScale,
		EngineAxis: engineAxis,
		Epsilon:    r.Settings().PointEpsilon,
	})
	if err != nil {
		return fmt.Errorf("region %s: %w", r.ID, err)
	}
	r.commitGrid(grid, profile)
	return nil
}

// LoadFromMesh uses a static mesh as the region geometry.
func (r *Region) LoadFromMesh(mesh *MeshGeometry, profile mpcdi.ProfileType) error {
	if mesh == nil || !mesh.IsValid() {
		return fmt.Errorf("region %s: %w", r.ID, ErrNoGeometry)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile = profile
	r.geometry = mesh
	r.cache.Clear()
	r.logGeometry("mesh")
	return nil
}

// commitGrid publishes a freshly built grid.
func (r *Region) commitGrid(grid *Grid, profile mpcdi.ProfileType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setGridLocked(grid, profile)
}

// setGridLocked must be called with mu held. Advanced 3D captures are cleaned
// of detached speckles first.
func (r *Region) setGridLocked(grid *Grid, profile mpcdi.ProfileType) {
	if profile == mpcdi.ProfileA3D {
		ClearNoise(grid, r.settings.Noise)
	}
	r.profile = profile
	r.geometry = NewGridGeometry(grid)
	r.cache.Clear()
	r.logGeometry("grid")
}

// logGeometry must be called with mu held.
func (r *Region) logGeometry(kind string) {
	fields := []zap.Field{
		zap.String("region", r.ID),
		zap.String("kind", kind),
		zap.Stringer("profile", r.profile),
	}
	if gg, ok := r.geometry.(*GridGeometry); ok {
		fields = append(fields,
			zap.Int("width", gg.grid.Width),
			zap.Int("height", gg.grid.Height),
			zap.Int("valid", gg.valid))
	}
	b := r.geometry.Bounds()
	fields = append(fields, logger.Vec("bbox_min", b.Min), logger.Vec("bbox_max", b.Max))
	warpLog().Info("geometry built", fields...)
}

// RecomputeBoundingBoxAndNormals rebuilds the derived geometry quantities and
// empties the frustum cache.
func (r *Region) RecomputeBoundingBoxAndNormals() {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch g := r.geometry.(type) {
	case *GridGeometry:
		r.geometry = NewGridGeometry(g.grid)
	case *MeshGeometry:
		g.recompute()
	}
	r.cache.Clear()
}

// ClearNoise removes detached speckles from the current grid and returns how
// many points were invalidated. Mesh geometry is left alone.
func (r *Region) ClearNoise() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	gg, ok := r.geometry.(*GridGeometry)
	if !ok {
		return 0
	}
	grid := gg.grid.Clone()
	removed := ClearNoise(grid, r.settings.Noise)
	if removed > 0 {
		r.geometry = NewGridGeometry(grid)
		r.cache.Clear()
	}
	return removed
}

// Solve fits a frustum with the region's default settings.
func (r *Region) Solve(req FrustumRequest) FrustumResult {
	return r.SolveWith(req, r.Settings())
}

// SolveWith fits a frustum using s instead of the default settings. The cache
// depth in s applies to the region cache from this call on.
func (r *Region) SolveWith(req FrustumRequest, s Settings) FrustumResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.SetDepth(s.CacheDepth)
	useCache := !r.cacheDisabled && r.cache.Depth() > 0
	if useCache {
		if res, ok := r.cache.TryGet(req, s.CacheTolerance); ok {
			return res
		}
	}

	g := r.geometry
	if g == nil {
		g = emptyGeometry{}
	}

	res := Solve(g, req, s)
	if !res.Valid && g.IsValid() {
		warpLog().Warn("no valid frustum",
			zap.String("region", r.ID),
			zap.Stringer("policy", res.Policy),
			zap.Int("attempts", res.Attempts),
			zap.Int("behind", res.Behind))
	}
	if useCache {
		r.cache.Insert(req, res)
	}
	return res
}

// SetCacheDisabled turns frustum caching off for this region regardless of depth.
func (r *Region) SetCacheDisabled(disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheDisabled = disabled
	if disabled {
		r.cache.Clear()
	}
}

// CachedFrustums returns the number of cached frustums.
func (r *Region) CachedFrustums() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}

// HasGeometry reports whether the region holds any valid point.
func (r *Region) HasGeometry() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.geometry != nil && r.geometry.IsValid()
}

// Bounds returns the bounding box of the valid points.
func (r *Region) Bounds() math.AABB {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.geometry == nil {
		return math.EmptyAABB()
	}
	return r.geometry.Bounds()
}

// SurfaceNormal returns the averaged surface normal.
func (r *Region) SurfaceNormal() math.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.geometry == nil {
		return math.Vec3{}
	}
	return r.geometry.SurfaceNormal()
}

// SurfacePlaneNormal returns the corner plane normal.
func (r *Region) SurfacePlaneNormal() math.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.geometry == nil {
		return math.Vec3{}
	}
	return r.geometry.SurfacePlaneNormal()
}

// Profile returns the profile of the loaded geometry.
func (r *Region) Profile() mpcdi.ProfileType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile
}

// Grid returns the current grid, or nil for mesh geometry. The grid must not
// be modified.
func (r *Region) Grid() *Grid {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gg, ok := r.geometry.(*GridGeometry); ok {
		return gg.grid
	}
	return nil
}

// PositionTexture returns the grid as RGBA float32 texels, or nil when the
// region has no grid.
func (r *Region) PositionTexture() (data []float32, width, height int) {
	grid := r.Grid()
	if grid == nil {
		return nil, 0, 0
	}
	return grid.PositionTexture(), grid.Width, grid.Height
}

// SetAlphaMap replaces the alpha blend map. A nil map restores the default.
func (r *Region) SetAlphaMap(m *blend.Map) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alpha = m
}

// SetBetaMap replaces the beta blend map.
func (r *Region) SetBetaMap(m *blend.Map) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beta = m
}

// AlphaMap returns the alpha blend map, or a fully opaque dummy when none is set.
func (r *Region) AlphaMap() *blend.Map {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.alpha.IsValid() {
		return blend.DummyFullyOpaque()
	}
	return r.alpha
}

// BetaMap returns the beta blend map, or nil when none is set.
func (r *Region) BetaMap() *blend.Map {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.beta
}

// Snapshot is a consistent view of the data a compositor needs for one region.
type Snapshot struct {
	Grid  *Grid
	Alpha *blend.Map
	Beta  *blend.Map
}

// Snapshot returns the current grid and blend maps as read under one lock, so
// they always come from the same load. Alpha falls back to the opaque dummy.
func (r *Region) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Snapshot{Alpha: r.alpha, Beta: r.beta}
	if gg, ok := r.geometry.(*GridGeometry); ok {
		s.Grid = gg.grid
	}
	if !s.Alpha.IsValid() {
		s.Alpha = blend.DummyFullyOpaque()
	}
	return s
}

// warpLog returns the warp component logger bound to the current global logger.
func warpLog() *zap.Logger {
	return logger.Named("warp")
}

// emptyGeometry stands in for a region that was never loaded.
type emptyGeometry struct{}

func (emptyGeometry) IsValid() bool { return false }
func (emptyGeometry) Bounds() math.AABB { return math.EmptyAABB() }
func (emptyGeometry) SurfaceNormal() math.Vec3 { return math.Vec3{} }
func (emptyGeometry) SurfacePlaneNormal() math.Vec3 { return math.Vec3{} }
func (emptyGeometry) VisitPoints(func(p math.Vec3)) {}
func (emptyGeometry) BoxSamples(int) []math.Vec3 { return nil }
