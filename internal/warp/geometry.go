package warp

import (
	"github.com/Faultbox/mpcdi-warp/pkg/math"
)

// Geometry is a warp surface the frustum probe and solver work against.
// Implementations are immutable once built, apart from internal sample caches;
// they are not safe for concurrent use on their own and rely on Region for locking.
type Geometry interface {
	// IsValid reports whether the geometry has any usable point.
	IsValid() bool
	// Bounds is the bounding box of all valid points.
	Bounds() math.AABB
	// SurfaceNormal is the averaged surface normal.
	SurfaceNormal() math.Vec3
	// SurfacePlaneNormal is the normal of the plane through three extreme corners.
	SurfacePlaneNormal() math.Vec3
	// VisitPoints calls fn for every valid point.
	VisitPoints(fn func(p math.Vec3))
	// BoxSamples returns a representative n x n subset of the valid points.
	BoxSamples(n int) []math.Vec3
}

// GridGeometry is the warp-map variant of Geometry, backed by a Grid.
type GridGeometry struct {
	grid        *Grid
	bounds      math.AABB
	normal      math.Vec3
	planeNormal math.Vec3
	valid       int

	// lattice size -> grid indices chosen for TextureBOX sampling
	boxCache map[int][]int
}

// NewGridGeometry wraps grid and computes its bounding box and normals.
func NewGridGeometry(grid *Grid) *GridGeometry {
	g := &GridGeometry{grid: grid}
	g.recompute()
	return g
}

func (g *GridGeometry) recompute() {
	g.bounds = gridBounds(g.grid)
	g.normal = gridSurfaceNormal(g.grid)
	g.planeNormal = gridPlaneNormal(g.grid)
	g.valid = g.grid.ValidCount()
	g.boxCache = make(map[int][]int)
}

// Grid returns the underlying grid.
func (g *GridGeometry) Grid() *Grid { return g.grid }

// IsValid implements Geometry.
func (g *GridGeometry) IsValid() bool { return g.valid > 0 }

// Bounds implements Geometry.
func (g *GridGeometry) Bounds() math.AABB { return g.bounds }

// SurfaceNormal implements Geometry.
func (g *GridGeometry) SurfaceNormal() math.Vec3 { return g.normal }

// SurfacePlaneNormal implements Geometry.
func (g *GridGeometry) SurfacePlaneNormal() math.Vec3 { return g.planeNormal }

// VisitPoints implements Geometry.
func (g *GridGeometry) VisitPoints(fn func(p math.Vec3)) {
	for _, p := range g.grid.Points {
		if p.Valid {
			fn(p.Vec())
		}
	}
}

// BoxSamples implements Geometry. The lattice indices are computed once per
// size and reused until the geometry is rebuilt.
func (g *GridGeometry) BoxSamples(n int) []math.Vec3 {
	indices, ok := g.boxCache[n]
	if !ok {
		indices = textureBoxIndices(g.grid, n)
		g.boxCache[n] = indices
	}
	out := make([]math.Vec3, len(indices))
	for i, idx := range indices {
		out[i] = g.grid.Points[idx].Vec()
	}
	return out
}

// gridBounds returns the bounding box of the valid points.
func gridBounds(grid *Grid) math.AABB {
	b := math.EmptyAABB()
	for _, p := range grid.Points {
		if p.Valid {
			b = b.Extend(p.Vec())
		}
	}
	return b
}

// gridSurfaceNormal averages the unit normals of every cell whose origin and
// two forward neighbours are valid. Rows run top-down and columns left to
// right, so the normal points away from a viewer facing the surface.
func gridSurfaceNormal(grid *Grid) math.Vec3 {
	var sum math.Vec3
	for y := 0; y+1 < grid.Height; y++ {
		for x := 0; x+1 < grid.Width; x++ {
			p00 := grid.At(x, y)
			p10 := grid.At(x+1, y)
			p01 := grid.At(x, y+1)
			if !p00.Valid || !p10.Valid || !p01.Valid {
				continue
			}
			n := p01.Vec().Sub(p00.Vec()).Cross(p10.Vec().Sub(p00.Vec())).Normalize()
			sum = sum.Add(n)
		}
	}
	return sum.Normalize()
}

// gridPlaneNormal is the normal of the plane through the first corner and the
// two adjacent extreme corners. Invalid corners are replaced by their nearest
// valid neighbour.
func gridPlaneNormal(grid *Grid) math.Vec3 {
	radius := max(grid.Width, grid.Height)
	i00, ok00 := nearestValid(grid, 0, 0, radius)
	i10, ok10 := nearestValid(grid, grid.Width-1, 0, radius)
	i01, ok01 := nearestValid(grid, 0, grid.Height-1, radius)
	if !ok00 || !ok10 || !ok01 {
		return math.Vec3{}
	}
	p00 := grid.Points[i00].Vec()
	p10 := grid.Points[i10].Vec()
	p01 := grid.Points[i01].Vec()
	return p01.Sub(p00).Cross(p10.Sub(p00)).Normalize()
}

// nearestValid searches square rings of growing radius around (x, y) and
// returns the index of the first valid point found.
func nearestValid(grid *Grid, x, y, maxRadius int) (int, bool) {
	if grid.IsValidAt(x, y) {
		return y*grid.Width + x, true
	}
	for r := 1; r <= maxRadius; r++ {
		best, bestDist := -1, 0
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx != -r && dx != r && dy != -r && dy != r {
					continue // interior already searched
				}
				if !grid.IsValidAt(x+dx, y+dy) {
					continue
				}
				d := dx*dx + dy*dy
				if best < 0 || d < bestDist {
					best, bestDist = (y+dy)*grid.Width+x+dx, d
				}
			}
		}
		if best >= 0 {
			return best, true
		}
	}
	return 0, false
}

// textureBoxIndices picks an n x n lattice of evenly spaced grid positions,
// substituting the nearest valid point where a position is invalid.
func textureBoxIndices(grid *Grid, n int) []int {
	if n < 2 {
		n = 2
	}
	seen := make(map[int]bool, n*n)
	indices := make([]int, 0, n*n)
	for j := 0; j < n; j++ {
		v := float64(j) / float64(n-1)
		y := int(float64(grid.Height-1)*v + 0.5)
		for i := 0; i < n; i++ {
			u := float64(i) / float64(n-1)
			x := int(float64(grid.Width-1)*u + 0.5)
			idx, ok := nearestValid(grid, x, y, grid.Width)
			if !ok || seen[idx] {
				continue
			}
			seen[idx] = true
			indices = append(indices, idx)
		}
	}
	return indices
}
