package warp

import (
	"errors"
	"fmt"

	"github.com/Faultbox/mpcdi-warp/pkg/math"
	"github.com/Faultbox/mpcdi-warp/pkg/mpcdi"
	"github.com/Faultbox/mpcdi-warp/pkg/pfm"
)

// Loader errors. A loader that returns an error commits nothing.
var (
	ErrInvalidDimensions = errors.New("invalid warp grid dimensions")
	ErrNoGeometry        = errors.New("region has no geometry")
)

// Point is one warp grid cell. An invalid point carries no meaningful position.
type Point struct {
	X, Y, Z float64
	Valid   bool
}

// Vec returns the point position.
func (p Point) Vec() math.Vec3 {
	return math.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// Grid is a row-major width x height lattice of warp points.
// A published grid is never modified; changes produce a new grid.
type Grid struct {
	Width  int
	Height int
	Points []Point
}

// At returns the point at (x, y), or nil when out of range.
func (g *Grid) At(x, y int) *Point {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return nil
	}
	return &g.Points[y*g.Width+x]
}

// IsValidAt reports whether (x, y) is in range and holds a valid point.
func (g *Grid) IsValidAt(x, y int) bool {
	p := g.At(x, y)
	return p != nil && p.Valid
}

// ValidCount returns the number of valid points.
func (g *Grid) ValidCount() int {
	n := 0
	for i := range g.Points {
		if g.Points[i].Valid {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{Width: g.Width, Height: g.Height, Points: make([]Point, len(g.Points))}
	copy(c.Points, g.Points)
	return c
}

// PositionTexture flattens the grid into RGBA float32 texels (x, y, z, w) for
// upload as a position texture. Valid points have w=1; invalid ones are all zero.
func (g *Grid) PositionTexture() []float32 {
	out := make([]float32, len(g.Points)*4)
	for i, p := range g.Points {
		if !p.Valid {
			continue
		}
		out[i*4] = float32(p.X)
		out[i*4+1] = float32(p.Y)
		out[i*4+2] = float32(p.Z)
		out[i*4+3] = 1
	}
	return out
}

// Conversion describes how raw source triples map into engine space.
type Conversion struct {
	Profile mpcdi.ProfileType
	// WorldScale multiplies every position after the axis change.
	WorldScale float64
	// EngineAxis marks data already authored in engine convention; only
	// WorldScale is applied.
	EngineAxis bool
	// Epsilon is the distance from the origin under which a point is invalid.
	Epsilon float64
}

// Matrix returns the source-to-engine transform. 2D profiles are left untouched.
func (c Conversion) Matrix() math.Mat4 {
	if !c.Profile.Is3D() {
		return math.Identity()
	}
	s := c.WorldScale
	if c.EngineAxis {
		return math.UniformScale(s)
	}
	return MPCDIToEngine(s)
}

// MPCDIToEngine converts the MPCDI right-handed convention (X left, Y up,
// Z into the screen) to engine axes (X into the screen, Y right, Z up),
// scaling by s.
func MPCDIToEngine(s float64) math.Mat4 {
	return math.Mat4{
		{0, -s, 0, 0},
		{0, 0, s, 0},
		{s, 0, 0, 0},
		{0, 0, 0, 1},
	}
}

// BuildGrid converts raw row-major triples into a warp grid. A triple is
// invalid when it is within Epsilon of the origin or contains NaN.
func BuildGrid(points []math.Vec3, width, height int, conv Conversion) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(points) != width*height {
		return nil, fmt.Errorf("%w: %d points for %dx%d", ErrInvalidDimensions, len(points), width, height)
	}

	m := conv.Matrix()
	is3D := conv.Profile.Is3D()

	g := &Grid{Width: width, Height: height, Points: make([]Point, len(points))}
	for i, src := range points {
		if src.HasNaN() || src.IsNearlyZero(conv.Epsilon) {
			continue
		}
		if !is3D {
			g.Points[i] = Point{X: src.X, Y: src.Y, Valid: true}
			continue
		}
		p := m.TransformPoint(src)
		g.Points[i] = Point{X: p.X, Y: p.Y, Z: p.Z, Valid: true}
	}
	return g, nil
}

// GridFromWarpFile builds a grid from a parsed geometry warp file, converting
// its declared unit to centimeters.
func GridFromWarpFile(f *mpcdi.GeometryWarpFile, profile mpcdi.ProfileType, epsilon float64) (*Grid, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDimensions, err)
	}
	points := make([]math.Vec3, len(f.Nodes))
	for i, n := range f.Nodes {
		points[i] = math.Vec3{X: float64(n.R), Y: float64(n.G), Z: float64(n.B)}
	}
	return BuildGrid(points, f.Width, f.Height, Conversion{
		Profile:    profile,
		WorldScale: f.Unit.Centimeters(),
		Epsilon:    epsilon,
	})
}

// GridFromPFM builds a grid from a decoded PFM point map.
func GridFromPFM(img *pfm.Image, conv Conversion) (*Grid, error) {
	points, err := img.Points()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDimensions, err)
	}
	return BuildGrid(points, img.Width, img.Height, conv)
}
