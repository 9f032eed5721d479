package warp

import (
	"fmt"

	"github.com/Faultbox/mpcdi-warp/pkg/math"
)

// MeshGeometry is the static-mesh variant of Geometry: warp geometry taken from
// a triangle mesh whose UVs span the projector output.
type MeshGeometry struct {
	vertices []math.Vec3
	uvs      [][2]float64
	indices  []uint32

	bounds      math.AABB
	normal      math.Vec3
	planeNormal math.Vec3

	boxCache map[int][]int
}

// NewMeshGeometry validates the mesh and computes its bounds and normals.
// Every vertex needs a UV, and indices must form whole triangles.
func NewMeshGeometry(vertices []math.Vec3, uvs [][2]float64, indices []uint32) (*MeshGeometry, error) {
	if len(vertices) == 0 || len(uvs) != len(vertices) {
		return nil, fmt.Errorf("%w: %d vertices, %d uvs", ErrInvalidDimensions, len(vertices), len(uvs))
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrInvalidDimensions, len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidDimensions, idx)
		}
	}

	m := &MeshGeometry{vertices: vertices, uvs: uvs, indices: indices}
	m.recompute()
	return m, nil
}

func (m *MeshGeometry) recompute() {
	m.bounds = math.EmptyAABB()
	for _, v := range m.vertices {
		m.bounds = m.bounds.Extend(v)
	}

	var sum math.Vec3
	for i := 0; i+2 < len(m.indices); i += 3 {
		a := m.vertices[m.indices[i]]
		b := m.vertices[m.indices[i+1]]
		c := m.vertices[m.indices[i+2]]
		sum = sum.Add(b.Sub(a).Cross(c.Sub(a)).Normalize())
	}
	m.normal = sum.Normalize()

	p00 := m.vertices[m.nearestUV(0, 0)]
	p10 := m.vertices[m.nearestUV(1, 0)]
	p01 := m.vertices[m.nearestUV(0, 1)]
	m.planeNormal = p10.Sub(p00).Cross(p01.Sub(p00)).Normalize()

	m.boxCache = make(map[int][]int)
}

// nearestUV returns the vertex whose UV is closest to (u, v).
func (m *MeshGeometry) nearestUV(u, v float64) int {
	best, bestDist := 0, -1.0
	for i, uv := range m.uvs {
		du, dv := uv[0]-u, uv[1]-v
		d := du*du + dv*dv
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// IsValid implements Geometry.
func (m *MeshGeometry) IsValid() bool { return len(m.vertices) > 0 }

// Bounds implements Geometry.
func (m *MeshGeometry) Bounds() math.AABB { return m.bounds }

// SurfaceNormal implements Geometry.
func (m *MeshGeometry) SurfaceNormal() math.Vec3 { return m.normal }

// SurfacePlaneNormal implements Geometry.
func (m *MeshGeometry) SurfacePlaneNormal() math.Vec3 { return m.planeNormal }

// VisitPoints implements Geometry.
func (m *MeshGeometry) VisitPoints(fn func(p math.Vec3)) {
	for _, v := range m.vertices {
		fn(v)
	}
}

// BoxSamples implements Geometry by taking the vertices closest to an n x n
// lattice in UV space.
func (m *MeshGeometry) BoxSamples(n int) []math.Vec3 {
	if n < 2 {
		n = 2
	}
	indices, ok := m.boxCache[n]
	if !ok {
		seen := make(map[int]bool, n*n)
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				idx := m.nearestUV(float64(i)/float64(n-1), float64(j)/float64(n-1))
				if !seen[idx] {
					seen[idx] = true
					indices = append(indices, idx)
				}
			}
		}
		m.boxCache[n] = indices
	}

	out := make([]math.Vec3, len(indices))
	for i, idx := range indices {
		out[i] = m.vertices[idx]
	}
	return out
}
