package math

import "math"

// SmallNumber is the tolerance below which lengths and pivots are treated as zero.
const SmallNumber = 1e-8

// Mat4 is a 4x4 matrix stored row-major and used with row vectors.
// Layout: [0] = X axis, [1] = Y axis, [2] = Z axis, [3] = translation.
type Mat4 [4][4]float64

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate returns a translation matrix.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m[3] = [4]float64{v.X, v.Y, v.Z, 1}
	return m
}

// Scale returns a scale matrix.
func Scale(x, y, z float64) Mat4 {
	return Mat4{
		{x, 0, 0, 0},
		{0, y, 0, 0},
		{0, 0, z, 0},
		{0, 0, 0, 1},
	}
}

// UniformScale returns a matrix scaling all axes by s.
func UniformScale(s float64) Mat4 {
	return Scale(s, s, s)
}

// FromAxes builds a matrix from three basis rows and an origin.
func FromAxes(x, y, z, origin Vec3) Mat4 {
	return Mat4{
		{x.X, x.Y, x.Z, 0},
		{y.X, y.Y, y.Z, 0},
		{z.X, z.Y, z.Z, 0},
		{origin.X, origin.Y, origin.Z, 1},
	}
}

// RotationFromX returns a rotation whose X axis points along forward.
// Z is kept as close to world up as possible; when forward is nearly vertical
// world X is used as the reference axis instead.
func RotationFromX(forward Vec3) Mat4 {
	x := forward.Normalize()
	if x == (Vec3{}) {
		return Identity()
	}
	up := Vec3{0, 0, 1}
	if math.Abs(x.Z) > 1-1e-4 {
		up = Vec3{1, 0, 0}
	}
	y := up.Cross(x).Normalize()
	z := x.Cross(y)
	return FromAxes(x, y, z, Vec3{})
}

// LookFrom returns a local-to-world transform positioned at origin and looking along forward.
func LookFrom(origin, forward Vec3) Mat4 {
	m := RotationFromX(forward)
	m[3] = [4]float64{origin.X, origin.Y, origin.Z, 1}
	return m
}

// Origin returns the translation part.
func (m Mat4) Origin() Vec3 {
	return Vec3{m[3][0], m[3][1], m[3][2]}
}

// Axis returns basis row i (0=X, 1=Y, 2=Z).
func (m Mat4) Axis(i int) Vec3 {
	return Vec3{m[i][0], m[i][1], m[i][2]}
}

// Mul returns m * other; the result applies m first, then other.
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			result[row][col] = m[row][0]*other[0][col] +
				m[row][1]*other[1][col] +
				m[row][2]*other[2][col] +
				m[row][3]*other[3][col]
		}
	}
	return result
}

// TransformVec4 returns v * m.
func (m Mat4) TransformVec4(v Vec4) Vec4 {
	return Vec4{
		v.X*m[0][0] + v.Y*m[1][0] + v.Z*m[2][0] + v.W*m[3][0],
		v.X*m[0][1] + v.Y*m[1][1] + v.Z*m[2][1] + v.W*m[3][1],
		v.X*m[0][2] + v.Y*m[1][2] + v.Z*m[2][2] + v.W*m[3][2],
		v.X*m[0][3] + v.Y*m[1][3] + v.Z*m[2][3] + v.W*m[3][3],
	}
}

// TransformPoint transforms a point (w=1) and applies the perspective divide when w is not 1.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	r := m.TransformVec4(p.Point())
	if r.W != 0 && r.W != 1 {
		return Vec3{r.X / r.W, r.Y / r.W, r.Z / r.W}
	}
	return r.XYZ()
}

// TransformDirection transforms a direction vector (ignores translation).
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return m.TransformVec4(Vec4{d.X, d.Y, d.Z, 0}).XYZ()
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			t[col][row] = m[row][col]
		}
	}
	return t
}

// Equals reports whether every element differs by at most tolerance.
func (m Mat4) Equals(other Mat4, tolerance float64) bool {
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			if math.Abs(m[row][col]-other[row][col]) > tolerance {
				return false
			}
		}
	}
	return true
}

// Inverse returns the inverse of the matrix using Gauss-Jordan elimination
// with partial pivoting. Returns identity if the matrix is singular.
func (m Mat4) Inverse() Mat4 {
	a := m
	inv := Identity()

	for col := 0; col < 4; col++ {
		pivot := col
		for row := col + 1; row < 4; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < SmallNumber {
			return Identity()
		}
		a[col], a[pivot] = a[pivot], a[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		scale := 1 / a[col][col]
		for k := 0; k < 4; k++ {
			a[col][k] *= scale
			inv[col][k] *= scale
		}

		for row := 0; row < 4; row++ {
			if row == col {
				continue
			}
			f := a[row][col]
			if f == 0 {
				continue
			}
			for k := 0; k < 4; k++ {
				a[row][k] -= f * a[col][k]
				inv[row][k] -= f * inv[col][k]
			}
		}
	}
	return inv
}

// Float32 returns the matrix flattened row by row, for GPU upload.
func (m Mat4) Float32() [16]float32 {
	var out [16]float32
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[row*4+col] = float32(m[row][col])
		}
	}
	return out
}
