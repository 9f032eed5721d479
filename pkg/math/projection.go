package math

// OffAxisPerspective returns an asymmetric perspective projection for render space
// (X right, Y up, Z forward). left/right/bottom/top are the frustum extents on the
// near plane. With reversedZ the depth maps near to 1 and far to 0; otherwise near
// maps to 0 and far to 1. A far plane at or before near produces an infinite far plane.
func OffAxisPerspective(left, right, bottom, top, near, far float64, reversedZ bool) Mat4 {
	mx := 2 * near / (right - left)
	my := 2 * near / (top - bottom)
	ma := -(right + left) / (right - left)
	mb := -(top + bottom) / (top - bottom)

	var mc, md float64
	switch {
	case far <= near && reversedZ:
		mc, md = 0, near
	case far <= near:
		mc, md = 1, -near
	case reversedZ:
		mc = -near / (far - near)
		md = far * near / (far - near)
	default:
		mc = far / (far - near)
		md = -far * near / (far - near)
	}

	return Mat4{
		{mx, 0, 0, 0},
		{0, my, 0, 0},
		{ma, mb, mc, 1},
		{0, 0, md, 0},
	}
}

// GameToRender converts the engine axis convention (X forward, Y right, Z up) into
// render space (X right, Y up, Z forward). It is a pure axis permutation.
func GameToRender() Mat4 {
	return Mat4{
		{0, 0, 1, 0},
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}
}
