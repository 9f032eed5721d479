package warp

import "go.uber.org/zap"

// ClearNoise invalidates detached speckles in grid, in place, and returns how
// many points were removed. A valid point survives a pass when its horizontal
// and vertical runs of valid neighbours (searched up to the configured radius)
// reach the minimum run lengths, in either orientation. Passes repeat until one
// removes nothing or MaxPasses is reached. Each pass judges points against the
// grid as it was when the pass started.
func ClearNoise(grid *Grid, ns NoiseSettings) int {
	searchX := fractionOf(grid.Width, ns.SearchX)
	searchY := fractionOf(grid.Height, ns.SearchY)
	minX := fractionOf(grid.Width, ns.MinRunX)
	minY := fractionOf(grid.Height, ns.MinRunY)

	total := 0
	var remove []int
	for pass := 0; pass < ns.MaxPasses; pass++ {
		remove = remove[:0]
		for y := 0; y < grid.Height; y++ {
			for x := 0; x < grid.Width; x++ {
				if !grid.IsValidAt(x, y) {
					continue
				}
				h := validRun(grid, x, y, 1, 0, searchX) + validRun(grid, x, y, -1, 0, searchX)
				v := validRun(grid, x, y, 0, 1, searchY) + validRun(grid, x, y, 0, -1, searchY)
				if (h >= minX && v >= minY) || (v >= minX && h >= minY) {
					continue
				}
				remove = append(remove, y*grid.Width+x)
			}
		}
		if len(remove) == 0 {
			break
		}
		for _, idx := range remove {
			grid.Points[idx] = Point{}
		}
		total += len(remove)
		warpLog().Debug("noise pass", zap.Int("pass", pass), zap.Int("removed", len(remove)))
	}
	return total
}

// validRun counts consecutive valid points stepping (dx, dy) away from (x, y),
// up to limit steps.
func validRun(grid *Grid, x, y, dx, dy, limit int) int {
	n := 0
	for step := 1; step <= limit; step++ {
		if !grid.IsValidAt(x+dx*step, y+dy*step) {
			break
		}
		n++
	}
	return n
}

// fractionOf returns max(1, floor(size*f)).
func fractionOf(size int, f float64) int {
	return max(1, int(float64(size)*f))
}
