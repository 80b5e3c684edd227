// Package collider extracts polygon colliders from the static terrain of a
// cell grid, one set of outlines per dirty chunk, via marching squares.
package collider

import "gonum.org/v1/gonum/spatial/r2"

// segment is one marching-squares edge-to-edge crossing, in local
// sub-cell coordinates (each cell is one unit, edge midpoints fall on
// half-integers).
type segment struct {
	a, b r2.Vec
}

// squareCase classifies a 2x2 corner neighborhood (top-left, top-right,
// bottom-right, bottom-left, clockwise) into the standard 16-case
// marching-squares index: bit 3 = tl, bit 2 = tr, bit 1 = br, bit 0 = bl.
func squareCase(tl, tr, br, bl bool) int {
	idx := 0
	if tl {
		idx |= 8
	}
	if tr {
		idx |= 4
	}
	if br {
		idx |= 2
	}
	if bl {
		idx |= 1
	}
	return idx
}

func edgeN(gx, gy int) r2.Vec { return r2.Vec{X: float64(gx) + 0.5, Y: float64(gy)} }
func edgeE(gx, gy int) r2.Vec { return r2.Vec{X: float64(gx + 1), Y: float64(gy) + 0.5} }
func edgeS(gx, gy int) r2.Vec { return r2.Vec{X: float64(gx) + 0.5, Y: float64(gy + 1)} }
func edgeW(gx, gy int) r2.Vec { return r2.Vec{X: float64(gx), Y: float64(gy) + 0.5} }

// squareSegments returns the 0, 1, or 2 contour segments crossing the
// square at grid position (gx, gy) for the given corner case. Cases 5 and
// 10 are the ambiguous saddle configurations (diagonal corners solid,
// the other diagonal empty); centerSolid resolves whether the solid
// region spans the middle (one connected diagonal band) or is two
// isolated corner bumps.
func squareSegments(gx, gy, c int, centerSolid bool) []segment {
	n, e, s, w := edgeN(gx, gy), edgeE(gx, gy), edgeS(gx, gy), edgeW(gx, gy)

	switch c {
	case 0, 15:
		return nil
	case 1:
		return []segment{{w, s}}
	case 2:
		return []segment{{s, e}}
	case 3:
		return []segment{{w, e}}
	case 4:
		return []segment{{n, e}}
	case 5:
		if centerSolid {
			return []segment{{n, w}, {e, s}}
		}
		return []segment{{n, e}, {s, w}}
	case 6:
		return []segment{{n, s}}
	case 7:
		return []segment{{n, w}}
	case 8:
		return []segment{{w, n}}
	case 9:
		return []segment{{n, s}}
	case 10:
		if centerSolid {
			return []segment{{n, e}, {s, w}}
		}
		return []segment{{n, w}, {e, s}}
	case 11:
		return []segment{{n, e}}
	case 12:
		return []segment{{e, w}}
	case 13:
		return []segment{{e, s}}
	case 14:
		return []segment{{s, w}}
	default:
		return nil
	}
}

// centerSolid approximates a sub-cell density sample at the ambiguous
// square's center by majority vote over the four cells diagonally one
// step beyond the square's own corners. With no finer-than-cell data
// available, this infers whether the surrounding terrain favors a
// connected diagonal band or two isolated corner bumps; out-of-range
// neighbors are skipped, and a tie (including no data) resolves to "not
// solid" (the two-bump reading).
func centerSolid(solid [][]bool, gx, gy int) bool {
	h := len(solid)
	if h == 0 {
		return false
	}
	w := len(solid[0])

	coords := [4][2]int{{gx - 1, gy - 1}, {gx + 2, gy - 1}, {gx - 1, gy + 2}, {gx + 2, gy + 2}}
	total, count := 0, 0
	for _, c := range coords {
		x, y := c[0], c[1]
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		total++
		if solid[y][x] {
			count++
		}
	}
	if total == 0 {
		return false
	}
	return count*2 > total
}

// march runs marching squares over a padded boolean grid (solid[y][x])
// and returns every contour segment, in the grid's own coordinate space.
func march(solid [][]bool) []segment {
	h := len(solid)
	if h < 2 {
		return nil
	}
	w := len(solid[0])
	if w < 2 {
		return nil
	}

	var segs []segment
	for gy := 0; gy < h-1; gy++ {
		for gx := 0; gx < w-1; gx++ {
			tl, tr := solid[gy][gx], solid[gy][gx+1]
			bl, br := solid[gy+1][gx], solid[gy+1][gx+1]
			c := squareCase(tl, tr, br, bl)
			if c == 0 || c == 15 {
				continue
			}
			center := false
			if c == 5 || c == 10 {
				center = centerSolid(solid, gx, gy)
			}
			segs = append(segs, squareSegments(gx, gy, c, center)...)
		}
	}
	return segs
}
