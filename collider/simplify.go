package collider

import "gonum.org/v1/gonum/spatial/r2"

// simplifyRDP reduces a point chain with the Ramer-Douglas-Peucker
// algorithm at the given perpendicular-distance epsilon. The chain is
// treated as open (first and last points are always kept), so a traced
// loop whose last point repeats its first stays closed.
func simplifyRDP(points []r2.Vec, epsilon float64) []r2.Vec {
	if len(points) < 3 {
		return points
	}

	first, last := points[0], points[len(points)-1]
	maxDist := -1.0
	maxIdx := 0
	for i := 1; i < len(points)-1; i++ {
		d := perpendicularDistance(points[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= epsilon {
		return []r2.Vec{first, last}
	}

	left := simplifyRDP(points[:maxIdx+1], epsilon)
	right := simplifyRDP(points[maxIdx:], epsilon)
	return append(left[:len(left)-1], right...)
}

func perpendicularDistance(p, a, b r2.Vec) float64 {
	line := r2.Sub(b, a)
	length := r2.Norm(line)
	if length == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	// |cross(p-a, b-a)| / |b-a|
	pa := r2.Sub(p, a)
	cross := pa.X*line.Y - pa.Y*line.X
	if cross < 0 {
		cross = -cross
	}
	return cross / length
}
