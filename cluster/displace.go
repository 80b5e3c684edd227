package cluster

import (
	"github.com/pthm-cable/cellsim/cellgrid"
	"gonum.org/v1/gonum/spatial/r2"
)

// DisplacementRadius bounds the BFS search for an open cell when a
// cluster pixel lands on a loose non-air cell.
const DisplacementRadius = 16

// displacementOrder is the BFS neighbor visit priority: straight down
// first, then down-diagonals, then sides, then up — a falling cluster
// pushes loose material down and aside rather than up through itself.
var displacementOrder = [8][2]int{
	{0, 1},
	{-1, 1}, {1, 1},
	{-1, 0}, {1, 0},
	{0, -1},
	{-1, -1}, {1, -1},
}

// displace finds the nearest open cell (by the priority order above, BFS
// out to DisplacementRadius) from (x, y) and moves the loose cell there,
// imparting velocity scaled from the cluster's linear velocity. Returns
// false if no open cell was found within radius, in which case the cell
// is dropped (acceptable edge case per spec.md §7).
func displace(grid *cellgrid.Grid, x, y int, clusterVel r2.Vec, maxVelocity int8) bool {
	type point struct{ x, y int }

	visited := map[point]bool{{x, y}: true}
	queue := []point{{x, y}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, off := range displacementOrder {
			n := point{cur.x + off[0], cur.y + off[1]}
			if visited[n] {
				continue
			}
			visited[n] = true
			if chebyshev(n.x-x, n.y-y) > DisplacementRadius {
				continue
			}
			if !grid.InBounds(n.x, n.y) {
				continue
			}
			if grid.Get(n.x, n.y).IsAir() {
				moveDisplacedCell(grid, x, y, n.x, n.y, clusterVel, maxVelocity)
				return true
			}
			queue = append(queue, n)
		}
	}
	return false
}

func moveDisplacedCell(grid *cellgrid.Grid, x0, y0, x1, y1 int, clusterVel r2.Vec, maxVelocity int8) {
	src := grid.GetPtr(x0, y0)
	dst := grid.GetPtr(x1, y1)
	if src == nil || dst == nil {
		return
	}

	*dst = *src
	*src = cellgrid.Cell{}

	dst.OwnerID = 0
	dst.VelocityX = clampI8(clusterVel.X*0.25, maxVelocity)
	dst.VelocityY = clampI8(-clusterVel.Y*0.25, maxVelocity) // Y-axis flip between world and cell space

	grid.MarkDirtyWithNeighbors(x0, y0)
	grid.MarkDirtyWithNeighbors(x1, y1)
}

func clampI8(v float64, maxAbs int8) int8 {
	iv := int(v)
	m := int(maxAbs)
	if iv > m {
		return maxAbs
	}
	if iv < -m {
		return -maxAbs
	}
	return int8(iv)
}

func chebyshev(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
