package cluster

import (
	"math"

	"github.com/pthm-cable/cellsim/coord"
	"gonum.org/v1/gonum/spatial/r2"
)

// crackLine is a line through local pixel space, defined by a point on the
// line and its normal; a pixel is on the positive side when its offset
// from the point dots positively with the normal.
type crackLine struct {
	point  r2.Vec
	normal r2.Vec
}

// fracture splits a cluster under sustained compression into 2-4
// sub-clusters along one or two crack lines, each a mass-conserving
// partition of the parent's pixels, and replaces the parent with its
// descendants. A fracture attempt that can't produce at least two viable
// groups is a no-op; the crush-frame counter is cleared so the cluster
// gets a fresh run before fracturing is attempted again.
func (s *Sync) fracture(c *Cluster) {
	numCracks := 1
	if c.PixelCount() >= 20 {
		numCracks = 2
	}

	cracks := make([]crackLine, numCracks)
	for i := range cracks {
		cracks[i] = s.randomCrackLine(c, i)
	}

	groups := partitionPixels(c, cracks)
	mergeSmallGroups(groups, s.Tuning.MinPixelsToFracture)

	viable := 0
	for _, g := range groups {
		if len(g) > 0 {
			viable++
		}
	}
	if viable < 2 {
		c.CrushPressureFrames = 0
		return
	}

	var vel r2.Vec
	var angVel float64
	if c.Body != 0 {
		vel = s.Engine.LinearVelocity(c.Body)
		angVel = s.Engine.AngularVelocity(c.Body)
		s.Engine.DestroyBody(c.Body)
	}
	ccx, ccy := s.cellCenter(c)
	s.clearFootprint(c)
	s.Registry.Destroy(c.ID)

	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		s.spawnDescendant(c, ccx, ccy, g, vel, angVel)
	}
}

// randomCrackLine picks a pseudo-random crack point offset from the local
// origin by up to ±30% of the bounding box's half-extents on each axis,
// and a pseudo-random orientation, deterministic from the cluster id,
// crack index, and current frame.
func (s *Sync) randomCrackLine(c *Cluster, i int) crackLine {
	halfW := float64(c.localW) / 2
	halfH := float64(c.localH) / 2

	px := hashUnit(c.ID, i, s.Frame, 0) * halfW * 0.3
	py := hashUnit(c.ID, i, s.Frame, 1) * halfH * 0.3
	angle := hashUnit(c.ID, i, s.Frame, 2) * math.Pi

	return crackLine{
		point:  r2.Vec{X: px, Y: py},
		normal: r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)},
	}
}

// hashUnit derives a deterministic value in [-1, 1) from a cluster id,
// crack index, frame, and salt, via coord.Hash.
func hashUnit(clusterID uint16, i int, frame uint32, salt int) float64 {
	h := coord.Hash(int(clusterID)*4+salt, i, frame)
	return float64(h%20000)/10000.0 - 1.0
}

// partitionPixels buckets every pixel by which side of each crack line it
// falls on: bit i of the bucket index is set when the pixel is on the
// positive side of cracks[i]. One crack yields up to 2 buckets, two
// cracks up to 4.
func partitionPixels(c *Cluster, cracks []crackLine) [][]Pixel {
	groups := make([][]Pixel, 1<<len(cracks))
	for _, p := range c.Pixels {
		idx := 0
		for i, cr := range cracks {
			dx := float64(p.LocalX) - cr.point.X
			dy := float64(p.LocalY) - cr.point.Y
			if dx*cr.normal.X+dy*cr.normal.Y >= 0 {
				idx |= 1 << i
			}
		}
		groups[idx] = append(groups[idx], p)
	}
	return groups
}

// mergeSmallGroups folds any group smaller than minSize into the largest
// group, in place, so fracture never spawns a sliver cluster.
func mergeSmallGroups(groups [][]Pixel, minSize int) {
	largest := 0
	for i, g := range groups {
		if len(g) > len(groups[largest]) {
			largest = i
		}
	}
	for i, g := range groups {
		if i == largest || len(g) == 0 {
			continue
		}
		if len(g) < minSize {
			groups[largest] = append(groups[largest], g...)
			groups[i] = nil
		}
	}
}

// spawnDescendant creates one fracture child: recenters its pixels on
// their own centroid, places it in world space at the centroid's
// corresponding point under the parent's pose, and inherits the parent's
// velocity.
func (s *Sync) spawnDescendant(parent *Cluster, parentCellX, parentCellY float64, pixels []Pixel, vel r2.Vec, angVel float64) {
	var sumX, sumY int
	for _, p := range pixels {
		sumX += int(p.LocalX)
		sumY += int(p.LocalY)
	}
	n := len(pixels)
	centroidX := float64(sumX) / float64(n)
	centroidY := float64(sumY) / float64(n)
	roundX := int16(math.Round(centroidX))
	roundY := int16(math.Round(centroidY))

	recentered := make([]Pixel, n)
	for i, p := range pixels {
		recentered[i] = Pixel{
			LocalX:     p.LocalX - roundX,
			LocalY:     p.LocalY - roundY,
			MaterialID: p.MaterialID,
		}
	}

	cosR := math.Cos(parent.Rotation)
	sinR := math.Sin(parent.Rotation)
	wdx := centroidX*cosR - centroidY*sinR
	wdy := centroidX*sinR + centroidY*cosR

	newCellX := parentCellX + wdx
	newCellY := parentCellY - wdy // inverse of the clear/write pass's dy = cell_center.y - cy

	wx, wy := cellToWorldF(newCellX, newCellY, s.Grid.Width, s.Grid.Height)

	child, ok := s.Registry.createWithID(recentered, r2.Vec{X: wx, Y: wy})
	if !ok {
		return
	}
	child.Rotation = parent.Rotation
	child.IsMachinePart = parent.IsMachinePart

	if s.Engine == nil {
		return
	}
	outline := boundingOutline(recentered)
	child.Body = s.Engine.CreateBody(outline, child.Position)
	s.Engine.SetLinearVelocity(child.Body, vel)
	s.Engine.SetAngularVelocity(child.Body, angVel)
	s.Engine.SetRotation(child.Body, child.Rotation)
}

// boundingOutline returns the axis-aligned bounding rectangle of a pixel
// set, scaled into world units, as a coarse collision outline for the
// physics engine. Real sub-pixel concavity isn't preserved across
// fracture; the next contact pass re-settles against the terrain
// collider regardless.
func boundingOutline(pixels []Pixel) []r2.Vec {
	if len(pixels) == 0 {
		return nil
	}
	minX, maxX := pixels[0].LocalX, pixels[0].LocalX
	minY, maxY := pixels[0].LocalY, pixels[0].LocalY
	for _, p := range pixels {
		if p.LocalX < minX {
			minX = p.LocalX
		}
		if p.LocalX > maxX {
			maxX = p.LocalX
		}
		if p.LocalY < minY {
			minY = p.LocalY
		}
		if p.LocalY > maxY {
			maxY = p.LocalY
		}
	}
	scale := coord.CellToWorldScale
	x0, x1 := float64(minX)*scale, float64(maxX)*scale
	y0, y1 := float64(minY)*scale, float64(maxY)*scale
	return []r2.Vec{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}
}

// cellToWorldF is the floating-point forward counterpart to
// coord.WorldToCellF, needed to place a fracture descendant at a
// continuous cell-space point rather than one snapped to an integer cell.
func cellToWorldF(x, y float64, width, height int) (wx, wy float64) {
	halfW := float64(width) * coord.CellToWorldScale / 2
	halfH := float64(height) * coord.CellToWorldScale / 2
	wx = x*coord.CellToWorldScale - halfW
	wy = halfH - y*coord.CellToWorldScale
	return
}
