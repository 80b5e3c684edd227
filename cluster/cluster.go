// Package cluster owns the rigid polygonal bodies whose surface pixels
// are continuously written into and cleared from the cell grid: the
// cluster registry, inverse-mapping clear/write passes, loose-cell
// displacement, sustained-compression detection, and crack-line
// fracture.
package cluster

import (
	"math"

	"github.com/pthm-cable/cellsim/material"
	"gonum.org/v1/gonum/spatial/r2"
)

// Pixel is one cluster surface cell, offset from the center of mass in
// cell units.
type Pixel struct {
	LocalX, LocalY int16
	MaterialID     material.ID
}

// Cluster is a rigid body whose surface is a fixed set of pixels mapped
// into the grid every frame.
type Cluster struct {
	ID         uint16
	Pixels     []Pixel
	LocalRadius float64

	Position r2.Vec
	Rotation float64

	Body BodyHandle

	IsPixelsSynced      bool
	LastSyncedPosition  r2.Vec
	LastSyncedRotation  float64
	LowVelocityFrames   int
	IsOnBelt            bool
	IsOnLift            bool
	IsMachinePart       bool
	CrushPressureFrames int

	pixelGrid                               []material.ID
	localMinX, localMaxX, localMinY, localMaxY int16
	localW, localH                           int
}

// newCluster builds a cluster from a pixel list and precomputes its
// pixel-lookup grid and bounding radius.
func newCluster(id uint16, pixels []Pixel, position r2.Vec) *Cluster {
	c := &Cluster{ID: id, Pixels: pixels, Position: position}
	c.buildPixelGrid()
	return c
}

// buildPixelGrid computes the local bounding box and fills a flat
// material-id grid over it for O(1) inverse-mapped lookups, and derives
// LocalRadius as the farthest pixel's distance from the origin.
func (c *Cluster) buildPixelGrid() {
	if len(c.Pixels) == 0 {
		return
	}
	minX, maxX := c.Pixels[0].LocalX, c.Pixels[0].LocalX
	minY, maxY := c.Pixels[0].LocalY, c.Pixels[0].LocalY
	maxRadiusSq := 0.0

	for _, p := range c.Pixels {
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
		dx, dy := float64(p.LocalX), float64(p.LocalY)
		if d := dx*dx + dy*dy; d > maxRadiusSq {
			maxRadiusSq = d
		}
	}

	c.localMinX, c.localMaxX = minX, maxX
	c.localMinY, c.localMaxY = minY, maxY
	c.localW = int(maxX-minX) + 1
	c.localH = int(maxY-minY) + 1
	c.LocalRadius = math.Sqrt(maxRadiusSq)

	c.pixelGrid = make([]material.ID, c.localW*c.localH)
	for _, p := range c.Pixels {
		idx := int(p.LocalY-minY)*c.localW + int(p.LocalX-minX)
		c.pixelGrid[idx] = p.MaterialID
	}
}

// Lookup returns the material at local pixel (lx, ly) in O(1), and false
// if that position is outside the cluster's bounding box or is a gap
// (Air) within it.
func (c *Cluster) Lookup(lx, ly int16) (material.ID, bool) {
	if lx < c.localMinX || lx > c.localMaxX || ly < c.localMinY || ly > c.localMaxY {
		return 0, false
	}
	idx := int(ly-c.localMinY)*c.localW + int(lx-c.localMinX)
	id := c.pixelGrid[idx]
	if id == material.Air {
		return 0, false
	}
	return id, true
}

// PixelCount returns the number of non-air pixels the cluster owns.
func (c *Cluster) PixelCount() int {
	return len(c.Pixels)
}

// shouldSkipSync reports whether the cluster can skip the clear/write
// passes entirely this frame: it must be asleep, already synced, at an
// unchanged pose within tolerance, and not a machine part.
func (c *Cluster) shouldSkipSync(sleeping bool) bool {
	if !sleeping || !c.IsPixelsSynced || c.IsMachinePart {
		return false
	}
	const posTol = 0.01
	const rotTolDeg = 0.1
	const rotTol = rotTolDeg * math.Pi / 180

	dp := r2.Sub(c.Position, c.LastSyncedPosition)
	if r2.Norm(dp) > posTol {
		return false
	}
	if math.Abs(c.Rotation-c.LastSyncedRotation) > rotTol {
		return false
	}
	return true
}
