package cluster

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/coord"
	"gonum.org/v1/gonum/spatial/r2"
)

// Tuning holds the cluster-frame constants from spec.md §6.
type Tuning struct {
	MaxVelocity            int8
	MinCrushImpulse         float64
	OpposingDot             float64
	CrushFrameThreshold     int
	MinPixelsToFracture     int
	LowVelocitySleepFrames  int
	BeltCarrySpeed          float64
	LiftForceMultiplier     float64
	GravityMagnitude        float64
}

// BeltSource reports whether a cell-space footprint overlaps a belt
// structure's surface row, satisfied by *beltlift.BeltRegistry.
type BeltSource interface {
	CarryForAABB(minX, maxX, minY, maxY int) (direction int8, onBelt bool)
}

// LiftSource reports whether a cell-space footprint overlaps a lift
// structure, satisfied by *beltlift.LiftRegistry.
type LiftSource interface {
	ForceForAABB(minX, maxX, minY, maxY int) (force uint8, onLift bool)
}

// Sync runs the full per-frame cluster procedure: clear, physics substep,
// manual sleep, compression check, fracture, write.
type Sync struct {
	Registry *Registry
	Grid     *cellgrid.Grid
	Engine   Engine
	Tuning   Tuning

	Belt BeltSource
	Lift LiftSource

	Frame uint32

	SleepingCount         int
	DisplacementLostCount int
}

// StepAndSync advances every cluster by dt: clear footprints, step the
// physics engine, apply manual sleep and compression detection, fracture
// any cluster that has been sustaining opposing contacts too long, then
// write footprints back.
func (s *Sync) StepAndSync(dt float64) {
	s.Frame++
	clusters := s.Registry.All()

	s.SleepingCount = 0
	for _, c := range clusters {
		if c.Body != 0 && s.Engine.IsSleeping(c.Body) {
			s.SleepingCount++
		}
	}

	// Belt/lift force write, ahead of the physics substep (§4.9 steps 1-2).
	for _, c := range clusters {
		s.applyBeltForce(c)
		s.applyLiftForce(c)
	}

	// Clear pass.
	for _, c := range clusters {
		sleeping := c.Body != 0 && s.Engine.IsSleeping(c.Body)
		if c.shouldSkipSync(sleeping) {
			continue
		}
		s.clearFootprint(c)
		c.IsPixelsSynced = false
	}

	// Physics substep.
	s.Engine.Step(dt)
	for _, c := range clusters {
		if c.Body == 0 {
			continue
		}
		c.Position = s.Engine.Position(c.Body)
		c.Rotation = s.Engine.Rotation(c.Body)
	}

	// Manual sleep.
	for _, c := range clusters {
		s.applyManualSleep(c)
	}

	// Compression check, queuing fracture candidates.
	var toFracture []*Cluster
	for _, c := range clusters {
		if s.checkCompression(c) {
			toFracture = append(toFracture, c)
		}
	}
	for _, c := range toFracture {
		s.fracture(c)
	}

	// Write pass over whatever survived fracture.
	for _, c := range s.Registry.All() {
		sleeping := c.Body != 0 && s.Engine.IsSleeping(c.Body)
		if c.shouldSkipSync(sleeping) {
			continue
		}
		s.writeFootprint(c)
		c.LastSyncedPosition = c.Position
		c.LastSyncedRotation = c.Rotation
		c.IsPixelsSynced = true
	}
}

// cellCenter returns the cluster's center of mass in continuous cell
// space.
func (s *Sync) cellCenter(c *Cluster) (float64, float64) {
	return coord.WorldToCellF(c.Position.X, c.Position.Y, s.Grid.Width, s.Grid.Height)
}

// cellSpaceAABB conservatively bounds every cell the cluster could cover:
// a square of LocalRadius+1 cells around its center. This over-covers the
// true rotated footprint, which is safe — inverse-mapped lookups outside
// the real footprint simply report "no pixel here" — and keeps the
// mapping correct without tracking the rotated box's exact corners.
func (s *Sync) cellSpaceAABB(c *Cluster) (x0, x1, y0, y1 int) {
	ccx, ccy := s.cellCenter(c)
	r := int(math.Ceil(c.LocalRadius)) + 1
	return int(ccx) - r, int(ccx) + r, int(ccy) - r, int(ccy) + r
}

// inverseLocal maps cell (cx, cy) back into the cluster's local pixel
// space given its current pose.
func (s *Sync) inverseLocal(c *Cluster, cx, cy int) (int16, int16) {
	ccx, ccy := s.cellCenter(c)
	dx := float64(cx) - ccx
	dy := ccy - float64(cy) // Y flip between cell grid and world

	cosR := math.Cos(-c.Rotation)
	sinR := math.Sin(-c.Rotation)
	lx := dx*cosR + dy*sinR
	ly := -dx*sinR + dy*cosR

	return int16(math.Round(lx)), int16(math.Round(ly))
}

func (s *Sync) clearFootprint(c *Cluster) {
	x0, x1, y0, y1 := s.cellSpaceAABB(c)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			if !s.Grid.InBounds(cx, cy) {
				continue
			}
			lx, ly := s.inverseLocal(c, cx, cy)
			if _, ok := c.Lookup(lx, ly); !ok {
				continue
			}
			cell := s.Grid.GetPtr(cx, cy)
			if cell.OwnerID != uint16(c.ID) {
				continue
			}
			*cell = cellgrid.Cell{}
			s.Grid.MarkDirtyWithNeighbors(cx, cy)
		}
	}
}

func (s *Sync) writeFootprint(c *Cluster) {
	x0, x1, y0, y1 := s.cellSpaceAABB(c)
	vel := r2.Vec{}
	if c.Body != 0 {
		vel = s.Engine.LinearVelocity(c.Body)
	}

	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			if !s.Grid.InBounds(cx, cy) {
				continue
			}
			lx, ly := s.inverseLocal(c, cx, cy)
			matID, ok := c.Lookup(lx, ly)
			if !ok {
				continue
			}

			existing := s.Grid.Get(cx, cy)
			if !existing.IsAir() && existing.OwnerID == 0 {
				if !displace(s.Grid, cx, cy, vel, s.Tuning.MaxVelocity) {
					s.DisplacementLostCount++
				}
			}

			cell := s.Grid.GetPtr(cx, cy)
			*cell = cellgrid.Cell{MaterialID: matID, OwnerID: c.ID}
			s.Grid.MarkDirtyWithNeighbors(cx, cy)
		}
	}
}

func (s *Sync) applyBeltForce(c *Cluster) {
	if s.Belt == nil {
		return
	}
	x0, x1, y0, y1 := s.cellSpaceAABB(c)
	dir, onBelt := s.Belt.CarryForAABB(x0, x1, y0, y1)
	c.IsOnBelt = onBelt
	if !onBelt || c.Body == 0 {
		return
	}
	vel := s.Engine.LinearVelocity(c.Body)
	vel.X = float64(dir) * s.Tuning.BeltCarrySpeed
	s.Engine.SetLinearVelocity(c.Body, vel)
}

func (s *Sync) applyLiftForce(c *Cluster) {
	if s.Lift == nil {
		return
	}
	x0, x1, y0, y1 := s.cellSpaceAABB(c)
	force, onLift := s.Lift.ForceForAABB(x0, x1, y0, y1)
	c.IsOnLift = onLift
	if !onLift || c.Body == 0 {
		return
	}
	mass := s.Engine.Mass(c.Body)
	upward := s.Tuning.LiftForceMultiplier * s.Tuning.GravityMagnitude * mass * float64(force) / 255.0
	s.Engine.AddForce(c.Body, r2.Vec{X: 0, Y: upward})
}

// applyManualSleep counts consecutive low-velocity, in-contact frames and
// forces sleep after LowVelocitySleepFrames, unless the cluster is
// exempted (on a belt, on a lift, a machine part, or under crush
// pressure).
func (s *Sync) applyManualSleep(c *Cluster) {
	if c.Body == 0 || s.Engine.IsSleeping(c.Body) {
		return
	}
	vel := s.Engine.LinearVelocity(c.Body)
	speed := r2.Norm(vel)

	var buf [16]Contact
	n := s.Engine.GetContacts(c.Body, buf[:])

	if speed < 3 && n > 0 {
		c.LowVelocityFrames++
	} else {
		c.LowVelocityFrames = 0
		return
	}

	if c.LowVelocityFrames <= s.Tuning.LowVelocitySleepFrames {
		return
	}

	if c.IsOnBelt || c.IsOnLift || c.IsMachinePart || c.CrushPressureFrames > 0 {
		c.LowVelocityFrames = 0
		return
	}

	s.Engine.SetLinearVelocity(c.Body, r2.Vec{})
	s.Engine.Sleep(c.Body)
}

// checkCompression looks for a pair of contacts with opposing normals and
// high impulse, incrementing CrushPressureFrames; returns true once the
// cluster has crossed the fracture threshold.
func (s *Sync) checkCompression(c *Cluster) bool {
	if c.Body == 0 || c.IsMachinePart {
		return false
	}
	if c.PixelCount() < s.Tuning.MinPixelsToFracture*2 {
		return false
	}
	if s.Engine.IsSleeping(c.Body) {
		return false
	}

	var buf [16]Contact
	n := s.Engine.GetContacts(c.Body, buf[:])

	opposing := false
	for i := 0; i < n && !opposing; i++ {
		for j := i + 1; j < n; j++ {
			a, b := buf[i], buf[j]
			if a.NormalImpulse <= s.Tuning.MinCrushImpulse || b.NormalImpulse <= s.Tuning.MinCrushImpulse {
				continue
			}
			if r2.Dot(a.Normal, b.Normal) < s.Tuning.OpposingDot {
				opposing = true
				break
			}
		}
	}

	if !opposing {
		c.CrushPressureFrames = 0
		return false
	}
	c.CrushPressureFrames++
	if c.CrushPressureFrames > s.Tuning.CrushFrameThreshold {
		return true
	}
	return false
}

func (s *Sync) logOnce(msg string, args ...any) {
	slog.Warn(msg, args...)
}
