// Package kernel implements the cell physics pass: fractional-velocity
// gravity, powder/liquid/gas movement rules, and the checkerboard
// scheduler that runs it safely in parallel.
package kernel

import (
	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/coord"
	"github.com/pthm-cable/cellsim/material"
)

// GasDispersionRadius is the horizontal spread distance for gas.
const GasDispersionRadius = 4

// LiftLookup is consulted for every loose cell so the kernel can subtract
// lift force from the gravity accumulator. The lift registry implements
// this; a nil LiftLookup means no lift zones exist.
type LiftLookup interface {
	LiftForceAt(x, y int) (force uint8, onLift bool)
}

// Tuning holds the physics constants the kernel evolves cells by (spec.md
// §6 grid constants), sourced from config so they can be tuned without a
// rebuild.
type Tuning struct {
	MaxVelocity       int8
	FractionalGravity int16
}

// Kernel evolves one grid's cells frame by frame.
type Kernel struct {
	Grid         *cellgrid.Grid
	Tuning       Tuning
	Lift         LiftLookup
	CurrentFrame uint32
}

// New constructs a Kernel bound to grid.
func New(grid *cellgrid.Grid, tuning Tuning) *Kernel {
	return &Kernel{Grid: grid, Tuning: tuning}
}

// ProcessChunk evolves every qualifying cell in chunk index ci, bottom to
// top, alternating horizontal scan direction by row parity.
func (k *Kernel) ProcessChunk(ci int) {
	g := k.Grid
	cs := g.ChunkState(ci)
	x0, y0 := g.ChunkOrigin(ci)

	var lx0, lx1, ly0, ly1 int
	if cs.HasBounds() {
		lx0, lx1 = int(cs.MinX), int(cs.MaxX)
		ly0, ly1 = int(cs.MinY), int(cs.MaxY)
	} else {
		lx0, lx1 = 0, coord.ChunkSize-1
		ly0, ly1 = 0, coord.ChunkSize-1
	}

	gx0, gx1 := x0+lx0, x0+lx1
	gy0, gy1 := y0+ly0, y0+ly1
	if gx1 >= g.Width {
		gx1 = g.Width - 1
	}
	if gy1 >= g.Height {
		gy1 = g.Height - 1
	}

	for y := gy1; y >= gy0; y-- {
		leftToRight := y&1 == 0
		if leftToRight {
			for x := gx0; x <= gx1; x++ {
				k.processCell(x, y)
			}
		} else {
			for x := gx1; x >= gx0; x-- {
				k.processCell(x, y)
			}
		}
	}
}

func (k *Kernel) processCell(x, y int) {
	g := k.Grid
	cell := g.GetPtr(x, y)
	if cell == nil {
		return
	}

	if cell.FrameUpdated == uint16(k.CurrentFrame) {
		return
	}
	if cell.IsAir() {
		return
	}
	def := g.Materials.Get(cell.MaterialID)
	if def.Behavior == material.Static {
		return
	}
	cell.FrameUpdated = uint16(k.CurrentFrame)

	delta := k.Tuning.FractionalGravity
	if def.Behavior == material.Gas {
		delta = -delta
	}
	if k.Lift != nil {
		if force, onLift := k.Lift.LiftForceAt(x, y); onLift {
			delta -= int16(force)
		}
	}

	result := int16(cell.VelocityFracY) + delta
	switch {
	case result >= 256:
		cell.VelocityFracY = uint8(result - 256)
		if cell.VelocityY < k.Tuning.MaxVelocity {
			cell.VelocityY++
		}
	case result < 0:
		cell.VelocityFracY = uint8(result + 256)
		if cell.VelocityY > -k.Tuning.MaxVelocity {
			cell.VelocityY--
		}
	default:
		cell.VelocityFracY = uint8(result)
	}

	dy := sign(int(cell.VelocityY))
	steps := abs(int(cell.VelocityY))
	if steps == 0 {
		// The fractional gravity accumulator hasn't overflowed into a
		// whole velocity_y step yet, so no downward motion was attempted
		// this frame — nothing to resolve as "blocked". While the cell
		// ahead is open, keep the chunk awake so the accumulator keeps
		// advancing on the following frames.
		if delta != 0 && k.canMoveTo(x, y+sign(int(delta)), def.Density) {
			g.MarkDirty(x, y)
		}
		return
	}

	tx, ty := k.tracePath(x, y, 0, dy, steps, def.Density)
	if tx != x || ty != y {
		k.move(x, y, tx, ty)
		return
	}

	switch def.Behavior {
	case material.Powder:
		k.resolvePowderBlocked(x, y, def)
	case material.Liquid:
		k.resolveLiquidBlocked(x, y, def)
	case material.Gas:
		k.resolveGasBlocked(x, y, def)
	}
}

// resolvePowderBlocked attempts diagonal slides, honoring slide_resistance
// "holding", before settling the grain in place.
func (k *Kernel) resolvePowderBlocked(x, y int, def material.Def) {
	if def.SlideResistance > 0 {
		if coord.PositionHash(x, y)&255 < uint32(def.SlideResistance) {
			k.settle(x, y)
			return
		}
	}
	if k.tryDiagonals(x, y, 1, def.Density) {
		return
	}
	k.settle(x, y)
}

// resolveLiquidBlocked attempts diagonal slides, then horizontal spread.
func (k *Kernel) resolveLiquidBlocked(x, y int, def material.Def) {
	if k.tryDiagonals(x, y, 1, def.Density) {
		return
	}
	cell := k.Grid.Get(x, y)
	spread := int(k.Tuning.MaxVelocity) - abs(int(cell.VelocityY))
	spread /= int(def.Friction) + 1
	if spread < 1 {
		spread = 1
	}
	if k.trySpread(x, y, spread, def.Density) {
		return
	}
	k.settle(x, y)
}

// resolveGasBlocked mirrors powder with upward diagonals and a fixed
// dispersion radius.
func (k *Kernel) resolveGasBlocked(x, y int, def material.Def) {
	if k.tryDiagonals(x, y, -1, def.Density) {
		return
	}
	if k.trySpread(x, y, GasDispersionRadius, def.Density) {
		return
	}
	k.settle(x, y)
}

// tryDiagonals attempts (x-1, y+dy) and (x+1, y+dy) in a pseudo-random
// order derived from position and frame, returning true if one succeeded.
func (k *Kernel) tryDiagonals(x, y, dy int, density uint8) bool {
	first, second := -1, 1
	if coord.Hash(x+y, 0, k.CurrentFrame)&1 == 1 {
		first, second = 1, -1
	}
	for _, dx := range [2]int{first, second} {
		tx, ty := x+dx, y+dy
		if k.canMoveTo(tx, ty, density) {
			k.move(x, y, tx, ty)
			return true
		}
	}
	return false
}

// trySpread scans outward from x in randomized direction order up to
// `radius` cells at the same row, stopping at the first non-empty cell,
// and moves into the farthest open cell reached in whichever direction
// found one.
func (k *Kernel) trySpread(x, y, radius int, density uint8) bool {
	firstDir, secondDir := 1, -1
	if coord.Hash(x, y, k.CurrentFrame)&1 == 1 {
		firstDir, secondDir = -1, 1
	}
	for _, dir := range [2]int{firstDir, secondDir} {
		furthest := x
		for d := 1; d <= radius; d++ {
			tx := x + dir*d
			if !k.Grid.InBounds(tx, y) || !k.Grid.Get(tx, y).IsAir() {
				break
			}
			furthest = tx
		}
		if furthest != x {
			k.move(x, y, furthest, y)
			return true
		}
	}
	return false
}

// settle zeroes velocity and writes the cell back in place, marking it
// Settled. Settled is advisory only; the scheduler never reads
// it back.
func (k *Kernel) settle(x, y int) {
	c := k.Grid.GetPtr(x, y)
	if c == nil {
		return
	}
	c.VelocityX = 0
	c.VelocityY = 0
	c.VelocityFracY = 0
	c.Flags = c.Flags.Add(material.Settled)
}

// canMoveTo reports whether target can accept a cell of the given
// density: in bounds, and either Air or a non-static lower-density
// material.
func (k *Kernel) canMoveTo(x, y int, density uint8) bool {
	if !k.Grid.InBounds(x, y) {
		return false
	}
	cell := k.Grid.Get(x, y)
	if cell.IsAir() {
		return true
	}
	def := k.Grid.Materials.Get(cell.MaterialID)
	if def.Behavior == material.Static {
		return false
	}
	return density > def.Density
}

// tracePath walks from (x, y) in direction (dx, dy) up to steps cells,
// stopping at the first cell that cannot accept the moving material.
func (k *Kernel) tracePath(x, y, dx, dy, steps int, density uint8) (int, int) {
	cx, cy := x, y
	for i := 0; i < steps; i++ {
		nx, ny := cx+dx, cy+dy
		if !k.canMoveTo(nx, ny, density) {
			break
		}
		cx, cy = nx, ny
	}
	return cx, cy
}

// move swaps the cells at (x0,y0) and (x1,y1), marking both dirty with
// neighbor propagation.
func (k *Kernel) move(x0, y0, x1, y1 int) {
	g := k.Grid
	a := g.GetPtr(x0, y0)
	b := g.GetPtr(x1, y1)
	if a == nil || b == nil {
		return
	}
	*a, *b = *b, *a
	g.MarkDirtyWithNeighbors(x0, y0)
	g.MarkDirtyWithNeighbors(x1, y1)
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
