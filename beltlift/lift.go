package beltlift

import (
	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/coord"
)

// LiftTile records which lift structure a cell belongs to (0 = none).
type LiftTile struct {
	LiftID uint16
}

// LiftStructure is a vertical force zone; it is a hollow region, not
// solid, and merges vertically with adjacent blocks of the same column.
type LiftStructure struct {
	ID         uint16
	TileX      int
	MinY, MaxY int
	Force      uint8
}

// LiftRegistry owns lift tiles and structures for one grid.
type LiftRegistry struct {
	grid *cellgrid.Grid

	DefaultForce uint8

	tiles      map[int]LiftTile
	structures map[uint16]*LiftStructure
	nextID     uint16
	freeList   []uint16
}

// NewLiftRegistry constructs an empty lift registry.
func NewLiftRegistry(grid *cellgrid.Grid, defaultForce uint8) *LiftRegistry {
	return &LiftRegistry{
		grid:         grid,
		DefaultForce: defaultForce,
		tiles:        make(map[int]LiftTile),
		structures:   make(map[uint16]*LiftStructure),
		nextID:       1,
	}
}

func (r *LiftRegistry) allocID() uint16 {
	if n := len(r.freeList); n > 0 {
		id := r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
		return id
	}
	id := r.nextID
	r.nextID++
	return id
}

// PlaceLift places an 8x8 force zone whose origin snaps to the 8-grid,
// merging vertically with an adjacent same-column structure. The zone is
// a force region, not solid cells, so occupancy is not checked.
func (r *LiftRegistry) PlaceLift(x, y int) bool {
	bx := coord.SnapToGrid(x)
	by := coord.SnapToGrid(y)
	minY, maxY := by, by+BlockSize-1

	above := r.structureAt(bx, minY-1)
	below := r.structureAt(bx, maxY+1)

	var target *LiftStructure
	switch {
	case above != nil && below != nil:
		target = above
		target.MaxY = below.MaxY
		for ty := below.MinY; ty <= below.MaxY; ty += BlockSize {
			r.rewriteStructureID(bx, ty, below.ID, target.ID)
		}
		delete(r.structures, below.ID)
		r.freeList = append(r.freeList, below.ID)
	case above != nil:
		target = above
		target.MaxY = maxY
	case below != nil:
		target = below
		target.MinY = minY
	default:
		target = &LiftStructure{
			ID:    r.allocID(),
			TileX: bx,
			MinY:  minY,
			MaxY:  maxY,
			Force: r.DefaultForce,
		}
		r.structures[target.ID] = target
	}

	for dy := 0; dy < BlockSize; dy++ {
		for dx := 0; dx < BlockSize; dx++ {
			idx := coord.CellIndex(bx+dx, by+dy, r.grid.Width)
			r.tiles[idx] = LiftTile{LiftID: target.ID}
		}
	}
	return true
}

func (r *LiftRegistry) structureAt(x, y int) *LiftStructure {
	idx := coord.CellIndex(x, y, r.grid.Width)
	t, ok := r.tiles[idx]
	if !ok {
		return nil
	}
	return r.structures[t.LiftID]
}

func (r *LiftRegistry) rewriteStructureID(x, y int, oldID, newID uint16) {
	for dy := 0; dy < BlockSize; dy++ {
		for dx := 0; dx < BlockSize; dx++ {
			idx := coord.CellIndex(x+dx, y+dy, r.grid.Width)
			if t, ok := r.tiles[idx]; ok && t.LiftID == oldID {
				t.LiftID = newID
				r.tiles[idx] = t
			}
		}
	}
}

// RemoveLift removes the 8x8 block at (x, y) (snapped), splitting or
// shrinking its owning structure as needed.
func (r *LiftRegistry) RemoveLift(x, y int) bool {
	bx := coord.SnapToGrid(x)
	by := coord.SnapToGrid(y)

	s := r.structureAt(bx, by)
	if s == nil {
		return false
	}

	for dy := 0; dy < BlockSize; dy++ {
		for dx := 0; dx < BlockSize; dx++ {
			delete(r.tiles, coord.CellIndex(bx+dx, by+dy, r.grid.Width))
		}
	}

	switch {
	case s.MinY == by && s.MaxY == by+BlockSize-1:
		delete(r.structures, s.ID)
		r.freeList = append(r.freeList, s.ID)
	case s.MinY == by:
		s.MinY = by + BlockSize
	case s.MaxY == by+BlockSize-1:
		s.MaxY = by - BlockSize
	default:
		top := &LiftStructure{ID: r.allocID(), TileX: s.TileX, MinY: s.MinY, MaxY: by - BlockSize, Force: s.Force}
		bottom := &LiftStructure{ID: r.allocID(), TileX: s.TileX, MinY: by + BlockSize, MaxY: s.MaxY, Force: s.Force}
		r.structures[top.ID] = top
		r.structures[bottom.ID] = bottom
		for ty := top.MinY; ty <= top.MaxY; ty += BlockSize {
			r.rewriteStructureID(s.TileX, ty, s.ID, top.ID)
		}
		for ty := bottom.MinY; ty <= bottom.MaxY; ty += BlockSize {
			r.rewriteStructureID(s.TileX, ty, s.ID, bottom.ID)
		}
		delete(r.structures, s.ID)
		r.freeList = append(r.freeList, s.ID)
	}
	return true
}

// LiftForceAt implements kernel.LiftLookup: the per-cell fractional force
// subtracted from gravity for loose cells inside a lift zone.
func (r *LiftRegistry) LiftForceAt(x, y int) (force uint8, onLift bool) {
	idx := coord.CellIndex(x, y, r.grid.Width)
	t, ok := r.tiles[idx]
	if !ok {
		return 0, false
	}
	s, ok := r.structures[t.LiftID]
	if !ok {
		return 0, false
	}
	return s.Force, true
}

// ForceForAABB reports the lift force and on-lift flag for a cluster whose
// cell-space footprint is [minX,maxX]x[minY,maxY]: any structure whose
// column and vertical range overlap the footprint applies its force.
func (r *LiftRegistry) ForceForAABB(minX, maxX, minY, maxY int) (force uint8, onLift bool) {
	for _, s := range r.structures {
		if maxX < s.TileX || minX > s.TileX+BlockSize-1 {
			continue
		}
		if maxY < s.MinY || minY > s.MaxY {
			continue
		}
		return s.Force, true
	}
	return 0, false
}

// Structures returns every live lift structure.
func (r *LiftRegistry) Structures() []*LiftStructure {
	out := make([]*LiftStructure, 0, len(r.structures))
	for _, s := range r.structures {
		out = append(out, s)
	}
	return out
}
