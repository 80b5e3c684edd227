// Package beltlift owns conveyor belt and lift tiles and structures: tile
// maps keyed by cell index, structure lists, placement/removal with
// merge/split, and the parallel per-structure simulation passes.
package beltlift

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/coord"
	"github.com/pthm-cable/cellsim/material"
)

// BlockSize is the belt/lift placement block footprint (8x8 cells).
const BlockSize = 8

// BeltTile records which structure owns a belt surface cell and which way
// it carries.
type BeltTile struct {
	Direction int8
	BeltID    uint16
}

// BeltStructure is a contiguous horizontal run of belt blocks sharing a
// direction.
type BeltStructure struct {
	ID          uint16
	TileY       int
	MinX, MaxX  int
	Direction   int8
	Speed       int
	FrameOffset uint32
}

// SurfaceRow is the row belt cargo actually rides on, one above the belt
// material row.
func (s *BeltStructure) SurfaceRow() int {
	return s.TileY - 1
}

// BeltRegistry owns belt tiles and structures for one grid.
type BeltRegistry struct {
	grid *cellgrid.Grid

	// MaterialRight/MaterialLeft are the cell materials painted for each
	// belt direction.
	MaterialRight material.ID
	MaterialLeft  material.ID
	DefaultSpeed  int

	tiles      map[int]BeltTile
	structures map[uint16]*BeltStructure
	nextID     uint16
	freeList   []uint16
}

// NewBeltRegistry constructs an empty belt registry painting belts with
// the given directional materials.
func NewBeltRegistry(grid *cellgrid.Grid, materialRight, materialLeft material.ID, defaultSpeed int) *BeltRegistry {
	return &BeltRegistry{
		grid:          grid,
		MaterialRight: materialRight,
		MaterialLeft:  materialLeft,
		DefaultSpeed:  defaultSpeed,
		tiles:         make(map[int]BeltTile),
		structures:    make(map[uint16]*BeltStructure),
		nextID:        1,
	}
}

func (r *BeltRegistry) allocID() uint16 {
	if n := len(r.freeList); n > 0 {
		id := r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
		return id
	}
	id := r.nextID
	r.nextID++
	return id
}

func (r *BeltRegistry) materialFor(dir int8) material.ID {
	if dir < 0 {
		return r.MaterialLeft
	}
	return r.MaterialRight
}

// PlaceBelt places an 8x8 belt block whose origin snaps to the 8-grid,
// merging with an adjacent same-direction, same-row structure if present.
// Returns false (no state mutated) if any target cell is occupied.
func (r *BeltRegistry) PlaceBelt(x, y int, direction int8) bool {
	bx := coord.SnapToGrid(x)
	by := coord.SnapToGrid(y)

	for dy := 0; dy < BlockSize; dy++ {
		for dx := 0; dx < BlockSize; dx++ {
			if !r.grid.Get(bx+dx, by+dy).IsAir() {
				return false
			}
		}
	}

	mat := r.materialFor(direction)
	for dy := 0; dy < BlockSize; dy++ {
		for dx := 0; dx < BlockSize; dx++ {
			r.grid.SetCell(bx+dx, by+dy, mat)
		}
	}

	tileY := by // block occupies [tileY, tileY+BlockSize); the surface cargo rides on is tileY-1, just above it
	minX, maxX := bx, bx+BlockSize-1

	left := r.structureAt(minX-1, tileY)
	right := r.structureAt(maxX+1, tileY)

	var target *BeltStructure
	switch {
	case left != nil && left.Direction == direction && right != nil && right.Direction == direction:
		// merge both into left; right is absorbed and its id freed.
		target = left
		target.MaxX = right.MaxX
		for x := right.MinX; x <= right.MaxX; x += BlockSize {
			r.rewriteStructureID(x, tileY, right.ID, target.ID)
		}
		delete(r.structures, right.ID)
		r.freeList = append(r.freeList, right.ID)
	case left != nil && left.Direction == direction:
		target = left
		target.MaxX = maxX
	case right != nil && right.Direction == direction:
		target = right
		target.MinX = minX
	default:
		target = &BeltStructure{
			ID:        r.allocID(),
			TileY:     tileY,
			MinX:      minX,
			MaxX:      maxX,
			Direction: direction,
			Speed:     r.DefaultSpeed,
		}
		r.structures[target.ID] = target
	}

	for dx := 0; dx < BlockSize; dx++ {
		idx := coord.CellIndex(bx+dx, tileY, r.grid.Width)
		r.tiles[idx] = BeltTile{Direction: direction, BeltID: target.ID}
	}

	for dy := -1; dy < BlockSize; dy++ {
		r.grid.MarkChunkHasStructure(bx, by+dy, true)
	}
	return true
}

// structureAt returns the structure owning the belt tile row at cell
// (x, tileY), or nil.
func (r *BeltRegistry) structureAt(x, tileY int) *BeltStructure {
	idx := coord.CellIndex(x, tileY, r.grid.Width)
	t, ok := r.tiles[idx]
	if !ok {
		return nil
	}
	return r.structures[t.BeltID]
}

// rewriteStructureID rewrites the belt id of every tile in [x, x+BlockSize)
// at row tileY from oldID to newID.
func (r *BeltRegistry) rewriteStructureID(x, tileY int, oldID, newID uint16) {
	for dx := 0; dx < BlockSize; dx++ {
		idx := coord.CellIndex(x+dx, tileY, r.grid.Width)
		if t, ok := r.tiles[idx]; ok && t.BeltID == oldID {
			t.BeltID = newID
			r.tiles[idx] = t
		}
	}
}

// RemoveBelt removes the whole 8x8 block at (x, y) (snapped), splitting or
// shrinking its owning structure as needed. Returns false if there is no
// belt block there.
func (r *BeltRegistry) RemoveBelt(x, y int) bool {
	bx := coord.SnapToGrid(x)
	by := coord.SnapToGrid(y)
	tileY := by

	s := r.structureAt(bx, tileY)
	if s == nil {
		return false
	}

	for dy := 0; dy < BlockSize; dy++ {
		for dx := 0; dx < BlockSize; dx++ {
			r.grid.SetCell(bx+dx, by+dy, material.Air)
		}
	}
	for dx := 0; dx < BlockSize; dx++ {
		delete(r.tiles, coord.CellIndex(bx+dx, tileY, r.grid.Width))
	}
	for dy := -1; dy < BlockSize; dy++ {
		r.grid.MarkChunkHasStructure(bx, by+dy, false)
	}

	switch {
	case s.MinX == bx && s.MaxX == bx+BlockSize-1:
		delete(r.structures, s.ID)
		r.freeList = append(r.freeList, s.ID)
	case s.MinX == bx:
		s.MinX = bx + BlockSize
	case s.MaxX == bx+BlockSize-1:
		s.MaxX = bx - BlockSize
	default:
		// interior block: split into left and right fragments.
		left := &BeltStructure{
			ID: r.allocID(), TileY: tileY, MinX: s.MinX, MaxX: bx - BlockSize,
			Direction: s.Direction, Speed: s.Speed, FrameOffset: s.FrameOffset,
		}
		rightFrag := &BeltStructure{
			ID: r.allocID(), TileY: tileY, MinX: bx + BlockSize, MaxX: s.MaxX,
			Direction: s.Direction, Speed: s.Speed, FrameOffset: s.FrameOffset,
		}
		r.structures[left.ID] = left
		r.structures[rightFrag.ID] = rightFrag
		for tx := left.MinX; tx <= left.MaxX; tx += BlockSize {
			r.rewriteStructureID(tx, tileY, s.ID, left.ID)
		}
		for tx := rightFrag.MinX; tx <= rightFrag.MaxX; tx += BlockSize {
			r.rewriteStructureID(tx, tileY, s.ID, rightFrag.ID)
		}
		delete(r.structures, s.ID)
		r.freeList = append(r.freeList, s.ID)
	}
	return true
}

// Structures returns every live belt structure. Callers must not mutate
// the returned structures outside the registry.
func (r *BeltRegistry) Structures() []*BeltStructure {
	out := make([]*BeltStructure, 0, len(r.structures))
	for _, s := range r.structures {
		out = append(out, s)
	}
	return out
}

// SimulateBelts runs the per-structure column shift pass, one goroutine
// per structure (bounded by GOMAXPROCS), for every structure whose tick is
// due this frame.
func (r *BeltRegistry) SimulateBelts(currentFrame uint32) {
	due := make([]*BeltStructure, 0, len(r.structures))
	for _, s := range r.structures {
		if s.Speed <= 0 {
			continue
		}
		if (int(currentFrame)-int(s.FrameOffset))%s.Speed == 0 {
			due = append(due, s)
		}
	}
	if len(due) == 0 {
		return
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(due) {
		numWorkers = len(due)
	}
	chunkSize := (len(due) + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(due) {
			end = len(due)
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(i0, i1 int) {
			defer wg.Done()
			for i := i0; i < i1; i++ {
				r.simulateStructure(due[i])
			}
		}(start, end)
	}
	wg.Wait()
}

// simulateStructure scans the surface row once, moving powder/liquid
// cells one step in the structure's direction. Scan order runs opposite to
// the movement direction so a single tick never double-moves a cell
// along the run.
func (r *BeltRegistry) simulateStructure(s *BeltStructure) {
	row := s.SurfaceRow()
	if s.Direction > 0 {
		for x := s.MaxX; x >= s.MinX; x-- {
			r.tryCarry(x, row, s.Direction)
		}
	} else {
		for x := s.MinX; x <= s.MaxX; x++ {
			r.tryCarry(x, row, s.Direction)
		}
	}
}

func (r *BeltRegistry) tryCarry(x, y int, direction int8) {
	cell := r.grid.Get(x, y)
	if cell.IsAir() {
		return
	}
	if cell.OwnerID != 0 {
		return // cluster-owned cells are carried by the cluster force path, not moved directly.
	}
	def := r.grid.Materials.Get(cell.MaterialID)
	if def.Behavior != material.Powder && def.Behavior != material.Liquid {
		return
	}

	tx := x + int(direction)
	if !r.grid.Get(tx, y).IsAir() {
		return
	}

	a := r.grid.GetPtr(x, y)
	b := r.grid.GetPtr(tx, y)
	*a, *b = *b, *a
	r.grid.MarkDirtyWithNeighbors(x, y)
	r.grid.MarkDirtyWithNeighbors(tx, y)
}

// CarryForAABB reports the carry direction and velocity-assignment flag
// for a cluster whose cell-space footprint is [minX,maxX]x[minY,maxY]: any
// structure's surface row falling inside that footprint, with column
// overlap, assigns its direction. Used by cluster sync, not by the belt
// pass itself.
func (r *BeltRegistry) CarryForAABB(minX, maxX, minY, maxY int) (direction int8, onBelt bool) {
	for _, s := range r.structures {
		row := s.SurfaceRow()
		if row < minY || row > maxY {
			continue
		}
		if maxX < s.MinX || minX > s.MaxX {
			continue
		}
		return s.Direction, true
	}
	return 0, false
}
