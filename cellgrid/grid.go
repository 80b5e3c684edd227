// Package cellgrid owns the flat cell buffer, chunk metadata, and dirty
// tracking that everything else in the simulation reads and writes
// through.
package cellgrid

import (
	"github.com/pthm-cable/cellsim/coord"
	"github.com/pthm-cable/cellsim/material"
)

// EdgeThreshold is how close to a chunk edge a dirtied cell must be before
// its neighbor chunk is woken too.
const EdgeThreshold = 2

// Grid owns the cell array and chunk array for a fixed-size world.
type Grid struct {
	Width, Height int
	chunksWide    int
	chunksHigh    int

	cells  []Cell
	chunks []ChunkState

	Materials *material.Table
}

// New allocates a width x height grid filled with Air and installs the
// given material table. Width and height need not be chunk-aligned; the
// last row/column of chunks may be partial.
func New(width, height int, materials *material.Table) *Grid {
	chunksWide := (width + coord.ChunkSize - 1) / coord.ChunkSize
	chunksHigh := (height + coord.ChunkSize - 1) / coord.ChunkSize

	g := &Grid{
		Width:      width,
		Height:     height,
		chunksWide: chunksWide,
		chunksHigh: chunksHigh,
		cells:      make([]Cell, width*height),
		chunks:     make([]ChunkState, chunksWide*chunksHigh),
		Materials:  materials,
	}
	for i := range g.chunks {
		g.chunks[i] = newChunkState()
	}
	return g
}

// ChunksWide and ChunksHigh report the chunk-grid dimensions.
func (g *Grid) ChunksWide() int { return g.chunksWide }
func (g *Grid) ChunksHigh() int { return g.chunksHigh }

// InBounds reports whether (x, y) lies inside the grid.
func (g *Grid) InBounds(x, y int) bool {
	return coord.InBounds(x, y, g.Width, g.Height)
}

// Get returns the cell at (x, y), or a zero (Air) cell if out of bounds.
func (g *Grid) Get(x, y int) Cell {
	if !g.InBounds(x, y) {
		return Cell{}
	}
	return g.cells[coord.CellIndex(x, y, g.Width)]
}

// GetPtr returns a pointer to the live cell at (x, y), or nil if out of
// bounds. Used by the kernel's in-place mutation hot path.
func (g *Grid) GetPtr(x, y int) *Cell {
	if !g.InBounds(x, y) {
		return nil
	}
	return &g.cells[coord.CellIndex(x, y, g.Width)]
}

// SetCell writes material at (x, y), zeroing velocities and marking the
// containing chunk dirty with expanded bounds. Out-of-bounds writes are
// silent no-ops.
func (g *Grid) SetCell(x, y int, mat material.ID) {
	if !g.InBounds(x, y) {
		return
	}
	idx := coord.CellIndex(x, y, g.Width)
	g.cells[idx] = Cell{MaterialID: mat}
	g.MarkDirty(x, y)
}

// GetCell returns the material id at (x, y), or Air if out of bounds.
func (g *Grid) GetCell(x, y int) material.ID {
	return g.Get(x, y).MaterialID
}

// chunkAt returns a pointer to the chunk state owning cell (x, y). Caller
// must have already checked InBounds.
func (g *Grid) chunkAt(x, y int) *ChunkState {
	cx, cy := coord.ChunkCoords(x, y)
	return &g.chunks[coord.ChunkIndex(cx, cy, g.chunksWide)]
}

// MarkDirty marks the chunk containing (x, y) dirty, expanding its local
// bounds to include the cell.
func (g *Grid) MarkDirty(x, y int) {
	if !g.InBounds(x, y) {
		return
	}
	lx, ly := coord.LocalCoords(x, y)
	c := g.chunkAt(x, y)
	c.Flags = c.Flags.Add(IsDirty)
	c.expandBounds(uint16(lx), uint16(ly))
}

// MarkDirtyWithNeighbors marks (x, y)'s chunk dirty, and additionally
// wakes the adjacent chunk (whole-chunk, no bounds expansion) when (x, y)
// is within EdgeThreshold of the chunk edge — this is how motion crossing
// a chunk boundary wakes its neighbor for the next frame.
func (g *Grid) MarkDirtyWithNeighbors(x, y int) {
	g.MarkDirty(x, y)
	if !g.InBounds(x, y) {
		return
	}
	lx, ly := coord.LocalCoords(x, y)

	if lx < EdgeThreshold {
		g.wakeChunk(x-coord.ChunkSize, y)
	}
	if lx >= coord.ChunkSize-EdgeThreshold {
		g.wakeChunk(x+coord.ChunkSize, y)
	}
	if ly < EdgeThreshold {
		g.wakeChunk(x, y-coord.ChunkSize)
	}
	if ly >= coord.ChunkSize-EdgeThreshold {
		g.wakeChunk(x, y+coord.ChunkSize)
	}
}

// wakeChunk sets IsDirty on the chunk containing (x, y) without expanding
// its bounds — "simulate the whole chunk" next time it runs.
func (g *Grid) wakeChunk(x, y int) {
	cx, cy := x/coord.ChunkSize, y/coord.ChunkSize
	if cx < 0 || cy < 0 || cx >= g.chunksWide || cy >= g.chunksHigh {
		return
	}
	g.chunks[coord.ChunkIndex(cx, cy, g.chunksWide)].Flags |= IsDirty
}

// ChunkState returns a copy of chunk index ci's state.
func (g *Grid) ChunkState(ci int) ChunkState {
	return g.chunks[ci]
}

// ChunkStatePtr returns a pointer to chunk index ci's live state.
func (g *Grid) ChunkStatePtr(ci int) *ChunkState {
	return &g.chunks[ci]
}

// ChunkOrigin returns the top-left cell coordinates of chunk index ci.
func (g *Grid) ChunkOrigin(ci int) (x0, y0 int) {
	cx := ci % g.chunksWide
	cy := ci / g.chunksWide
	return cx * coord.ChunkSize, cy * coord.ChunkSize
}

// MarkChunkHasStructure sets or clears the HasStructure flag on the chunk
// at cell (x, y), used by the belt registry when placing or removing
// belt blocks so reset_dirty_state knows to keep simulating it.
func (g *Grid) MarkChunkHasStructure(x, y int, has bool) {
	if !g.InBounds(x, y) {
		return
	}
	c := g.chunkAt(x, y)
	if has {
		c.Flags = c.Flags.Add(HasStructure)
	} else {
		c.Flags = c.Flags.Remove(HasStructure)
	}
}

// GetActiveChunks appends the indices of every chunk that should be
// processed this frame to out and returns the result.
func (g *Grid) GetActiveChunks(out []int) []int {
	for i := range g.chunks {
		if g.chunks[i].IsActive() {
			out = append(out, i)
		}
	}
	return out
}

// CollectChunkGroups clears a, b, c, d and refills them with the indices
// of every active chunk, partitioned by checkerboard group.
func (g *Grid) CollectChunkGroups(a, b, c, d []int) (A, B, C, D []int) {
	A, B, C, D = a[:0], b[:0], c[:0], d[:0]
	for i := range g.chunks {
		if !g.chunks[i].IsActive() {
			continue
		}
		cx := i % g.chunksWide
		cy := i / g.chunksWide
		switch coord.CheckerboardGroup(cx, cy) {
		case 0:
			A = append(A, i)
		case 1:
			B = append(B, i)
		case 2:
			C = append(C, i)
		case 3:
			D = append(D, i)
		}
	}
	return
}

// ResetDirtyState rolls IsDirty into ActiveLastFrame and clears per-chunk
// dirty bounds, except that chunks with HasStructure keep their bounds
// inverted (whole-chunk) rather than narrowing, since belt/lift structures
// must keep simulating every frame regardless of cell-level dirtiness.
func (g *Grid) ResetDirtyState() {
	minX, maxX, minY, maxY := invertedBounds()
	for i := range g.chunks {
		c := &g.chunks[i]
		wasDirty := c.Flags.Has(IsDirty)
		if wasDirty {
			c.ActiveLastFrame = 1
		} else {
			c.ActiveLastFrame = 0
		}
		if c.Flags.Has(HasStructure) {
			c.MinX, c.MaxX, c.MinY, c.MaxY = minX, maxX, minY, maxY
			continue
		}
		c.Flags = c.Flags.Remove(IsDirty)
		c.MinX, c.MaxX, c.MinY, c.MaxY = minX, maxX, minY, maxY
	}
}

// CountActiveCells counts non-Air cells across the whole grid.
func (g *Grid) CountActiveCells() int {
	n := 0
	for i := range g.cells {
		if !g.cells[i].IsAir() {
			n++
		}
	}
	return n
}

// CountActiveChunks counts chunks that would be processed this frame.
func (g *Grid) CountActiveChunks() int {
	n := 0
	for i := range g.chunks {
		if g.chunks[i].IsActive() {
			n++
		}
	}
	return n
}
