package collider

import (
	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/coord"
	"github.com/pthm-cable/cellsim/material"
	"gonum.org/v1/gonum/spatial/r2"
)

// SimplifyEpsilon is the Ramer-Douglas-Peucker perpendicular-distance
// threshold applied to every traced outline.
const SimplifyEpsilon = 0.1

// MinOutlineVertices discards a traced-and-simplified outline smaller than
// this; a collider with fewer than 3 vertices is malformed.
const MinOutlineVertices = 3

// Sink receives collider updates, called out by the extractor. Satisfied
// structurally by whatever physics/rendering layer owns chunk colliders.
type Sink interface {
	ReplacePolygons(chunkIndex int, outlines [][]r2.Vec)
	RemovePolygons(chunkIndex int)
}

// Extractor regenerates per-chunk terrain colliders from a cell grid's
// static, non-passable, non-cluster-owned cells.
type Extractor struct {
	Grid *cellgrid.Grid
	Sink Sink

	dirty map[int]bool
}

// NewExtractor returns an extractor with every chunk marked dirty, so the
// first ProcessDirtyChunks call builds an initial collider set.
func NewExtractor(grid *cellgrid.Grid, sink Sink) *Extractor {
	e := &Extractor{Grid: grid, Sink: sink, dirty: map[int]bool{}}
	for cy := 0; cy < grid.ChunksHigh(); cy++ {
		for cx := 0; cx < grid.ChunksWide(); cx++ {
			e.dirty[coord.ChunkIndex(cx, cy, grid.ChunksWide())] = true
		}
	}
	return e
}

// MarkDirty queues chunkIndex for regeneration on the next
// ProcessDirtyChunks call.
func (e *Extractor) MarkDirty(chunkIndex int) {
	e.dirty[chunkIndex] = true
}

// MarkDirtyAt queues the chunk containing cell (x, y).
func (e *Extractor) MarkDirtyAt(x, y int) {
	cx, cy := coord.ChunkCoords(x, y)
	e.MarkDirty(coord.ChunkIndex(cx, cy, e.Grid.ChunksWide()))
}

// ProcessDirtyChunks regenerates every queued chunk's collider immediately
// and clears the dirty set. Callers wanting a per-frame budget should
// instead drain DirtyChunks() themselves N at a time and call
// ExtractChunk directly.
func (e *Extractor) ProcessDirtyChunks() {
	for ci := range e.dirty {
		e.ExtractChunk(ci)
	}
	e.dirty = map[int]bool{}
}

// DirtyChunks returns the currently queued chunk indices, for callers that
// want to budget extraction across frames rather than draining all at
// once.
func (e *Extractor) DirtyChunks() []int {
	out := make([]int, 0, len(e.dirty))
	for ci := range e.dirty {
		out = append(out, ci)
	}
	return out
}

// ExtractChunk regenerates and replaces the collider for one chunk,
// removing it from the dirty set.
func (e *Extractor) ExtractChunk(chunkIndex int) {
	delete(e.dirty, chunkIndex)

	chunksWide := e.Grid.ChunksWide()
	cx, cy := chunkIndex%chunksWide, chunkIndex/chunksWide
	originX, originY := cx*coord.ChunkSize, cy*coord.ChunkSize

	solid := e.buildSolidGrid(originX, originY)
	segs := march(solid)
	loops := traceContours(segs)

	var outlines [][]r2.Vec
	for _, loop := range loops {
		simplified := simplifyRDP(loop, SimplifyEpsilon)
		if len(simplified) < MinOutlineVertices {
			continue
		}
		outlines = append(outlines, e.toWorld(simplified, originX, originY))
	}

	if len(outlines) == 0 {
		e.Sink.RemovePolygons(chunkIndex)
		return
	}
	e.Sink.ReplacePolygons(chunkIndex, outlines)
}

// buildSolidGrid samples a (ChunkSize+2)x(ChunkSize+2) boolean grid around
// the chunk, local coordinate -1 mapping to the global cell just outside
// the chunk's left/top edge. Sampling real neighbor cells (rather than
// always treating the border as empty) keeps a terrain feature that spans
// a chunk seam from being cut off mid-shape.
func (e *Extractor) buildSolidGrid(originX, originY int) [][]bool {
	size := coord.ChunkSize + 2
	grid := make([][]bool, size)
	for ly := 0; ly < size; ly++ {
		grid[ly] = make([]bool, size)
		for lx := 0; lx < size; lx++ {
			grid[ly][lx] = e.qualifies(originX+lx-1, originY+ly-1)
		}
	}
	return grid
}

// qualifies reports whether cell (x, y) should contribute to the terrain
// collider: a non-passable, non-piston static material, not currently
// owned by a cluster.
func (e *Extractor) qualifies(x, y int) bool {
	cell := e.Grid.Get(x, y)
	if cell.OwnerID != 0 {
		return false
	}
	if cell.MaterialID == material.Air {
		return false
	}
	def := e.Grid.Materials.Get(cell.MaterialID)
	if def.Behavior != material.Static {
		return false
	}
	if def.Flags.Has(material.Passable) {
		return false
	}
	if e.Grid.Materials.IsPiston(cell.MaterialID) {
		return false
	}
	return true
}

// toWorld translates a local sub-cell-space outline (grid coordinate -1
// corresponds to one cell outside the chunk's top-left) into world
// coordinates.
func (e *Extractor) toWorld(points []r2.Vec, originX, originY int) []r2.Vec {
	out := make([]r2.Vec, len(points))
	for i, p := range points {
		cellX := float64(originX) + p.X - 1
		cellY := float64(originY) + p.Y - 1
		out[i] = cellToWorldF(cellX, cellY, e.Grid.Width, e.Grid.Height)
	}
	return out
}

// cellToWorldF is the floating-point counterpart to coord.CellToWorld,
// needed here because traced outline vertices fall on half-integer
// sub-cell coordinates rather than whole cells.
func cellToWorldF(x, y float64, width, height int) r2.Vec {
	halfW := float64(width) * coord.CellToWorldScale / 2
	halfH := float64(height) * coord.CellToWorldScale / 2
	return r2.Vec{
		X: x*coord.CellToWorldScale - halfW,
		Y: halfH - y*coord.CellToWorldScale,
	}
}
