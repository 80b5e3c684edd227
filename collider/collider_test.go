package collider

import (
	"testing"

	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/coord"
	"github.com/pthm-cable/cellsim/material"
	"gonum.org/v1/gonum/spatial/r2"
)

func testMaterials() *material.Table {
	return material.NewTable([]material.Def{
		{Name: "Stone", Behavior: material.Static},
		{Name: "Sand", Behavior: material.Powder},
		{Name: "Glass", Behavior: material.Static, Flags: material.Flag(0).Add(material.Passable)},
	})
}

const (
	stone = material.ID(1)
	sand  = material.ID(2)
	glass = material.ID(3)
)

type fakeSink struct {
	replaced map[int][][]r2.Vec
	removed  map[int]bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{replaced: map[int][][]r2.Vec{}, removed: map[int]bool{}}
}

func (s *fakeSink) ReplacePolygons(chunkIndex int, outlines [][]r2.Vec) {
	s.replaced[chunkIndex] = outlines
	delete(s.removed, chunkIndex)
}

func (s *fakeSink) RemovePolygons(chunkIndex int) {
	s.removed[chunkIndex] = true
	delete(s.replaced, chunkIndex)
}

func TestExtractChunkWithNoSolidCellsRemovesCollider(t *testing.T) {
	grid := cellgrid.New(coord.ChunkSize, coord.ChunkSize, testMaterials())
	sink := newFakeSink()
	e := NewExtractor(grid, sink)

	e.ExtractChunk(0)

	if !sink.removed[0] {
		t.Fatal("expected an empty chunk to remove its collider")
	}
}

func TestExtractChunkProducesOutlineForSolidBlock(t *testing.T) {
	grid := cellgrid.New(coord.ChunkSize, coord.ChunkSize, testMaterials())
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			grid.SetCell(x, y, stone)
		}
	}
	sink := newFakeSink()
	e := NewExtractor(grid, sink)

	e.ExtractChunk(0)

	outlines, ok := sink.replaced[0]
	if !ok || len(outlines) == 0 {
		t.Fatal("expected a collider outline for the solid block")
	}
	for _, o := range outlines {
		if len(o) < MinOutlineVertices {
			t.Fatalf("outline has %d vertices, want >= %d", len(o), MinOutlineVertices)
		}
	}
}

func TestExtractChunkSkipsPassableAndClusterOwnedCells(t *testing.T) {
	grid := cellgrid.New(coord.ChunkSize, coord.ChunkSize, testMaterials())
	grid.SetCell(5, 5, glass) // passable static, must not qualify
	cellOwned := grid.GetPtr(6, 6)
	cellOwned.MaterialID = stone
	cellOwned.OwnerID = 7 // cluster-owned, must not qualify

	sink := newFakeSink()
	e := NewExtractor(grid, sink)
	e.ExtractChunk(0)

	if _, ok := sink.replaced[0]; ok {
		t.Fatal("expected no collider when all solid cells are passable or cluster-owned")
	}
}

func TestProcessDirtyChunksClearsDirtySet(t *testing.T) {
	grid := cellgrid.New(coord.ChunkSize*2, coord.ChunkSize*2, testMaterials())
	sink := newFakeSink()
	e := NewExtractor(grid, sink)

	e.ProcessDirtyChunks()

	if len(e.DirtyChunks()) != 0 {
		t.Fatalf("expected dirty set to be empty after processing, got %v", e.DirtyChunks())
	}
}

func TestMarkDirtyAtQueuesContainingChunk(t *testing.T) {
	grid := cellgrid.New(coord.ChunkSize*2, coord.ChunkSize*2, testMaterials())
	sink := newFakeSink()
	e := &Extractor{Grid: grid, Sink: sink, dirty: map[int]bool{}}

	e.MarkDirtyAt(coord.ChunkSize+3, coord.ChunkSize+3)

	want := coord.ChunkIndex(1, 1, grid.ChunksWide())
	found := false
	for _, ci := range e.DirtyChunks() {
		if ci == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected chunk %d queued dirty, got %v", want, e.DirtyChunks())
	}
}

func TestSimplifyRDPCollapsesCollinearPoints(t *testing.T) {
	points := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
	out := simplifyRDP(points, 0.1)
	if len(out) != 2 {
		t.Fatalf("expected collinear chain to collapse to 2 points, got %d", len(out))
	}
}
