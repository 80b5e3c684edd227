package cellgrid

import (
	"testing"

	"github.com/pthm-cable/cellsim/coord"
	"github.com/pthm-cable/cellsim/material"
)

func testMaterials() *material.Table {
	return material.NewTable([]material.Def{
		{Name: "Stone", Density: 255, Behavior: material.Static},
		{Name: "Sand", Density: 100, SlideResistance: 10, Behavior: material.Powder},
	})
}

func TestSetCellThenGetCellRoundTrips(t *testing.T) {
	g := New(16, 16, testMaterials())

	g.SetCell(4, 4, 1)
	if got := g.GetCell(4, 4); got != 1 {
		t.Fatalf("GetCell after SetCell = %d, want 1", got)
	}
}

func TestGetCellOutOfBoundsReturnsAir(t *testing.T) {
	g := New(16, 16, testMaterials())

	if got := g.GetCell(-1, 0); got != material.Air {
		t.Fatalf("GetCell out of bounds = %d, want Air", got)
	}
	if got := g.GetCell(16, 0); got != material.Air {
		t.Fatalf("GetCell out of bounds = %d, want Air", got)
	}
}

func TestSetCellOutOfBoundsIsNoOp(t *testing.T) {
	g := New(16, 16, testMaterials())
	g.SetCell(-1, -1, 1) // must not panic
	g.SetCell(100, 100, 1)
}

func TestSetCellMarksChunkDirtyWithExpandedBounds(t *testing.T) {
	g := New(128, 128, testMaterials())

	g.SetCell(10, 20, 1)

	ci := 0 // chunk (0,0) since 10,20 < 64
	cs := g.ChunkState(ci)
	if !cs.Flags.Has(IsDirty) {
		t.Fatalf("expected chunk dirty after SetCell")
	}
	if cs.MinX != 10 || cs.MaxX != 10 || cs.MinY != 20 || cs.MaxY != 20 {
		t.Fatalf("bounds = (%d,%d)-(%d,%d), want (10,20)-(10,20)", cs.MinX, cs.MinY, cs.MaxX, cs.MaxY)
	}
}

func TestMarkDirtyWithNeighborsWakesAdjacentChunk(t *testing.T) {
	g := New(128, 128, testMaterials())

	// cell (63, 10) is within EdgeThreshold(2) of the right edge of chunk (0,0)
	g.MarkDirtyWithNeighbors(63, 10)

	neighbor := g.ChunkState(1) // chunk (1, 0)
	if !neighbor.Flags.Has(IsDirty) {
		t.Fatalf("expected neighbor chunk woken")
	}
	// whole-chunk wake: bounds stay inverted (no specific bounds)
	if neighbor.HasBounds() {
		t.Fatalf("neighbor wake should not narrow bounds, got HasBounds() = true")
	}
}

func TestResetDirtyStateRollsForwardAndClearsBounds(t *testing.T) {
	g := New(128, 128, testMaterials())
	g.SetCell(5, 5, 1)

	g.ResetDirtyState()

	cs := g.ChunkState(0)
	if cs.Flags.Has(IsDirty) {
		t.Fatalf("IsDirty should clear after reset")
	}
	if cs.ActiveLastFrame == 0 {
		t.Fatalf("ActiveLastFrame should be set after a dirty frame")
	}
	if cs.HasBounds() {
		t.Fatalf("bounds should revert to inverted sentinel after reset")
	}

	// a second reset with nothing dirty clears ActiveLastFrame too
	g.ResetDirtyState()
	cs = g.ChunkState(0)
	if cs.ActiveLastFrame != 0 {
		t.Fatalf("ActiveLastFrame should clear on the frame after the dirty one")
	}
}

func TestHasStructureChunkKeepsInvertedBoundsAcrossReset(t *testing.T) {
	g := New(128, 128, testMaterials())
	g.MarkChunkHasStructure(0, 0, true)
	g.SetCell(3, 3, 1)

	g.ResetDirtyState()

	cs := g.ChunkState(0)
	if !cs.Flags.Has(HasStructure) {
		t.Fatalf("HasStructure should persist")
	}
	if !cs.IsActive() {
		t.Fatalf("chunk with HasStructure should remain active")
	}
	if cs.HasBounds() {
		t.Fatalf("HasStructure chunk should keep inverted bounds after reset")
	}
}

func TestCollectChunkGroupsPartitionsByParity(t *testing.T) {
	g := New(256, 256, testMaterials()) // 4x4 chunks
	for cy := 0; cy < 4; cy++ {
		for cx := 0; cx < 4; cx++ {
			g.SetCell(cx*coord.ChunkSize+1, cy*coord.ChunkSize+1, 1)
		}
	}

	var a, b, c, d []int
	a, b, c, d = g.CollectChunkGroups(a, b, c, d)

	total := len(a) + len(b) + len(c) + len(d)
	if total != 16 {
		t.Fatalf("total active chunks = %d, want 16", total)
	}
	if len(a) != 4 || len(b) != 4 || len(c) != 4 || len(d) != 4 {
		t.Fatalf("groups = %d/%d/%d/%d, want 4/4/4/4", len(a), len(b), len(c), len(d))
	}
}
