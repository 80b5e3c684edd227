package coord

import "testing"

func TestChunkAndLocalCoordsRoundTrip(t *testing.T) {
	cx, cy := ChunkCoords(130, 65)
	if cx != 2 || cy != 1 {
		t.Fatalf("ChunkCoords(130, 65) = (%d, %d), want (2, 1)", cx, cy)
	}
	lx, ly := LocalCoords(130, 65)
	if lx != 2 || ly != 1 {
		t.Fatalf("LocalCoords(130, 65) = (%d, %d), want (2, 1)", lx, ly)
	}
}

func TestCheckerboardGroupCoversAllFourGroups(t *testing.T) {
	seen := map[int]bool{}
	for cy := 0; cy < 2; cy++ {
		for cx := 0; cx < 2; cx++ {
			seen[CheckerboardGroup(cx, cy)] = true
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct checkerboard groups over a 2x2 block, got %d", len(seen))
	}
}

func TestCheckerboardGroupIsStableUnderChunkOffset(t *testing.T) {
	// Chunks two apart in either axis share a group (offset by an even
	// number of chunks doesn't change either bit).
	if CheckerboardGroup(0, 0) != CheckerboardGroup(2, 2) {
		t.Fatal("expected checkerboard group to repeat every 2 chunks in each axis")
	}
}

func TestCellToWorldAndBackRoundTrip(t *testing.T) {
	width, height := 64, 64
	wx, wy := CellToWorld(10, 20, width, height)
	x, y := WorldToCell(wx, wy, width, height)
	if x != 10 || y != 20 {
		t.Fatalf("CellToWorld/WorldToCell round trip gave (%d, %d), want (10, 20)", x, y)
	}
}

func TestCellToWorldOriginIsGridCenter(t *testing.T) {
	width, height := 64, 64
	wx, wy := CellToWorld(width/2, height/2, width, height)
	if wx != 0 || wy != 0 {
		t.Fatalf("expected the grid's center cell to map to world origin, got (%.1f, %.1f)", wx, wy)
	}
}

func TestSnapToGridRoundsDownToBlockAlignment(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 7: 0, 8: 8, 15: 8, 16: 16, 23: 16}
	for in, want := range cases {
		if got := SnapToGrid(in); got != want {
			t.Errorf("SnapToGrid(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestInBounds(t *testing.T) {
	if !InBounds(0, 0, 10, 10) {
		t.Error("expected origin to be in bounds")
	}
	if InBounds(10, 0, 10, 10) {
		t.Error("expected x == width to be out of bounds")
	}
	if InBounds(-1, 0, 10, 10) {
		t.Error("expected negative x to be out of bounds")
	}
}

func TestHashIsDeterministicAndFrameSensitive(t *testing.T) {
	a := Hash(5, 9, 100)
	b := Hash(5, 9, 100)
	if a != b {
		t.Fatal("expected Hash to be deterministic for the same inputs")
	}
	if Hash(5, 9, 100) == Hash(5, 9, 101) {
		t.Fatal("expected Hash to vary with frame")
	}
}

func TestPositionHashIsHashAtFrameZero(t *testing.T) {
	if PositionHash(3, 4) != Hash(3, 4, 0) {
		t.Fatal("expected PositionHash to equal Hash with frame fixed at 0")
	}
}
