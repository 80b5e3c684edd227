package worldgen

import (
	"testing"

	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/material"
)

func testMaterials() *material.Table {
	return material.NewTable([]material.Def{
		{Name: "Stone", Behavior: material.Static},
		{Name: "Ore", Behavior: material.Static},
	})
}

const (
	stone = material.ID(1)
	ore   = material.ID(2)
)

func TestGenerateFloorIsDeterministicForSameSeed(t *testing.T) {
	materials := testMaterials()
	g1 := cellgrid.New(64, 64, materials)
	g2 := cellgrid.New(64, 64, materials)

	New(42, DefaultParams()).GenerateFloor(g1, stone)
	New(42, DefaultParams()).GenerateFloor(g2, stone)

	for y := 0; y < g1.Height; y++ {
		for x := 0; x < g1.Width; x++ {
			if g1.GetCell(x, y) != g2.GetCell(x, y) {
				t.Fatalf("same seed produced different terrain at (%d,%d)", x, y)
			}
		}
	}
}

func TestGenerateFloorOnlyPaintsBottomRegion(t *testing.T) {
	materials := testMaterials()
	grid := cellgrid.New(64, 64, materials)
	New(1, DefaultParams()).GenerateFloor(grid, stone)

	for x := 0; x < grid.Width; x++ {
		if grid.GetCell(x, 0) != material.Air {
			t.Fatalf("expected top row to stay air, got material %d at x=%d", grid.GetCell(x, 0), x)
		}
	}
}

func TestScatterVeinsOnlyReplacesHostMaterial(t *testing.T) {
	materials := testMaterials()
	grid := cellgrid.New(32, 32, materials)
	New(7, DefaultParams()).GenerateFloor(grid, stone)

	New(7, DefaultParams()).ScatterVeins(grid, stone, ore, 0.3, -0.9)

	sawOre := false
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if grid.GetCell(x, y) == ore {
				sawOre = true
			}
		}
	}
	if !sawOre {
		t.Fatal("expected a low threshold to carve at least one vein cell")
	}
}
