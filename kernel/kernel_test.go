package kernel

import (
	"testing"

	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/material"
)

func testMaterials() *material.Table {
	return material.NewTable([]material.Def{
		{Name: "Stone", Density: 255, Behavior: material.Static},
		{Name: "Sand", Density: 100, SlideResistance: 0, Behavior: material.Powder},
		{Name: "Water", Density: 50, Friction: 1, Behavior: material.Liquid},
	})
}

const (
	stone material.ID = 1
	sand  material.ID = 2
	water material.ID = 3
)

func runFrames(k *Kernel, n int) {
	sched := NewScheduler(k)
	for i := 0; i < n; i++ {
		sched.RunFrame()
	}
}

func TestSandGrainOnFloorNeverMoves(t *testing.T) {
	g := cellgrid.New(16, 16, testMaterials())
	k := New(g, Tuning{MaxVelocity: 16, FractionalGravity: 17})

	g.SetCell(8, 15, sand)
	runFrames(k, 20)

	if got := g.GetCell(8, 15); got != sand {
		t.Fatalf("sand grain on bottom row moved; cell now holds material %d", got)
	}
}

func TestSandFallsStraightDownOverOpenColumn(t *testing.T) {
	g := cellgrid.New(16, 16, testMaterials())
	k := New(g, Tuning{MaxVelocity: 16, FractionalGravity: 17})

	g.SetCell(8, 0, sand)
	runFrames(k, 40)

	if got := g.GetCell(8, 15); got != sand {
		t.Fatalf("sand did not reach the floor after 40 frames, cell(8,15) = %d", got)
	}
	if got := g.GetCell(8, 0); got != material.Air {
		t.Fatalf("origin cell should be Air once the grain has fallen, got %d", got)
	}
}

func TestWaterColumnConservesCount(t *testing.T) {
	g := cellgrid.New(32, 16, testMaterials())
	k := New(g, Tuning{MaxVelocity: 16, FractionalGravity: 17})

	for x := 0; x < 32; x++ {
		g.SetCell(x, 0, stone)
		g.SetCell(x, 15, stone)
	}
	for x := 0; x < 32; x++ {
		g.SetCell(0, x%16, stone)
		g.SetCell(31, x%16, stone)
	}
	count := 0
	for x := 1; x <= 30; x++ {
		g.SetCell(x, 8, water)
		count++
	}

	runFrames(k, 50)

	got := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			if g.GetCell(x, y) == water {
				got++
			}
		}
	}
	if got != count {
		t.Fatalf("water count changed from %d to %d", count, got)
	}
}

func TestNoCellMovedTwiceWithinAFrame(t *testing.T) {
	g := cellgrid.New(16, 16, testMaterials())
	k := New(g, Tuning{MaxVelocity: 16, FractionalGravity: 17})

	for x := 0; x < 16; x++ {
		g.SetCell(x, 0, sand)
	}

	sched := NewScheduler(k)
	sched.RunFrame()

	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			c := g.Get(x, y)
			if c.IsAir() {
				continue
			}
			if c.FrameUpdated != uint16(k.CurrentFrame) {
				t.Fatalf("moved cell at (%d,%d) frame_updated=%d, want %d", x, y, c.FrameUpdated, k.CurrentFrame)
			}
		}
	}
}

func TestEmptyWorldSimulateFrameIsNoOp(t *testing.T) {
	g := cellgrid.New(8, 8, testMaterials())
	for x := 0; x < 8; x++ {
		g.SetCell(x, 7, stone)
	}
	g.ResetDirtyState()

	before := make([]cellgrid.Cell, 0, 64)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			before = append(before, g.Get(x, y))
		}
	}

	k := New(g, Tuning{MaxVelocity: 16, FractionalGravity: 17})
	sched := NewScheduler(k)
	sched.RunFrame()

	i := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if g.Get(x, y) != before[i] {
				t.Fatalf("cell (%d,%d) changed in a static-only world", x, y)
			}
			i++
		}
	}
}
