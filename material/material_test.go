package material

import "testing"

func testTable() *Table {
	return NewTable([]Def{
		{Name: "Stone", Density: 255, Behavior: Static},
		{Name: "Sand", Density: 100, Behavior: Powder, MeltThreshold: 200, MeltProduct: 3},
		{Name: "Glass", Density: 150, Behavior: Static},
		{Name: "BeltRight", Behavior: Static, Flags: Passable},
		{Name: "BeltLeft", Behavior: Static, Flags: Passable},
		{Name: "Piston", Behavior: Static, Flags: Passable},
	})
}

func TestNewTableSynthesizesAir(t *testing.T) {
	table := testTable()
	air := table.Get(Air)
	if air.Name != "Air" || air.Behavior != Static {
		t.Fatalf("expected id 0 to be a synthesized Air definition, got %+v", air)
	}
}

func TestGetReturnsRegisteredDefinitions(t *testing.T) {
	table := testTable()
	stone := table.Get(1)
	if stone.Name != "Stone" || stone.Density != 255 {
		t.Fatalf("expected id 1 to be Stone, got %+v", stone)
	}
}

func TestGetOutOfRangeFallsBackToAir(t *testing.T) {
	table := testTable()
	def := table.Get(250)
	if def.Name != "Air" {
		t.Fatalf("expected an unknown id to fall back to Air, got %+v", def)
	}
}

func TestLenIncludesAir(t *testing.T) {
	table := testTable()
	if table.Len() != 7 {
		t.Fatalf("expected Len() == 7 (6 registered + Air), got %d", table.Len())
	}
}

func TestIsBeltMatchesNamePrefix(t *testing.T) {
	table := testTable()
	if !table.IsBelt(4) || !table.IsBelt(5) {
		t.Fatal("expected BeltRight and BeltLeft ids to report IsBelt")
	}
	if table.IsBelt(1) {
		t.Fatal("expected Stone to not report IsBelt")
	}
}

func TestIsPistonMatchesName(t *testing.T) {
	table := testTable()
	if !table.IsPiston(6) {
		t.Fatal("expected Piston id to report IsPiston")
	}
	if table.IsPiston(1) {
		t.Fatal("expected Stone to not report IsPiston")
	}
}

func TestIsDiggableReflectsFlag(t *testing.T) {
	table := testTable()
	diggable := Def{Name: "Dirt", Flags: Diggable}
	if !table.IsDiggable(diggable) {
		t.Fatal("expected a definition with the Diggable flag set to report IsDiggable")
	}
	if table.IsDiggable(table.Get(1)) {
		t.Fatal("expected Stone (no Diggable flag) to not report IsDiggable")
	}
}
