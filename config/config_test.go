package config

import (
	"testing"

	"github.com/pthm-cable/cellsim/material"
)

func TestLoadEmbeddedDefaultsPopulatesGridAndMaterials(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Grid.Width == 0 || cfg.Grid.Height == 0 {
		t.Fatal("expected embedded defaults to set nonzero grid dimensions")
	}
	if len(cfg.Materials) == 0 {
		t.Fatal("expected embedded defaults to define at least one material")
	}
	if cfg.Derived.MaxVelocity != int8(cfg.Kernel.MaxVelocity) {
		t.Fatal("expected computeDerived to mirror Kernel.MaxVelocity")
	}
}

func TestBuildMaterialTableResolvesPhaseChangeProductsByName(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	table := cfg.BuildMaterialTable()

	var sandID material.ID
	for i, m := range cfg.Materials {
		if m.Name == "Sand" {
			sandID = material.ID(i + 1)
		}
	}
	if sandID == 0 {
		t.Fatal("expected embedded defaults to define Sand")
	}

	sand := table.Get(sandID)
	if sand.MeltProduct == 0 {
		t.Fatal("expected Sand's melt_product (Glass) to resolve to a nonzero id")
	}
	glass := table.Get(sand.MeltProduct)
	if glass.Name != "Glass" {
		t.Fatalf("expected Sand to melt into Glass, resolved to %q", glass.Name)
	}
}

func TestBuildMaterialTableMarksBeltMaterials(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	table := cfg.BuildMaterialTable()

	for i, m := range cfg.Materials {
		if m.Name != "BeltRight" {
			continue
		}
		if !table.IsBelt(material.ID(i + 1)) {
			t.Fatal("expected BeltRight to be recognized as a belt material")
		}
	}
}
