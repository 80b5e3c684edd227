// Package worldgen paints procedural starting terrain into a freshly
// constructed grid using layered OpenSimplex noise. It is a one-shot
// authoring convenience, not part of the simulation's per-frame surface:
// the core itself only knows about set_cell/get_cell (spec.md §6); nothing
// downstream is allowed to depend on how the initial terrain was produced.
package worldgen

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/material"
)

// Params tunes the layered noise used for both the floor height profile
// and the cave-carving pass, mirroring the octave/lacunarity/gain shape
// used for animated capacity fields elsewhere in the pack.
type Params struct {
	Scale      float64
	Octaves    int
	Lacunarity float64
	Gain       float64

	FloorHeightFraction float64 // fraction of grid height the solid floor occupies, before noise variation
	FloorNoiseAmount    float64 // +/- fraction of height the floor profile varies by

	CaveThreshold float64 // fbm value above which a below-floor cell is carved to Air
}

// DefaultParams returns reasonable noise tuning for a single-screen-sized
// world.
func DefaultParams() Params {
	return Params{
		Scale:               0.05,
		Octaves:             4,
		Lacunarity:          2.0,
		Gain:                0.5,
		FloorHeightFraction: 0.35,
		FloorNoiseAmount:    0.08,
		CaveThreshold:       0.62,
	}
}

// Generator paints terrain from a seeded OpenSimplex noise field.
type Generator struct {
	noise  opensimplex.Noise
	params Params
}

// New returns a generator seeded deterministically; the same seed and
// params always paint the same terrain.
func New(seed int64, params Params) *Generator {
	return &Generator{noise: opensimplex.New(seed), params: params}
}

// GenerateFloor paints a solid floor of floorMaterial along the bottom of
// the grid, its height varying by a 1D noise profile sampled along X, then
// carves caves out of it with a 2D FBM threshold pass so the floor isn't a
// featureless slab.
func (g *Generator) GenerateFloor(grid *cellgrid.Grid, floorMaterial material.ID) {
	p := g.params
	for x := 0; x < grid.Width; x++ {
		u := float64(x) * p.Scale
		n := g.noise.Eval2(u, 0)
		heightRatio := p.FloorHeightFraction + n*p.FloorNoiseAmount
		if heightRatio < 0 {
			heightRatio = 0
		}
		floorHeight := int(float64(grid.Height) * heightRatio)

		for y := grid.Height - 1; y >= grid.Height-floorHeight; y-- {
			if y < 0 {
				break
			}
			if g.fbm2D(float64(x), float64(y)) > p.CaveThreshold {
				continue // carved out as a cave pocket
			}
			grid.SetCell(x, y, floorMaterial)
		}
	}
}

// ScatterVeins paints small pockets of veinMaterial inside existing
// hostMaterial cells wherever a high-frequency noise sample exceeds
// threshold, for ore-seam-style decoration of an already-generated floor.
func (g *Generator) ScatterVeins(grid *cellgrid.Grid, hostMaterial, veinMaterial material.ID, frequency, threshold float64) {
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if grid.GetCell(x, y) != hostMaterial {
				continue
			}
			n := g.noise.Eval2(float64(x)*frequency, float64(y)*frequency)
			if n > threshold {
				grid.SetCell(x, y, veinMaterial)
			}
		}
	}
}

// fbm2D sums octaves of 2D OpenSimplex noise, shifted into [0, 1]; grounded
// on the teacher's fbmTiled octave-summation loop, simplified to a plain
// (non-animated, non-toroidal) 2D field since world generation runs once
// at construction rather than every frame.
func (g *Generator) fbm2D(x, y float64) float64 {
	p := g.params
	sum := 0.0
	amp := 0.5
	freq := p.Scale
	for o := 0; o < p.Octaves; o++ {
		n := (g.noise.Eval2(x*freq, y*freq) + 1) * 0.5
		sum += amp * n
		freq *= p.Lacunarity
		amp *= p.Gain
	}
	return math.Min(1, sum)
}
