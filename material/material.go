// Package material is the read-only registry of material definitions the
// simulation consults by id. It is built once at world construction and
// never mutated afterward.
package material

import "strings"

// Behavior classifies how a material moves under the cell physics kernel.
type Behavior uint8

const (
	Static Behavior = iota
	Powder
	Liquid
	Gas
)

// ID indexes into a Table. 0 is always Air.
type ID = uint8

const Air ID = 0

// Def is a read-only material definition.
type Def struct {
	Name            string
	Density         uint8
	SlideResistance uint8
	Friction        uint8
	Behavior        Behavior
	Flags           Flag

	IgnitionThreshold uint8
	MeltThreshold     uint8
	FreezeThreshold   uint8
	BoilThreshold     uint8

	IgnitionProduct ID
	MeltProduct     ID
	FreezeProduct   ID
	BoilProduct     ID
}

// Table is the O(1)-by-id registry of material definitions.
type Table struct {
	defs []Def
	byID map[ID]Def
}

// NewTable builds a material table. Index 0 is always Air regardless of
// what defs[0] contains; air is synthesized automatically.
func NewTable(defs []Def) *Table {
	t := &Table{
		defs: make([]Def, 0, len(defs)+1),
		byID: make(map[ID]Def, len(defs)+1),
	}
	t.register(Air, Def{Name: "Air", Behavior: Static})
	for i, d := range defs {
		id := ID(i + 1)
		t.register(id, d)
	}
	return t
}

func (t *Table) register(id ID, d Def) {
	for len(t.defs) <= int(id) {
		t.defs = append(t.defs, Def{})
	}
	t.defs[id] = d
	t.byID[id] = d
}

// Get returns the definition for id in O(1). Unknown ids return Air's
// definition (Static, zero density) so lookups never need an error path.
func (t *Table) Get(id ID) Def {
	if int(id) < len(t.defs) {
		return t.defs[id]
	}
	return t.defs[Air]
}

// Len returns the number of registered materials, including Air.
func (t *Table) Len() int {
	return len(t.defs)
}

// IsBelt reports whether id names a belt-surface material (BeltLeft or
// BeltRight) — a name prefix rather than a flag bit, since belts are not
// materials with cell physics behavior, just markers the belt registry
// paints and reads back.
func (t *Table) IsBelt(id ID) bool {
	d := t.Get(id)
	return strings.HasPrefix(d.Name, "Belt")
}

// IsPiston reports whether id names piston material — pistons are
// Passable-but-Static, matching machine-part semantics (never displaced,
// never collected by the terrain collider).
func (t *Table) IsPiston(id ID) bool {
	d := t.Get(id)
	return d.Name == "Piston"
}

// IsDiggable reports whether a definition permits removal by external
// tools.
func (t *Table) IsDiggable(d Def) bool {
	return d.Flags.Has(Diggable)
}
