package material

// Flag is a bitset of material properties.
type Flag uint8

const (
	ConductsHeat Flag = 1 << iota
	Flammable
	Conductive
	Corrodes
	Passable
	Diggable
)

// Has reports whether a flag set contains a flag.
func (f Flag) Has(other Flag) bool {
	return f&other != 0
}

// Add returns the flag set with other added.
func (f Flag) Add(other Flag) Flag {
	return f | other
}

// Remove returns the flag set with other removed.
func (f Flag) Remove(other Flag) Flag {
	return f &^ other
}

// CellFlag is a bitset stored per-cell (spec.md §3 Cell.flags).
type CellFlag uint8

const (
	OnBelt CellFlag = 1 << iota
	OnLift
	Burning
	Wet
	Settled
)

// Has reports whether a cell flag set contains a flag.
func (f CellFlag) Has(other CellFlag) bool {
	return f&other != 0
}

// Add returns the cell flag set with other added.
func (f CellFlag) Add(other CellFlag) CellFlag {
	return f | other
}

// Remove returns the cell flag set with other removed.
func (f CellFlag) Remove(other CellFlag) CellFlag {
	return f &^ other
}
