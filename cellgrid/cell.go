package cellgrid

import "github.com/pthm-cable/cellsim/material"

// Cell is one grid position's full state. Conceptually the packed-record
// layout from the source format; Go doesn't need manual bit-packing to get
// the contract right, only the fields and their invariants.
type Cell struct {
	MaterialID    material.ID
	Flags         material.CellFlag
	FrameUpdated  uint16
	VelocityX     int8
	VelocityY     int8
	VelocityFracY uint8
	Temperature   uint8
	OwnerID       uint16
}

// IsAir reports whether the cell is empty.
func (c Cell) IsAir() bool {
	return c.MaterialID == material.Air
}

// Zeroed resets a cell to the Air state, preserving nothing.
func Zeroed() Cell {
	return Cell{}
}
