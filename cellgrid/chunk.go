package cellgrid

import "github.com/pthm-cable/cellsim/coord"

// ChunkFlag is a bitset of ChunkState.Flags.
type ChunkFlag uint8

const (
	IsDirty ChunkFlag = 1 << iota
	HasStructure
)

// ChunkState tracks dirty bounds and activity for one ChunkSize x ChunkSize
// region of the grid. Bounds are local to the chunk, in [0, ChunkSize).
type ChunkState struct {
	MinX, MaxX, MinY, MaxY uint16
	Flags                  ChunkFlag
	ActiveLastFrame        uint8
	StructureMask          uint16
}

// invertedBounds is the sentinel meaning "no specific bounds — simulate
// the entire chunk". MinX/MinY are set above MaxX/MaxY.
func invertedBounds() (minX, maxX, minY, maxY uint16) {
	return coord.ChunkSize, 0, coord.ChunkSize, 0
}

// newChunkState returns a fresh chunk with inverted (whole-chunk) bounds.
func newChunkState() ChunkState {
	minX, maxX, minY, maxY := invertedBounds()
	return ChunkState{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY}
}

// HasBounds reports whether the chunk carries specific dirty bounds rather
// than the whole-chunk sentinel.
func (c ChunkState) HasBounds() bool {
	return c.MinX <= c.MaxX && c.MinY <= c.MaxY
}

// expandBounds widens the chunk's dirty bounds to include local (lx, ly).
func (c *ChunkState) expandBounds(lx, ly uint16) {
	if c.MinX > c.MaxX || lx < c.MinX {
		c.MinX = lx
	}
	if c.MinX > c.MaxX || lx > c.MaxX {
		c.MaxX = lx
	}
	if c.MinY > c.MaxY || ly < c.MinY {
		c.MinY = ly
	}
	if c.MinY > c.MaxY || ly > c.MaxY {
		c.MaxY = ly
	}
}

// IsActive reports whether this chunk should be processed this frame.
func (c ChunkState) IsActive() bool {
	return c.Flags.Has(IsDirty) || c.ActiveLastFrame != 0 || c.Flags.Has(HasStructure)
}

// Has reports whether a chunk flag set contains a flag.
func (f ChunkFlag) Has(other ChunkFlag) bool { return f&other != 0 }

// Add returns the chunk flag set with other added.
func (f ChunkFlag) Add(other ChunkFlag) ChunkFlag { return f | other }

// Remove returns the chunk flag set with other removed.
func (f ChunkFlag) Remove(other ChunkFlag) ChunkFlag { return f &^ other }
