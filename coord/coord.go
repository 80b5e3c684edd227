// Package coord is the single source of truth for cell-space/world-space
// and cell/chunk index conversions. Nothing outside this package should
// duplicate these formulas.
package coord

// ChunkSize is the fixed width and height of a chunk, in cells.
const ChunkSize = 64

// CellToWorldScale is the number of world units per cell.
const CellToWorldScale = 2.0

// CellIndex returns the flat index of cell (x, y) in a row-major buffer of
// the given width.
func CellIndex(x, y, width int) int {
	return y*width + x
}

// ChunkCoords returns the chunk coordinates containing cell (x, y).
func ChunkCoords(x, y int) (cx, cy int) {
	return x / ChunkSize, y / ChunkSize
}

// LocalCoords returns (x, y)'s position within its chunk, in [0, ChunkSize).
func LocalCoords(x, y int) (lx, ly int) {
	return x % ChunkSize, y % ChunkSize
}

// ChunkIndex returns the flat index of chunk (cx, cy) in a row-major buffer
// of chunksWide chunks per row.
func ChunkIndex(cx, cy, chunksWide int) int {
	return cy*chunksWide + cx
}

// CheckerboardGroup returns which of the four checkerboard groups a chunk
// belongs to: bit 0 is chunkX&1, bit 1 is chunkY&1.
func CheckerboardGroup(cx, cy int) int {
	return (cx & 1) | ((cy & 1) << 1)
}

// CellToWorld converts a cell-space position into world coordinates. Cell
// space has its origin top-left with Y increasing downward; world space is
// centered on the grid with Y increasing upward, each cell CellToWorldScale
// units wide.
func CellToWorld(x, y int, width, height int) (wx, wy float64) {
	halfW := float64(width) * CellToWorldScale / 2
	halfH := float64(height) * CellToWorldScale / 2
	wx = float64(x)*CellToWorldScale - halfW
	wy = halfH - float64(y)*CellToWorldScale
	return
}

// WorldToCell converts a world-space position back into cell coordinates.
// The result is not clamped to the grid; callers should check InBounds.
func WorldToCell(wx, wy float64, width, height int) (x, y int) {
	halfW := float64(width) * CellToWorldScale / 2
	halfH := float64(height) * CellToWorldScale / 2
	x = int((wx + halfW) / CellToWorldScale)
	y = int((halfH - wy) / CellToWorldScale)
	return
}

// WorldToCellF is WorldToCell without truncation to an integer cell,
// returning continuous cell-space coordinates. The cluster inverse
// mapping needs the cluster's center of mass expressed as a continuous
// cell-space point, not a snapped-to-grid cell index.
func WorldToCellF(wx, wy float64, width, height int) (x, y float64) {
	halfW := float64(width) * CellToWorldScale / 2
	halfH := float64(height) * CellToWorldScale / 2
	x = (wx + halfW) / CellToWorldScale
	y = (halfH - wy) / CellToWorldScale
	return
}

// SnapToGrid rounds n down to the nearest multiple of 8, the belt/lift
// block alignment.
func SnapToGrid(n int) int {
	return n &^ 7
}

// InBounds reports whether (x, y) lies within a width x height grid.
func InBounds(x, y, width, height int) bool {
	return x >= 0 && y >= 0 && x < width && y < height
}

// Hash produces a deterministic pseudo-random value from a cell position
// and the current frame. The kernel uses this instead of a thread-local
// RNG so checkerboard-parallel execution stays reproducible.
func Hash(x, y int, frame uint32) uint32 {
	h := uint32(x)*374761393 + uint32(y)*668265263 + frame*2246822519
	h = (h ^ (h >> 15)) * 2246822519
	h = h ^ (h >> 13)
	return h
}

// PositionHash is Hash with frame fixed at 0: a per-position value stable
// across frames, used for slide-resistance "holding" so a given grain of
// powder consistently holds or slides rather than flickering frame to
// frame.
func PositionHash(x, y int) uint32 {
	return Hash(x, y, 0)
}
