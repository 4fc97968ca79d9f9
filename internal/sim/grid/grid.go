package grid

import "fmt"

// Cell is a floor-local tile coordinate. Floors are pure 2D tilemaps; the
// floor itself is identified separately, so two cells on different floors
// may compare equal.
type Cell struct {
	X int
	Z int
}

func (c Cell) Add(dx, dz int) Cell { return Cell{X: c.X + dx, Z: c.Z + dz} }

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Z) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Manhattan is the walk distance on a 4-connected tilemap.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Z-b.Z)
}

// Chebyshev is the walk distance on an 8-connected tilemap.
func Chebyshev(a, b Cell) int {
	dx := abs(a.X - b.X)
	dz := abs(a.Z - b.Z)
	if dx > dz {
		return dx
	}
	return dz
}

// Less orders cells by X then Z (deterministic tie-break for sorted iteration).
func Less(a, b Cell) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Z < b.Z
}
