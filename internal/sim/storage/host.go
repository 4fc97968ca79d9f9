package storage

import "github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"

// Host seams. The sim is single-threaded; implementations are called only
// from the tick loop and must not block.

// CellItems is the host's spatial item index: at most one stack per cell.
type CellItems interface {
	StackAt(floorID string, cell grid.Cell) *Stack
	// Place puts a stack at an empty cell. It reports false (and places
	// nothing) when the cell is occupied.
	Place(floorID string, cell grid.Cell, st *Stack) bool
	Remove(floorID string, cell grid.Cell) *Stack
}

// PowerGrid answers whether an entity currently has power. A nil grid means
// everything is powered.
type PowerGrid interface {
	IsPowered(entityID string) bool
}

// PathCoster reports the real traversal cost between two cells on a floor.
// ok=false means the host has no answer and callers fall back to Manhattan
// distance.
type PathCoster interface {
	Cost(floorID string, from, to grid.Cell) (cost float64, ok bool)
}

// IDSource mints stable entity ids. The registry provides one; ports use it
// when splitting stacks.
type IDSource interface {
	NextID(prefix string) string
}

func pathCost(pc PathCoster, floorID string, from, to grid.Cell) float64 {
	if pc != nil {
		if c, ok := pc.Cost(floorID, from, to); ok {
			return c
		}
	}
	return float64(grid.Manhattan(from, to))
}
