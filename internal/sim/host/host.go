// Package host provides in-memory implementations of the host seams the
// storage sim consumes: a per-floor cell item grid, a power grid and a path
// coster. The real game engine supplies its own; these back the standalone
// server and tests.
package host

import (
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/storage"
)

// Grid is a cell item index with at most one stack per cell.
type Grid struct {
	floors map[string]map[grid.Cell]*storage.Stack
}

func NewGrid() *Grid {
	return &Grid{floors: map[string]map[grid.Cell]*storage.Stack{}}
}

func (g *Grid) StackAt(floorID string, cell grid.Cell) *storage.Stack {
	return g.floors[floorID][cell]
}

func (g *Grid) Place(floorID string, cell grid.Cell, st *storage.Stack) bool {
	if st == nil {
		return false
	}
	f := g.floors[floorID]
	if f == nil {
		f = map[grid.Cell]*storage.Stack{}
		g.floors[floorID] = f
	}
	if f[cell] != nil {
		return false
	}
	f[cell] = st
	return true
}

func (g *Grid) Remove(floorID string, cell grid.Cell) *storage.Stack {
	f := g.floors[floorID]
	st := f[cell]
	if st != nil {
		delete(f, cell)
	}
	return st
}

// Power marks entities unpowered by id; everything else is powered.
type Power struct {
	down map[string]bool
}

func NewPower() *Power {
	return &Power{down: map[string]bool{}}
}

func (p *Power) SetPowered(entityID string, on bool) {
	if on {
		delete(p.down, entityID)
	} else {
		p.down[entityID] = true
	}
}

func (p *Power) IsPowered(entityID string) bool {
	return !p.down[entityID]
}

// ManhattanPaths is the fallback path coster: plain walk distance with no
// traversal constraints.
type ManhattanPaths struct{}

func (ManhattanPaths) Cost(_ string, from, to grid.Cell) (float64, bool) {
	return float64(grid.Manhattan(from, to)), true
}
