package storage

import (
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/settings"
)

// In-package host fakes. They mirror the contracts in host.go with just
// enough behavior for scenarios.

type memGrid struct {
	cells map[string]map[grid.Cell]*Stack
}

func newMemGrid() *memGrid {
	return &memGrid{cells: map[string]map[grid.Cell]*Stack{}}
}

func (g *memGrid) StackAt(floorID string, cell grid.Cell) *Stack {
	return g.cells[floorID][cell]
}

func (g *memGrid) Place(floorID string, cell grid.Cell, st *Stack) bool {
	if st == nil {
		return false
	}
	f := g.cells[floorID]
	if f == nil {
		f = map[grid.Cell]*Stack{}
		g.cells[floorID] = f
	}
	if f[cell] != nil {
		return false
	}
	f[cell] = st
	return true
}

func (g *memGrid) Remove(floorID string, cell grid.Cell) *Stack {
	st := g.cells[floorID][cell]
	if st != nil {
		delete(g.cells[floorID], cell)
	}
	return st
}

type memPower struct {
	down map[string]bool
}

func newMemPower() *memPower { return &memPower{down: map[string]bool{}} }

func (p *memPower) set(id string, on bool) {
	if on {
		delete(p.down, id)
	} else {
		p.down[id] = true
	}
}

func (p *memPower) IsPowered(id string) bool { return !p.down[id] }

type memAudit struct {
	entries []AuditEntry
}

func (a *memAudit) WriteAudit(e AuditEntry) error {
	a.entries = append(a.entries, e)
	return nil
}

func (a *memAudit) count(kind string) int {
	n := 0
	for _, e := range a.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type testWorld struct {
	reg   *Registry
	grid  *memGrid
	power *memPower
	audit *memAudit
	tune  *settings.Settings
}

func newTestWorld() *testWorld {
	tune := settings.Defaults()
	w := &testWorld{
		grid:  newMemGrid(),
		power: newMemPower(),
		audit: &memAudit{},
		tune:  &tune,
	}
	w.reg = NewRegistry(w.tune, Deps{
		Cells: w.grid,
		Power: w.power,
		Audit: w.audit,
	})
	return w
}

// flagBox is a registrant with toggleable flags for the floor-state indexes.
type flagBox struct {
	id        string
	hide      bool
	noOut     bool
	noIn      bool
	menus     bool
	footprint []grid.Cell
}

func (f *flagBox) RegistrantID() string    { return f.id }
func (f *flagBox) HidesItems() bool        { return f.hide }
func (f *flagBox) ForbidsOutput() bool     { return f.noOut }
func (f *flagBox) ForbidsInput() bool      { return f.noIn }
func (f *flagBox) HidesMenus() bool        { return f.menus }
func (f *flagBox) Footprint() []grid.Cell  { return f.footprint }
