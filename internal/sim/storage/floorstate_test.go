package storage

import (
	"testing"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
)

func TestFloorState_HideItemsIsOrOfRegistrants(t *testing.T) {
	fs := NewFloorState("GROUND")
	cell := grid.Cell{X: 1, Z: 1}
	r1 := &flagBox{id: "r1", hide: true}
	r2 := &flagBox{id: "r2", hide: false}

	fs.RegisterItemHider(cell, r1)
	fs.RegisterItemHider(cell, r2)
	if !fs.ShouldHideItemsAt(cell) {
		t.Fatalf("one active hider should hide the cell")
	}

	r1.hide = false
	if fs.ShouldHideItemsAt(cell) {
		t.Fatalf("no active hider, cell still hidden")
	}

	r2.hide = true
	if !fs.ShouldHideItemsAt(cell) {
		t.Fatalf("second registrant's flag ignored")
	}

	fs.DeregisterItemHider(cell, r2)
	if fs.ShouldHideItemsAt(cell) {
		t.Fatalf("deregistered hider still counted")
	}
}

func TestFloorState_RegisterIsIdempotent(t *testing.T) {
	fs := NewFloorState("GROUND")
	cell := grid.Cell{X: 1, Z: 1}
	r := &flagBox{id: "r1", hide: true, noOut: true, noIn: true}

	fs.RegisterItemHider(cell, r)
	fs.RegisterItemHider(cell, r)
	fs.RegisterOutputForbidder(cell, r)
	fs.RegisterOutputForbidder(cell, r)
	fs.RegisterInputForbidder(cell, r)
	fs.RegisterInputForbidder(cell, r)

	fs.DeregisterItemHider(cell, r)
	fs.DeregisterOutputForbidder(cell, r)
	fs.DeregisterInputForbidder(cell, r)

	if fs.ShouldHideItemsAt(cell) || fs.ForbidOutputAt(cell) || fs.ForbidInputAt(cell) {
		t.Fatalf("double registration left a stale entry")
	}
}

func TestFloorState_ForbidFlagsAreIndependent(t *testing.T) {
	fs := NewFloorState("GROUND")
	cell := grid.Cell{X: 2, Z: 3}
	r := &flagBox{id: "r1", noOut: true, noIn: false}

	fs.RegisterOutputForbidder(cell, r)
	fs.RegisterInputForbidder(cell, r)

	if !fs.ForbidOutputAt(cell) {
		t.Fatalf("output not forbidden")
	}
	if fs.ForbidInputAt(cell) {
		t.Fatalf("input forbidden without an active flag")
	}
	if fs.ForbidOutputAt(grid.Cell{X: 9, Z: 9}) {
		t.Fatalf("flag leaked to an unregistered cell")
	}
}

func TestFloorState_MenuHidingCoversFootprint(t *testing.T) {
	fs := NewFloorState("GROUND")
	r := &flagBox{
		id: "r1", menus: true,
		footprint: []grid.Cell{{X: 0, Z: 0}, {X: 1, Z: 0}},
	}
	fs.RegisterMenuHider(r)
	fs.RegisterMenuHider(r)

	if !fs.ShouldHideMenusAt(grid.Cell{X: 1, Z: 0}) {
		t.Fatalf("footprint cell not covered")
	}
	if fs.ShouldHideMenusAt(grid.Cell{X: 2, Z: 0}) {
		t.Fatalf("cell outside the footprint covered")
	}

	r.menus = false
	if fs.ShouldHideMenusAt(grid.Cell{X: 0, Z: 0}) {
		t.Fatalf("inactive hider still covering")
	}

	fs.DeregisterMenuHider(r)
	r.menus = true
	if fs.ShouldHideMenusAt(grid.Cell{X: 0, Z: 0}) {
		t.Fatalf("deregistered hider still covering")
	}
}

func TestFloorState_RefrigeratedIndex(t *testing.T) {
	w := newTestWorld()
	w.tune.FridgePowerPerStackW = 10

	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 5, Refrigerated: true})
	u.HandleNewItem(&Stack{ID: "s1", Item: "meat", Count: 30})
	u.HandleNewItem(&Stack{ID: "s2", Item: "fish", Count: 20})

	fs := w.reg.Floor("GROUND")
	if got := len(fs.RefrigeratedUnits()); got != 1 {
		t.Fatalf("fridge count = %d", got)
	}
	if got := fs.RefrigeratedPowerDraw(); got != 20 {
		t.Fatalf("power draw = %v, want 20", got)
	}
	if got := fs.RefrigeratedStockCount(); got != 50 {
		t.Fatalf("stock = %d, want 50", got)
	}

	w.reg.DeregisterUnit(u)
	if got := len(fs.RefrigeratedUnits()); got != 0 {
		t.Fatalf("fridge not dropped on deregistration")
	}
}
