package storage

import (
	"testing"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
)

func TestPort_OutputMovesStoredStackToCell(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	u.HandleNewItem(&Stack{ID: "s1", Item: "wood", Count: 3})

	p := w.reg.NewPort(PortConfig{Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput})
	p.Link(u)
	p.Refresh()

	cur := w.grid.StackAt("GROUND", grid.Cell{X: 2})
	if cur == nil || cur.Item != "wood" || cur.Count != 3 {
		t.Fatalf("cell stack = %+v, want wood x3", cur)
	}
	if u.StoredItemsCount() != 0 {
		t.Fatalf("unit still holds %d stacks", u.StoredItemsCount())
	}
}

func TestPort_RefreshWithoutBindingIsNoop(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	u.HandleNewItem(&Stack{ID: "s1", Item: "wood", Count: 3})

	p := w.reg.NewPort(PortConfig{Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput})
	p.Link(u)
	p.Unlink()
	p.Refresh()

	if w.grid.StackAt("GROUND", grid.Cell{X: 2}) != nil {
		t.Fatalf("unlinked port moved an item")
	}
	if u.StoredItemsCount() != 1 {
		t.Fatalf("unit lost a stack through an unlinked port")
	}
}

func TestPort_UnpoweredSuppressesTransfer(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	u.HandleNewItem(&Stack{ID: "s1", Item: "wood", Count: 3})

	p := w.reg.NewPort(PortConfig{ID: "p1", Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput})
	p.Link(u)
	w.power.set("p1", false)
	p.Refresh()

	if w.grid.StackAt("GROUND", grid.Cell{X: 2}) != nil {
		t.Fatalf("unpowered port moved an item")
	}
	w.power.set("p1", true)
	p.NotifyPowerOn()
	if w.grid.StackAt("GROUND", grid.Cell{X: 2}) == nil {
		t.Fatalf("power-on refresh did not run")
	}
}

func TestPort_MinThresholdAccumulates(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	p := w.reg.NewPort(PortConfig{
		Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput,
		Min: Threshold{Enabled: true, Value: 5},
	})
	p.Link(u)

	u.HandleNewItem(&Stack{ID: "s1", Item: "wood", Count: 3})
	p.Refresh()
	if w.grid.StackAt("GROUND", grid.Cell{X: 2}) != nil {
		t.Fatalf("moved below the minimum")
	}
	if u.StoredItemsCount() != 1 {
		t.Fatalf("below-minimum stack should stay stored")
	}

	u.HandleNewItem(&Stack{ID: "s2", Item: "wood", Count: 4})
	p.Refresh()
	cur := w.grid.StackAt("GROUND", grid.Cell{X: 2})
	if cur == nil || cur.Count != 7 {
		t.Fatalf("cell stack = %+v, want wood x7 once the minimum is reachable", cur)
	}
}

func TestPort_MaxThresholdCapsAndSplitsBack(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	u.HandleNewItem(&Stack{ID: "s1", Item: "wood", Count: 9})

	p := w.reg.NewPort(PortConfig{
		Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput,
		Max: Threshold{Enabled: true, Value: 6},
	})
	p.Link(u)
	p.Refresh()

	cur := w.grid.StackAt("GROUND", grid.Cell{X: 2})
	if cur == nil || cur.Count != 6 {
		t.Fatalf("cell stack = %+v, want wood x6", cur)
	}
	stored := 0
	for _, st := range u.StoredItems() {
		stored += st.Count
	}
	if stored != 3 {
		t.Fatalf("unit holds %d, want the 3 above the maximum", stored)
	}
}

func TestPort_SplitBackOnOvercountedCell(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	p := w.reg.NewPort(PortConfig{
		Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput,
		Max: Threshold{Enabled: true, Value: 4},
	})
	p.Link(u)

	// A pawn dumped extra onto the work cell.
	w.grid.Place("GROUND", grid.Cell{X: 2}, &Stack{ID: "s1", Item: "wood", Count: 10})
	p.Refresh()

	cur := w.grid.StackAt("GROUND", grid.Cell{X: 2})
	if cur == nil || cur.Count != 4 {
		t.Fatalf("cell stack = %+v, want trimmed to 4", cur)
	}
	if got := u.StoredItemsCount(); got != 1 {
		t.Fatalf("excess not returned to unit: %d stacks", got)
	}
	if w.audit.count(AuditSplitBack) != 1 {
		t.Fatalf("split-back not audited")
	}
}

func TestPort_PushesBackFilteredOutStack(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	p := w.reg.NewPort(PortConfig{
		Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput,
		Filter: AllowOnly("steel"),
	})
	p.Link(u)

	w.grid.Place("GROUND", grid.Cell{X: 2}, &Stack{ID: "s1", Item: "wood", Count: 5})
	p.Refresh()

	if w.grid.StackAt("GROUND", grid.Cell{X: 2}) != nil {
		t.Fatalf("non-matching stack left on cell")
	}
	if !u.Contains(&Stack{ID: "s1"}) {
		t.Fatalf("pushed-back stack not stored")
	}
	if w.audit.count(AuditPushBack) != 1 {
		t.Fatalf("push-back not audited")
	}
}

func TestPort_InputPullsCellStackIntoUnit(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	p := w.reg.NewPort(PortConfig{Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeInput})
	p.Link(u)

	w.grid.Place("GROUND", grid.Cell{X: 2}, &Stack{ID: "s1", Item: "wood", Count: 5})
	p.Refresh()

	if w.grid.StackAt("GROUND", grid.Cell{X: 2}) != nil {
		t.Fatalf("cell not cleared")
	}
	if !u.Contains(&Stack{ID: "s1"}) {
		t.Fatalf("unit did not receive the stack")
	}
	if w.audit.count(AuditPullIn) != 1 {
		t.Fatalf("pull-in not audited")
	}
}

func TestPort_InputRespectsUnitPolicy(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10, Policy: AllowOnly("steel")})
	p := w.reg.NewPort(PortConfig{Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeInput})
	p.Link(u)

	w.grid.Place("GROUND", grid.Cell{X: 2}, &Stack{ID: "s1", Item: "wood", Count: 5})
	p.Refresh()

	if w.grid.StackAt("GROUND", grid.Cell{X: 2}) == nil {
		t.Fatalf("stack pulled past the unit policy")
	}
	if u.StoredItemsCount() != 0 {
		t.Fatalf("unit accepted a filtered item")
	}
}

func TestPort_SetModeTransitionRefreshes(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	p := w.reg.NewPort(PortConfig{Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput})
	p.Link(u)

	w.grid.Place("GROUND", grid.Cell{X: 2}, &Stack{ID: "s1", Item: "wood", Count: 5})

	p.SetMode(ModeOutput)
	if w.audit.count(AuditModeChange) != 0 {
		t.Fatalf("same-mode assignment should be a no-op")
	}

	p.SetMode(ModeInput)
	if w.audit.count(AuditModeChange) != 1 {
		t.Fatalf("mode change not audited")
	}
	if !u.Contains(&Stack{ID: "s1"}) {
		t.Fatalf("transition refresh did not pull the cell stack")
	}
}

func TestPort_TickHonorsRefreshCadence(t *testing.T) {
	w := newTestWorld()
	w.tune.PortRefreshTicks = 5
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	u.HandleNewItem(&Stack{ID: "s1", Item: "wood", Count: 2})

	p := w.reg.NewPort(PortConfig{Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput})
	p.Link(u)

	p.Tick(3)
	if w.grid.StackAt("GROUND", grid.Cell{X: 2}) != nil {
		t.Fatalf("refreshed off cadence")
	}
	p.Tick(5)
	if w.grid.StackAt("GROUND", grid.Cell{X: 2}) == nil {
		t.Fatalf("cadence tick did not refresh")
	}
}

func TestPort_ForbidOnPlacementFlagsCellStack(t *testing.T) {
	w := newTestWorld()
	w.tune.ForbidOnPlacement = true
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 10})
	u.HandleNewItem(&Stack{ID: "s1", Item: "wood", Count: 2})

	p := w.reg.NewPort(PortConfig{Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput})
	p.Link(u)
	p.Refresh()

	cur := w.grid.StackAt("GROUND", grid.Cell{X: 2})
	if cur == nil || !cur.Forbidden {
		t.Fatalf("placed stack not flagged forbidden: %+v", cur)
	}
}

func TestPort_RegistryDefaultThresholds(t *testing.T) {
	w := newTestWorld()
	w.tune.DefaultOutputMin = 2
	w.tune.DefaultOutputMax = 8

	p := w.reg.NewPort(PortConfig{Floor: "GROUND", Cell: grid.Cell{X: 2}, Mode: ModeOutput})
	if min := p.Min(); !min.Enabled || min.Value != 2 {
		t.Fatalf("min threshold = %+v", min)
	}
	if max := p.Max(); !max.Enabled || max.Value != 8 {
		t.Fatalf("max threshold = %+v", max)
	}

	// Explicit config wins over the defaults.
	q := w.reg.NewPort(PortConfig{
		Floor: "GROUND", Cell: grid.Cell{X: 3}, Mode: ModeOutput,
		Min: Threshold{Enabled: true, Value: 1},
		Max: Threshold{Enabled: true, Value: 4},
	})
	if q.Min().Value != 1 || q.Max().Value != 4 {
		t.Fatalf("explicit thresholds overridden: min=%+v max=%+v", q.Min(), q.Max())
	}
}
