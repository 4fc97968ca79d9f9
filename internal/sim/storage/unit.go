package storage

import (
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/settings"
)

// Unit is a storage container: an insertion-ordered list of stacks, a
// capacity limit counted in stacks, and an acceptance policy. Units never
// throw; gameplay rejections are boolean.
type Unit struct {
	ID      string
	FloorID string
	Cell    grid.Cell

	CapacityStacks int
	Policy         AcceptPolicy

	// PowerRequired gates acceptance on the power grid.
	PowerRequired bool
	// Refrigerated units draw extra power per stored stack and register in
	// their floor's refrigerated index.
	Refrigerated bool

	stacks []*Stack

	// linkedBy tracks binding owners currently pointing here. Bookkeeping
	// only; single-slot bindings mean fan-out is not acted on yet.
	linkedBy []string

	tune  *settings.Settings
	power PowerGrid
}

type UnitConfig struct {
	ID             string
	Floor          string
	Cell           grid.Cell
	CapacityStacks int
	Policy         AcceptPolicy
	PowerRequired  bool
	Refrigerated   bool
}

func NewUnit(cfg UnitConfig, tune *settings.Settings, power PowerGrid) *Unit {
	if cfg.CapacityStacks <= 0 {
		cfg.CapacityStacks = 1
	}
	return &Unit{
		ID:             cfg.ID,
		FloorID:        cfg.Floor,
		Cell:           cfg.Cell,
		CapacityStacks: cfg.CapacityStacks,
		Policy:         cfg.Policy,
		PowerRequired:  cfg.PowerRequired,
		Refrigerated:   cfg.Refrigerated,
		tune:           tune,
		power:          power,
	}
}

func (u *Unit) EntityID() string { return u.ID }

func (u *Unit) Position() (string, grid.Cell) { return u.FloorID, u.Cell }

// StoredItems returns the stacks in insertion order. The slice is a copy;
// the stacks are live.
func (u *Unit) StoredItems() []*Stack {
	out := make([]*Stack, len(u.stacks))
	copy(out, u.stacks)
	return out
}

func (u *Unit) StoredItemsCount() int { return len(u.stacks) }

// Capacity returns the stack limit. A global override from settings wins
// over the per-unit value when enabled.
func (u *Unit) Capacity() int {
	if u.tune != nil && u.tune.CapacityOverride.Enabled {
		return u.tune.CapacityOverride.Stacks
	}
	return u.CapacityStacks
}

// Active reports power-readiness. Units that don't need power are always
// active; a nil grid counts as powered.
func (u *Unit) Active() bool {
	if !u.PowerRequired {
		return true
	}
	return u.power == nil || u.power.IsPowered(u.ID)
}

func (u *Unit) CanAccept(item string) bool {
	if !u.Policy.Accepts(item) {
		return false
	}
	if !u.Active() {
		return false
	}
	if len(u.stacks) < u.Capacity() {
		return true
	}
	// Full by stack count, but an existing stack of the same kind can still
	// absorb a merge.
	for _, st := range u.stacks {
		if st.Item == item {
			return true
		}
	}
	return false
}

// HandleNewItem inserts a stack, merging into the first stack of the same
// kind when one exists. Re-inserting a stack already stored is a no-op.
func (u *Unit) HandleNewItem(st *Stack) {
	if st == nil || st.Count <= 0 {
		return
	}
	for _, have := range u.stacks {
		if have == st || have.ID == st.ID {
			return
		}
	}
	for _, have := range u.stacks {
		if have.CanMergeWith(st) {
			have.Count += st.Count
			return
		}
	}
	u.stacks = append(u.stacks, st)
}

// HandleMoveItem removes a stack by identity. Removing an absent stack is a
// no-op: two callers may race to clear the same stack within one tick.
func (u *Unit) HandleMoveItem(st *Stack) {
	if st == nil {
		return
	}
	for i, have := range u.stacks {
		if have == st || have.ID == st.ID {
			u.stacks = append(u.stacks[:i], u.stacks[i+1:]...)
			return
		}
	}
}

// OutputItem removes and releases a stored stack for placement elsewhere.
// It reports false when the stack is not stored here.
func (u *Unit) OutputItem(st *Stack) bool {
	if st == nil {
		return false
	}
	for i, have := range u.stacks {
		if have == st || have.ID == st.ID {
			u.stacks = append(u.stacks[:i], u.stacks[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports stack membership by identity.
func (u *Unit) Contains(st *Stack) bool {
	if st == nil {
		return false
	}
	for _, have := range u.stacks {
		if have == st || have.ID == st.ID {
			return true
		}
	}
	return false
}

// ExtraPowerDraw is the refrigeration surcharge in watts, proportional to
// stored stack count. Consumed by the host's power accounting.
func (u *Unit) ExtraPowerDraw() float64 {
	if !u.Refrigerated || u.tune == nil {
		return 0
	}
	return u.tune.FridgePowerPerStackW * float64(len(u.stacks))
}

func (u *Unit) portLinked(ownerID string) {
	for _, id := range u.linkedBy {
		if id == ownerID {
			return
		}
	}
	u.linkedBy = append(u.linkedBy, ownerID)
}

func (u *Unit) portUnlinked(ownerID string) {
	for i, id := range u.linkedBy {
		if id == ownerID {
			u.linkedBy = append(u.linkedBy[:i], u.linkedBy[i+1:]...)
			return
		}
	}
}

// LinkedBy lists binding owners currently targeting this unit.
func (u *Unit) LinkedBy() []string {
	out := make([]string, len(u.linkedBy))
	copy(out, u.linkedBy)
	return out
}
