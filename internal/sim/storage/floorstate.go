package storage

import "github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"

// Registrant identifies a structure participating in a per-cell index.
type Registrant interface {
	RegistrantID() string
}

// ItemHider hides ground items at its registered cells while its flag is on.
type ItemHider interface {
	Registrant
	HidesItems() bool
}

// OutputForbidder blocks port output at its registered cells.
type OutputForbidder interface {
	Registrant
	ForbidsOutput() bool
}

// InputForbidder blocks pawn input at its registered cells.
type InputForbidder interface {
	Registrant
	ForbidsInput() bool
}

// MenuHider suppresses cell menus over its occupied footprint.
type MenuHider interface {
	Registrant
	HidesMenus() bool
	Footprint() []grid.Cell
}

// FloorState holds the per-floor indexes: multi-registrant cell flags (the
// effective predicate is the OR of all active registrants), the lift-port
// cell index, and the refrigerated unit list. All register/deregister pairs
// are idempotent; duplicate registration is a safe no-op because spawn
// ordering across floors is not guaranteed.
type FloorState struct {
	ID string

	hideItems map[grid.Cell][]ItemHider
	forbidOut map[grid.Cell][]OutputForbidder
	forbidIn  map[grid.Cell][]InputForbidder

	menuHiders []MenuHider

	lifts     map[grid.Cell]*LiftPort
	liftOrder []*LiftPort

	fridges []*Unit

	placedTotals map[string]uint64
	placedCount  uint64
}

func NewFloorState(id string) *FloorState {
	return &FloorState{
		ID:           id,
		hideItems:    map[grid.Cell][]ItemHider{},
		forbidOut:    map[grid.Cell][]OutputForbidder{},
		forbidIn:     map[grid.Cell][]InputForbidder{},
		lifts:        map[grid.Cell]*LiftPort{},
		placedTotals: map[string]uint64{},
	}
}

func (fs *FloorState) RegisterItemHider(cell grid.Cell, r ItemHider) {
	if r == nil {
		return
	}
	for _, have := range fs.hideItems[cell] {
		if have.RegistrantID() == r.RegistrantID() {
			return
		}
	}
	fs.hideItems[cell] = append(fs.hideItems[cell], r)
}

func (fs *FloorState) DeregisterItemHider(cell grid.Cell, r ItemHider) {
	if r == nil {
		return
	}
	fs.hideItems[cell] = dropRegistrant(fs.hideItems[cell], r.RegistrantID())
	if len(fs.hideItems[cell]) == 0 {
		delete(fs.hideItems, cell)
	}
}

// ShouldHideItemsAt is true if any active registrant at the cell hides items.
func (fs *FloorState) ShouldHideItemsAt(cell grid.Cell) bool {
	for _, r := range fs.hideItems[cell] {
		if r.HidesItems() {
			return true
		}
	}
	return false
}

func (fs *FloorState) RegisterOutputForbidder(cell grid.Cell, r OutputForbidder) {
	if r == nil {
		return
	}
	for _, have := range fs.forbidOut[cell] {
		if have.RegistrantID() == r.RegistrantID() {
			return
		}
	}
	fs.forbidOut[cell] = append(fs.forbidOut[cell], r)
}

func (fs *FloorState) DeregisterOutputForbidder(cell grid.Cell, r OutputForbidder) {
	if r == nil {
		return
	}
	fs.forbidOut[cell] = dropRegistrant(fs.forbidOut[cell], r.RegistrantID())
	if len(fs.forbidOut[cell]) == 0 {
		delete(fs.forbidOut, cell)
	}
}

func (fs *FloorState) ForbidOutputAt(cell grid.Cell) bool {
	for _, r := range fs.forbidOut[cell] {
		if r.ForbidsOutput() {
			return true
		}
	}
	return false
}

func (fs *FloorState) RegisterInputForbidder(cell grid.Cell, r InputForbidder) {
	if r == nil {
		return
	}
	for _, have := range fs.forbidIn[cell] {
		if have.RegistrantID() == r.RegistrantID() {
			return
		}
	}
	fs.forbidIn[cell] = append(fs.forbidIn[cell], r)
}

func (fs *FloorState) DeregisterInputForbidder(cell grid.Cell, r InputForbidder) {
	if r == nil {
		return
	}
	fs.forbidIn[cell] = dropRegistrant(fs.forbidIn[cell], r.RegistrantID())
	if len(fs.forbidIn[cell]) == 0 {
		delete(fs.forbidIn, cell)
	}
}

func (fs *FloorState) ForbidInputAt(cell grid.Cell) bool {
	for _, r := range fs.forbidIn[cell] {
		if r.ForbidsInput() {
			return true
		}
	}
	return false
}

func (fs *FloorState) RegisterMenuHider(r MenuHider) {
	if r == nil {
		return
	}
	for _, have := range fs.menuHiders {
		if have.RegistrantID() == r.RegistrantID() {
			return
		}
	}
	fs.menuHiders = append(fs.menuHiders, r)
}

func (fs *FloorState) DeregisterMenuHider(r MenuHider) {
	if r == nil {
		return
	}
	for i, have := range fs.menuHiders {
		if have.RegistrantID() == r.RegistrantID() {
			fs.menuHiders = append(fs.menuHiders[:i], fs.menuHiders[i+1:]...)
			return
		}
	}
}

// ShouldHideMenusAt is true if any registered hider's footprint covers the
// cell while its flag is on.
func (fs *FloorState) ShouldHideMenusAt(cell grid.Cell) bool {
	for _, r := range fs.menuHiders {
		if !r.HidesMenus() {
			continue
		}
		for _, c := range r.Footprint() {
			if c == cell {
				return true
			}
		}
	}
	return false
}

// RegisterLiftPort claims a cell for a port. One port per cell; the first
// registrant wins and a second registration at an occupied cell reports
// false without changing the index.
func (fs *FloorState) RegisterLiftPort(cell grid.Cell, p *LiftPort) bool {
	if p == nil {
		return false
	}
	if have, ok := fs.lifts[cell]; ok {
		return have == p
	}
	fs.lifts[cell] = p
	fs.liftOrder = append(fs.liftOrder, p)
	return true
}

// DeregisterLiftPort releases the cell if this port holds it. Idempotent.
func (fs *FloorState) DeregisterLiftPort(cell grid.Cell, p *LiftPort) {
	if have, ok := fs.lifts[cell]; !ok || have != p {
		return
	}
	delete(fs.lifts, cell)
	for i, have := range fs.liftOrder {
		if have == p {
			fs.liftOrder = append(fs.liftOrder[:i], fs.liftOrder[i+1:]...)
			return
		}
	}
}

func (fs *FloorState) LiftPortAt(cell grid.Cell) *LiftPort {
	return fs.lifts[cell]
}

// LiftPorts returns the ports in registration order. Routing relies on this
// order for stable tie-breaks.
func (fs *FloorState) LiftPorts() []*LiftPort {
	out := make([]*LiftPort, len(fs.liftOrder))
	copy(out, fs.liftOrder)
	return out
}

func (fs *FloorState) RegisterRefrigeratedUnit(u *Unit) {
	if u == nil {
		return
	}
	for _, have := range fs.fridges {
		if have == u || have.ID == u.ID {
			return
		}
	}
	fs.fridges = append(fs.fridges, u)
}

func (fs *FloorState) DeregisterRefrigeratedUnit(u *Unit) {
	if u == nil {
		return
	}
	for i, have := range fs.fridges {
		if have == u || have.ID == u.ID {
			fs.fridges = append(fs.fridges[:i], fs.fridges[i+1:]...)
			return
		}
	}
}

func (fs *FloorState) RefrigeratedUnits() []*Unit {
	out := make([]*Unit, len(fs.fridges))
	copy(out, fs.fridges)
	return out
}

// RefrigeratedPowerDraw sums the refrigeration surcharge for wealth and
// power accounting.
func (fs *FloorState) RefrigeratedPowerDraw() float64 {
	var sum float64
	for _, u := range fs.fridges {
		sum += u.ExtraPowerDraw()
	}
	return sum
}

// RefrigeratedStockCount totals the item counts held in refrigerated units
// (trade-goods query).
func (fs *FloorState) RefrigeratedStockCount() int {
	total := 0
	for _, u := range fs.fridges {
		for _, st := range u.StoredItems() {
			total += st.Count
		}
	}
	return total
}

func (fs *FloorState) notePlaced(item string, n int) {
	if n <= 0 {
		return
	}
	fs.placedTotals[item] += uint64(n)
	fs.placedCount += uint64(n)
}

// PlacedTotal is the running count of items placed by this floor's lift
// ports (production-counter bookkeeping).
func (fs *FloorState) PlacedTotal() uint64 { return fs.placedCount }

func (fs *FloorState) PlacedTotals() map[string]uint64 {
	out := make(map[string]uint64, len(fs.placedTotals))
	for k, v := range fs.placedTotals {
		out[k] = v
	}
	return out
}

func dropRegistrant[T Registrant](list []T, id string) []T {
	for i, have := range list {
		if have.RegistrantID() == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
