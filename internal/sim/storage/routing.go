package storage

import (
	"sort"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
)

// Routing queries are stateless reads over a floor's lift-port index. All of
// them tolerate a nil or empty floor state and return empty results rather
// than failing.

// ReadyPorts returns the floor's lift ports whose bound unit is active and
// whose output cell is free, in registration order.
func ReadyPorts(fs *FloorState) []*LiftPort {
	if fs == nil {
		return nil
	}
	var out []*LiftPort
	for _, p := range fs.LiftPorts() {
		t := p.Binding().Target()
		if t == nil || !targetActive(t) {
			continue
		}
		if !p.CanPlace() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CanMoveItem reports whether the port's bound unit holds the stack.
func CanMoveItem(p *LiftPort, st *Stack) bool {
	if p == nil || st == nil {
		return false
	}
	t := p.Binding().Target()
	if t == nil {
		return false
	}
	for _, have := range t.StoredItems() {
		if have == st || have.ID == st.ID {
			return true
		}
	}
	return false
}

// CanMoveFromCell is the cell-based variant: true when the port's bound
// unit occupies the given cell.
func CanMoveFromCell(p *LiftPort, floorID string, cell grid.Cell) bool {
	if p == nil {
		return false
	}
	t := p.Binding().Target()
	if t == nil {
		return false
	}
	f, c := t.Position()
	return f == floorID && c == cell
}

// PortCost pairs a port with its routing cost for a given trip.
type PortCost struct {
	Port *LiftPort
	Cost float64
}

// OrderByPathCost orders ports ascending by cost(from, port) +
// cost(port, to). The sort is stable, so equal costs keep the input
// (registration) order. Costs come from the host path coster with a
// Manhattan fallback.
func OrderByPathCost(pc PathCoster, ports []*LiftPort, from, to grid.Cell) []PortCost {
	out := make([]PortCost, 0, len(ports))
	for _, p := range ports {
		c := pathCost(pc, p.FloorID, from, p.Cell) + pathCost(pc, p.FloorID, p.Cell, to)
		out = append(out, PortCost{Port: p, Cost: c})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost < out[j].Cost })
	return out
}

// ClosestEligiblePort returns the cheapest ready port that can move the
// stack at a cost below maxCost, or nil. maxCost <= 0 disables the cutoff.
func ClosestEligiblePort(pc PathCoster, fs *FloorState, from, to grid.Cell, st *Stack, maxCost float64) *LiftPort {
	for _, pr := range OrderByPathCost(pc, ReadyPorts(fs), from, to) {
		if maxCost > 0 && pr.Cost >= maxCost {
			// Ordering is non-decreasing; nothing further can qualify.
			return nil
		}
		if CanMoveItem(pr.Port, st) {
			return pr.Port
		}
	}
	return nil
}
