package storage

import (
	"fmt"
	"sort"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/persistence/snapshot"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
)

// Snapshot captures the registry graph for save. Cell contents are the
// host's to persist; everything here is referenced by stable entity id.
func (r *Registry) Snapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header:   snapshot.Header{Version: snapshot.Version, Tick: r.CurrentTick()},
		Counters: snapshot.CountersV1{NextEntity: r.nextNum.Load()},
	}

	for _, id := range r.floorOrder {
		fs := r.floors[id]
		snap.Floors = append(snap.Floors, snapshot.FloorV1{
			ID:           id,
			PlacedTotals: fs.PlacedTotals(),
		})
	}

	for _, u := range r.units {
		uv := snapshot.UnitV1{
			ID:            u.ID,
			Floor:         u.FloorID,
			Cell:          [2]int{u.Cell.X, u.Cell.Z},
			Capacity:      u.CapacityStacks,
			AllowedItems:  policyItems(u.Policy),
			Priority:      u.Policy.Priority,
			PowerRequired: u.PowerRequired,
			Refrigerated:  u.Refrigerated,
		}
		for _, st := range u.stacks {
			uv.Stacks = append(uv.Stacks, stackV1(st))
		}
		snap.Units = append(snap.Units, uv)
	}

	for _, t := range r.tickers {
		switch p := t.(type) {
		case *LiftPort:
			pv := portV1(&p.Port, "lift")
			for _, st := range p.queue {
				pv.Queue = append(pv.Queue, stackV1(st))
			}
			snap.Ports = append(snap.Ports, pv)
		case *Port:
			snap.Ports = append(snap.Ports, portV1(p, "basic"))
		}
	}

	for _, x := range r.proxies {
		snap.Proxies = append(snap.Proxies, snapshot.ProxyV1{
			ID:         x.ID,
			Floor:      x.FloorID,
			Cell:       [2]int{x.Cell.X, x.Cell.Z},
			TargetUnit: targetID(x.binding.Target()),
		})
	}
	return snap
}

// Restore rebuilds the graph from a snapshot into this registry. It is
// idempotent with respect to already-registered entities: registration
// detects existing entries by identity instead of recreating them.
func (r *Registry) Restore(snap snapshot.SnapshotV1) error {
	if snap.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}

	for _, fv := range snap.Floors {
		fs := r.Floor(fv.ID)
		keys := make([]string, 0, len(fv.PlacedTotals))
		for k := range fv.PlacedTotals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			// notePlaced keeps the per-item and grand totals consistent.
			if already := fs.placedTotals[k]; fv.PlacedTotals[k] > already {
				fs.notePlaced(k, int(fv.PlacedTotals[k]-already))
			}
		}
	}

	for _, uv := range snap.Units {
		if r.UnitByID(uv.ID) != nil {
			continue
		}
		u := r.NewUnit(UnitConfig{
			ID:             uv.ID,
			Floor:          uv.Floor,
			Cell:           grid.Cell{X: uv.Cell[0], Z: uv.Cell[1]},
			CapacityStacks: uv.Capacity,
			Policy:         policyFromItems(uv.AllowedItems, uv.Priority),
			PowerRequired:  uv.PowerRequired,
			Refrigerated:   uv.Refrigerated,
		})
		// Append directly: restore must preserve stack identities exactly,
		// not merge them.
		for _, sv := range uv.Stacks {
			u.stacks = append(u.stacks, stackFromV1(sv))
		}
	}

	for _, pv := range snap.Ports {
		cfg := PortConfig{
			ID:     pv.ID,
			Floor:  pv.Floor,
			Cell:   grid.Cell{X: pv.Cell[0], Z: pv.Cell[1]},
			Filter: policyFromItems(pv.AllowedItems, pv.Priority),
			Min:    Threshold{Enabled: pv.MinEnabled, Value: pv.Min},
			Max:    Threshold{Enabled: pv.MaxEnabled, Value: pv.Max},
		}
		if pv.Mode == ModeInput.String() {
			cfg.Mode = ModeInput
		} else {
			cfg.Mode = ModeOutput
		}

		switch pv.Kind {
		case "lift":
			p := r.NewLiftPort(cfg)
			if p == nil {
				// Cell already claimed: this port was restored before.
				continue
			}
			// Factory defaulting must not rewrite saved thresholds: a port
			// saved with thresholds disabled comes back disabled.
			p.SetThresholds(cfg.Min, cfg.Max)
			for _, sv := range pv.Queue {
				p.queue = append(p.queue, stackFromV1(sv))
			}
			if u := r.UnitByID(pv.TargetUnit); u != nil {
				p.Link(u)
			}
		default:
			if r.hasTickerID(pv.ID) {
				continue
			}
			p := r.NewPort(cfg)
			p.SetThresholds(cfg.Min, cfg.Max)
			if u := r.UnitByID(pv.TargetUnit); u != nil {
				p.Link(u)
			}
		}
	}

	for _, xv := range snap.Proxies {
		x := r.NewProxy(ProxyConfig{
			ID:    xv.ID,
			Floor: xv.Floor,
			Cell:  grid.Cell{X: xv.Cell[0], Z: xv.Cell[1]},
		})
		if u := r.UnitByID(xv.TargetUnit); u != nil && x.binding.Target() == nil {
			x.Link(u)
		}
	}

	if snap.Counters.NextEntity > r.nextNum.Load() {
		r.nextNum.Store(snap.Counters.NextEntity)
	}
	if snap.Header.Tick > r.tick.Load() {
		r.tick.Store(snap.Header.Tick)
	}
	return nil
}

func (r *Registry) hasTickerID(id string) bool {
	for _, t := range r.tickers {
		switch p := t.(type) {
		case *LiftPort:
			if p.ID == id {
				return true
			}
		case *Port:
			if p.ID == id {
				return true
			}
		}
	}
	return false
}

func portV1(p *Port, kind string) snapshot.PortV1 {
	return snapshot.PortV1{
		ID:           p.ID,
		Kind:         kind,
		Floor:        p.FloorID,
		Cell:         [2]int{p.Cell.X, p.Cell.Z},
		Mode:         p.mode.String(),
		MinEnabled:   p.min.Enabled,
		Min:          p.min.Value,
		MaxEnabled:   p.max.Enabled,
		Max:          p.max.Value,
		AllowedItems: policyItems(p.Filter),
		Priority:     p.Filter.Priority,
		TargetUnit:   targetID(p.binding.Target()),
	}
}

func stackV1(st *Stack) snapshot.StackV1 {
	return snapshot.StackV1{
		ID:        st.ID,
		Item:      st.Item,
		Count:     st.Count,
		Forbidden: st.Forbidden,
		Reserved:  st.Reserved,
	}
}

func stackFromV1(sv snapshot.StackV1) *Stack {
	return &Stack{
		ID:        sv.ID,
		Item:      sv.Item,
		Count:     sv.Count,
		Forbidden: sv.Forbidden,
		Reserved:  sv.Reserved,
	}
}

func policyItems(p AcceptPolicy) []string {
	if p.Allowed == nil {
		return nil
	}
	items := make([]string, 0, len(p.Allowed))
	for it, ok := range p.Allowed {
		if ok {
			items = append(items, it)
		}
	}
	sort.Strings(items)
	return items
}

func policyFromItems(items []string, priority int) AcceptPolicy {
	if items == nil {
		return AcceptPolicy{Priority: priority}
	}
	p := AllowOnly(items...)
	p.Priority = priority
	return p
}
