package storage

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/settings"
)

// Deps bundles the host collaborators shared by every component the
// registry creates. Any field may be nil; nil collaborators degrade to safe
// defaults (always powered, no audit, Manhattan path costs).
type Deps struct {
	Cells CellItems
	Power PowerGrid
	Paths PathCoster
	Audit AuditLogger
	Ticks TickLogger
	IDs   IDSource
	Clock func() uint64

	// Tune is filled in by the registry for components it creates.
	Tune *settings.Settings
}

// Ticker is anything the registry advances once per world tick, in
// registration order.
type Ticker interface {
	Tick(now uint64)
}

// Registry is the world-wide index: floor-id to floor state (created lazily,
// never removed), plus the flat de-duplicated list of all storage units. It
// is constructed once at world load and passed by reference to everything
// that needs it; there is no package-global instance.
type Registry struct {
	tune *settings.Settings
	deps Deps

	floors     map[string]*FloorState
	floorOrder []string

	units []*Unit

	tickers []Ticker
	ports   int
	lifts   []*LiftPort
	proxies []*Proxy

	tick    atomic.Uint64
	nextNum atomic.Uint64
}

func NewRegistry(tune *settings.Settings, deps Deps) *Registry {
	if tune == nil {
		d := settings.Defaults()
		tune = &d
	}
	r := &Registry{
		tune:   tune,
		deps:   deps,
		floors: map[string]*FloorState{},
	}
	if r.deps.IDs == nil {
		r.deps.IDs = r
	}
	if r.deps.Clock == nil {
		r.deps.Clock = r.CurrentTick
	}
	return r
}

func (r *Registry) Settings() *settings.Settings { return r.tune }

func (r *Registry) CurrentTick() uint64 { return r.tick.Load() }

// NextID mints a process-unique entity id with the given prefix.
func (r *Registry) NextID(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, r.nextNum.Add(1))
}

// Floor returns the state for a floor id, creating it on first access.
// Created floors live for the life of the registry.
func (r *Registry) Floor(id string) *FloorState {
	if fs, ok := r.floors[id]; ok {
		return fs
	}
	fs := NewFloorState(id)
	r.floors[id] = fs
	r.floorOrder = append(r.floorOrder, id)
	return fs
}

// FloorIfPresent returns the floor state without creating it.
func (r *Registry) FloorIfPresent(id string) *FloorState {
	return r.floors[id]
}

// FloorIDs lists known floors in creation order.
func (r *Registry) FloorIDs() []string {
	out := make([]string, len(r.floorOrder))
	copy(out, r.floorOrder)
	return out
}

// RegisterUnit adds a unit to the world-wide list, de-duplicating by
// identity. Redundant registration (e.g. on floor reload) is a no-op.
func (r *Registry) RegisterUnit(u *Unit) {
	if u == nil {
		return
	}
	for _, have := range r.units {
		if have == u || have.ID == u.ID {
			return
		}
	}
	r.units = append(r.units, u)
	if u.Refrigerated {
		r.Floor(u.FloorID).RegisterRefrigeratedUnit(u)
	}
	writeAudit(r.deps.Audit, AuditEntry{
		Tick: r.CurrentTick(), Kind: AuditUnitRegister,
		Floor: u.FloorID, Cell: u.Cell, Entity: u.ID,
	})
}

// DeregisterUnit removes a unit from the world-wide list and its floor
// indexes. Removing an unknown unit is a no-op.
func (r *Registry) DeregisterUnit(u *Unit) {
	if u == nil {
		return
	}
	for i, have := range r.units {
		if have == u || have.ID == u.ID {
			r.units = append(r.units[:i], r.units[i+1:]...)
			if fs := r.FloorIfPresent(u.FloorID); fs != nil {
				fs.DeregisterRefrigeratedUnit(u)
			}
			writeAudit(r.deps.Audit, AuditEntry{
				Tick: r.CurrentTick(), Kind: AuditUnitRemove,
				Floor: u.FloorID, Cell: u.Cell, Entity: u.ID,
			})
			return
		}
	}
}

// Units returns the world-wide unit list (copy, registration order).
func (r *Registry) Units() []*Unit {
	out := make([]*Unit, len(r.units))
	copy(out, r.units)
	return out
}

func (r *Registry) UnitByID(id string) *Unit {
	for _, u := range r.units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// AddTicker registers a per-tick callback. Duplicate registration is a
// no-op; callbacks run in registration order.
func (r *Registry) AddTicker(t Ticker) {
	if t == nil {
		return
	}
	for _, have := range r.tickers {
		if have == t {
			return
		}
	}
	r.tickers = append(r.tickers, t)
}

func (r *Registry) RemoveTicker(t Ticker) {
	for i, have := range r.tickers {
		if have == t {
			r.tickers = append(r.tickers[:i], r.tickers[i+1:]...)
			return
		}
	}
}

// Tick advances the world one tick: all registered callbacks run
// synchronously, in registration order, to completion.
func (r *Registry) Tick() {
	start := time.Now()
	now := r.tick.Add(1)
	for _, t := range r.tickers {
		t.Tick(now)
	}
	if r.deps.Ticks != nil {
		queued := 0
		for _, p := range r.lifts {
			queued += p.QueueLen()
		}
		_ = r.deps.Ticks.WriteTick(TickLogEntry{
			Tick:        now,
			Floors:      len(r.floors),
			Units:       len(r.units),
			Ports:       r.ports,
			QueuedItems: queued,
			DurationUS:  time.Since(start).Microseconds(),
		})
	}
}

// NewUnit creates a unit wired to this registry's settings and power grid,
// registers it, and returns it. An empty ID is filled in.
func (r *Registry) NewUnit(cfg UnitConfig) *Unit {
	if cfg.ID == "" {
		cfg.ID = r.NextID("unit_")
	}
	u := NewUnit(cfg, r.tune, r.deps.Power)
	r.RegisterUnit(u)
	return u
}

// NewPort creates a basic I/O port, applying default thresholds from
// settings when the config leaves them zero, and schedules its periodic
// refresh.
func (r *Registry) NewPort(cfg PortConfig) *Port {
	if cfg.ID == "" {
		cfg.ID = r.NextID("port_")
	}
	r.applyThresholdDefaults(&cfg)
	p := NewPort(cfg, r.portDeps())
	r.Floor(cfg.Floor)
	r.AddTicker(p)
	r.ports++
	return p
}

// NewLiftPort creates a queued output port, spawns it into its floor's cell
// index, and schedules it. Returns nil if the cell is already claimed.
func (r *Registry) NewLiftPort(cfg PortConfig) *LiftPort {
	if cfg.ID == "" {
		cfg.ID = r.NextID("lift_")
	}
	r.applyThresholdDefaults(&cfg)
	p := NewLiftPort(cfg, r.portDeps())
	if !p.Spawn(r.Floor(cfg.Floor)) {
		return nil
	}
	r.AddTicker(p)
	r.ports++
	r.lifts = append(r.lifts, p)
	return p
}

// NewProxy creates a cross-floor proxy wired to this registry's audit sink.
func (r *Registry) NewProxy(cfg ProxyConfig) *Proxy {
	if cfg.ID == "" {
		cfg.ID = r.NextID("proxy_")
	}
	x := NewProxy(cfg, r.deps.Audit)
	x.binding.clock = r.deps.Clock
	r.Floor(cfg.Floor)
	for _, have := range r.proxies {
		if have.ID == x.ID {
			return have
		}
	}
	r.proxies = append(r.proxies, x)
	return x
}

// PortCount reports how many ports (basic and lift) are currently ticking.
func (r *Registry) PortCount() int { return r.ports }

// Proxies returns the registered cross-floor proxies (copy).
func (r *Registry) Proxies() []*Proxy {
	out := make([]*Proxy, len(r.proxies))
	copy(out, r.proxies)
	return out
}

// RemoveLiftPort despawns a lift port and stops ticking it.
func (r *Registry) RemoveLiftPort(p *LiftPort) {
	if p == nil {
		return
	}
	p.Despawn()
	r.RemoveTicker(p)
	for i, have := range r.lifts {
		if have == p {
			r.lifts = append(r.lifts[:i], r.lifts[i+1:]...)
			r.ports--
			return
		}
	}
}

// ItemReachableVia answers the host's reachability override: is the item
// effectively reachable from this floor through some ready lift port.
func (r *Registry) ItemReachableVia(floorID string, from grid.Cell, st *Stack) bool {
	fs := r.FloorIfPresent(floorID)
	for _, p := range ReadyPorts(fs) {
		if CanMoveItem(p, st) {
			return true
		}
	}
	return false
}

// Close drops all indexes. The registry must not be used afterwards; this
// is the world-unload teardown.
func (r *Registry) Close() {
	r.floors = map[string]*FloorState{}
	r.floorOrder = nil
	r.units = nil
	r.tickers = nil
	r.lifts = nil
	r.proxies = nil
	r.ports = 0
}

func (r *Registry) applyThresholdDefaults(cfg *PortConfig) {
	if !cfg.Min.Enabled && cfg.Min.Value == 0 && r.tune.DefaultOutputMin > 0 {
		cfg.Min = Threshold{Enabled: true, Value: r.tune.DefaultOutputMin}
	}
	if !cfg.Max.Enabled && cfg.Max.Value == 0 && r.tune.DefaultOutputMax > 0 {
		cfg.Max = Threshold{Enabled: true, Value: r.tune.DefaultOutputMax}
	}
}

func (r *Registry) portDeps() Deps {
	d := r.deps
	d.Tune = r.tune
	return d
}
