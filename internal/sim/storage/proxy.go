package storage

import "github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"

// Proxy is a structure that holds no items itself: every storage operation
// forwards through its binding to a remote unit, while Position reports the
// proxy's own floor and cell. Floor-local decision logic can therefore
// treat remote contents as present at the proxy. With no target, the proxy
// behaves like an empty, non-accepting container.
type Proxy struct {
	ID      string
	FloorID string
	Cell    grid.Cell

	binding *Binding
}

type ProxyConfig struct {
	ID    string
	Floor string
	Cell  grid.Cell
}

func NewProxy(cfg ProxyConfig, audit AuditLogger) *Proxy {
	return &Proxy{
		ID:      cfg.ID,
		FloorID: cfg.Floor,
		Cell:    cfg.Cell,
		binding: NewBinding(cfg.ID, audit),
	}
}

func (x *Proxy) EntityID() string { return x.ID }

func (x *Proxy) Binding() *Binding { return x.binding }

func (x *Proxy) Link(candidate any) bool { return x.binding.SetTarget(candidate) }
func (x *Proxy) Unlink()                 { x.binding.SetTarget(nil) }

// Position is the proxy's own location, not the remote unit's.
func (x *Proxy) Position() (string, grid.Cell) { return x.FloorID, x.Cell }

func (x *Proxy) StoredItems() []*Stack {
	t := x.binding.Target()
	if t == nil {
		return nil
	}
	return t.StoredItems()
}

func (x *Proxy) StoredItemsCount() int {
	t := x.binding.Target()
	if t == nil {
		return 0
	}
	return t.StoredItemsCount()
}

func (x *Proxy) CanAccept(item string) bool {
	t := x.binding.Target()
	if t == nil || !targetActive(t) {
		return false
	}
	return t.CanAccept(item)
}

func (x *Proxy) HandleNewItem(st *Stack) {
	if t := x.binding.Target(); t != nil {
		t.HandleNewItem(st)
	}
}

func (x *Proxy) HandleMoveItem(st *Stack) {
	if t := x.binding.Target(); t != nil {
		t.HandleMoveItem(st)
	}
}

func (x *Proxy) OutputItem(st *Stack) bool {
	t := x.binding.Target()
	if t == nil {
		return false
	}
	return t.OutputItem(st)
}

func (x *Proxy) Capacity() int {
	t := x.binding.Target()
	if t == nil {
		return 0
	}
	return t.Capacity()
}

// Active mirrors the remote unit's power state; an unbound proxy is
// inactive.
func (x *Proxy) Active() bool {
	return targetActive(x.binding.Target())
}
