package storage

import (
	"testing"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
)

// halfTarget implements only part of the capability contract.
type halfTarget struct{}

func (halfTarget) StoredItems() []*Stack    { return nil }
func (halfTarget) OutputItem(*Stack) bool   { return false }
func (halfTarget) CanAccept(string) bool    { return true }
func (halfTarget) HandleNewItem(*Stack)     {}
func (halfTarget) HandleMoveItem(*Stack)    {}
// No Position, no capacity queries.

func TestBinding_AcceptsFullContract(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 3})
	b := NewBinding("port_x", w.audit)

	if !b.SetTarget(u) {
		t.Fatalf("unit should be accepted")
	}
	if b.Target() == nil {
		t.Fatalf("target lost after accept")
	}
	if w.audit.count(AuditLink) != 1 {
		t.Fatalf("link not audited")
	}
}

func TestBinding_RejectsPartialContract(t *testing.T) {
	w := newTestWorld()
	b := NewBinding("port_x", w.audit)
	if b.SetTarget(halfTarget{}) {
		t.Fatalf("partial contract should be rejected")
	}
	if b.Target() != nil {
		t.Fatalf("rejected candidate must leave target nil")
	}
	if w.audit.count(AuditLinkRejected) != 1 {
		t.Fatalf("rejection not audited")
	}
}

func TestBinding_RejectsTypedNil(t *testing.T) {
	b := NewBinding("port_x", nil)
	var u *Unit
	if b.SetTarget(u) {
		t.Fatalf("typed nil should be rejected")
	}
	if b.Target() != nil {
		t.Fatalf("typed nil stored as target")
	}
}

func TestBinding_UnlinkNotifiesUnit(t *testing.T) {
	w := newTestWorld()
	u := w.reg.NewUnit(UnitConfig{Floor: "GROUND", CapacityStacks: 3})
	b := NewBinding("port_x", w.audit)

	b.SetTarget(u)
	if got := u.LinkedBy(); len(got) != 1 || got[0] != "port_x" {
		t.Fatalf("unit not notified of link: %v", got)
	}
	if !b.SetTarget(nil) {
		t.Fatalf("explicit unlink is an accepted change")
	}
	if b.Target() != nil {
		t.Fatalf("target should be nil after unlink")
	}
	if len(u.LinkedBy()) != 0 {
		t.Fatalf("unit not notified of unlink")
	}
}

func TestBinding_RetargetMovesNotification(t *testing.T) {
	w := newTestWorld()
	u1 := w.reg.NewUnit(UnitConfig{ID: "u1", Floor: "GROUND", CapacityStacks: 3})
	u2 := w.reg.NewUnit(UnitConfig{ID: "u2", Floor: "B1", Cell: grid.Cell{X: 5}, CapacityStacks: 3})
	b := NewBinding("port_x", nil)

	b.SetTarget(u1)
	b.SetTarget(u2)
	if len(u1.LinkedBy()) != 0 || len(u2.LinkedBy()) != 1 {
		t.Fatalf("retarget notifications wrong: u1=%v u2=%v", u1.LinkedBy(), u2.LinkedBy())
	}
	if f, _ := b.Target().Position(); f != "B1" {
		t.Fatalf("target should be u2")
	}
}
