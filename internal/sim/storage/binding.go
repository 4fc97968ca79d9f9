package storage

import (
	"reflect"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
)

// Capability contracts a binding target must satisfy. They are checked
// individually and explicitly; nothing here relies on concrete types, so a
// proxy or a host-provided container qualifies the same way a Unit does.

type ItemSource interface {
	StoredItems() []*Stack
	OutputItem(st *Stack) bool
}

type ItemSink interface {
	CanAccept(item string) bool
	HandleNewItem(st *Stack)
	HandleMoveItem(st *Stack)
}

type Positioned interface {
	Position() (floorID string, cell grid.Cell)
}

type CapacityReporter interface {
	Capacity() int
	StoredItemsCount() int
}

// LinkTarget is the full storage contract: the four capabilities together.
type LinkTarget interface {
	ItemSource
	ItemSink
	Positioned
	CapacityReporter
}

// PoweredEntity is an optional capability. Targets that implement it can
// report themselves inactive, which suppresses transfers.
type PoweredEntity interface {
	Active() bool
}

// linkObserver is the optional unit-side notification hook. Reserved for
// multi-port fan-out; today it is bookkeeping only.
type linkObserver interface {
	portLinked(ownerID string)
	portUnlinked(ownerID string)
}

// Binding is a single-slot reference from a port or proxy to its target.
// Invalid candidates are coerced to nil, never an error.
type Binding struct {
	ownerID string
	target  LinkTarget
	audit   AuditLogger
	clock   func() uint64
}

func NewBinding(ownerID string, audit AuditLogger) *Binding {
	return &Binding{ownerID: ownerID, audit: audit}
}

func (b *Binding) OwnerID() string { return b.ownerID }

// Target returns the live target or nil. Callers must treat nil as "fall
// back to default local behavior".
func (b *Binding) Target() LinkTarget { return b.target }

// SetTarget validates the candidate against the capability contract and
// stores it; anything that fails validation stores nil. The previous target
// is always notified of the unlink. The result reports whether the candidate
// was accepted (an explicit nil is an accepted unlink).
func (b *Binding) SetTarget(candidate any) bool {
	if b.target != nil {
		if obs, ok := b.target.(linkObserver); ok {
			obs.portUnlinked(b.ownerID)
		}
	}
	prev := b.target
	b.target = validateTarget(candidate)
	if b.target != nil {
		if obs, ok := b.target.(linkObserver); ok {
			obs.portLinked(b.ownerID)
		}
	}

	switch {
	case b.target != nil:
		writeAudit(b.audit, AuditEntry{Tick: b.now(), Kind: AuditLink, Entity: b.ownerID, Target: targetID(b.target)})
	case candidate == nil:
		if prev != nil {
			writeAudit(b.audit, AuditEntry{Tick: b.now(), Kind: AuditUnlink, Entity: b.ownerID, Target: targetID(prev)})
		}
	default:
		writeAudit(b.audit, AuditEntry{Tick: b.now(), Kind: AuditLinkRejected, Entity: b.ownerID})
	}
	return b.target != nil || candidate == nil
}

func (b *Binding) now() uint64 {
	if b.clock == nil {
		return 0
	}
	return b.clock()
}

// validateTarget checks each capability membership explicitly. A candidate
// missing any of them is rejected, as is a typed nil pointer (a despawned
// entity handed over by a stale host reference).
func validateTarget(candidate any) LinkTarget {
	if candidate == nil {
		return nil
	}
	if rv := reflect.ValueOf(candidate); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	if _, ok := candidate.(ItemSource); !ok {
		return nil
	}
	if _, ok := candidate.(ItemSink); !ok {
		return nil
	}
	if _, ok := candidate.(Positioned); !ok {
		return nil
	}
	if _, ok := candidate.(CapacityReporter); !ok {
		return nil
	}
	t, ok := candidate.(LinkTarget)
	if !ok {
		return nil
	}
	return t
}

// targetActive treats targets without the PoweredEntity capability as
// always active.
func targetActive(t LinkTarget) bool {
	if t == nil {
		return false
	}
	if pe, ok := t.(PoweredEntity); ok {
		return pe.Active()
	}
	return true
}

func targetID(t LinkTarget) string {
	if t == nil {
		return ""
	}
	if id, ok := t.(interface{ EntityID() string }); ok {
		return id.EntityID()
	}
	return ""
}
