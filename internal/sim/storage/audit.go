package storage

import "github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"

// AuditEntry is one structured diagnostic event. Writing is best-effort;
// failures never affect sim state.
type AuditEntry struct {
	Tick   uint64    `json:"tick"`
	Kind   string    `json:"kind"`
	Floor  string    `json:"floor,omitempty"`
	Cell   grid.Cell `json:"cell,omitempty"`
	Entity string    `json:"entity,omitempty"`
	Target string    `json:"target,omitempty"`
	Item   string    `json:"item,omitempty"`
	Count  int       `json:"count,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Audit event kinds.
const (
	AuditLink          = "LINK"
	AuditUnlink        = "UNLINK"
	AuditLinkRejected  = "LINK_REJECTED"
	AuditModeChange    = "MODE"
	AuditPullIn        = "PULL_IN"
	AuditPullOut       = "PULL_OUT"
	AuditPushBack      = "PUSH_BACK"
	AuditSplitBack     = "SPLIT_BACK"
	AuditEnqueue       = "ENQUEUE"
	AuditPlace         = "PLACE"
	AuditPortCollision = "PORT_COLLISION"
	AuditUnitRegister  = "UNIT_REGISTER"
	AuditUnitRemove    = "UNIT_REMOVE"
)

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// TickLogEntry summarizes one registry tick.
type TickLogEntry struct {
	Tick        uint64 `json:"tick"`
	Floors      int    `json:"floors"`
	Units       int    `json:"units"`
	Ports       int    `json:"ports"`
	QueuedItems int    `json:"queued_items"`
	DurationUS  int64  `json:"duration_us"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

func writeAudit(l AuditLogger, e AuditEntry) {
	if l == nil {
		return
	}
	_ = l.WriteAudit(e)
}
