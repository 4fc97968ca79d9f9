package storage

// LiftPort is the queued output-only port variant used for automated
// cross-floor routing. It never accepts pawn-placed input, holds a FIFO
// placement queue, and is indexed by cell in its floor state so routing
// queries can find it.
type LiftPort struct {
	Port

	queue []*Stack
	floor *FloorState
}

func NewLiftPort(cfg PortConfig, deps Deps) *LiftPort {
	cfg.Mode = ModeOutput
	return &LiftPort{Port: *NewPort(cfg, deps)}
}

// ForbidInput is always true: agents may take from the work cell but never
// drop into it.
func (p *LiftPort) ForbidInput() bool { return true }

// SetMode is a no-op: lift ports are output-only by construction.
func (p *LiftPort) SetMode(Mode) {}

// Spawn registers the port in the floor's cell index. It reports false when
// another port already occupies the cell; the first registrant wins and the
// collision is recorded (callers are not expected to collide).
func (p *LiftPort) Spawn(fs *FloorState) bool {
	if fs == nil {
		return false
	}
	if !fs.RegisterLiftPort(p.Cell, p) {
		writeAudit(p.deps.Audit, AuditEntry{
			Tick: p.now(), Kind: AuditPortCollision,
			Floor: fs.ID, Cell: p.Cell, Entity: p.ID,
		})
		return false
	}
	p.floor = fs
	return true
}

// Despawn removes the port from the floor index. Idempotent.
func (p *LiftPort) Despawn() {
	if p.floor == nil {
		return
	}
	p.floor.DeregisterLiftPort(p.Cell, p)
	p.floor = nil
}

// Enqueue appends a stack to the placement queue. The caller is responsible
// for having checked eligibility (see CanMoveItem); the queue itself does no
// validation.
func (p *LiftPort) Enqueue(st *Stack) {
	if st == nil || st.Count <= 0 {
		return
	}
	p.queue = append(p.queue, st)
	writeAudit(p.deps.Audit, AuditEntry{
		Tick: p.now(), Kind: AuditEnqueue,
		Floor: p.FloorID, Cell: p.Cell, Entity: p.ID,
		Item: st.Item, Count: st.Count,
	})
}

func (p *LiftPort) QueueLen() int { return len(p.queue) }

// QueuedItems returns a copy of the queue in placement order.
func (p *LiftPort) QueuedItems() []*Stack {
	out := make([]*Stack, len(p.queue))
	copy(out, p.queue)
	return out
}

// CanPlace reports whether the work cell can take a new stack right now.
func (p *LiftPort) CanPlace() bool {
	return p.powered() && p.stackAt() == nil
}

// Tick places the queue head when the cell is free, and on the refresh
// cadence retries pushing an unreserved cell stack back into the bound unit
// so items that should still move elsewhere get another chance.
func (p *LiftPort) Tick(now uint64) {
	if len(p.queue) > 0 && p.CanPlace() {
		head := p.queue[0]
		p.queue = p.queue[1:]
		if p.deps.Cells.Place(p.FloorID, p.Cell, head) {
			if p.deps.Tune != nil {
				head.Forbidden = p.deps.Tune.ForbidOnPlacement
			}
			if p.floor != nil {
				p.floor.notePlaced(head.Item, head.Count)
			}
			writeAudit(p.deps.Audit, AuditEntry{
				Tick: now, Kind: AuditPlace,
				Floor: p.FloorID, Cell: p.Cell, Entity: p.ID,
				Item: head.Item, Count: head.Count,
			})
		} else {
			// Lost the cell between the check and the place; requeue at head.
			p.queue = append([]*Stack{head}, p.queue...)
		}
	}

	if now%uint64(p.refreshTicks()) == 0 {
		if cur := p.stackAt(); cur != nil && !cur.Reserved {
			p.refreshInput()
		}
	}
}
