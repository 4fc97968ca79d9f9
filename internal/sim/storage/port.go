package storage

import "github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"

type Mode int

const (
	ModeInput Mode = iota
	ModeOutput
)

func (m Mode) String() string {
	if m == ModeInput {
		return "INPUT"
	}
	return "OUTPUT"
}

// Threshold is an optionally disabled stack-count bound.
type Threshold struct {
	Enabled bool
	Value   int
}

// Port mediates item transfer between its work cell and the bound unit.
// Input mode pulls the cell stack into the unit; output mode keeps the cell
// stocked from the unit within the min/max thresholds. Missing power or a
// nil binding silently suppresses all transfer.
type Port struct {
	ID      string
	FloorID string
	Cell    grid.Cell

	Filter AcceptPolicy

	mode     Mode
	min, max Threshold
	binding  *Binding

	deps Deps
}

type PortConfig struct {
	ID     string
	Floor  string
	Cell   grid.Cell
	Mode   Mode
	Filter AcceptPolicy
	Min    Threshold
	Max    Threshold
}

func NewPort(cfg PortConfig, deps Deps) *Port {
	p := &Port{
		ID:      cfg.ID,
		FloorID: cfg.Floor,
		Cell:    cfg.Cell,
		Filter:  cfg.Filter,
		mode:    cfg.Mode,
		min:     cfg.Min,
		max:     cfg.Max,
		deps:    deps,
	}
	p.binding = NewBinding(cfg.ID, deps.Audit)
	p.binding.clock = deps.Clock
	return p
}

func (p *Port) EntityID() string { return p.ID }

func (p *Port) Binding() *Binding { return p.binding }

// Link binds the port to a candidate target; Unlink clears it.
func (p *Port) Link(candidate any) bool { return p.binding.SetTarget(candidate) }
func (p *Port) Unlink()                 { p.binding.SetTarget(nil) }

func (p *Port) Mode() Mode { return p.mode }

// SetMode performs nothing on a same-mode assignment; a real transition
// triggers an immediate refresh.
func (p *Port) SetMode(m Mode) {
	if m == p.mode {
		return
	}
	p.mode = m
	writeAudit(p.deps.Audit, AuditEntry{
		Tick: p.now(), Kind: AuditModeChange,
		Floor: p.FloorID, Cell: p.Cell, Entity: p.ID, Note: m.String(),
	})
	p.Refresh()
}

func (p *Port) Min() Threshold { return p.min }
func (p *Port) Max() Threshold { return p.max }

func (p *Port) SetThresholds(min, max Threshold) {
	p.min = min
	p.max = max
}

// Tick runs the periodic refresh on the configured cadence.
func (p *Port) Tick(now uint64) {
	if now%uint64(p.refreshTicks()) == 0 {
		p.Refresh()
	}
}

// Event-driven refresh triggers.
func (p *Port) NotifyItemReceived() { p.Refresh() }
func (p *Port) NotifyItemLost()     { p.Refresh() }
func (p *Port) NotifyPowerOn()      { p.Refresh() }

// Refresh runs one transfer pass for the current mode.
func (p *Port) Refresh() {
	switch p.mode {
	case ModeInput:
		p.refreshInput()
	case ModeOutput:
		p.refreshOutput()
	}
}

func (p *Port) powered() bool {
	return p.deps.Power == nil || p.deps.Power.IsPowered(p.ID)
}

func (p *Port) refreshTicks() int {
	if p.deps.Tune != nil && p.deps.Tune.PortRefreshTicks > 0 {
		return p.deps.Tune.PortRefreshTicks
	}
	return settingsFallbackRefreshTicks
}

const settingsFallbackRefreshTicks = 10

func (p *Port) now() uint64 {
	if p.deps.Clock == nil {
		return 0
	}
	return p.deps.Clock()
}

func (p *Port) stackAt() *Stack {
	if p.deps.Cells == nil {
		return nil
	}
	return p.deps.Cells.StackAt(p.FloorID, p.Cell)
}

// refreshInput moves a whole cell stack into the bound unit when the unit
// accepts it.
func (p *Port) refreshInput() {
	if !p.powered() {
		return
	}
	t := p.binding.Target()
	if t == nil || !targetActive(t) {
		return
	}
	cur := p.stackAt()
	if cur == nil || cur.Count <= 0 {
		return
	}
	if !t.CanAccept(cur.Item) {
		return
	}
	p.deps.Cells.Remove(p.FloorID, p.Cell)
	n := cur.Count
	t.HandleNewItem(cur)
	writeAudit(p.deps.Audit, AuditEntry{
		Tick: p.now(), Kind: AuditPullIn,
		Floor: p.FloorID, Cell: p.Cell, Entity: p.ID, Target: targetID(t),
		Item: cur.Item, Count: n,
	})
}

// refreshOutput keeps the work cell stocked from the bound unit:
//  1. pull candidates, honoring the min-accumulation rule and the max cap
//  2. push back a cell stack that no longer satisfies the filter or sits
//     below the minimum
//  3. split off and return any excess above the maximum
//  4. apply the forbid-on-placement flag
func (p *Port) refreshOutput() {
	if !p.powered() {
		return
	}
	t := p.binding.Target()
	if t == nil || !targetActive(t) {
		return
	}

	cur := p.stackAt()
	if cur == nil || !p.max.Enabled || cur.Count < p.max.Value {
		p.pullFromUnit(t)
	}

	cur = p.stackAt()
	if cur != nil {
		belowMin := p.min.Enabled && cur.Count < p.min.Value
		if (!p.Filter.Accepts(cur.Item) || belowMin) && t.CanAccept(cur.Item) {
			p.deps.Cells.Remove(p.FloorID, p.Cell)
			n := cur.Count
			t.HandleNewItem(cur)
			writeAudit(p.deps.Audit, AuditEntry{
				Tick: p.now(), Kind: AuditPushBack,
				Floor: p.FloorID, Cell: p.Cell, Entity: p.ID, Target: targetID(t),
				Item: cur.Item, Count: n,
			})
		}
	}

	cur = p.stackAt()
	if cur != nil && p.max.Enabled && cur.Count > p.max.Value && t.CanAccept(cur.Item) {
		excess := cur.Count - p.max.Value
		cur.Count = p.max.Value
		back := &Stack{ID: p.nextID("stk_"), Item: cur.Item, Count: excess}
		t.HandleNewItem(back)
		writeAudit(p.deps.Audit, AuditEntry{
			Tick: p.now(), Kind: AuditSplitBack,
			Floor: p.FloorID, Cell: p.Cell, Entity: p.ID, Target: targetID(t),
			Item: cur.Item, Count: excess,
		})
	}

	cur = p.stackAt()
	if cur != nil && p.deps.Tune != nil {
		cur.Forbidden = p.deps.Tune.ForbidOnPlacement
	}
}

// pullFromUnit moves matching stacks from the unit into the work cell, one
// candidate at a time. With a minimum threshold enabled, candidates only
// move once enough is available to reach the minimum; a partial stack below
// the output minimum stays in the unit.
func (p *Port) pullFromUnit(t LinkTarget) {
	if p.deps.Cells == nil {
		return
	}
	cur := p.stackAt()
	item := ""
	if cur != nil {
		item = cur.Item
	}

	var cands []*Stack
	avail := 0
	for _, st := range t.StoredItems() {
		if st == nil || st.Count <= 0 {
			continue
		}
		if !p.Filter.Accepts(st.Item) {
			continue
		}
		if item == "" {
			item = st.Item
		}
		if st.Item != item {
			continue
		}
		cands = append(cands, st)
		avail += st.Count
	}
	if len(cands) == 0 {
		return
	}

	have := 0
	if cur != nil {
		have = cur.Count
	}
	if p.min.Enabled && have+avail < p.min.Value {
		return
	}

	for _, st := range cands {
		if p.max.Enabled && have >= p.max.Value {
			break
		}
		take := st.Count
		if p.max.Enabled && have+take > p.max.Value {
			take = p.max.Value - have
		}
		if take <= 0 {
			break
		}

		if take == st.Count {
			if !t.OutputItem(st) {
				continue
			}
			if cur == nil {
				if !p.deps.Cells.Place(p.FloorID, p.Cell, st) {
					t.HandleNewItem(st)
					break
				}
				cur = st
			} else {
				cur.Count += take
			}
		} else {
			// Partial move: split off the taken part, leave the rest stored.
			st.Count -= take
			if cur == nil {
				placed := &Stack{ID: p.nextID("stk_"), Item: item, Count: take}
				if !p.deps.Cells.Place(p.FloorID, p.Cell, placed) {
					st.Count += take
					break
				}
				cur = placed
			} else {
				cur.Count += take
			}
		}
		have += take
		writeAudit(p.deps.Audit, AuditEntry{
			Tick: p.now(), Kind: AuditPullOut,
			Floor: p.FloorID, Cell: p.Cell, Entity: p.ID, Target: targetID(t),
			Item: item, Count: take,
		})
	}
}

func (p *Port) nextID(prefix string) string {
	if p.deps.IDs != nil {
		return p.deps.IDs.NextID(prefix)
	}
	return prefix + "0"
}
