package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/storage"
)

// SQLiteIndex is a read-model index over the tick log, audit log and
// snapshot metadata. Writes go through a single writer goroutine so the sim
// loop never blocks on the database; reads use database/sql directly.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     storage.TickLogEntry
	audit    storage.AuditEntry
	snapshot SnapshotMeta
}

// SnapshotMeta records one written snapshot file.
type SnapshotMeta struct {
	Tick   uint64
	Path   string
	Floors int
	Units  int
	Ports  int
}

func Open(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err := bootstrap(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	idx.wg.Add(1)
	go idx.writer()
	return idx, nil
}

func bootstrap(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			floors INTEGER NOT NULL,
			units INTEGER NOT NULL,
			ports INTEGER NOT NULL,
			queued INTEGER NOT NULL,
			duration_us INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			kind TEXT NOT NULL,
			floor TEXT,
			cell_x INTEGER,
			cell_z INTEGER,
			entity TEXT,
			target TEXT,
			item TEXT,
			count INTEGER,
			note TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS audit_kind ON audit(kind)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			floors INTEGER NOT NULL,
			units INTEGER NOT NULL,
			ports INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}

func (x *SQLiteIndex) writer() {
	defer x.wg.Done()
	for r := range x.ch {
		var err error
		switch r.kind {
		case reqTick:
			_, err = x.db.Exec(
				`INSERT OR REPLACE INTO ticks (tick, floors, units, ports, queued, duration_us) VALUES (?,?,?,?,?,?)`,
				r.tick.Tick, r.tick.Floors, r.tick.Units, r.tick.Ports, r.tick.QueuedItems, r.tick.DurationUS,
			)
		case reqAudit:
			_, err = x.db.Exec(
				`INSERT INTO audit (tick, kind, floor, cell_x, cell_z, entity, target, item, count, note) VALUES (?,?,?,?,?,?,?,?,?,?)`,
				r.audit.Tick, r.audit.Kind, r.audit.Floor, r.audit.Cell.X, r.audit.Cell.Z,
				r.audit.Entity, r.audit.Target, r.audit.Item, r.audit.Count, r.audit.Note,
			)
		case reqSnapshot:
			_, err = x.db.Exec(
				`INSERT OR REPLACE INTO snapshots (tick, path, floors, units, ports, recorded_at) VALUES (?,?,?,?,?,?)`,
				r.snapshot.Tick, r.snapshot.Path, r.snapshot.Floors, r.snapshot.Units, r.snapshot.Ports,
				time.Now().UTC().Format(time.RFC3339),
			)
		}
		if err != nil {
			x.dropped.Add(1)
		}
	}
}

func (x *SQLiteIndex) enqueue(r req) error {
	if x.closed.Load() {
		return fmt.Errorf("index closed")
	}
	select {
	case x.ch <- r:
		return nil
	default:
		// Indexing never backpressures the sim; drop and count.
		x.dropped.Add(1)
		return nil
	}
}

func (x *SQLiteIndex) WriteTick(e storage.TickLogEntry) error {
	return x.enqueue(req{kind: reqTick, tick: e})
}

func (x *SQLiteIndex) WriteAudit(e storage.AuditEntry) error {
	return x.enqueue(req{kind: reqAudit, audit: e})
}

func (x *SQLiteIndex) RecordSnapshot(m SnapshotMeta) error {
	return x.enqueue(req{kind: reqSnapshot, snapshot: m})
}

// Dropped reports writes discarded due to a full queue or write errors.
func (x *SQLiteIndex) Dropped() uint64 { return x.dropped.Load() }

// Close drains pending writes and closes the database.
func (x *SQLiteIndex) Close() error {
	var err error
	x.once.Do(func() {
		x.closed.Store(true)
		close(x.ch)
		x.wg.Wait()
		err = x.db.Close()
	})
	return err
}

// AuditCount reports how many audit rows of one kind have been indexed.
func (x *SQLiteIndex) AuditCount(kind string) (int, error) {
	var n int
	err := x.db.QueryRow(`SELECT COUNT(*) FROM audit WHERE kind = ?`, kind).Scan(&n)
	return n, err
}

// LatestSnapshot returns metadata of the newest indexed snapshot.
func (x *SQLiteIndex) LatestSnapshot() (SnapshotMeta, bool, error) {
	var m SnapshotMeta
	row := x.db.QueryRow(`SELECT tick, path, floors, units, ports FROM snapshots ORDER BY tick DESC LIMIT 1`)
	if err := row.Scan(&m.Tick, &m.Path, &m.Floors, &m.Units, &m.Ports); err != nil {
		if err == sql.ErrNoRows {
			return m, false, nil
		}
		return m, false, err
	}
	return m, true, nil
}
