package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/persistence/indexdb"
	persistlog "github.com/reppie1986/MultiFloorStorageCombined/internal/persistence/log"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/persistence/snapshot"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/protocol"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/floors"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/host"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/settings"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/storage"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/transport/observer"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		configDir    = flag.String("configs", "./configs", "config directory")
		settingsPath = flag.String("settings", "", "path to settings.yaml (default: <configs>/settings.yaml)")
		floorsPath   = flag.String("floors", "", "path to floors.yaml (default: <configs>/floors.yaml)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite read-model index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")

		demo = flag.Bool("demo", false, "seed a small demo layout when starting fresh")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	sp := strings.TrimSpace(*settingsPath)
	if sp == "" {
		sp = filepath.Join(*configDir, "settings.yaml")
	}
	tune, err := settings.Load(sp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("settings not found (%s); using defaults", sp)
		} else {
			logger.Fatalf("load settings: %v", err)
		}
	}

	fp := strings.TrimSpace(*floorsPath)
	if fp == "" {
		fp = filepath.Join(*configDir, "floors.yaml")
	}
	roster, err := floors.Load(fp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("floors not found (%s); using defaults", fp)
		} else {
			logger.Fatalf("load floors: %v", err)
		}
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	// Optional: read-model index (does not affect sim behavior).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.Open(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
	} else {
		logger.Printf("index db disabled")
	}

	logDir := filepath.Join(*dataDir, "logs")
	tickLog := persistlog.NewTickLogger(logDir)
	auditLog := persistlog.NewAuditLogger(logDir)
	defer tickLog.Close()
	defer auditLog.Close()

	var auditSink storage.AuditLogger = auditLog
	var tickSink storage.TickLogger = tickLog
	if idx != nil {
		auditSink = multiAuditLogger{a: auditLog, b: idx}
		tickSink = multiTickLogger{a: tickLog, b: idx}
	}

	cells := host.NewGrid()
	power := host.NewPower()
	reg := storage.NewRegistry(&tune, storage.Deps{
		Cells: cells,
		Power: power,
		Paths: host.ManhattanPaths{},
		Audit: auditSink,
		Ticks: tickSink,
	})
	for _, f := range roster.Floors {
		reg.Floor(f.ID)
	}

	snapDir := filepath.Join(*dataDir, "snapshots")
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = snapshot.Latest(snapDir)
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.Read(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if err := reg.Restore(snap); err != nil {
			logger.Fatalf("restore snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), reg.CurrentTick())
	} else if *demo {
		seedDemo(reg, roster.DefaultFloorID)
		logger.Printf("seeded demo layout on floor %s", roster.DefaultFloorID)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writer. The tick loop hands finished snapshots over; writes
	// never block the sim.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(snapDir, snapshot.FileName(snap.Header.Tick))
				if err := snapshot.Write(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					_ = idx.RecordSnapshot(indexdb.SnapshotMeta{
						Tick:   snap.Header.Tick,
						Path:   path,
						Floors: len(snap.Floors),
						Units:  len(snap.Units),
						Ports:  len(snap.Ports),
					})
				}
			}
		}
	}()

	feed := &observer.Feed{}
	bootstrap := func() protocol.BootstrapResponse {
		resp := protocol.BootstrapResponse{
			ProtocolVersion: protocol.Version,
			Tick:            reg.CurrentTick(),
			TickRateHz:      tune.TickRateHz,
			DefaultFloorID:  roster.DefaultFloorID,
		}
		for _, f := range roster.Floors {
			resp.Floors = append(resp.Floors, protocol.FloorInfo{
				ID: f.ID, Name: f.Name, Width: f.Width, Height: f.Height,
			})
		}
		return resp
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		runLoop(ctx, reg, &tune, feed, snapCh)
	}()

	obsSrv := observer.NewServer(bootstrap, feed, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		frame, _ := feed.Latest()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP storage_registry_tick Current registry tick.\n")
		fmt.Fprintf(rw, "# TYPE storage_registry_tick gauge\n")
		fmt.Fprintf(rw, "storage_registry_tick %d\n", frame.Tick)

		fmt.Fprintf(rw, "# HELP storage_registry_units Registered storage units.\n")
		fmt.Fprintf(rw, "# TYPE storage_registry_units gauge\n")
		fmt.Fprintf(rw, "storage_registry_units %d\n", frame.Units)

		fmt.Fprintf(rw, "# HELP storage_registry_ports Registered I/O ports.\n")
		fmt.Fprintf(rw, "# TYPE storage_registry_ports gauge\n")
		fmt.Fprintf(rw, "storage_registry_ports %d\n", frame.Ports)

		fmt.Fprintf(rw, "# HELP storage_floor_queued_items Stacks waiting in lift-port queues.\n")
		fmt.Fprintf(rw, "# TYPE storage_floor_queued_items gauge\n")
		for _, fl := range frame.Floors {
			fmt.Fprintf(rw, "storage_floor_queued_items{floor=%q} %d\n", fl.ID, fl.QueuedItems)
		}

		fmt.Fprintf(rw, "# HELP storage_floor_placed_total Items placed by lift ports since world start.\n")
		fmt.Fprintf(rw, "# TYPE storage_floor_placed_total counter\n")
		for _, fl := range frame.Floors {
			fmt.Fprintf(rw, "storage_floor_placed_total{floor=%q} %d\n", fl.ID, fl.PlacedTotal)
		}

		if idx != nil {
			fmt.Fprintf(rw, "# HELP storage_index_dropped_total Index writes dropped because the queue was full.\n")
			fmt.Fprintf(rw, "# TYPE storage_index_dropped_total counter\n")
			fmt.Fprintf(rw, "storage_index_dropped_total %d\n", idx.Dropped())
		}
	})
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (tick_rate=%dhz floors=%d)", *addr, tune.TickRateHz, len(roster.Floors))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	<-loopDone
	// Final snapshot so a restart resumes where we stopped.
	final := reg.Snapshot()
	path := filepath.Join(snapDir, snapshot.FileName(final.Header.Tick))
	if err := snapshot.Write(path, final); err != nil {
		logger.Printf("final snapshot: %v", err)
	} else {
		logger.Printf("wrote final snapshot tick=%d", final.Header.Tick)
	}
}

// runLoop drives the registry at the configured tick rate. All sim mutation
// happens on this goroutine; the HTTP side only reads published frames.
func runLoop(ctx context.Context, reg *storage.Registry, tune *settings.Settings, feed *observer.Feed, snapCh chan<- snapshot.SnapshotV1) {
	interval := time.Second / time.Duration(tune.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.Tick()
			feed.Publish(buildFrame(reg))
			if tune.SnapshotEveryTicks > 0 && reg.CurrentTick()%uint64(tune.SnapshotEveryTicks) == 0 {
				select {
				case snapCh <- reg.Snapshot():
				default:
					// Writer still busy with the previous one; skip this round.
				}
			}
		}
	}
}

func buildFrame(reg *storage.Registry) protocol.StateFrame {
	frame := protocol.StateFrame{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            reg.CurrentTick(),
		Units:           len(reg.Units()),
		Ports:           reg.PortCount(),
	}
	unitsByFloor := map[string]int{}
	for _, u := range reg.Units() {
		unitsByFloor[u.FloorID]++
	}
	for _, id := range reg.FloorIDs() {
		fs := reg.FloorIfPresent(id)
		lifts := fs.LiftPorts()
		queued := 0
		for _, p := range lifts {
			queued += p.QueueLen()
		}
		frame.Floors = append(frame.Floors, protocol.FloorState{
			ID:          id,
			Units:       unitsByFloor[id],
			Ports:       len(lifts),
			QueuedItems: queued,
			PlacedTotal: fs.PlacedTotal(),
		})
	}
	return frame
}

// seedDemo builds a two-floor layout: a stocked cellar unit, a lift port
// routing up to the default floor, and an output port keeping a work cell
// topped up.
func seedDemo(reg *storage.Registry, defaultFloor string) {
	cellar := reg.NewUnit(storage.UnitConfig{
		Floor: "B1", Cell: grid.Cell{X: 3, Z: 3}, CapacityStacks: 20,
	})
	cellar.HandleNewItem(&storage.Stack{ID: reg.NextID("stk_"), Item: "wood", Count: 75})
	cellar.HandleNewItem(&storage.Stack{ID: reg.NextID("stk_"), Item: "steel", Count: 40})

	lift := reg.NewLiftPort(storage.PortConfig{
		Floor: defaultFloor, Cell: grid.Cell{X: 10, Z: 10},
	})
	if lift != nil {
		lift.Link(cellar)
	}

	out := reg.NewPort(storage.PortConfig{
		Floor: defaultFloor, Cell: grid.Cell{X: 12, Z: 10}, Mode: storage.ModeOutput,
		Filter: storage.AllowOnly("wood"),
		Max:    storage.Threshold{Enabled: true, Value: 25},
	})
	out.Link(cellar)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiTickLogger struct {
	a storage.TickLogger
	b storage.TickLogger
}

func (m multiTickLogger) WriteTick(entry storage.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a storage.AuditLogger
	b storage.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry storage.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
