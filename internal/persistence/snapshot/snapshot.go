package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

// Header is written as a one-line JSON prefix so tools can identify a
// snapshot without decoding the body.
type Header struct {
	Version int    `json:"version"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 captures the whole registry graph by entity id. Cell contents
// belong to the host's own grid and are not part of this snapshot; bindings
// are restored by unit id, so entity identity must be stable across
// save/load.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Floors  []FloorV1 `json:"floors"`
	Units   []UnitV1  `json:"units"`
	Ports   []PortV1  `json:"ports"`
	Proxies []ProxyV1 `json:"proxies,omitempty"`

	Counters CountersV1 `json:"counters"`
}

type FloorV1 struct {
	ID           string            `json:"id"`
	PlacedTotals map[string]uint64 `json:"placed_totals,omitempty"`
}

type UnitV1 struct {
	ID            string    `json:"id"`
	Floor         string    `json:"floor"`
	Cell          [2]int    `json:"cell"`
	Capacity      int       `json:"capacity"`
	AllowedItems  []string  `json:"allowed_items,omitempty"` // nil = accept all
	Priority      int       `json:"priority,omitempty"`
	PowerRequired bool      `json:"power_required,omitempty"`
	Refrigerated  bool      `json:"refrigerated,omitempty"`
	Stacks        []StackV1 `json:"stacks,omitempty"`
}

type PortV1 struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"` // "basic" | "lift"
	Floor        string    `json:"floor"`
	Cell         [2]int    `json:"cell"`
	Mode         string    `json:"mode"` // "INPUT" | "OUTPUT"
	MinEnabled   bool      `json:"min_enabled,omitempty"`
	Min          int       `json:"min,omitempty"`
	MaxEnabled   bool      `json:"max_enabled,omitempty"`
	Max          int       `json:"max,omitempty"`
	AllowedItems []string  `json:"allowed_items,omitempty"`
	Priority     int       `json:"priority,omitempty"`
	TargetUnit   string    `json:"target_unit,omitempty"`
	Queue        []StackV1 `json:"queue,omitempty"`
}

type ProxyV1 struct {
	ID         string `json:"id"`
	Floor      string `json:"floor"`
	Cell       [2]int `json:"cell"`
	TargetUnit string `json:"target_unit,omitempty"`
}

type StackV1 struct {
	ID        string `json:"id"`
	Item      string `json:"item"`
	Count     int    `json:"count"`
	Forbidden bool   `json:"forbidden,omitempty"`
	Reserved  bool   `json:"reserved,omitempty"`
}

type CountersV1 struct {
	NextEntity uint64 `json:"next_entity"`
}

func Write(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func Read(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	headerLine, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(headerLine, &h); err != nil {
		return snap, fmt.Errorf("parse header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// FileName is the canonical snapshot file name for a tick.
func FileName(tick uint64) string {
	return fmt.Sprintf("registry_%012d.snap.zst", tick)
}

// Latest returns the path of the highest-tick snapshot in dir, or "" when
// none exists.
func Latest(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "registry_") && strings.HasSuffix(name, ".snap.zst") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1])
}
