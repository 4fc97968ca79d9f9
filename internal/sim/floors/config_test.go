package floors

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultFloorID != "GROUND" {
		t.Fatalf("default floor: got %s", cfg.DefaultFloorID)
	}
	if _, ok := cfg.Spec("GROUND"); !ok {
		t.Fatalf("missing default floor spec")
	}
}

func TestLoadNormalizesAndSorts(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "floors.yaml")
	body := []byte(`default_floor_id: " b1 "
floors:
  - id: " b1 "
    width: 0
  - id: attic
    name: Attic
    powered_by_default: true
`)
	if err := os.WriteFile(p, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultFloorID != "B1" {
		t.Fatalf("default floor: got %q want B1", cfg.DefaultFloorID)
	}
	if cfg.Floors[0].ID != "ATTIC" || cfg.Floors[1].ID != "B1" {
		t.Fatalf("floors not sorted: %+v", cfg.Floors)
	}
	b1, _ := cfg.Spec("B1")
	if b1.Width != 250 || b1.Name != "B1" {
		t.Fatalf("normalize: %+v", b1)
	}
}

func TestValidateRejectsDuplicateAndUnknownDefault(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "floors.yaml")
	body := []byte("default_floor_id: GROUND\nfloors:\n  - id: A\n  - id: A\n")
	if err := os.WriteFile(p, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error for duplicate floor id")
	}

	body = []byte("default_floor_id: NOPE\nfloors:\n  - id: A\n")
	if err := os.WriteFile(p, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error for unknown default floor")
	}
}
