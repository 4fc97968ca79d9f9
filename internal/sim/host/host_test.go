package host

import (
	"testing"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/grid"
	"github.com/reppie1986/MultiFloorStorageCombined/internal/sim/storage"
)

func TestGridOneStackPerCell(t *testing.T) {
	g := NewGrid()
	c := grid.Cell{X: 1, Z: 2}
	a := &storage.Stack{ID: "a", Item: "STEEL", Count: 5}
	b := &storage.Stack{ID: "b", Item: "WOOD", Count: 1}

	if !g.Place("GROUND", c, a) {
		t.Fatalf("first place failed")
	}
	if g.Place("GROUND", c, b) {
		t.Fatalf("second place at occupied cell must fail")
	}
	if g.StackAt("GROUND", c) != a {
		t.Fatalf("wrong stack at cell")
	}
	// Same cell coordinate on another floor is independent.
	if !g.Place("B1", c, b) {
		t.Fatalf("place on other floor failed")
	}
	if got := g.Remove("GROUND", c); got != a {
		t.Fatalf("remove returned %v", got)
	}
	if g.StackAt("GROUND", c) != nil {
		t.Fatalf("cell should be empty after remove")
	}
	if g.Remove("GROUND", c) != nil {
		t.Fatalf("double remove should return nil")
	}
}

func TestPowerDefaultsOn(t *testing.T) {
	p := NewPower()
	if !p.IsPowered("anything") {
		t.Fatalf("unknown entity should be powered")
	}
	p.SetPowered("unit_1", false)
	if p.IsPowered("unit_1") {
		t.Fatalf("unit_1 should be off")
	}
	p.SetPowered("unit_1", true)
	if !p.IsPowered("unit_1") {
		t.Fatalf("unit_1 should be back on")
	}
}

func TestManhattanPaths(t *testing.T) {
	c, ok := ManhattanPaths{}.Cost("GROUND", grid.Cell{X: 0, Z: 0}, grid.Cell{X: 3, Z: 4})
	if !ok || c != 7 {
		t.Fatalf("cost: got %v ok=%v", c, ok)
	}
}
