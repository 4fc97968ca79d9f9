package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings are the operator-tunable knobs of the storage subsystem. They are
// loaded once at boot and shared read-only by the sim; nothing mutates them
// after Normalize.
type Settings struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	// Ports re-run their transfer pass every this many ticks (in addition to
	// event-driven refreshes).
	PortRefreshTicks int `yaml:"port_refresh_ticks"`

	// Default output thresholds for newly created ports. Zero means the
	// threshold starts disabled.
	DefaultOutputMin int `yaml:"default_output_min"`
	DefaultOutputMax int `yaml:"default_output_max"`

	// When true, stacks a port places into the world are flagged forbidden to
	// agents until a player/decision layer clears them.
	ForbidOnPlacement bool `yaml:"forbid_on_placement"`

	CapacityOverride CapacityOverride `yaml:"capacity_override"`

	// Extra power draw per stored stack for refrigerated units, in watts.
	FridgePowerPerStackW float64 `yaml:"fridge_power_per_stack_w"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
}

// CapacityOverride globally replaces per-unit capacity limits when enabled.
type CapacityOverride struct {
	Enabled bool `yaml:"enabled"`
	Stacks  int  `yaml:"stacks"`
}

func Defaults() Settings {
	return Settings{
		TickRateHz:           5,
		PortRefreshTicks:     10,
		DefaultOutputMin:     0,
		DefaultOutputMax:     0,
		ForbidOnPlacement:    false,
		FridgePowerPerStackW: 10,
		SnapshotEveryTicks:   3000,
	}
}

func Load(path string) (Settings, error) {
	s := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("settings.yaml: %w", err)
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("settings.yaml: %w", err)
	}
	return s, nil
}

func (s *Settings) Normalize() {
	if s.TickRateHz <= 0 {
		s.TickRateHz = 5
	}
	if s.PortRefreshTicks <= 0 {
		s.PortRefreshTicks = 10
	}
	if s.DefaultOutputMin < 0 {
		s.DefaultOutputMin = 0
	}
	if s.DefaultOutputMax < 0 {
		s.DefaultOutputMax = 0
	}
	if s.FridgePowerPerStackW < 0 {
		s.FridgePowerPerStackW = 0
	}
	if s.SnapshotEveryTicks <= 0 {
		s.SnapshotEveryTicks = 3000
	}
	if s.CapacityOverride.Stacks < 0 {
		s.CapacityOverride.Stacks = 0
	}
}

func (s *Settings) Validate() error {
	if s.DefaultOutputMin > 0 && s.DefaultOutputMax > 0 && s.DefaultOutputMin > s.DefaultOutputMax {
		return fmt.Errorf("default_output_min %d exceeds default_output_max %d", s.DefaultOutputMin, s.DefaultOutputMax)
	}
	if s.CapacityOverride.Enabled && s.CapacityOverride.Stacks <= 0 {
		return fmt.Errorf("capacity_override enabled with non-positive stacks %d", s.CapacityOverride.Stacks)
	}
	return nil
}
