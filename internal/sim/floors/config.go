package floors

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the boot-time floor roster. Floors not listed here can still be
// created lazily at runtime; the roster only pre-creates state and gives
// floors display names and bounds.
type Config struct {
	DefaultFloorID string      `yaml:"default_floor_id"`
	Floors         []FloorSpec `yaml:"floors"`
}

type FloorSpec struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	// PoweredByDefault marks floors whose grid supplies power everywhere
	// unless the host says otherwise.
	PoweredByDefault bool `yaml:"powered_by_default"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("floors.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("floors.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		DefaultFloorID: "GROUND",
		Floors: []FloorSpec{
			{ID: "GROUND", Name: "Ground floor", Width: 250, Height: 250, PoweredByDefault: true},
		},
	}
}

func (c *Config) Normalize() {
	for i := range c.Floors {
		c.Floors[i].ID = strings.ToUpper(strings.TrimSpace(c.Floors[i].ID))
		if c.Floors[i].Width <= 0 {
			c.Floors[i].Width = 250
		}
		if c.Floors[i].Height <= 0 {
			c.Floors[i].Height = 250
		}
		if strings.TrimSpace(c.Floors[i].Name) == "" {
			c.Floors[i].Name = c.Floors[i].ID
		}
	}
	sort.SliceStable(c.Floors, func(i, j int) bool { return c.Floors[i].ID < c.Floors[j].ID })
	c.DefaultFloorID = strings.ToUpper(strings.TrimSpace(c.DefaultFloorID))
	if c.DefaultFloorID == "" && len(c.Floors) > 0 {
		c.DefaultFloorID = c.Floors[0].ID
	}
}

func (c *Config) Validate() error {
	if len(c.Floors) == 0 {
		return fmt.Errorf("no floors configured")
	}
	seen := map[string]bool{}
	for _, f := range c.Floors {
		if f.ID == "" {
			return fmt.Errorf("floor with empty id")
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate floor id %s", f.ID)
		}
		seen[f.ID] = true
	}
	if !seen[c.DefaultFloorID] {
		return fmt.Errorf("default_floor_id %s is not in the roster", c.DefaultFloorID)
	}
	return nil
}

// Spec returns the roster entry for id, if present.
func (c *Config) Spec(id string) (FloorSpec, bool) {
	for _, f := range c.Floors {
		if f.ID == id {
			return f, true
		}
	}
	return FloorSpec{}, false
}
