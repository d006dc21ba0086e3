// Package config loads the converter's optional Settings.toml, which lets
// a caller override the rasterization scale of individual shapes by
// character id without re-running the whole pipeline at a different
// global --scale.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Settings is the root of Settings.toml.
type Settings struct {
	// ShapeScale maps a character id (as a decimal string key, since TOML
	// table keys are strings) to a per-shape rasterization scale multiplier
	// applied on top of the CLI's global --scale.
	ShapeScale map[string]float64 `toml:"shape_scale"`
}

// Load reads and parses the settings file at path. A missing file is not
// an error: the converter runs with default (uniform) scaling.
func Load(path string) (*Settings, error) {
	if path == "" {
		return &Settings{ShapeScale: map[string]float64{}}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{ShapeScale: map[string]float64{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if s.ShapeScale == nil {
		s.ShapeScale = map[string]float64{}
	}
	return &s, nil
}

// ScaleFor returns the effective per-shape scale override for characterID,
// or 1.0 if none is configured.
func (s *Settings) ScaleFor(characterID uint16) float64 {
	if s == nil {
		return 1.0
	}
	key := fmt.Sprintf("%d", characterID)
	if v, ok := s.ShapeScale[key]; ok {
		return v
	}
	return 1.0
}
