package config

import (
	"sort"

	"github.com/YuminosukeSato/scimix/pkg/errors"
)

// Preset is a named set of mixture solver knobs.
type Preset struct {
	Cycles       int `json:"cycles"`
	Slots        int `json:"slots"`
	Permutations int `json:"permutations"`
}

// Presets trade runtime for solution quality. The cycle count of "fast" is
// the lower bound of the accepted range.
var Presets = map[string]Preset{
	"fast":     {Cycles: MinCycles, Slots: 2500, Permutations: 100},
	"balanced": {Cycles: 400, Slots: 6000, Permutations: 3},
	"thorough": {Cycles: 2000, Slots: 12000, Permutations: 4},
}

// PresetNames returns the preset names in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset overwrites the mixture knobs with the named preset.
func (c *Config) ApplyPreset(name string) error {
	p, ok := Presets[name]
	if !ok {
		return errors.NewValidationError("preset", "unknown preset", name)
	}
	c.Mixture.Cycles = p.Cycles
	c.Mixture.Slots = p.Slots
	c.Mixture.Importance.Permutations = p.Permutations
	return nil
}
