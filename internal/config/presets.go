package config

import "sort"

var Presets = map[string]*Config{
	"classic": preset("classic", func(c *Config) {}),
	"soft": preset("soft", func(c *Config) {
		c.Physics.Stiffness = 20
	}),
	"long": preset("long", func(c *Config) {
		c.Physics.Length = 60
	}),
	"stiff": preset("stiff", func(c *Config) {
		c.Physics.Stiffness = 120
	}),
	"heavy": preset("heavy", func(c *Config) {
		c.Physics.Mass = 120
	}),
	"freefall": preset("freefall", func(c *Config) {
		c.Physics.Stiffness = 0
		c.Physics.LinearDrag = 0
		c.Physics.QuadraticDrag = 0
		c.Solver.TEnd = 3
	}),
}

func preset(name string, apply func(*Config)) *Config {
	c := DefaultConfig()
	c.Name = name
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
