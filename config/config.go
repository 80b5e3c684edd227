// Package config provides configuration loading and access for the
// simulation: grid dimensions, kernel/cluster tuning constants, and the
// material table definition.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/cellsim/material"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every simulation tuning parameter and the material table
// definition.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Belt      BeltConfig      `yaml:"belt"`
	Lift      LiftConfig      `yaml:"lift"`
	Cluster   ClusterConfig   `yaml:"cluster"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Materials []MaterialConfig `yaml:"materials"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds world dimensions.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// KernelConfig holds cell physics kernel tuning.
type KernelConfig struct {
	MaxVelocity       int `yaml:"max_velocity"`
	FractionalGravity int `yaml:"fractional_gravity"`
}

// BeltConfig holds belt registry tuning.
type BeltConfig struct {
	DefaultSpeed int `yaml:"default_speed"`
}

// LiftConfig holds lift registry tuning. DefaultForce is the per-tile
// force byte (spec.md §6's LiftForce grid constant, 0-255 scale matching
// FractionalGravity) a newly placed lift zone carries; ForceMultiplier
// additionally scales the upward force cluster sync applies to a cluster
// standing in a lift zone (cluster.Tuning.LiftForceMultiplier).
type LiftConfig struct {
	DefaultForce    uint8   `yaml:"default_force"`
	ForceMultiplier float64 `yaml:"force_multiplier"`
}

// ClusterConfig holds cluster sync and fracture tuning.
type ClusterConfig struct {
	FixedStep              float64 `yaml:"fixed_step"`
	MaxAccumulator          float64 `yaml:"max_accumulator"`
	MinCrushImpulse         float64 `yaml:"min_crush_impulse"`
	OpposingDot             float64 `yaml:"opposing_dot"`
	CrushFrameThreshold     int     `yaml:"crush_frame_threshold"`
	MinPixelsToFracture     int     `yaml:"min_pixels_to_fracture"`
	LowVelocitySleepFrames  int     `yaml:"low_velocity_sleep_frames"`
	BeltCarrySpeed          float64 `yaml:"belt_carry_speed"`
	GravityMagnitude        float64 `yaml:"gravity_magnitude"`
}

// TelemetryConfig holds instrumentation tuning.
type TelemetryConfig struct {
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// MaterialConfig is the YAML-facing material definition; thresholds and
// phase-change products are resolved by name against the rest of the
// material list after loading.
type MaterialConfig struct {
	Name            string   `yaml:"name"`
	Density         uint8    `yaml:"density"`
	SlideResistance uint8    `yaml:"slide_resistance"`
	Friction        uint8    `yaml:"friction"`
	Behavior        string   `yaml:"behavior"` // static, powder, liquid, gas
	Flags           []string `yaml:"flags"`    // conducts_heat, flammable, conductive, corrodes, passable, diggable

	IgnitionThreshold uint8 `yaml:"ignition_threshold"`
	MeltThreshold     uint8 `yaml:"melt_threshold"`
	FreezeThreshold   uint8 `yaml:"freeze_threshold"`
	BoilThreshold     uint8 `yaml:"boil_threshold"`

	IgnitionProduct string `yaml:"ignition_product"`
	MeltProduct     string `yaml:"melt_product"`
	FreezeProduct   string `yaml:"freeze_product"`
	BoilProduct     string `yaml:"boil_product"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MaxVelocity       int8
	FractionalGravity int16
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.MaxVelocity = int8(c.Kernel.MaxVelocity)
	c.Derived.FractionalGravity = int16(c.Kernel.FractionalGravity)
}

// BuildMaterialTable resolves the YAML material list into a material.Table,
// translating behavior/flag names and by-name phase-change product
// references into the ids the simulation actually consumes.
func (c *Config) BuildMaterialTable() *material.Table {
	byName := make(map[string]material.ID, len(c.Materials))
	for i, m := range c.Materials {
		byName[m.Name] = material.ID(i + 1) // +1: index 0 is Air, assigned by material.NewTable
	}

	defs := make([]material.Def, len(c.Materials))
	for i, m := range c.Materials {
		defs[i] = material.Def{
			Name:            m.Name,
			Density:         m.Density,
			SlideResistance: m.SlideResistance,
			Friction:        m.Friction,
			Behavior:        behaviorFromString(m.Behavior),
			Flags:           flagsFromStrings(m.Flags),

			IgnitionThreshold: m.IgnitionThreshold,
			MeltThreshold:     m.MeltThreshold,
			FreezeThreshold:   m.FreezeThreshold,
			BoilThreshold:     m.BoilThreshold,

			IgnitionProduct: byName[m.IgnitionProduct],
			MeltProduct:     byName[m.MeltProduct],
			FreezeProduct:   byName[m.FreezeProduct],
			BoilProduct:     byName[m.BoilProduct],
		}
	}
	return material.NewTable(defs)
}

// MaterialID returns the id a loaded material name resolves to, or
// material.Air if no material by that name is defined. Used by callers
// that need to know a specific id up front — e.g. the world construction
// code that tells the belt/lift registries which materials to paint.
func (c *Config) MaterialID(name string) material.ID {
	for i, m := range c.Materials {
		if m.Name == name {
			return material.ID(i + 1)
		}
	}
	return material.Air
}

func behaviorFromString(s string) material.Behavior {
	switch s {
	case "powder":
		return material.Powder
	case "liquid":
		return material.Liquid
	case "gas":
		return material.Gas
	default:
		return material.Static
	}
}

func flagsFromStrings(names []string) material.Flag {
	var f material.Flag
	for _, n := range names {
		switch n {
		case "conducts_heat":
			f = f.Add(material.ConductsHeat)
		case "flammable":
			f = f.Add(material.Flammable)
		case "conductive":
			f = f.Add(material.Conductive)
		case "corrodes":
			f = f.Add(material.Corrodes)
		case "passable":
			f = f.Add(material.Passable)
		case "diggable":
			f = f.Add(material.Diggable)
		}
	}
	return f
}
