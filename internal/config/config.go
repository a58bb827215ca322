package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bungee/internal/dynamo"
	"github.com/san-kum/bungee/internal/physics"
)

const (
	DefaultName       = "classic"
	DefaultIntegrator = "rk45"
	DefaultTEnd       = 50.0
	DefaultMaxStep    = 0.05
	DefaultRelTol     = 1e-3
	DefaultAbsTol     = 1e-6
)

type Config struct {
	Name       string        `yaml:"name" json:"name"`
	Integrator string        `yaml:"integrator" json:"integrator"`
	Physics    PhysicsConfig `yaml:"physics" json:"physics"`
	Solver     SolverConfig  `yaml:"solver" json:"solver"`
}

type PhysicsConfig struct {
	Gravity       float64 `yaml:"gravity" json:"gravity"`
	Stiffness     float64 `yaml:"stiffness" json:"stiffness"`
	Length        float64 `yaml:"length" json:"length"`
	Mass          float64 `yaml:"mass" json:"mass"`
	Height        float64 `yaml:"height" json:"height"`
	Velocity      float64 `yaml:"velocity" json:"velocity"`
	LinearDrag    float64 `yaml:"linear_drag" json:"linear_drag"`
	QuadraticDrag float64 `yaml:"quadratic_drag" json:"quadratic_drag"`
}

type SolverConfig struct {
	TStart    float64 `yaml:"t_start" json:"t_start"`
	TEnd      float64 `yaml:"t_end" json:"t_end"`
	MaxStep   float64 `yaml:"max_step" json:"max_step"`
	RelTol    float64 `yaml:"rtol" json:"rtol"`
	AbsTol    float64 `yaml:"atol" json:"atol"`
	FirstStep float64 `yaml:"first_step" json:"first_step"`
	MinStep   float64 `yaml:"min_step" json:"min_step"`
	MaxSteps  int     `yaml:"max_steps" json:"max_steps"`
}

// DefaultConfig is the classic 80 m jump on a 30 m, 50 N/m cord.
func DefaultConfig() *Config {
	return &Config{
		Name:       DefaultName,
		Integrator: DefaultIntegrator,
		Physics: PhysicsConfig{
			Gravity:       physics.DefaultGravity,
			Stiffness:     physics.DefaultStiffness,
			Length:        physics.DefaultLength,
			Mass:          physics.DefaultMass,
			Height:        physics.DefaultHeight,
			LinearDrag:    physics.DefaultLinearDrag,
			QuadraticDrag: physics.DefaultQuadraticDrag,
		},
		Solver: SolverConfig{
			TEnd:    DefaultTEnd,
			MaxStep: DefaultMaxStep,
			RelTol:  DefaultRelTol,
			AbsTol:  DefaultAbsTol,
		},
	}
}

// Load reads a YAML file on top of the defaults, so omitted keys keep
// their default values.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file on top of a copy of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) Params() physics.Params {
	return physics.Params{
		Gravity:       c.Physics.Gravity,
		Stiffness:     c.Physics.Stiffness,
		Length:        c.Physics.Length,
		Mass:          c.Physics.Mass,
		Height:        c.Physics.Height,
		LinearDrag:    c.Physics.LinearDrag,
		QuadraticDrag: c.Physics.QuadraticDrag,
	}
}

func (c *Config) SolverConfig() dynamo.Config {
	return dynamo.Config{
		TStart:    c.Solver.TStart,
		TEnd:      c.Solver.TEnd,
		MaxStep:   c.Solver.MaxStep,
		MinStep:   c.Solver.MinStep,
		FirstStep: c.Solver.FirstStep,
		RelTol:    c.Solver.RelTol,
		AbsTol:    c.Solver.AbsTol,
		MaxSteps:  c.Solver.MaxSteps,
	}
}

func (c *Config) InitState() dynamo.State {
	return dynamo.State{c.Physics.Height, c.Physics.Velocity}
}

func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	return c.SolverConfig().Validate()
}

// SetParam updates a physics parameter by its physics.ParamNames name.
func (c *Config) SetParam(name string, value float64) error {
	switch name {
	case "gravity":
		c.Physics.Gravity = value
	case "stiffness":
		c.Physics.Stiffness = value
	case "length":
		c.Physics.Length = value
	case "mass":
		c.Physics.Mass = value
	case "height":
		c.Physics.Height = value
	case "linear_drag":
		c.Physics.LinearDrag = value
	case "quadratic_drag":
		c.Physics.QuadraticDrag = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
