package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bungee/internal/config"
	"github.com/san-kum/bungee/internal/experiment"
)

// Scenario is a scripted sequence of jumps.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset and overrides parameters on top of it.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Duration   float64            `yaml:"duration"`
	Params     map[string]float64 `yaml:"params"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &scenario, nil
}

// Config builds the run configuration for a step.
func (s ScenarioStep) Config() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = config.DefaultName
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", preset)
	}
	if s.Name != "" {
		cfg.Name = s.Name
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Duration > 0 {
		cfg.Solver.TEnd = cfg.Solver.TStart + s.Duration
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, logger log.Logger) ([]*experiment.Result, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	results := make([]*experiment.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		level.Info(logger).Log("msg", "running step", "step", i+1, "of", len(scenario.Steps), "name", cfg.Name)

		result, err := experiment.Run(ctx, cfg, logger)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// SweepResult holds the outcome of one point of a parameter sweep.
type SweepResult struct {
	ParamValue float64
	Result     *experiment.Result
}

// RunSweep solves the base configuration once per value of param spread
// evenly over [lo, hi]. Points run concurrently; results are ordered by
// parameter value.
func RunSweep(ctx context.Context, base *config.Config, param string, lo, hi float64, n int, logger log.Logger) ([]SweepResult, error) {
	if n < 1 {
		return nil, fmt.Errorf("sweep needs at least one point, got %d", n)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	vals := []float64{lo}
	if n > 1 {
		vals = floats.Span(make([]float64, n), lo, hi)
	}

	cfgs := make([]*config.Config, n)
	results := make([]SweepResult, n)
	for i, val := range vals {
		cfg := base.Clone()
		if err := cfg.SetParam(param, val); err != nil {
			return nil, err
		}
		cfg.Name = fmt.Sprintf("%s_%s_%g", base.Name, param, val)
		cfgs[i] = cfg
		results[i].ParamValue = val
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			res, err := experiment.Run(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", param, results[i].ParamValue, err)
			}
			results[i].Result = res
			level.Debug(logger).Log("msg", "sweep point done", "param", param, "value", results[i].ParamValue)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// MonteCarloConfig perturbs the base jump to estimate how often the
// jumper reaches the ground under parameter uncertainty.
type MonteCarloConfig struct {
	Base      *config.Config
	Spread    float64 // relative, applied to mass and stiffness
	NumTrials int
	Seed      int64
}

type MonteCarloResult struct {
	TrialID   int
	Mass      float64
	Stiffness float64
	MinHeight float64
	Grounded  bool
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, logger log.Logger) ([]MonteCarloResult, error) {
	if mc.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", mc.NumTrials)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	// Draw every perturbation up front so results do not depend on
	// scheduling order.
	rng := rand.New(rand.NewSource(mc.Seed))
	cfgs := make([]*config.Config, mc.NumTrials)
	for i := range cfgs {
		cfg := mc.Base.Clone()
		cfg.Name = fmt.Sprintf("%s_mc%d", mc.Base.Name, i)
		cfg.Physics.Mass *= 1 + (rng.Float64()-0.5)*2*mc.Spread
		cfg.Physics.Stiffness *= 1 + (rng.Float64()-0.5)*2*mc.Spread
		cfgs[i] = cfg
	}

	results := make([]MonteCarloResult, mc.NumTrials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			res, err := experiment.Run(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			results[i] = MonteCarloResult{
				TrialID:   i,
				Mass:      cfg.Physics.Mass,
				Stiffness: cfg.Physics.Stiffness,
				MinHeight: res.Metrics["min_height"],
				Grounded:  res.Metrics["ground_contacts"] > 0,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	level.Info(logger).Log("msg", "monte carlo complete", "trials", mc.NumTrials)
	return results, nil
}

// MonteCarloStats counts trials that stayed clear of the ground.
func MonteCarloStats(results []MonteCarloResult) (safe int, grounded int) {
	for _, r := range results {
		if r.Grounded {
			grounded++
		} else {
			safe++
		}
	}
	return
}
