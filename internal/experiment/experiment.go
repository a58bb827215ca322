package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"

	"github.com/san-kum/bungee/internal/analysis"
	"github.com/san-kum/bungee/internal/config"
	"github.com/san-kum/bungee/internal/dynamo"
	"github.com/san-kum/bungee/internal/metrics"
	"github.com/san-kum/bungee/internal/physics"
	"github.com/san-kum/bungee/internal/sim"
)

type Result struct {
	Config      *config.Config
	Trajectory  *dynamo.Trajectory
	Metrics     map[string]float64
	Transitions []analysis.Transition
	Elapsed     time.Duration
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   log.Logger
}

func New(cfg *config.Config, registry *Registry, logger log.Logger) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Experiment{cfg: cfg, registry: registry, logger: logger}
}

// Run solves the configured jump and evaluates the default metrics over
// the resulting trajectory.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.cfg == nil {
		return nil, fmt.Errorf("experiment not configured")
	}

	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}

	b := physics.NewBungee(e.cfg.Params())
	solver := sim.New(integ, sim.WithLogger(log.With(e.logger, "run", e.cfg.Name)))

	start := time.Now()
	traj, err := solver.Solve(ctx, b, e.cfg.InitState(), e.cfg.SolverConfig())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.cfg.Name, err)
	}
	elapsed := time.Since(start)

	return &Result{
		Config:      e.cfg.Clone(),
		Trajectory:  traj,
		Metrics:     metrics.Collect(traj, e.registry.DefaultMetrics(b)...),
		Transitions: analysis.Transitions(traj, b),
		Elapsed:     elapsed,
	}, nil
}

// Run is a shorthand for New(cfg, nil, logger).Run(ctx).
func Run(ctx context.Context, cfg *config.Config, logger log.Logger) (*Result, error) {
	return New(cfg, nil, logger).Run(ctx)
}
