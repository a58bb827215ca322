package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/san-kum/bungee/internal/dynamo"
)

// Step-size controller constants.
const (
	safety    = 0.9
	minFactor = 0.2
	maxFactor = 10.0
)

// Solver integrates a system over a fixed span with adaptive step control.
// Integrators implementing dynamo.AdaptiveIntegrator provide their own
// error estimate; any other integrator is made adaptive by step doubling.
type Solver struct {
	integrator dynamo.Integrator
	logger     log.Logger
}

type Option func(*Solver)

func WithLogger(l log.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(integrator dynamo.Integrator, opts ...Option) *Solver {
	s := &Solver{
		integrator: integrator,
		logger:     log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve integrates dyn from x0 over [cfg.TStart, cfg.TEnd] and returns one
// sample per accepted step, starting with (TStart, x0) and ending exactly
// at TEnd. On failure no trajectory is returned.
func (s *Solver) Solve(ctx context.Context, dyn dynamo.System, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Trajectory, error) {
	if err := s.validate(dyn, x0, cfg); err != nil {
		return nil, err
	}

	g := &guardedSystem{dyn: dyn}
	t := cfg.TStart
	x := x0.Clone()
	n := sampleCapacity(cfg)
	traj := &dynamo.Trajectory{
		Times:  make([]float64, 0, n),
		States: make([]dynamo.State, 0, n),
	}
	traj.Times = append(traj.Times, t)
	traj.States = append(traj.States, x.Clone())

	exponent := -1.0 / float64(s.integrator.Order()+1)

	h := cfg.FirstStep
	if h == 0 {
		h = s.initialStep(g, x, t, cfg)
		if g.bad {
			return nil, s.fail(0, g.badT, g.badX, dynamo.ErrNumericalInstability)
		}
	}

	for t < cfg.TEnd {
		select {
		case <-ctx.Done():
			return nil, s.fail(traj.Steps, t, x, ctx.Err())
		default:
		}

		if cfg.MaxSteps > 0 && traj.Steps >= cfg.MaxSteps {
			return nil, s.fail(traj.Steps, t, x, fmt.Errorf("%w: step limit %d reached", dynamo.ErrIntegrationFailure, cfg.MaxSteps))
		}

		floor := math.Max(cfg.MinStep, 10*(math.Nextafter(t, math.Inf(1))-t))
		h = math.Min(h, cfg.MaxStep)
		if h < floor {
			h = floor
		}

		// Within a floor of TEnd the remainder cannot be split further, so
		// the last step goes straight to TEnd and is taken as is.
		last := cfg.TEnd-t <= floor
		rejected := false
		for {
			if h < floor && !last {
				return nil, s.fail(traj.Steps, t, x, fmt.Errorf("%w: required step %g below floor %g", dynamo.ErrIntegrationFailure, h, floor))
			}

			tNew := t + h
			if tNew > cfg.TEnd || last {
				tNew = cfg.TEnd
			}
			step := tNew - t

			xNew, errEst := s.attempt(g, x, t, step)
			if g.bad {
				return nil, s.fail(traj.Steps, g.badT, g.badX, dynamo.ErrNumericalInstability)
			}
			errNorm := errorNorm(errEst, x, xNew, cfg)
			if !xNew.IsValid() || math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
				return nil, s.fail(traj.Steps, tNew, xNew, dynamo.ErrNumericalInstability)
			}

			if errNorm < 1 || last {
				factor := maxFactor
				if errNorm > 0 {
					factor = math.Min(maxFactor, safety*math.Pow(errNorm, exponent))
				}
				if rejected {
					factor = math.Min(1, factor)
				}
				h = step * factor
				t, x = tNew, xNew
				break
			}

			h = step * math.Max(minFactor, safety*math.Pow(errNorm, exponent))
			rejected = true
			traj.Rejected++
			level.Debug(s.logger).Log("msg", "step rejected", "t", t, "h", step, "err_norm", errNorm)
		}

		traj.Steps++
		traj.Times = append(traj.Times, t)
		traj.States = append(traj.States, x.Clone())
	}

	traj.Evaluations = g.evals
	level.Info(s.logger).Log("msg", "solve complete", "samples", traj.Len(), "steps", traj.Steps,
		"rejected", traj.Rejected, "evaluations", traj.Evaluations)

	return traj, nil
}

// maxPrealloc bounds the sample buffers allocated before the first step.
const maxPrealloc = 1 << 16

// sampleCapacity estimates how many samples a solve keeps, bounded so a
// vast span with a tiny max step cannot demand an absurd allocation.
func sampleCapacity(cfg dynamo.Config) int {
	n := maxPrealloc
	if est := (cfg.TEnd-cfg.TStart)/cfg.MaxStep + 2; est < float64(n) {
		n = int(est)
	}
	if cfg.MaxSteps > 0 && cfg.MaxSteps+1 < n {
		n = cfg.MaxSteps + 1
	}
	return n
}

func (s *Solver) validate(dyn dynamo.System, x0 dynamo.State, cfg dynamo.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if v, ok := dyn.(dynamo.Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if len(x0) != dyn.StateDim() {
		return fmt.Errorf("%w: state has %d components, system expects %d", dynamo.ErrDimensionMismatch, len(x0), dyn.StateDim())
	}
	if !x0.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}

func (s *Solver) fail(step int, t float64, x dynamo.State, err error) error {
	level.Debug(s.logger).Log("msg", "solve failed", "step", step, "t", t, "err", err)
	return &dynamo.SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err}
}

// attempt takes one trial step of size h and returns the new state with
// its local error estimate.
func (s *Solver) attempt(dyn dynamo.System, x dynamo.State, t, h float64) (dynamo.State, dynamo.State) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		return adaptive.Attempt(dyn, x, t, h)
	}

	x1 := s.integrator.Step(dyn, x, t, h)
	xHalf := s.integrator.Step(dyn, x, t, h/2)
	x2 := s.integrator.Step(dyn, xHalf, t+h/2, h/2)

	richardson := 1 / (math.Pow(2, float64(s.integrator.Order())) - 1)
	return x2, x2.Sub(x1).Scale(richardson)
}

// initialStep picks the first trial step from the local scale of the
// solution and its derivatives (Hairer, Norsett & Wanner, II.4).
func (s *Solver) initialStep(dyn dynamo.System, x dynamo.State, t float64, cfg dynamo.Config) float64 {
	n := len(x)
	scale := make([]float64, n)
	for i := range x {
		scale[i] = cfg.AbsTol + math.Abs(x[i])*cfg.RelTol
	}

	f0 := dyn.Derive(x, t)
	d0 := rmsNorm(x, scale)
	d1 := rmsNorm(f0, scale)

	h0 := 0.01 * d0 / d1
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	}
	h0 = math.Min(h0, cfg.TEnd-cfg.TStart)

	x1 := make(dynamo.State, n)
	for i := range x {
		x1[i] = x[i] + h0*f0[i]
	}
	f1 := dyn.Derive(x1, t+h0)
	d2 := rmsNorm(f1.Sub(f0), scale) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1/float64(s.integrator.Order()+1))
	}

	return math.Min(100*h0, h1)
}

func errorNorm(errEst, x, xNew dynamo.State, cfg dynamo.Config) float64 {
	scale := make([]float64, len(x))
	for i := range x {
		scale[i] = cfg.AbsTol + math.Max(math.Abs(x[i]), math.Abs(xNew[i]))*cfg.RelTol
	}
	return rmsNorm(errEst, scale)
}

func rmsNorm(v dynamo.State, scale []float64) float64 {
	sum := 0.0
	for i := range v {
		r := v[i] / scale[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(v)))
}

// guardedSystem counts evaluations and records the first non-finite
// derivative.
type guardedSystem struct {
	dyn   dynamo.System
	evals int
	bad   bool
	badT  float64
	badX  dynamo.State
}

func (g *guardedSystem) StateDim() int { return g.dyn.StateDim() }

func (g *guardedSystem) Derive(x dynamo.State, t float64) dynamo.State {
	g.evals++
	dx := g.dyn.Derive(x, t)
	if !g.bad && !dx.IsValid() {
		g.bad = true
		g.badT = t
		g.badX = x.Clone()
	}
	return dx
}
