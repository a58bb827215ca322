package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous or time-dependent ODE dx/dt = f(x, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Hamiltonian systems expose their mechanical energy.
type Hamiltonian interface {
	Energy(x State) float64
}

// Validator is implemented by systems whose parameters can be checked
// before integration starts.
type Validator interface {
	Validate() error
}

// Metric accumulates a scalar over the samples of a trajectory.
type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Integrator advances x by a single fixed step. Order is the order of
// accuracy of the method and drives the step-size controller.
type Integrator interface {
	Step(dyn System, x State, t, dt float64) State
	Order() int
}

// AdaptiveIntegrator is an embedded pair: Attempt returns the propagated
// state together with a local error estimate for the same step.
type AdaptiveIntegrator interface {
	Integrator
	Attempt(dyn System, x State, t, dt float64) (State, State)
}

type Config struct {
	TStart    float64
	TEnd      float64
	MaxStep   float64
	MinStep   float64
	FirstStep float64
	RelTol    float64
	AbsTol    float64
	MaxSteps  int
}

func DefaultConfig() Config {
	return Config{
		TStart:  0,
		TEnd:    50,
		MaxStep: 0.05,
		RelTol:  1e-3,
		AbsTol:  1e-6,
	}
}

func (c Config) Validate() error {
	for _, v := range []float64{c.TStart, c.TEnd, c.MaxStep, c.MinStep, c.FirstStep, c.RelTol, c.AbsTol} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite solver setting", ErrInvalidParameters)
		}
	}
	if c.MaxStep <= 0 {
		return fmt.Errorf("%w: max step must be positive, got %g", ErrInvalidParameters, c.MaxStep)
	}
	if c.TEnd <= c.TStart {
		return fmt.Errorf("%w: t_end (%g) must be after t_start (%g)", ErrInvalidParameters, c.TEnd, c.TStart)
	}
	if c.RelTol <= 0 || c.AbsTol <= 0 {
		return fmt.Errorf("%w: tolerances must be positive", ErrInvalidParameters)
	}
	if c.MinStep < 0 || c.FirstStep < 0 || c.MaxSteps < 0 {
		return fmt.Errorf("%w: min step, first step and max steps must not be negative", ErrInvalidParameters)
	}
	return nil
}

// Trajectory is the accepted-step time series of one solve. Times are
// strictly increasing and States[i] is the state at Times[i].
type Trajectory struct {
	Times       []float64
	States      []State
	Steps       int
	Rejected    int
	Evaluations int
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// Component returns the i-th state variable as a series parallel to Times.
func (tr *Trajectory) Component(i int) []float64 {
	out := make([]float64, len(tr.States))
	for j, s := range tr.States {
		out[j] = s[i]
	}
	return out
}

func (tr *Trajectory) Positions() []float64  { return tr.Component(0) }
func (tr *Trajectory) Velocities() []float64 { return tr.Component(1) }

// Final returns the last sample. It panics on an empty trajectory.
func (tr *Trajectory) Final() (float64, State) {
	n := len(tr.Times) - 1
	return tr.Times[n], tr.States[n]
}
