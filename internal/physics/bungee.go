package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/bungee/internal/dynamo"
)

const (
	DefaultGravity       = -9.81
	DefaultStiffness     = 50.0
	DefaultLength        = 30.0
	DefaultMass          = 80.0
	DefaultHeight        = 80.0
	DefaultLinearDrag    = 1.0
	DefaultQuadraticDrag = 1.0
)

// Regime is the force law in effect for a given height.
type Regime int

const (
	Ground Regime = iota
	Stretched
	FreeFall
)

func (r Regime) String() string {
	switch r {
	case Ground:
		return "ground"
	case Stretched:
		return "stretched"
	case FreeFall:
		return "freefall"
	default:
		return fmt.Sprintf("regime(%d)", int(r))
	}
}

// Params are the physical constants of a jump. Heights are measured as
// height remaining above the ground: the jumper starts at Height and y
// decreases while falling, so velocities are negative on the way down.
type Params struct {
	Gravity       float64
	Stiffness     float64
	Length        float64
	Mass          float64
	Height        float64
	LinearDrag    float64
	QuadraticDrag float64
}

func DefaultParams() Params {
	return Params{
		Gravity:       DefaultGravity,
		Stiffness:     DefaultStiffness,
		Length:        DefaultLength,
		Mass:          DefaultMass,
		Height:        DefaultHeight,
		LinearDrag:    DefaultLinearDrag,
		QuadraticDrag: DefaultQuadraticDrag,
	}
}

func (p Params) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"gravity", p.Gravity},
		{"stiffness", p.Stiffness},
		{"length", p.Length},
		{"mass", p.Mass},
		{"height", p.Height},
		{"linear_drag", p.LinearDrag},
		{"quadratic_drag", p.QuadraticDrag},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", dynamo.ErrInvalidParameters, f.name)
		}
	}
	switch {
	case p.Mass <= 0:
		return fmt.Errorf("%w: mass must be positive, got %g", dynamo.ErrInvalidParameters, p.Mass)
	case p.Height <= 0:
		return fmt.Errorf("%w: height must be positive, got %g", dynamo.ErrInvalidParameters, p.Height)
	case p.Gravity >= 0:
		return fmt.Errorf("%w: gravity must be negative, got %g", dynamo.ErrInvalidParameters, p.Gravity)
	case p.Stiffness < 0:
		return fmt.Errorf("%w: stiffness must not be negative, got %g", dynamo.ErrInvalidParameters, p.Stiffness)
	case p.Length < 0:
		return fmt.Errorf("%w: length must not be negative, got %g", dynamo.ErrInvalidParameters, p.Length)
	case p.LinearDrag < 0 || p.QuadraticDrag < 0:
		return fmt.Errorf("%w: drag coefficients must not be negative", dynamo.ErrInvalidParameters)
	}
	return nil
}

// Bungee is the force model of a jumper on an elastic cord.
type Bungee struct {
	p Params
}

func NewBungee(p Params) *Bungee {
	return &Bungee{p: p}
}

func (b *Bungee) Params() Params { return b.p }

func (b *Bungee) StateDim() int { return 2 }

func (b *Bungee) Validate() error { return b.p.Validate() }

// InitialState is the jumper at rest on the platform.
func (b *Bungee) InitialState() dynamo.State {
	return dynamo.State{b.p.Height, 0}
}

// TautHeight is the height below which the cord is stretched.
func (b *Bungee) TautHeight() float64 {
	return b.p.Height - b.p.Length
}

// Classify selects the regime for height y. Ground wins at y <= 0; the
// taut boundary y == Height-Length belongs to free fall, where the
// elastic term is zero anyway.
func (b *Bungee) Classify(y float64) Regime {
	switch {
	case y <= 0:
		return Ground
	case y < b.TautHeight():
		return Stretched
	default:
		return FreeFall
	}
}

func (b *Bungee) Derive(x dynamo.State, t float64) dynamo.State {
	y, v := x[0], x[1]
	return dynamo.State{v, b.Acceleration(b.Classify(y), y, v)}
}

// Acceleration evaluates dv/dt under regime r regardless of where y lies.
func (b *Bungee) Acceleration(r Regime, y, v float64) float64 {
	p := b.p
	switch r {
	case Ground:
		return p.Gravity + b.elastic(y)
	case Stretched:
		return p.Gravity + b.elastic(y) + b.drag(v)
	default:
		return p.Gravity + b.drag(v)
	}
}

// elastic is the Hooke restoring acceleration for the cord extension
// Height-y-Length.
func (b *Bungee) elastic(y float64) float64 {
	return b.p.Stiffness * (b.p.Height - y - b.p.Length) / b.p.Mass
}

// drag always opposes v.
func (b *Bungee) drag(v float64) float64 {
	return (-b.p.LinearDrag*v - b.p.QuadraticDrag*math.Abs(v)*v) / b.p.Mass
}

// Energy is kinetic plus gravitational (relative to the ground) plus the
// elastic energy of the cord while it is extended.
func (b *Bungee) Energy(x dynamo.State) float64 {
	y, v := x[0], x[1]
	p := b.p
	e := 0.5*p.Mass*v*v - p.Mass*p.Gravity*y
	if ext := b.TautHeight() - y; ext > 0 {
		e += 0.5 * p.Stiffness * ext * ext
	}
	return e
}

// EquilibriumHeight is where the cord balances gravity at rest.
func (b *Bungee) EquilibriumHeight() float64 {
	if b.p.Stiffness == 0 {
		return math.Inf(-1)
	}
	return b.TautHeight() + b.p.Mass*b.p.Gravity/b.p.Stiffness
}

// NaturalFrequency is the undamped oscillation frequency of the stretched
// cord in Hz.
func (b *Bungee) NaturalFrequency() float64 {
	return math.Sqrt(b.p.Stiffness/b.p.Mass) / (2 * math.Pi)
}

// GetParams returns a copy of the parameters keyed by name. A Bungee is
// immutable once built; derive a new one from changed Params instead.
func (b *Bungee) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":        b.p.Gravity,
		"stiffness":      b.p.Stiffness,
		"length":         b.p.Length,
		"mass":           b.p.Mass,
		"height":         b.p.Height,
		"linear_drag":    b.p.LinearDrag,
		"quadratic_drag": b.p.QuadraticDrag,
	}
}

// ParamNames lists the keys of GetParams, which config.Config.SetParam
// also accepts.
func ParamNames() []string {
	return []string{"gravity", "stiffness", "length", "mass", "height", "linear_drag", "quadratic_drag"}
}
