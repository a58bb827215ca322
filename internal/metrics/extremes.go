package metrics

import (
	"math"

	"github.com/san-kum/bungee/internal/dynamo"
)

// MinHeight is the lowest point reached.
type MinHeight struct {
	min     float64
	samples int
}

func NewMinHeight() *MinHeight { return &MinHeight{min: math.Inf(1)} }

func (m *MinHeight) Name() string { return "min_height" }

func (m *MinHeight) Observe(x dynamo.State, t float64) {
	m.min = math.Min(m.min, x[0])
	m.samples++
}

func (m *MinHeight) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.min
}

func (m *MinHeight) Reset() {
	m.min = math.Inf(1)
	m.samples = 0
}

// MaxSpeed is the largest |v| observed.
type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(x dynamo.State, t float64) {
	m.max = math.Max(m.max, math.Abs(x[1]))
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }

// GLoad is the peak non-gravitational acceleration felt by the jumper,
// in multiples of |gravity|.
type GLoad struct {
	dyn     dynamo.System
	gravity float64
	max     float64
}

func NewGLoad(dyn dynamo.System, gravity float64) *GLoad {
	return &GLoad{dyn: dyn, gravity: gravity}
}

func (g *GLoad) Name() string { return "max_g" }

func (g *GLoad) Observe(x dynamo.State, t float64) {
	a := g.dyn.Derive(x, t)[1]
	g.max = math.Max(g.max, math.Abs(a-g.gravity))
}

func (g *GLoad) Value() float64 {
	if g.gravity == 0 {
		return 0
	}
	return g.max / math.Abs(g.gravity)
}

func (g *GLoad) Reset() { g.max = 0 }

// GroundContacts counts how many times the jumper reaches the ground.
type GroundContacts struct {
	count    int
	grounded bool
}

func NewGroundContacts() *GroundContacts { return &GroundContacts{} }

func (c *GroundContacts) Name() string { return "ground_contacts" }

func (c *GroundContacts) Observe(x dynamo.State, t float64) {
	down := x[0] <= 0
	if down && !c.grounded {
		c.count++
	}
	c.grounded = down
}

func (c *GroundContacts) Value() float64 { return float64(c.count) }

func (c *GroundContacts) Reset() {
	c.count = 0
	c.grounded = false
}

// Collect feeds every sample of tr to the metrics and returns their values
// keyed by name.
func Collect(tr *dynamo.Trajectory, ms ...dynamo.Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i, x := range tr.States {
			m.Observe(x, tr.Times[i])
		}
		out[m.Name()] = m.Value()
	}
	return out
}
