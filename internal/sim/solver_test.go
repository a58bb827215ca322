package sim_test

import (
	"bytes"
	"context"
	"errors"
	"math"

	"github.com/go-kit/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bungee/internal/dynamo"
	"github.com/san-kum/bungee/internal/integrators"
	"github.com/san-kum/bungee/internal/physics"
	"github.com/san-kum/bungee/internal/sim"
)

// countingSystem wraps a system and counts derivative evaluations.
type countingSystem struct {
	dynamo.System
	calls int
}

func (c *countingSystem) Derive(x dynamo.State, t float64) dynamo.State {
	c.calls++
	return c.System.Derive(x, t)
}

func (c *countingSystem) Validate() error {
	if v, ok := c.System.(dynamo.Validator); ok {
		return v.Validate()
	}
	return nil
}

// blowUp returns a NaN acceleration once y drops below a threshold.
type blowUp struct{ below float64 }

func (b blowUp) StateDim() int { return 2 }

func (b blowUp) Derive(x dynamo.State, t float64) dynamo.State {
	if x[0] < b.below {
		return dynamo.State{x[1], math.NaN()}
	}
	return dynamo.State{x[1], -9.81}
}

// stiffDecay needs tiny steps long before its solution settles.
type stiffDecay struct{}

func (stiffDecay) StateDim() int { return 2 }

func (stiffDecay) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{-1e9 * x[0], x[1]}
}

// lateSpike is flat until t passes at, then oscillates far too fast for
// any step the solver is allowed to take.
type lateSpike struct{ at float64 }

func (lateSpike) StateDim() int { return 2 }

func (l lateSpike) Derive(x dynamo.State, t float64) dynamo.State {
	if t <= l.at {
		return dynamo.State{0, 0}
	}
	return dynamo.State{1e6 * math.Sin(1e3*t), 0}
}

var _ = Describe("Solver", func() {
	var (
		ctx    context.Context
		params physics.Params
		cfg    dynamo.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		params = physics.DefaultParams()
		cfg = dynamo.DefaultConfig()
	})

	solve := func(integ dynamo.Integrator) (*dynamo.Trajectory, error) {
		b := physics.NewBungee(params)
		return sim.New(integ).Solve(ctx, b, b.InitialState(), cfg)
	}

	Describe("the default jump", func() {
		var traj *dynamo.Trajectory

		BeforeEach(func() {
			var err error
			traj, err = solve(integrators.NewRK45())
			Expect(err).NotTo(HaveOccurred())
		})

		It("starts at the platform at rest", func() {
			Expect(traj.Times[0]).To(Equal(cfg.TStart))
			Expect(traj.States[0]).To(Equal(dynamo.State{params.Height, 0}))
		})

		It("ends exactly at the end of the span", func() {
			tEnd, _ := traj.Final()
			Expect(tEnd).To(Equal(cfg.TEnd))
		})

		It("produces strictly increasing times with steps bounded by the max step", func() {
			for i := 1; i < traj.Len(); i++ {
				dt := traj.Times[i] - traj.Times[i-1]
				Expect(dt).To(BeNumerically(">", 0))
				Expect(dt).To(BeNumerically("<=", cfg.MaxStep))
			}
		})

		It("emits one sample per accepted step", func() {
			Expect(traj.Len()).To(Equal(traj.Steps + 1))
			Expect(traj.Len()).To(Equal(len(traj.States)))
			Expect(traj.Steps).To(BeNumerically(">=", int(cfg.TEnd/cfg.MaxStep)))
			Expect(traj.Evaluations).To(BeNumerically(">=", 6*traj.Steps))
		})

		It("bounces on the cord without reaching the ground", func() {
			heights := traj.Positions()
			lowest := heights[0]
			for _, y := range heights {
				Expect(math.IsNaN(y)).To(BeFalse())
				lowest = math.Min(lowest, y)
			}
			Expect(lowest).To(BeNumerically("~", 13.68, 0.1))
			Expect(lowest).To(BeNumerically(">", 0))
		})

		It("settles towards the cord's equilibrium", func() {
			_, final := traj.Final()
			yEq := physics.NewBungee(params).EquilibriumHeight()
			Expect(final[0]).To(BeNumerically("~", yEq, 5))
		})
	})

	It("matches the closed-form free fall without cord or drag", func() {
		params.Stiffness = 0
		params.LinearDrag = 0
		params.QuadraticDrag = 0
		cfg.TEnd = 3

		traj, err := solve(integrators.NewRK45())
		Expect(err).NotTo(HaveOccurred())

		for i, t := range traj.Times {
			want := params.Height + 0.5*params.Gravity*t*t
			Expect(traj.States[i][0]).To(BeNumerically("~", want, 1e-6))
			Expect(traj.States[i][1]).To(BeNumerically("~", params.Gravity*t, 1e-6))
		}
	})

	It("is deterministic", func() {
		a, err := solve(integrators.NewRK45())
		Expect(err).NotTo(HaveOccurred())
		b, err := solve(integrators.NewRK45())
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Times).To(Equal(b.Times))
		Expect(a.States).To(Equal(b.States))
	})

	DescribeTable("step-doubling and embedded integrators agree on the jump",
		func(integ dynamo.Integrator) {
			cfg.TEnd = 10
			ref, err := solve(integrators.NewRK45())
			Expect(err).NotTo(HaveOccurred())

			traj, err := solve(integ)
			Expect(err).NotTo(HaveOccurred())

			_, want := ref.Final()
			_, got := traj.Final()
			Expect(got[0]).To(BeNumerically("~", want[0], 0.5))
		},
		Entry("rk4", integrators.NewRK4()),
		Entry("heun", integrators.NewHeun()),
	)

	It("honours an explicit first step", func() {
		cfg.FirstStep = 0.01
		traj, err := solve(integrators.NewRK45())
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Times[1]).To(BeNumerically("~", 0.01, 1e-15))
	})

	Describe("invalid parameters", func() {
		It("rejects zero mass before evaluating the force model", func() {
			params.Mass = 0
			counter := &countingSystem{System: physics.NewBungee(params)}

			traj, err := sim.New(integrators.NewRK45()).Solve(ctx, counter, dynamo.State{params.Height, 0}, cfg)
			Expect(traj).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidParameters)).To(BeTrue())
			Expect(counter.calls).To(BeZero())
		})

		DescribeTable("rejects bad solver settings",
			func(mutate func(*dynamo.Config)) {
				mutate(&cfg)
				_, err := solve(integrators.NewRK45())
				Expect(errors.Is(err, dynamo.ErrInvalidParameters)).To(BeTrue())
			},
			Entry("zero max step", func(c *dynamo.Config) { c.MaxStep = 0 }),
			Entry("negative max step", func(c *dynamo.Config) { c.MaxStep = -0.1 }),
			Entry("empty span", func(c *dynamo.Config) { c.TEnd = c.TStart }),
			Entry("reversed span", func(c *dynamo.Config) { c.TEnd = -1 }),
			Entry("zero tolerance", func(c *dynamo.Config) { c.RelTol = 0 }),
			Entry("nan end", func(c *dynamo.Config) { c.TEnd = math.NaN() }),
		)

		It("rejects a state of the wrong size", func() {
			b := physics.NewBungee(params)
			_, err := sim.New(integrators.NewRK45()).Solve(ctx, b, dynamo.State{1, 2, 3}, cfg)
			Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
		})

		It("rejects a non-finite initial state", func() {
			b := physics.NewBungee(params)
			_, err := sim.New(integrators.NewRK45()).Solve(ctx, b, dynamo.State{math.Inf(1), 0}, cfg)
			Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
		})
	})

	Describe("failures during integration", func() {
		It("reports a non-finite derivative as numerical instability", func() {
			traj, err := sim.New(integrators.NewRK45()).Solve(ctx, blowUp{below: 70}, dynamo.State{80, 0}, cfg)
			Expect(traj).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrNumericalInstability)).To(BeTrue())
			Expect(errors.Is(err, dynamo.ErrIntegrationFailure)).To(BeFalse())

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.State[0]).To(BeNumerically("<", 70))
		})

		It("reports an unreachable tolerance as integration failure", func() {
			cfg.MinStep = 1e-3
			cfg.TEnd = 1
			traj, err := sim.New(integrators.NewRK45()).Solve(ctx, stiffDecay{}, dynamo.State{1, 1}, cfg)
			Expect(traj).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrIntegrationFailure)).To(BeTrue())
		})

		It("stops at the step ceiling", func() {
			cfg.MaxSteps = 10
			traj, err := solve(integrators.NewRK45())
			Expect(traj).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrIntegrationFailure)).To(BeTrue())
		})

		It("stops at the step ceiling over a vast span without preallocating it", func() {
			cfg.TEnd = 1e300
			cfg.MaxStep = 1e-3
			cfg.MaxSteps = 100
			traj, err := solve(integrators.NewRK45())
			Expect(traj).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrIntegrationFailure)).To(BeTrue())

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(100))
		})

		It("stops when the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			b := physics.NewBungee(params)
			_, err := sim.New(integrators.NewRK45()).Solve(cancelled, b, b.InitialState(), cfg)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	It("takes a remainder within the step floor in one step to the end", func() {
		cfg.TEnd = 1
		cfg.FirstStep = 0.35
		cfg.MaxStep = 0.35
		cfg.MinStep = 0.31
		traj, err := sim.New(integrators.NewRK45()).Solve(ctx, lateSpike{at: 0.75}, dynamo.State{1, 0}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Times[len(traj.Times)-1]).To(Equal(1.0))
		Expect(traj.Steps).To(Equal(3))
		Expect(traj.Rejected).To(BeZero())
	})

	It("logs a completion line", func() {
		var buf bytes.Buffer
		b := physics.NewBungee(params)
		cfg.TEnd = 1
		_, err := sim.New(integrators.NewRK45(), sim.WithLogger(log.NewLogfmtLogger(&buf))).Solve(ctx, b, b.InitialState(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("msg=\"solve complete\""))
	})
})
