package integrators

import "github.com/san-kum/bungee/internal/dynamo"

// Heun is the explicit trapezoidal rule with an embedded Euler step, the
// smallest adaptive pair.
type Heun struct{}

func NewHeun() *Heun {
	return &Heun{}
}

func (h *Heun) Order() int { return 1 }

func (h *Heun) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	xNew, _ := h.Attempt(dyn, x, t, dt)
	return xNew
}

func (h *Heun) Attempt(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State) {
	n := len(x)
	k1 := dyn.Derive(x, t)

	pred := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		pred[i] = x[i] + dt*k1[i]
	}
	k2 := dyn.Derive(pred, t+dt)

	xNew := make(dynamo.State, n)
	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + 0.5*dt*(k1[i]+k2[i])
		errEst[i] = 0.5 * dt * (k2[i] - k1[i])
	}
	return xNew, errEst
}
