package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/bungee/internal/dynamo"
	"github.com/san-kum/bungee/internal/integrators"
	"github.com/san-kum/bungee/internal/metrics"
	"github.com/san-kum/bungee/internal/physics"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["heun"] = func() dynamo.Integrator { return integrators.NewHeun() }
	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(b *physics.Bungee) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewMinHeight(),
		metrics.NewMaxSpeed(),
		metrics.NewGLoad(b, b.Params().Gravity),
		metrics.NewEnergyLoss(b),
		metrics.NewGroundContacts(),
	}
}
