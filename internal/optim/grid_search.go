package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/bungee/internal/config"
	"github.com/san-kum/bungee/internal/experiment"
)

// Objective scores a finished run; lower is better.
type Objective func(res *experiment.Result) float64

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     log.Logger
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, logger: log.NewNopLogger()}
}

func (g *GridSearch) WithLogger(l log.Logger) *GridSearch {
	g.logger = l
	return g
}

// Search runs base once per point of the cartesian product of the ranges
// and returns the parameters with the lowest finite objective. Points
// whose parameters are invalid are skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective Objective) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid search: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), base, objective, &best, &bestParams); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("grid search: no acceptable point")
	}

	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		cfg := base.Clone()
		for k, v := range current {
			if err := cfg.SetParam(k, v); err != nil {
				return err
			}
		}
		if cfg.Validate() != nil {
			return nil
		}

		result, err := experiment.Run(ctx, cfg, g.logger)
		if err != nil {
			return err
		}

		val := objective(result)
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, objective, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// Clearance scores how close the lowest point comes to the wanted
// clearance above the ground. Runs that exceed maxG or touch the ground
// score +Inf.
func Clearance(clearance, maxG float64) Objective {
	return func(res *experiment.Result) float64 {
		m := res.Metrics
		if m["ground_contacts"] > 0 || (maxG > 0 && m["max_g"] > maxG) {
			return math.Inf(1)
		}
		return math.Abs(m["min_height"] - clearance)
	}
}

// Linspace returns n evenly spaced values over [lo, hi]. A single point
// is lo.
func Linspace(lo, hi float64, n int) ([]float64, error) {
	switch {
	case n < 1:
		return nil, fmt.Errorf("linspace needs at least one point, got %d", n)
	case n == 1:
		return []float64{lo}, nil
	}
	return floats.Span(make([]float64, n), lo, hi), nil
}
