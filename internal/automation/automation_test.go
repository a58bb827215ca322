package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/bungee/internal/config"
	"github.com/san-kum/bungee/internal/dynamo"
)

func shortJump() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Solver.TEnd = 8
	return cfg
}

func TestRunSweepOrdered(t *testing.T) {
	results, err := RunSweep(context.Background(), shortJump(), "stiffness", 20, 120, 6, nil)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i, r := range results {
		assert.InDelta(t, 20+20*float64(i), r.ParamValue, 1e-9)
		require.NotNil(t, r.Result)
		assert.InDelta(t, r.ParamValue, r.Result.Config.Physics.Stiffness, 1e-9)
	}

	// A stiffer cord stops the jumper higher up.
	for i := 1; i < len(results); i++ {
		assert.Greater(t,
			results[i].Result.Metrics["min_height"],
			results[i-1].Result.Metrics["min_height"])
	}
}

func TestRunSweepSinglePoint(t *testing.T) {
	results, err := RunSweep(context.Background(), shortJump(), "mass", 60, 100, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 60.0, results[0].ParamValue)
}

func TestRunSweepErrors(t *testing.T) {
	_, err := RunSweep(context.Background(), shortJump(), "colour", 0, 1, 3, nil)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), shortJump(), "mass", 0, 1, 0, nil)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), shortJump(), "mass", 0, 1, -1, nil)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), shortJump(), "mass", -10, 10, 3, nil)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidParameters))
}

func TestRunSweepDoesNotMutateBase(t *testing.T) {
	base := shortJump()
	_, err := RunSweep(context.Background(), base, "length", 10, 40, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, shortJump(), base)
}

func TestScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	data := `name: demo
steps:
  - name: first
    preset: classic
    duration: 5
  - preset: soft
    integrator: rk4
    params:
      mass: 90
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	require.Len(t, sc.Steps, 2)

	cfg, err := sc.Steps[1].Config()
	require.NoError(t, err)
	assert.Equal(t, "soft", cfg.Name)
	assert.Equal(t, "rk4", cfg.Integrator)
	assert.Equal(t, 90.0, cfg.Physics.Mass)
	assert.Equal(t, 20.0, cfg.Physics.Stiffness)

	sc.Steps[1].Duration = 5
	results, err := RunScenario(context.Background(), sc, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Config.Name)
	assert.Equal(t, 5.0, results[0].Trajectory.Times[results[0].Trajectory.Len()-1])
}

func TestScenarioUnknownPreset(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{{Preset: "bridge"}}}
	_, err := RunScenario(context.Background(), sc, nil)
	assert.Error(t, err)
}

func TestMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{Base: shortJump(), Spread: 0.1, NumTrials: 8, Seed: 7}

	a, err := RunMonteCarlo(context.Background(), mc, nil)
	require.NoError(t, err)
	b, err := RunMonteCarlo(context.Background(), mc, nil)
	require.NoError(t, err)

	require.Len(t, a, 8)
	assert.Equal(t, a, b)

	safe, grounded := MonteCarloStats(a)
	assert.Equal(t, 8, safe)
	assert.Zero(t, grounded)
	for _, r := range a {
		assert.InDelta(t, 80, r.Mass, 8)
		assert.InDelta(t, 50, r.Stiffness, 5)
	}
}

func TestMonteCarloStats(t *testing.T) {
	safe, grounded := MonteCarloStats([]MonteCarloResult{{Grounded: true}, {}, {}})
	assert.Equal(t, 2, safe)
	assert.Equal(t, 1, grounded)
}
