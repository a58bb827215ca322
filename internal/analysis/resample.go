package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/bungee/internal/dynamo"
)

// Resample interpolates tr linearly onto n evenly spaced times spanning
// its first and last sample. Step statistics are carried over.
func Resample(tr *dynamo.Trajectory, n int) (*dynamo.Trajectory, error) {
	if n < 2 {
		return nil, fmt.Errorf("resample: need at least 2 points, got %d", n)
	}
	if tr.Len() < 2 {
		return nil, fmt.Errorf("resample: trajectory has %d samples", tr.Len())
	}

	t0, t1 := tr.Times[0], tr.Times[tr.Len()-1]
	times := floats.Span(make([]float64, n), t0, t1)

	out := &dynamo.Trajectory{
		Times:       times,
		States:      make([]dynamo.State, n),
		Steps:       tr.Steps,
		Rejected:    tr.Rejected,
		Evaluations: tr.Evaluations,
	}
	for i, t := range times {
		out.States[i] = At(tr, t)
	}
	return out, nil
}

// At returns the linearly interpolated state at time t, clamped to the
// ends of the trajectory.
func At(tr *dynamo.Trajectory, t float64) dynamo.State {
	n := tr.Len()
	j := sort.SearchFloat64s(tr.Times, t)
	switch {
	case j == 0:
		return tr.States[0].Clone()
	case j >= n:
		return tr.States[n-1].Clone()
	case tr.Times[j] == t:
		return tr.States[j].Clone()
	}

	ta, tb := tr.Times[j-1], tr.Times[j]
	w := (t - ta) / (tb - ta)
	xa, xb := tr.States[j-1], tr.States[j]
	x := make(dynamo.State, len(xa))
	for i := range x {
		x[i] = xa[i] + w*(xb[i]-xa[i])
	}
	return x
}
