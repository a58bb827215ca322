package analysis

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/bungee/internal/dynamo"
	"github.com/san-kum/bungee/internal/physics"
)

type Transition struct {
	Time float64
	From physics.Regime
	To   physics.Regime
}

// Transitions lists every regime change along tr. The crossing time is
// interpolated between the two samples that straddle the boundary.
func Transitions(tr *dynamo.Trajectory, b *physics.Bungee) []Transition {
	var out []Transition
	if tr.Len() == 0 {
		return out
	}

	prev := b.Classify(tr.States[0][0])
	for i := 1; i < tr.Len(); i++ {
		cur := b.Classify(tr.States[i][0])
		if cur == prev {
			continue
		}

		boundary := b.TautHeight()
		if cur == physics.Ground || prev == physics.Ground {
			boundary = 0
		}
		ya, yb := tr.States[i-1][0], tr.States[i][0]
		ta, tb := tr.Times[i-1], tr.Times[i]
		t := tb
		if ya != yb {
			t = ta + (boundary-ya)/(yb-ya)*(tb-ta)
		}

		out = append(out, Transition{Time: t, From: prev, To: cur})
		prev = cur
	}
	return out
}

// Lowest returns the time and height of the lowest sample.
func Lowest(tr *dynamo.Trajectory) (float64, float64) {
	if tr.Len() == 0 {
		return 0, 0
	}
	y := tr.Positions()
	i := floats.MinIdx(y)
	return tr.Times[i], y[i]
}

// Rebounds returns the indices of interior local minima of the height,
// i.e. the bottom of each bounce.
func Rebounds(tr *dynamo.Trajectory) []int {
	y := tr.Positions()
	var out []int
	for i := 1; i+1 < len(y); i++ {
		if y[i] < y[i-1] && y[i] <= y[i+1] {
			out = append(out, i)
		}
	}
	return out
}
