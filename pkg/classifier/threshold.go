package classifier

import (
	"fmt"

	"github.com/samcharles93/lattice/pkg/hmm"
	"github.com/samcharles93/lattice/pkg/potential"
)

// Threshold builds the rejection model of Lee and Kim from discrete class
// models. Every state of every class model is copied with its emissions and
// self-transition probability; the remaining mass of each row is spread
// evenly over all other states. The initial distribution is the average of
// the class models' initial distributions.
//
// The result scores well on anything resembling some part of some class but
// worse than the matching class model on a complete, well-formed sequence.
func Threshold(models []*hmm.Discrete) (*hmm.Discrete, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	symbols := models[0].Symbols()
	n := 0
	for i, m := range models {
		if m.Symbols() != symbols {
			return nil, fmt.Errorf("%w: class %d has %d symbols, class 0 has %d", hmm.ErrShape, i, m.Symbols(), symbols)
		}
		n += m.States()
	}
	if n == 0 {
		return nil, potential.ErrNoStates
	}

	init := make([]float64, 0, n)
	trans := make([][]float64, 0, n)
	emit := make([][]float64, 0, n)
	k := 0
	for _, m := range models {
		pi := m.Initial()
		a := m.Transitions()
		b := m.Emissions()
		for j := 0; j < m.States(); j++ {
			init = append(init, pi[j]/float64(len(models)))
			row := make([]float64, n)
			self := a[j][j]
			if n == 1 {
				self = 1
			}
			for other := range row {
				if other == k {
					row[other] = self
				} else {
					row[other] = (1 - self) / float64(n-1)
				}
			}
			trans = append(trans, row)
			emit = append(emit, b[j])
			k++
		}
	}
	return hmm.NewDiscrete(init, trans, emit)
}
