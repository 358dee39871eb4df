package fold

import (
	"iter"

	"github.com/matzehuels/stochfold/pkg/ensemble"
	"github.com/matzehuels/stochfold/pkg/structure"
)

// Enumerate yields every structure with non-zero weight together with its
// weight. The number of structures grows exponentially with length, so this
// is only usable for short inputs such as exact comparisons in tests.
func (e *Ensemble) Enumerate() iter.Seq2[structure.Structure, float64] {
	return func(yield func(structure.Structure, float64) bool) {
		var pairs []structure.Pair

		emit := func() bool {
			s := structure.New(e.n, pairs)
			s.Consensus = e.kind == ensemble.KindComparative
			w, err := e.Weight(s)
			if err != nil || w == 0 {
				return true
			}
			return yield(s, w)
		}

		// seg enumerates i..j and continues with next for each choice.
		var seg func(i, j int, next func() bool) bool
		seg = func(i, j int, next func() bool) bool {
			if i > j {
				return next()
			}
			if !seg(i+1, j, next) {
				return false
			}
			for k := i + e.model.MinLoop + 1; k <= j; k++ {
				if !e.CanPair(i, k) {
					continue
				}
				pairs = append(pairs, structure.Pair{I: i, J: k})
				ok := seg(i+1, k-1, func() bool { return seg(k+1, j, next) })
				pairs = pairs[:len(pairs)-1]
				if !ok {
					return false
				}
			}
			return true
		}
		seg(1, e.n, emit)
	}
}
