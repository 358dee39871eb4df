package fold

import (
	"math"

	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/structure"
)

// Weight returns the Boltzmann weight of s under the ensemble's model: the
// product of the factors of all its loops. Structures the model forbids
// (non-pairing bases, oversized interior loops) weigh 0.
func (e *Ensemble) Weight(s structure.Structure) (float64, error) {
	if s.Length != e.n {
		return 0, errors.New(errors.ErrCodeInvalidInput, "structure length %d does not match ensemble length %d", s.Length, e.n)
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	pt := s.PairTable()

	w := 1.0
	for _, p := range s.Pairs {
		w *= e.closedLoop(pt, p.I, p.J)
		if w == 0 {
			return 0, nil
		}
	}
	return w * e.exteriorLoop(pt), nil
}

// Energy returns the free energy of s in kcal/mol, or +Inf when the model
// forbids it.
func (e *Ensemble) Energy(s structure.Structure) (float64, error) {
	w, err := e.Weight(s)
	if err != nil {
		return 0, err
	}
	if w == 0 {
		return math.Inf(1), nil
	}
	return -e.kT * math.Log(w), nil
}

// branches lists the pairs directly enclosed in from..to and counts the
// unpaired positions of that loop.
func branches(pt []int, from, to int) ([]structure.Pair, int) {
	var bs []structure.Pair
	unpaired := 0
	for p := from; p <= to; {
		if q := pt[p]; q > p {
			bs = append(bs, structure.Pair{I: p, J: q})
			p = q + 1
			continue
		}
		unpaired++
		p++
	}
	return bs, unpaired
}

func (e *Ensemble) closedLoop(pt []int, i, j int) float64 {
	bs, unpaired := branches(pt, i+1, j-1)
	switch len(bs) {
	case 0:
		return e.Hairpin(i, j)
	case 1:
		return e.Interior(i, j, bs[0].I, bs[0].J)
	default:
		return e.MLClosing(i, j) * e.multiloop(bs, unpaired)
	}
}

func (e *Ensemble) multiloop(bs []structure.Pair, unpaired int) float64 {
	w := e.MLBase(unpaired)
	for _, b := range bs {
		w *= e.MLStem(b.I, b.J)
	}
	return w
}

func (e *Ensemble) exteriorLoop(pt []int) float64 {
	bs, unpaired := branches(pt, 1, e.n)
	if !e.model.Circular {
		w := 1.0
		for _, b := range bs {
			w *= e.ExtStem(b.I, b.J)
		}
		return w
	}
	switch len(bs) {
	case 0:
		return 1
	case 1:
		return e.OuterHairpin(bs[0].I, bs[0].J)
	case 2:
		return e.OuterInterior(bs[0].I, bs[0].J, bs[1].I, bs[1].J)
	default:
		return e.OuterMLClosing() * e.multiloop(bs, unpaired)
	}
}
