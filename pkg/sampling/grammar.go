package sampling

import (
	"iter"

	"github.com/matzehuels/stochfold/pkg/ensemble"
)

type frameKind uint8

const (
	frameExterior frameKind = iota // exterior prefix 1..j
	framePair                      // i·j paired, loop closed by it undecided
	frameMulti                     // multiloop segment i..j, at least one branch
	frameBranch                    // one branch starting at i within i..j
	frameMulti2                    // two branches within i..n
	frameCircular                  // exterior loop of a circular molecule
)

// frame is a pending interval in a loop context.
type frame struct {
	kind frameKind
	i, j int
}

// choiceKind tags decomposition choices. Values only need to be distinct
// within a frame kind.
type choiceKind uint8

const (
	choiceUnpaired choiceKind = iota
	choiceExtStem
	choiceHairpin
	choiceInterior
	choiceMulti
	choiceMLLeading
	choiceMLSplit
	choiceBranch
	choiceMulti2Split
	choiceOpen
	choiceOuterHairpin
	choiceOuterInterior
	choiceOuterMulti
)

// choiceKey identifies a choice within its parent frame.
type choiceKey struct {
	kind       choiceKind
	a, b, c, d int
}

// choice is one way of resolving a frame: a local loop factor and up to two
// child frames. Its weight is factor × Π value(child).
type choice struct {
	key      choiceKey
	factor   float64
	weight   float64
	children [2]frame
	n        int
}

// grammar enumerates decomposition choices over an ensemble.
type grammar struct {
	ens ensemble.Ensemble
	n   int
}

// value returns the partition function of a frame.
func (g *grammar) value(f frame) float64 {
	switch f.kind {
	case frameExterior:
		return g.ens.Q5(f.j)
	case framePair:
		return g.ens.QB(f.i, f.j)
	case frameMulti:
		return g.ens.QM(f.i, f.j)
	case frameBranch:
		return g.ens.QM1(f.i, f.j)
	case frameMulti2:
		return g.ens.QM2(f.i)
	case frameCircular:
		return g.ens.Z()
	}
	return 0
}

// terminal reports whether f has nothing left to decide.
func (g *grammar) terminal(f frame) bool {
	return f.kind == frameExterior && f.j <= 0
}

// choices yields the non-zero choices of f in their fixed order.
func (g *grammar) choices(f frame) iter.Seq[choice] {
	return func(yield func(choice) bool) {
		emit := func(k choiceKey, factor float64, children ...frame) bool {
			if factor == 0 {
				return true
			}
			c := choice{key: k, factor: factor, weight: factor, n: len(children)}
			for n, ch := range children {
				v := g.value(ch)
				if v == 0 {
					return true
				}
				c.weight *= v
				c.children[n] = ch
			}
			return yield(c)
		}

		ens := g.ens
		minLoop, maxLoop := ens.MinLoop(), ens.MaxLoop()
		i, j := f.i, f.j

		switch f.kind {
		case frameExterior:
			if !emit(choiceKey{kind: choiceUnpaired}, 1, frame{kind: frameExterior, j: j - 1}) {
				return
			}
			for i := 1; j-i-1 >= minLoop; i++ {
				if !emit(choiceKey{kind: choiceExtStem, a: i}, ens.ExtStem(i, j),
					frame{kind: frameExterior, j: i - 1}, frame{kind: framePair, i: i, j: j}) {
					return
				}
			}

		case framePair:
			if !emit(choiceKey{kind: choiceHairpin}, ens.Hairpin(i, j)) {
				return
			}
			for k := i + 1; k-i-1 <= maxLoop && k < j; k++ {
				for l := j - 1; l-k-1 >= minLoop && k-i-1+j-l-1 <= maxLoop; l-- {
					if !emit(choiceKey{kind: choiceInterior, a: k, b: l}, ens.Interior(i, j, k, l), frame{kind: framePair, i: k, j: l}) {
						return
					}
				}
			}
			closing := ens.MLClosing(i, j)
			for u := i + 2; u < j; u++ {
				if !emit(choiceKey{kind: choiceMulti, a: u}, closing,
					frame{kind: frameMulti, i: i + 1, j: u - 1}, frame{kind: frameBranch, i: u, j: j - 1}) {
					return
				}
			}

		case frameMulti:
			for u := i; u <= j; u++ {
				if !emit(choiceKey{kind: choiceMLLeading, a: u}, ens.MLBase(u-i), frame{kind: frameBranch, i: u, j: j}) {
					return
				}
				if !emit(choiceKey{kind: choiceMLSplit, a: u}, 1,
					frame{kind: frameMulti, i: i, j: u - 1}, frame{kind: frameBranch, i: u, j: j}) {
					return
				}
			}

		case frameBranch:
			for l := i + minLoop + 1; l <= j; l++ {
				if !emit(choiceKey{kind: choiceBranch, a: l}, ens.MLStem(i, l)*ens.MLBase(j-l), frame{kind: framePair, i: i, j: l}) {
					return
				}
			}

		case frameMulti2:
			for u := i; u < g.n; u++ {
				if !emit(choiceKey{kind: choiceMulti2Split, a: u}, 1,
					frame{kind: frameBranch, i: i, j: u}, frame{kind: frameBranch, i: u + 1, j: g.n}) {
					return
				}
			}

		case frameCircular:
			g.circularChoices(emit)
		}
	}
}

func (g *grammar) circularChoices(emit func(choiceKey, float64, ...frame) bool) {
	ens := g.ens
	n := g.n
	minLoop, maxLoop := ens.MinLoop(), ens.MaxLoop()

	if !emit(choiceKey{kind: choiceOpen}, 1) {
		return
	}
	for i := 1; i <= n; i++ {
		for j := i + minLoop + 1; j <= n; j++ {
			if !emit(choiceKey{kind: choiceOuterHairpin, a: i, b: j}, ens.OuterHairpin(i, j), frame{kind: framePair, i: i, j: j}) {
				return
			}
		}
	}
	for i := 1; i <= n; i++ {
		for j := i + minLoop + 1; j <= n; j++ {
			if ens.QB(i, j) == 0 {
				continue
			}
			for k := j + 1; k-j-1+i-1 <= maxLoop && k <= n; k++ {
				for l := n; l-k-1 >= minLoop && k-j-1+i-1+n-l <= maxLoop; l-- {
					if !emit(choiceKey{kind: choiceOuterInterior, a: i, b: j, c: k, d: l}, ens.OuterInterior(i, j, k, l),
						frame{kind: framePair, i: i, j: j}, frame{kind: framePair, i: k, j: l}) {
						return
					}
				}
			}
		}
	}
	closing := ens.OuterMLClosing()
	for k := 1; k < n; k++ {
		if !emit(choiceKey{kind: choiceOuterMulti, a: k}, closing,
			frame{kind: frameMulti, i: 1, j: k}, frame{kind: frameMulti2, i: k + 1}) {
			return
		}
	}
}
