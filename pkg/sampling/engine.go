package sampling

import (
	stderrors "errors"

	"github.com/matzehuels/stochfold/pkg/ensemble"
	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/structure"
)

var (
	// errExhausted reports a walk that found no unconsumed mass at the root.
	errExhausted = stderrors.New("ensemble exhausted")

	// errDeadEnd reports a walk that entered a choice whose remaining mass
	// is round-off only.
	errDeadEnd = stderrors.New("dead end below root")
)

// Draw is one drawn structure with its Boltzmann weight.
type Draw struct {
	Structure structure.Structure `json:"structure"`

	// Weight is the product of the structure's loop factors.
	Weight float64 `json:"weight"`

	// Probability is Weight divided by the partition function of the
	// sampled interval.
	Probability float64 `json:"probability"`
}

// engine walks the decomposition grammar with an explicit frame stack.
type engine struct {
	g         grammar
	consensus bool
	cfg       *config

	stack []frame
	path  []choiceKey
	pairs []structure.Pair

	// residual is the available mass of the last choice taken.
	residual float64
}

func checkEnsemble(ens ensemble.Ensemble) error {
	if ens == nil {
		return errors.New(errors.ErrCodeInvalidInput, "ensemble is nil")
	}
	if !ens.Computed() {
		return errors.New(errors.ErrCodePrecondition, "partition function tables not computed")
	}
	if !ens.UniqueML() {
		return errors.New(errors.ErrCodePrecondition, "ensemble lacks unique multiloop decomposition")
	}
	if ens.Len() < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "ensemble is empty")
	}
	return nil
}

func newEngine(ens ensemble.Ensemble, cfg *config) *engine {
	return &engine{
		g:         grammar{ens: ens, n: ens.Len()},
		consensus: ens.Kind() == ensemble.KindComparative,
		cfg:       cfg,
	}
}

// wholeRoot returns the root frame for sampling the full molecule.
func (e *engine) wholeRoot() frame {
	if e.g.ens.Circular() {
		return frame{kind: frameCircular}
	}
	return frame{kind: frameExterior, j: e.g.n}
}

// run draws one structure of the given length below root. With a tracker,
// choice weights are reduced by the mass already emitted through them and
// errExhausted is returned when nothing is left at the root. A frame below
// the root with nothing left yields errDeadEnd; e.path then ends with the
// choice that led there. The tracker is only read.
func (e *engine) run(root frame, length int, tr *Tracker) (Draw, error) {
	e.stack = append(e.stack[:0], root)
	e.path = e.path[:0]
	e.pairs = e.pairs[:0]
	e.residual = 0

	var cur *node
	if tr != nil {
		cur = tr.root
	}
	committed := 1.0

	for len(e.stack) > 0 {
		f := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]

		if f.kind == framePair {
			e.pairs = append(e.pairs, structure.Pair{I: f.i, J: f.j})
		}
		if e.g.terminal(f) {
			continue
		}

		// Mass of every completion of the current partial walk that
		// resolves f through a given choice is outer × choice weight.
		outer := committed
		for _, p := range e.stack {
			outer *= e.g.value(p)
		}

		c, a, ok := e.pick(f, cur, tr, outer)
		if !ok {
			if len(e.path) == 0 {
				return Draw{}, errExhausted
			}
			return Draw{}, errDeadEnd
		}
		e.path = append(e.path, c.key)
		e.residual = a
		if tr != nil {
			cur = tr.child(cur, c.key)
		}
		committed *= c.factor
		for k := c.n - 1; k >= 0; k-- {
			e.stack = append(e.stack, c.children[k])
		}
	}

	s := structure.New(length, e.pairs)
	s.Consensus = e.consensus
	return Draw{Structure: s, Weight: committed}, nil
}

// pick selects a choice of f proportionally to its available mass and
// returns it with that mass. A choice whose remaining mass is within the
// tolerance of its own mass counts as consumed.
func (e *engine) pick(f frame, n *node, tr *Tracker, outer float64) (choice, float64, bool) {
	tol := e.cfg.tol
	avail := func(c choice) float64 {
		if tr == nil {
			return c.weight
		}
		m := outer * c.weight
		a := m - tr.consumedAt(n, c.key)
		if a <= tol*m {
			return 0
		}
		return a
	}

	var total float64
	for c := range e.g.choices(f) {
		total += avail(c)
	}
	if total == 0 {
		return choice{}, 0, false
	}

	r := e.cfg.rng.Float64() * total
	var (
		last  choice
		lastA float64
	)
	for c := range e.g.choices(f) {
		a := avail(c)
		if a == 0 {
			continue
		}
		last, lastA = c, a
		if r -= a; r < 0 {
			return c, a, true
		}
	}
	// Rounding left r at the very top of the range.
	return last, lastA, true
}
