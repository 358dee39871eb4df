package fold

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/stochfold/pkg/ensemble"
	"github.com/matzehuels/stochfold/pkg/errors"
)

// Compound is a sequence or alignment bound to a model, ready for PF.
type Compound struct {
	kind   ensemble.Kind
	model  Model
	seqs   []string
	n      int
	energy loopEnergy
}

// NewSingle prepares a single sequence for folding.
func NewSingle(seq string, md Model) (*Compound, error) {
	if err := errors.ValidateSequence(seq); err != nil {
		return nil, err
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return &Compound{
		kind:   ensemble.KindSingle,
		model:  md,
		seqs:   []string{seq},
		n:      len(seq),
		energy: newSingleEnergy(seq, md),
	}, nil
}

// NewAlignment prepares an alignment for consensus folding.
func NewAlignment(rows []string, md Model) (*Compound, error) {
	if err := errors.ValidateAlignment(rows); err != nil {
		return nil, err
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return &Compound{
		kind:   ensemble.KindComparative,
		model:  md,
		seqs:   append([]string(nil), rows...),
		n:      len(rows[0]),
		energy: newAlignEnergy(rows, md),
	}, nil
}

// Len returns the number of positions.
func (c *Compound) Len() int { return c.n }

// Kind returns the ensemble kind PF will produce.
func (c *Compound) Kind() ensemble.Kind { return c.kind }

// Model returns the model the compound was created with.
func (c *Compound) Model() Model { return c.model }

// Sequences returns the sequence (single) or alignment rows.
func (c *Compound) Sequences() []string { return append([]string(nil), c.seqs...) }

// Key identifies the compound's input and model. Two compounds with equal
// keys produce identical tables.
func (c *Compound) Key() string {
	h := sha256.New()
	md := c.model
	fmt.Fprintf(h, "%s|%d|%s|", c.kind, len(c.seqs), strings.Join(c.seqs, "|"))
	fmt.Fprintf(h, "%g|%d|%d|%t|%t|%d|", md.Temperature, md.MinLoop, md.MaxLoop,
		md.Circular, md.UniqueML, md.MaxNonCompatible)
	fmt.Fprintf(h, "%v", *md.params())
	return hex.EncodeToString(h.Sum(nil))
}

// PF fills the partition function tables and returns the ensemble.
func (c *Compound) PF() (*Ensemble, error) {
	e := c.newEnsemble()
	e.fill()

	z := e.z
	if math.IsInf(z, 0) || math.IsNaN(z) {
		return nil, errors.New(errors.ErrCodeInternal,
			"partition function overflow for length %d at %.1f°C", c.n, c.model.Temperature)
	}
	e.computed = true
	return e, nil
}

func (c *Compound) newEnsemble() *Ensemble {
	md := c.model
	n := c.n
	w := n + 2
	e := &Ensemble{
		kind:   c.kind,
		model:  md,
		seqs:   c.seqs,
		key:    c.Key(),
		n:      n,
		kT:     md.KT(),
		energy: c.energy,
		q5:     make([]float64, n+1),
		qb:     make([]float64, w*w),
		qm:     make([]float64, w*w),
	}
	e.mlBase = make([]float64, n+1)
	for u := range e.mlBase {
		e.mlBase[u] = e.boltz(float64(u) * md.params().MLBase)
	}
	e.mlClosingOuter = e.boltz(md.params().MLClosing)
	return e
}

// fill computes all tables bottom-up by span.
func (e *Ensemble) fill() {
	n := e.n
	md := e.model
	w := n + 2
	qm1 := make([]float64, w*w)

	for d := md.MinLoop + 1; d < n; d++ {
		for i := 1; i+d <= n; i++ {
			j := i + d
			ij := e.idx(i, j)

			if e.energy.canPair(i, j) {
				v := e.Hairpin(i, j)
				for k := i + 1; k-i-1 <= md.MaxLoop && k < j; k++ {
					u1 := k - i - 1
					for l := j - 1; l-k-1 >= md.MinLoop; l-- {
						if u1+j-l-1 > md.MaxLoop {
							break
						}
						if q := e.qb[e.idx(k, l)]; q > 0 {
							v += q * e.Interior(i, j, k, l)
						}
					}
				}
				var ml float64
				for u := i + 2; u < j; u++ {
					ml += e.qm[e.idx(i+1, u-1)] * qm1[e.idx(u, j-1)]
				}
				if ml > 0 {
					v += ml * e.MLClosing(i, j)
				}
				e.qb[ij] = v
			}

			var m1 float64
			for l := i + md.MinLoop + 1; l <= j; l++ {
				if q := e.qb[e.idx(i, l)]; q > 0 {
					m1 += q * e.MLStem(i, l) * e.mlBase[j-l]
				}
			}
			qm1[ij] = m1

			var m float64
			for u := i; u <= j; u++ {
				if q := qm1[e.idx(u, j)]; q > 0 {
					m += (e.mlBase[u-i] + e.qm[e.idx(i, u-1)]) * q
				}
			}
			e.qm[ij] = m
		}
	}

	e.q5[0] = 1
	for j := 1; j <= n; j++ {
		v := e.q5[j-1]
		for i := 1; j-i-1 >= md.MinLoop; i++ {
			if q := e.qb[e.idx(i, j)]; q > 0 {
				v += e.q5[i-1] * q * e.ExtStem(i, j)
			}
		}
		e.q5[j] = v
	}

	if md.UniqueML {
		e.qm1 = qm1
	}
	if !md.Circular {
		e.z = e.q5[n]
		return
	}

	e.qm2 = make([]float64, n+2)
	for i := 1; i < n; i++ {
		var v float64
		for u := i; u < n; u++ {
			v += qm1[e.idx(i, u)] * qm1[e.idx(u+1, n)]
		}
		e.qm2[i] = v
	}
	e.fillOuter()
}

// fillOuter computes the circular exterior loop contributions.
func (e *Ensemble) fillOuter() {
	n := e.n
	md := e.model
	var qho, qio, qmo float64
	for i := 1; i <= n; i++ {
		for j := i + md.MinLoop + 1; j <= n; j++ {
			qij := e.qb[e.idx(i, j)]
			if qij == 0 {
				continue
			}
			qho += qij * e.OuterHairpin(i, j)
			for k := j + 1; k-j-1+i-1 <= md.MaxLoop && k <= n; k++ {
				for l := n; l-k-1 >= md.MinLoop; l-- {
					if k-j-1+i-1+n-l > md.MaxLoop {
						break
					}
					if qkl := e.qb[e.idx(k, l)]; qkl > 0 {
						qio += qij * qkl * e.OuterInterior(i, j, k, l)
					}
				}
			}
		}
	}
	for k := 1; k < n; k++ {
		qmo += e.qm[e.idx(1, k)] * e.qm2[k+1]
	}
	qmo *= e.OuterMLClosing()

	e.qho, e.qio, e.qmo = qho, qio, qmo
	e.z = 1 + qho + qio + qmo
}
