package fold

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"

	"github.com/matzehuels/stochfold/pkg/ensemble"
	"github.com/matzehuels/stochfold/pkg/errors"
)

// Ensemble holds filled partition function tables and the loop model they
// were computed with. It implements [ensemble.Ensemble] and is immutable.
type Ensemble struct {
	kind     ensemble.Kind
	model    Model
	seqs     []string
	key      string
	n        int
	kT       float64
	energy   loopEnergy
	computed bool

	q5  []float64
	qb  []float64
	qm  []float64
	qm1 []float64 // nil unless Model.UniqueML
	qm2 []float64 // nil unless Model.Circular

	qho, qio, qmo float64
	z             float64

	mlBase         []float64
	mlClosingOuter float64
}

var _ ensemble.Ensemble = (*Ensemble)(nil)

func (e *Ensemble) idx(i, j int) int { return i*(e.n+2) + j }

func (e *Ensemble) in(i, j int) bool { return i >= 1 && j <= e.n && i <= j }

func (e *Ensemble) boltz(energy float64) float64 {
	return math.Exp(-energy / e.kT)
}

// Len returns the number of positions.
func (e *Ensemble) Len() int { return e.n }

// Kind returns the ensemble kind.
func (e *Ensemble) Kind() ensemble.Kind { return e.kind }

// Circular reports whether the molecule is circular.
func (e *Ensemble) Circular() bool { return e.model.Circular }

// UniqueML reports whether QM1 is available.
func (e *Ensemble) UniqueML() bool { return e.qm1 != nil }

// Computed reports whether the tables have been filled.
func (e *Ensemble) Computed() bool { return e.computed }

// MinLoop returns the minimum hairpin size.
func (e *Ensemble) MinLoop() int { return e.model.MinLoop }

// MaxLoop returns the maximum interior loop size.
func (e *Ensemble) MaxLoop() int { return e.model.MaxLoop }

// Model returns the model the ensemble was computed with.
func (e *Ensemble) Model() Model { return e.model }

// Sequences returns the folded sequence or alignment rows.
func (e *Ensemble) Sequences() []string { return append([]string(nil), e.seqs...) }

// KT returns the thermal energy used for Boltzmann factors.
func (e *Ensemble) KT() float64 { return e.kT }

// CanPair reports whether i and j may form a pair.
func (e *Ensemble) CanPair(i, j int) bool {
	return e.in(i, j) && e.energy.canPair(i, j)
}

func (e *Ensemble) Q5(j int) float64 {
	if j < 0 || j > e.n {
		return 0
	}
	return e.q5[j]
}

func (e *Ensemble) QB(i, j int) float64 {
	if !e.in(i, j) {
		return 0
	}
	return e.qb[e.idx(i, j)]
}

func (e *Ensemble) QM(i, j int) float64 {
	if !e.in(i, j) {
		return 0
	}
	return e.qm[e.idx(i, j)]
}

func (e *Ensemble) QM1(i, j int) float64 {
	if e.qm1 == nil || !e.in(i, j) {
		return 0
	}
	return e.qm1[e.idx(i, j)]
}

func (e *Ensemble) QM2(i int) float64 {
	if e.qm2 == nil || i < 1 || i > e.n {
		return 0
	}
	return e.qm2[i]
}

func (e *Ensemble) Z() float64 { return e.z }

// Probability returns the equilibrium probability of a structure weight.
func (e *Ensemble) Probability(weight float64) float64 {
	if e.z == 0 {
		return 0
	}
	return weight / e.z
}

func (e *Ensemble) Hairpin(i, j int) float64 {
	if !e.CanPair(i, j) {
		return 0
	}
	return e.boltz(e.energy.hairpin(i, j))
}

func (e *Ensemble) Interior(i, j, k, l int) float64 {
	if k <= i || l >= j || k >= l || k-i-1+j-l-1 > e.model.MaxLoop {
		return 0
	}
	if !e.CanPair(i, j) || !e.CanPair(k, l) {
		return 0
	}
	return e.boltz(e.energy.interior(i, j, k, l))
}

func (e *Ensemble) MLClosing(i, j int) float64 {
	if !e.CanPair(i, j) {
		return 0
	}
	return e.boltz(e.energy.mlClosing(i, j))
}

func (e *Ensemble) MLStem(i, j int) float64 {
	if !e.CanPair(i, j) {
		return 0
	}
	return e.boltz(e.energy.mlStem(i, j))
}

func (e *Ensemble) MLBase(u int) float64 {
	if u < 0 || u >= len(e.mlBase) {
		return 0
	}
	return e.mlBase[u]
}

func (e *Ensemble) ExtStem(i, j int) float64 {
	if !e.CanPair(i, j) {
		return 0
	}
	return e.boltz(e.energy.extStem(i, j))
}

func (e *Ensemble) OuterHairpin(i, j int) float64 {
	if !e.model.Circular || !e.CanPair(i, j) || e.n-j+i-1 < e.model.MinLoop {
		return 0
	}
	return e.boltz(e.energy.outerHairpin(i, j))
}

func (e *Ensemble) OuterInterior(i, j, k, l int) float64 {
	if !e.model.Circular || j >= k || k-j-1+i-1+e.n-l > e.model.MaxLoop {
		return 0
	}
	if !e.CanPair(i, j) || !e.CanPair(k, l) {
		return 0
	}
	return e.boltz(e.energy.outerInterior(i, j, k, l))
}

func (e *Ensemble) OuterMLClosing() float64 {
	if !e.model.Circular {
		return 0
	}
	return e.mlClosingOuter
}

// Fingerprint hashes the tables. Two ensembles with equal fingerprints hold
// identical values; sampling never changes it.
func (e *Ensemble) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(e.key))
	var buf [8]byte
	put := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	for _, t := range [][]float64{e.q5, e.qb, e.qm, e.qm1, e.qm2} {
		put(float64(len(t)))
		for _, v := range t {
			put(v)
		}
	}
	put(e.z)
	return hex.EncodeToString(h.Sum(nil))
}

// tablesJSON is the cached form of an ensemble.
type tablesJSON struct {
	Key string    `json:"key"`
	N   int       `json:"n"`
	Q5  []float64 `json:"q5"`
	QB  []float64 `json:"qb"`
	QM  []float64 `json:"qm"`
	QM1 []float64 `json:"qm1,omitempty"`
	QM2 []float64 `json:"qm2,omitempty"`
	QHO float64   `json:"qho,omitempty"`
	QIO float64   `json:"qio,omitempty"`
	QMO float64   `json:"qmo,omitempty"`
	Z   float64   `json:"z"`
}

// MarshalJSON encodes the tables. Decode with [Compound.Restore].
func (e *Ensemble) MarshalJSON() ([]byte, error) {
	return json.Marshal(tablesJSON{
		Key: e.key, N: e.n,
		Q5: e.q5, QB: e.qb, QM: e.qm, QM1: e.qm1, QM2: e.qm2,
		QHO: e.qho, QIO: e.qio, QMO: e.qmo, Z: e.z,
	})
}

// Restore rebuilds an ensemble from tables produced by MarshalJSON for
// the same compound, skipping the fill.
func (c *Compound) Restore(data []byte) (*Ensemble, error) {
	var t tablesJSON
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode tables")
	}
	if t.Key != c.Key() {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "tables belong to a different compound")
	}
	w := (c.n + 2) * (c.n + 2)
	if t.N != c.n || len(t.Q5) != c.n+1 || len(t.QB) != w || len(t.QM) != w {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "table dimensions do not match length %d", c.n)
	}
	if c.model.UniqueML && len(t.QM1) != w {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "missing qm1 table")
	}
	if c.model.Circular && len(t.QM2) != c.n+2 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "missing qm2 table")
	}

	e := c.newEnsemble()
	e.q5, e.qb, e.qm = t.Q5, t.QB, t.QM
	if c.model.UniqueML {
		e.qm1 = t.QM1
	}
	if c.model.Circular {
		e.qm2 = t.QM2
	}
	e.qho, e.qio, e.qmo, e.z = t.QHO, t.QIO, t.QMO, t.Z
	e.computed = true
	return e, nil
}
