package fold

import "math"

const (
	// GasConstant in kcal/(mol·K).
	GasConstant = 1.98717e-3

	// ZeroCelsius in Kelvin.
	ZeroCelsius = 273.15

	// MaxLoopTable is the largest loop size with an explicit table entry.
	// Larger loops are extrapolated logarithmically.
	MaxLoopTable = 30

	// lxc is the logarithmic loop extrapolation coefficient at 37°C.
	lxc = 1.07856
)

// Pair types, ordered as in the stacking table.
const (
	pairNone = iota
	pairCG
	pairGC
	pairGU
	pairUG
	pairAU
	pairUA
	numPairTypes
)

var inf = math.Inf(1)

// Params holds loop energy parameters in kcal/mol.
//
// Stack is indexed by the type of the closing pair (5'→3') and the reversed
// type of the enclosed pair, so a helix contributes Stack[type(i,j)][type(l,k)]
// for every stacked pair i·j, k·l.
type Params struct {
	Stack    [numPairTypes][numPairTypes]float64
	Hairpin  [MaxLoopTable + 1]float64
	Bulge    [MaxLoopTable + 1]float64
	Interior [MaxLoopTable + 1]float64

	NinioPerBase float64
	NinioMax     float64
	TerminalAU   float64

	MLClosing float64
	MLIntern  float64
	MLBase    float64

	// NonCompatible penalises, per row, a consensus pair that the row
	// cannot form (alignments only).
	NonCompatible float64
	// Covariance rewards each additional distinct pair type observed for
	// a consensus pair (alignments only).
	Covariance float64
}

// DefaultParams returns the built-in parameter set.
func DefaultParams() *Params {
	p := &Params{
		NinioPerBase:  0.6,
		NinioMax:      3.0,
		TerminalAU:    0.5,
		MLClosing:     3.4,
		MLIntern:      0.4,
		MLBase:        0.0,
		NonCompatible: 1.0,
		Covariance:    0.6,
	}

	stack := [6][6]float64{
		// CG    GC     GU     UG     AU     UA
		{-2.40, -3.30, -2.10, -1.40, -2.10, -2.10}, // CG
		{-3.30, -3.40, -2.50, -1.50, -2.20, -2.40}, // GC
		{-2.10, -2.50, 1.30, -0.50, -1.40, -1.30},  // GU
		{-1.40, -1.50, -0.50, 0.30, -0.60, -1.00},  // UG
		{-2.10, -2.20, -1.40, -0.60, -1.10, -0.90}, // AU
		{-2.10, -2.40, -1.30, -1.00, -0.90, -1.30}, // UA
	}
	for a := range 6 {
		for b := range 6 {
			p.Stack[a+1][b+1] = stack[a][b]
		}
	}

	hairpin := []float64{inf, 5.7, 5.6, 5.4, 5.6, 5.7, 5.4, 6.0, 5.5, 6.4}
	bulge := []float64{inf, 3.8, 2.8, 3.2, 3.6, 4.0, 4.4, 4.6, 4.7, 4.8}
	interior := []float64{inf, inf, 0.5, 1.6, 1.1, 2.0, 2.0}
	fillLoopTable(&p.Hairpin, hairpin)
	fillLoopTable(&p.Bulge, bulge)
	fillLoopTable(&p.Interior, interior)
	return p
}

// fillLoopTable copies known into t and extrapolates the remaining sizes
// from the last known entry.
func fillLoopTable(t *[MaxLoopTable + 1]float64, known []float64) {
	last := len(known) - 1
	for s := range t {
		if s <= last {
			t[s] = known[s]
			continue
		}
		t[s] = known[last] + lxc*math.Log(float64(s)/float64(last))
	}
}

// loopInit looks up a loop initiation energy, extrapolating past the table.
func loopInit(t *[MaxLoopTable + 1]float64, size int) float64 {
	if size <= MaxLoopTable {
		return t[size]
	}
	return t[MaxLoopTable] + lxc*math.Log(float64(size)/MaxLoopTable)
}

// terminal returns the AU/GU closure penalty for pair type t.
func (p *Params) terminal(t int) float64 {
	if t >= pairGU {
		return p.TerminalAU
	}
	return 0
}

// hairpinEnergy is the energy of a hairpin of size unpaired bases closed
// by a pair of type t.
func (p *Params) hairpinEnergy(size, t int) float64 {
	return loopInit(&p.Hairpin, size) + p.terminal(t)
}

// interiorEnergy is the energy of an interior loop with u1 and u2 unpaired
// bases, closed by a pair of type t1 and enclosing a pair of reversed type t2.
func (p *Params) interiorEnergy(u1, u2, t1, t2 int) float64 {
	switch {
	case u1 == 0 && u2 == 0:
		return p.Stack[t1][t2]
	case u1 == 0 || u2 == 0:
		u := u1 + u2
		e := loopInit(&p.Bulge, u)
		if u == 1 {
			return e + p.Stack[t1][t2]
		}
		return e + p.terminal(t1) + p.terminal(t2)
	default:
		asym := math.Abs(float64(u1 - u2))
		return loopInit(&p.Interior, u1+u2) + min(p.NinioMax, p.NinioPerBase*asym) +
			p.terminal(t1) + p.terminal(t2)
	}
}

// mlClosingEnergy is the energy of closing a multiloop with a pair of
// type t as seen from inside the loop.
func (p *Params) mlClosingEnergy(t int) float64 {
	return p.MLClosing + p.MLIntern + p.terminal(t)
}

// mlStemEnergy is the energy of a branch of type t inside a multiloop.
func (p *Params) mlStemEnergy(t int) float64 {
	return p.MLIntern + p.terminal(t)
}

// extStemEnergy is the energy of a branch of type t in the exterior loop.
func (p *Params) extStemEnergy(t int) float64 {
	return p.terminal(t)
}

// normalizeBase maps a nucleotide to upper case RNA, T to U.
func normalizeBase(b byte) byte {
	switch b {
	case 'a', 'A':
		return 'A'
	case 'c', 'C':
		return 'C'
	case 'g', 'G':
		return 'G'
	case 'u', 'U', 't', 'T':
		return 'U'
	case '-', '.':
		return '-'
	default:
		return 'N'
	}
}

// pairType returns the type of the pair a·b, or pairNone.
func pairType(a, b byte) int {
	switch {
	case a == 'C' && b == 'G':
		return pairCG
	case a == 'G' && b == 'C':
		return pairGC
	case a == 'G' && b == 'U':
		return pairGU
	case a == 'U' && b == 'G':
		return pairUG
	case a == 'A' && b == 'U':
		return pairAU
	case a == 'U' && b == 'A':
		return pairUA
	default:
		return pairNone
	}
}
