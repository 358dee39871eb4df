package fold

// loopEnergy computes loop free energies (kcal/mol) for one backend.
// Positions are 1-based alignment columns or sequence positions.
type loopEnergy interface {
	canPair(i, j int) bool
	hairpin(i, j int) float64
	interior(i, j, k, l int) float64
	mlClosing(i, j int) float64
	mlStem(i, j int) float64
	extStem(i, j int) float64
	outerHairpin(i, j int) float64
	outerInterior(i, j, k, l int) float64
}

// singleEnergy evaluates loops of a single sequence.
type singleEnergy struct {
	p       *Params
	seq     []byte // 1-based, seq[0] unused
	n       int
	minLoop int
}

func newSingleEnergy(seq string, md Model) *singleEnergy {
	s := make([]byte, len(seq)+1)
	for k := 0; k < len(seq); k++ {
		s[k+1] = normalizeBase(seq[k])
	}
	return &singleEnergy{p: md.params(), seq: s, n: len(seq), minLoop: md.MinLoop}
}

func (e *singleEnergy) typ(i, j int) int {
	return pairType(e.seq[i], e.seq[j])
}

func (e *singleEnergy) canPair(i, j int) bool {
	return j-i-1 >= e.minLoop && e.typ(i, j) != pairNone
}

func (e *singleEnergy) hairpin(i, j int) float64 {
	return e.p.hairpinEnergy(j-i-1, e.typ(i, j))
}

func (e *singleEnergy) interior(i, j, k, l int) float64 {
	return e.p.interiorEnergy(k-i-1, j-l-1, e.typ(i, j), e.typ(l, k))
}

func (e *singleEnergy) mlClosing(i, j int) float64 {
	return e.p.mlClosingEnergy(e.typ(j, i))
}

func (e *singleEnergy) mlStem(i, j int) float64 {
	return e.p.mlStemEnergy(e.typ(i, j))
}

func (e *singleEnergy) extStem(i, j int) float64 {
	return e.p.extStemEnergy(e.typ(i, j))
}

func (e *singleEnergy) outerHairpin(i, j int) float64 {
	return e.p.hairpinEnergy(e.n-j+i-1, e.typ(j, i))
}

func (e *singleEnergy) outerInterior(i, j, k, l int) float64 {
	return e.p.interiorEnergy(k-j-1, e.n-l+i-1, e.typ(j, i), e.typ(l, k))
}
