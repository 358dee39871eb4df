package fold

// alignEnergy evaluates consensus loops over an alignment. Each loop energy
// is the mean of the per-row energies; pairs that close a loop additionally
// carry the covariance bonus and non-compatibility penalty.
type alignEnergy struct {
	p            *Params
	rows         [][]byte // 1-based columns
	n            int
	minLoop      int
	maxNonCompat int
	invRows      float64
}

func newAlignEnergy(rows []string, md Model) *alignEnergy {
	rs := make([][]byte, len(rows))
	for r, row := range rows {
		b := make([]byte, len(row)+1)
		for k := 0; k < len(row); k++ {
			b[k+1] = normalizeBase(row[k])
		}
		rs[r] = b
	}
	n := 0
	if len(rows) > 0 {
		n = len(rows[0])
	}
	return &alignEnergy{
		p:            md.params(),
		rows:         rs,
		n:            n,
		minLoop:      md.MinLoop,
		maxNonCompat: md.MaxNonCompatible,
		invRows:      1 / float64(max(len(rows), 1)),
	}
}

// mean averages f over the rows.
func (e *alignEnergy) mean(f func(row []byte) float64) float64 {
	var sum float64
	for _, row := range e.rows {
		sum += f(row)
	}
	return sum * e.invRows
}

// pairTerm is the consensus-level contribution of pair i·j.
func (e *alignEnergy) pairTerm(i, j int) float64 {
	var seen [numPairTypes]bool
	nonCompat, distinct := 0, 0
	for _, row := range e.rows {
		t := pairType(row[i], row[j])
		if t == pairNone {
			nonCompat++
			continue
		}
		if !seen[t] {
			seen[t] = true
			distinct++
		}
	}
	return e.p.NonCompatible*float64(nonCompat)*e.invRows - e.p.Covariance*float64(max(distinct-1, 0))
}

func (e *alignEnergy) canPair(i, j int) bool {
	if j-i-1 < e.minLoop {
		return false
	}
	nonCompat := 0
	for _, row := range e.rows {
		if pairType(row[i], row[j]) == pairNone {
			nonCompat++
		}
	}
	return nonCompat <= e.maxNonCompat && nonCompat < len(e.rows)
}

func (e *alignEnergy) hairpin(i, j int) float64 {
	return e.mean(func(row []byte) float64 {
		return e.p.hairpinEnergy(j-i-1, pairType(row[i], row[j]))
	}) + e.pairTerm(i, j)
}

func (e *alignEnergy) interior(i, j, k, l int) float64 {
	return e.mean(func(row []byte) float64 {
		return e.p.interiorEnergy(k-i-1, j-l-1, pairType(row[i], row[j]), pairType(row[l], row[k]))
	}) + e.pairTerm(i, j)
}

func (e *alignEnergy) mlClosing(i, j int) float64 {
	return e.mean(func(row []byte) float64 {
		return e.p.mlClosingEnergy(pairType(row[j], row[i]))
	}) + e.pairTerm(i, j)
}

func (e *alignEnergy) mlStem(i, j int) float64 {
	return e.mean(func(row []byte) float64 {
		return e.p.mlStemEnergy(pairType(row[i], row[j]))
	})
}

func (e *alignEnergy) extStem(i, j int) float64 {
	return e.mean(func(row []byte) float64 {
		return e.p.extStemEnergy(pairType(row[i], row[j]))
	})
}

func (e *alignEnergy) outerHairpin(i, j int) float64 {
	return e.mean(func(row []byte) float64 {
		return e.p.hairpinEnergy(e.n-j+i-1, pairType(row[j], row[i]))
	})
}

func (e *alignEnergy) outerInterior(i, j, k, l int) float64 {
	return e.mean(func(row []byte) float64 {
		return e.p.interiorEnergy(k-j-1, e.n-l+i-1, pairType(row[j], row[i]), pairType(row[l], row[k]))
	})
}
