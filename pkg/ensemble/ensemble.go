package ensemble

import "fmt"

// Kind distinguishes single-sequence from comparative (alignment) ensembles.
type Kind int

const (
	// KindSingle is an ensemble over one sequence.
	KindSingle Kind = iota
	// KindComparative is a consensus ensemble over an alignment.
	KindComparative
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindComparative:
		return "comparative"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Tables gives read access to partition function tables.
// Out-of-range or structurally impossible intervals report 0, except
// Q5(0) which is 1.
type Tables interface {
	// Len is the number of positions (sequence length or alignment columns).
	Len() int

	// Q5 is the exterior-loop partition function of the prefix 1..j.
	Q5(j int) float64

	// QB is the partition function of i..j given that i pairs with j.
	QB(i, j int) float64

	// QM is the partition function of a multiloop segment i..j holding at
	// least one branch.
	QM(i, j int) float64

	// QM1 is the partition function of a multiloop segment i..j holding
	// exactly one branch, which starts at i.
	QM1(i, j int) float64

	// QM2 is the partition function of a multiloop segment i..Len() holding
	// exactly two branches. Only filled for circular ensembles.
	QM2(i int) float64

	// Z is the global partition function.
	Z() float64
}

// Loops gives Boltzmann factors of individual loops.
type Loops interface {
	// Hairpin closed by i·j.
	Hairpin(i, j int) float64

	// Interior loop closed by i·j enclosing k·l (stacks and bulges included).
	Interior(i, j, k, l int) float64

	// MLClosing is the factor for a multiloop closed by i·j, including the
	// closing pair's stem contribution.
	MLClosing(i, j int) float64

	// MLStem is the factor for a branch i·j inside a multiloop.
	MLStem(i, j int) float64

	// MLBase is the factor for u unpaired bases inside a multiloop.
	MLBase(u int) float64

	// ExtStem is the factor for a branch i·j in the exterior loop.
	ExtStem(i, j int) float64

	// OuterHairpin is the factor of the exterior loop of a circular
	// molecule when i·j is its only branch.
	OuterHairpin(i, j int) float64

	// OuterInterior is the factor of the exterior loop of a circular
	// molecule when i·j and k·l (j < k) are its only branches.
	OuterInterior(i, j, k, l int) float64

	// OuterMLClosing is the factor of the exterior loop of a circular
	// molecule with three or more branches.
	OuterMLClosing() float64
}

// Ensemble is the read-only contract consumed by the sampling engine.
type Ensemble interface {
	Tables
	Loops

	// Kind tags the ensemble as single-sequence or comparative.
	Kind() Kind

	// Circular reports whether the molecule is circular.
	Circular() bool

	// UniqueML reports whether the tables were built with unique multiloop
	// decomposition.
	UniqueML() bool

	// Computed reports whether the tables have been filled.
	Computed() bool

	// MinLoop is the minimum number of unpaired bases in a hairpin.
	MinLoop() int

	// MaxLoop is the maximum number of unpaired bases in an interior loop.
	MaxLoop() int
}
