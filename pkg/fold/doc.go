// Package fold computes partition function tables for RNA sequences and
// alignments under a compact nearest-neighbour loop model.
//
// # Overview
//
// The package is the producer side of [ensemble.Ensemble]: it fills the
// McCaskill tables (Q5, QB, QM, QM1 and, for circular molecules, QM2) with
// unique multiloop decomposition so the stochastic backtracking engine in
// [github.com/matzehuels/stochfold/pkg/sampling] can invert them.
//
// Two backends share one fill routine:
//
//   - [NewSingle]: one sequence, loop energies from its own pair types.
//   - [NewAlignment]: an alignment, loop energies averaged over rows plus a
//     per-pair covariance bonus and non-compatibility penalty, yielding a
//     consensus ensemble.
//
// # Energy Model
//
// Loop energies (kcal/mol) follow the shape of the Turner nearest-neighbour
// model without its full parameter tables: stacking energies by pair type,
// length-dependent hairpin, bulge and interior initiation, Ninio asymmetry,
// terminal AU/GU penalties and a linear multiloop model. See [Params].
// Boltzmann factors are exp(-E/kT) with kT = R·(T + 273.15).
//
// # Usage
//
//	c, err := fold.NewSingle("GGGGAAACCCC", fold.DefaultModel())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ens, err := c.PF()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ens.Z())
//
// # Limits
//
// Tables are unscaled float64. Sequences up to a few hundred nucleotides stay
// well inside the float64 range at 37°C; very long or very stable inputs can
// overflow, which PF reports as ErrCodeInternal.
//
// # Concurrency
//
// A [Compound] is not safe for concurrent PF calls. The returned [Ensemble]
// is immutable and safe for concurrent use.
package fold
