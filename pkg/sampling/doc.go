// Package sampling draws secondary structures from a partition function
// ensemble by stochastic backtracking.
//
// # Overview
//
// Given an [ensemble.Ensemble] with unique multiloop decomposition, the
// engine walks the decomposition grammar from the exterior loop, choosing at
// every interval one way to resolve it with probability proportional to that
// choice's Boltzmann weight. One-shot draws are independent:
//
//	s, err := sampling.Sample(ens, sampling.WithSeed(7))
//
// # Non-redundant sampling
//
// A [Session] never returns the same structure twice. It keeps a
// [Tracker]: a tree over decomposition paths holding, for each choice taken,
// the total weight of structures already emitted through it. Later draws
// subtract that mass from the choice weights, so each draw follows the
// Boltzmann distribution over the structures not returned yet. Mass left
// over by floating-point round-off is detected when a walk runs into a
// consumed interval or an already emitted structure, discarded, and the
// walk retried. When nothing is left the session reports exhaustion, which
// is a short result rather than an error:
//
//	structs, err := sampling.SampleNonRedundant(ens, 1000)
//	// len(structs) <= 1000
//
// Sessions can also be consumed incrementally with [Session.Next],
// [Session.All], [Session.Stream] or [Session.Chan], and resumed after an
// early stop.
//
// # Choice order
//
// Within each interval choices are enumerated in a fixed order, which the
// tracker relies on to identify paths:
//
//   - exterior 1..j: j unpaired, then i·j for ascending i
//   - pair i·j: hairpin, interior loops (k ascending, l descending), then
//     multiloop splits by ascending start of the last branch
//   - multiloop segment: for ascending start u of the last branch, first
//     with i..u-1 unpaired, then with branches before u
//   - circular exterior loop: open chain, outer hairpins, outer interior
//     loops, outer multiloops
//
// # Determinism
//
// Equal ensembles, options and seeds produce identical sequences of
// structures. Without [WithSeed] or [WithRand] a random seed is used.
//
// # Limits
//
// The tracker grows with the number of distinct path prefixes; [WithMaxNodes]
// bounds it and exceeding the bound fails with ErrCodeResource.
package sampling
