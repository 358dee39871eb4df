// Package pkg provides the libraries behind stochfold, a sampler of RNA
// secondary structures.
//
// # Overview
//
// stochfold computes the partition function of an RNA sequence (or of the
// consensus of an alignment) and draws secondary structures from the
// resulting Boltzmann ensemble. Besides ordinary stochastic backtracking it
// offers non-redundant sampling: every structure is returned at most once,
// and each draw follows the Boltzmann distribution restricted to the
// structures not yet returned.
//
// # Architecture
//
// The typical data flow:
//
//	Sequence / alignment (FASTA)
//	         ↓
//	    [io] package (read records)
//	         ↓
//	    [fold] package (energy model + partition function tables)
//	         ↓
//	    [sampling] package (stochastic backtracking, redundancy tracker)
//	         ↓
//	    [io] / [store] (dot-bracket, JSON, persisted runs)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/stochfold/pkg/fold"
//	    "github.com/matzehuels/stochfold/pkg/sampling"
//	)
//
//	cmp, _ := fold.NewSingle("GGGGAAAACCCCAUGGGAAACCC", fold.DefaultModel())
//	ens, _ := cmp.PF()
//
//	// 10 independent draws from one generator
//	rng := rand.New(rand.NewPCG(42, 7))
//	for range 10 {
//	    s, _ := sampling.Sample(ens, sampling.WithRand(rng))
//	    fmt.Println(s)
//	}
//
//	// 10 distinct structures
//	structs, _ := sampling.SampleNonRedundant(ens, 10, sampling.WithSeed(42))
//
// # Main Packages
//
// ## Domain
//
// [structure] - Secondary structures: pairs, dot-bracket, pair tables.
//
// [ensemble] - The read-only view of a filled ensemble that sampling needs:
// partition function tables and loop weights.
//
// [fold] - A nearest-neighbour energy model for single sequences and
// alignments, the partition function fill, structure evaluation and table
// serialisation.
//
// [sampling] - Stochastic backtracking. One-shot draws, prefix draws and
// non-redundant sessions with iterator, channel and callback streaming.
//
// ## Infrastructure
//
// [pipeline] - fold → sample → store, used by both CLI and API. Ensures
// consistent defaults and caching across entry points.
//
// [cache] - Byte caches for filled tables: file, Redis and null
// implementations.
//
// [store] - Persisted sampling runs in memory or MongoDB.
//
// [io] - FASTA input; dot-bracket and JSON output.
//
// [observability] - Hooks for fold, sampling, cache and HTTP events.
//
// [errors] - Error codes shared by library, CLI and API.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test ./pkg/sampling/...           # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// Redis and MongoDB tests run when STOCHFOLD_TEST_REDIS and
// STOCHFOLD_TEST_MONGO name a reachable server.
package pkg
