// Package ensemble defines the read-only contract between partition function
// producers and the stochastic backtracking engine.
//
// # Overview
//
// An [Ensemble] is the full weighted set of admissible secondary structures
// of a sequence (or consensus structures of an alignment), represented by
// precomputed partition function tables. The sampling engine walks the same
// decomposition grammar that filled the tables, so it only needs two kinds
// of lookups:
//
//   - Table values: the summed Boltzmann weight of everything that can be
//     built inside an interval under a loop context (Q5, QB, QM, QM1, QM2).
//   - Loop factors: the Boltzmann factor of a single loop (hairpin, interior,
//     multiloop closing, stems and unpaired bases).
//
// Both single-sequence and comparative ensembles satisfy the same interface;
// the [Kind] tag only tells callers how to annotate the output.
//
// # Grammar
//
// Positions are 1-based and intervals inclusive. With unique multiloop
// decomposition the tables obey:
//
//	Q5(0)    = 1
//	Q5(j)    = Q5(j-1) + Σ_i Q5(i-1)·QB(i,j)·ExtStem(i,j)
//	QB(i,j)  = Hairpin(i,j) + Σ_kl Interior(i,j,k,l)·QB(k,l)
//	         + Σ_u QM(i+1,u-1)·QM1(u,j-1)·MLClosing(i,j)
//	QM1(i,j) = Σ_l QB(i,l)·MLStem(i,l)·MLBase(j-l)
//	QM(i,j)  = Σ_u [MLBase(u-i) + QM(i,u-1)]·QM1(u,j)
//	QM2(i)   = Σ_u QM1(i,u)·QM1(u+1,n)
//	Z        = Q5(n)                                  (linear)
//	Z        = 1 + Σ QB·OuterHairpin + Σ QB·QB·OuterInterior
//	         + Σ_k QM(1,k)·QM2(k+1)·OuterMLClosing     (circular)
//
// The decomposition is only unambiguous when [Ensemble.UniqueML] holds;
// sampling from an ensemble without it double counts multiloop mass.
//
// # Concurrency
//
// Implementations must be immutable once [Ensemble.Computed] reports true,
// so one ensemble can back any number of concurrent sampling sessions.
package ensemble
