// Package structure represents RNA secondary structures as base-pair sets.
//
// # Overview
//
// A [Structure] is the ordered set of base pairs committed by one complete
// stochastic backtracking walk. Two structures are equal iff their pair sets
// are equal; the dot-bracket string is used as the canonical key because it
// is a bijection between pseudoknot-free pair sets of a given length and
// strings over "(.)".
//
// Positions are 1-based throughout, matching the partition function tables
// in [github.com/matzehuels/stochfold/pkg/ensemble].
//
// # Dot-Bracket Notation
//
//	s := structure.New(9, []structure.Pair{{I: 1, J: 9}, {I: 2, J: 8}})
//	fmt.Println(s.DotBracket()) // ((.....))
//
//	t, err := structure.Parse("((.....))")
//	// s.Equal(t) == true
//
// Rendering is deterministic and [Parse] reverses it exactly.
package structure
