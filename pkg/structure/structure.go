package structure

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matzehuels/stochfold/pkg/errors"
)

// Pair is a base pair between positions I < J (1-based).
type Pair struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Structure is a pseudoknot-free secondary structure over Length positions.
//
// Consensus is set when the structure was drawn from a comparative ensemble,
// meaning every pair is supported across the aligned sequences.
//
// The zero value is an empty structure of length zero.
type Structure struct {
	Length    int    `json:"length"`
	Pairs     []Pair `json:"pairs"`
	Consensus bool   `json:"consensus,omitempty"`
}

// New creates a structure of length n from pairs. The pairs are normalised
// (I < J) and sorted by their 5' position; the input slice is not modified.
func New(n int, pairs []Pair) Structure {
	ps := make([]Pair, len(pairs))
	for k, p := range pairs {
		if p.I > p.J {
			p.I, p.J = p.J, p.I
		}
		ps[k] = p
	}
	slices.SortFunc(ps, func(a, b Pair) int { return cmp.Compare(a.I, b.I) })
	return Structure{Length: n, Pairs: ps}
}

// Unstructured returns the open-chain structure of length n.
func Unstructured(n int) Structure {
	return Structure{Length: n, Pairs: []Pair{}}
}

// DotBracket renders s as a dot-bracket string of length s.Length.
func (s Structure) DotBracket() string {
	b := []byte(strings.Repeat(".", s.Length))
	for _, p := range s.Pairs {
		if p.I >= 1 && p.J <= s.Length {
			b[p.I-1] = '('
			b[p.J-1] = ')'
		}
	}
	return string(b)
}

// String implements fmt.Stringer using dot-bracket notation.
func (s Structure) String() string {
	return s.DotBracket()
}

// Key returns a canonical string identifying the pair set.
func (s Structure) Key() string {
	return s.DotBracket()
}

// Equal reports whether s and o have the same length and pair set.
func (s Structure) Equal(o Structure) bool {
	if s.Length != o.Length || len(s.Pairs) != len(o.Pairs) {
		return false
	}
	a := New(s.Length, s.Pairs)
	b := New(o.Length, o.Pairs)
	return slices.Equal(a.Pairs, b.Pairs)
}

// PairTable returns a 1-based partner table of size Length+1: pt[i] is the
// partner of i, or 0 when i is unpaired. pt[0] holds Length.
func (s Structure) PairTable() []int {
	pt := make([]int, s.Length+1)
	pt[0] = s.Length
	for _, p := range s.Pairs {
		pt[p.I] = p.J
		pt[p.J] = p.I
	}
	return pt
}

// Parse reads a dot-bracket string. Only '(', ')' and '.' are accepted;
// unbalanced brackets are reported as ErrCodeInvalidFormat.
func Parse(db string) (Structure, error) {
	var stack []int
	pairs := make([]Pair, 0, len(db)/2)
	for k, c := range db {
		pos := k + 1
		switch c {
		case '.':
		case '(':
			stack = append(stack, pos)
		case ')':
			if len(stack) == 0 {
				return Structure{}, errors.New(errors.ErrCodeInvalidFormat, "unbalanced ')' at position %d", pos)
			}
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pairs = append(pairs, Pair{I: i, J: pos})
		default:
			return Structure{}, errors.New(errors.ErrCodeInvalidFormat, "invalid character %q at position %d", c, pos)
		}
	}
	if len(stack) > 0 {
		return Structure{}, errors.New(errors.ErrCodeInvalidFormat, "unbalanced '(' at position %d", stack[len(stack)-1])
	}
	return New(len(db), pairs), nil
}

// Validate checks that every pair lies within [1, Length], no position is
// paired twice and no two pairs cross.
func (s Structure) Validate() error {
	pt := make([]int, s.Length+1)
	for _, p := range s.Pairs {
		if p.I < 1 || p.J > s.Length || p.I >= p.J {
			return errors.New(errors.ErrCodeInvalidFormat, "pair (%d,%d) out of range for length %d", p.I, p.J, s.Length)
		}
		if pt[p.I] != 0 || pt[p.J] != 0 {
			return errors.New(errors.ErrCodeInvalidFormat, "position paired twice in (%d,%d)", p.I, p.J)
		}
		pt[p.I], pt[p.J] = p.J, p.I
	}
	for _, p := range s.Pairs {
		for k := p.I + 1; k < p.J; k++ {
			if q := pt[k]; q != 0 && (q < p.I || q > p.J) {
				return errors.New(errors.ErrCodeInvalidFormat, "pairs (%d,%d) and (%d,%d) cross", p.I, p.J, min(k, q), max(k, q))
			}
		}
	}
	return nil
}
