package sampling

import (
	"github.com/matzehuels/stochfold/pkg/errors"
)

// Tracker records the Boltzmann mass already emitted below each decomposition
// path prefix. Masses are absolute, so a structure of weight W adds exactly W
// to every edge on its path.
//
// A Tracker belongs to one Session and is not safe for concurrent use.
type Tracker struct {
	root     *node
	nodes    int
	maxNodes int
	depth    int
	consumed float64
	z        float64
}

type node struct {
	id    int
	edges map[choiceKey]*edge
}

type edge struct {
	consumed float64
	next     *node
}

func newTracker(z float64, maxNodes int) *Tracker {
	return &Tracker{root: &node{}, nodes: 1, maxNodes: maxNodes, z: z}
}

// consumedAt returns the mass consumed through choice k at n. A nil node has
// never been visited.
func (t *Tracker) consumedAt(n *node, k choiceKey) float64 {
	if n == nil {
		return 0
	}
	if e := n.edges[k]; e != nil {
		return e.consumed
	}
	return 0
}

// child returns the node reached from n through k, or nil.
func (t *Tracker) child(n *node, k choiceKey) *node {
	if n == nil {
		return nil
	}
	if e := n.edges[k]; e != nil {
		return e.next
	}
	return nil
}

// commit adds weight w along path. Nodes are created only where missing;
// if that would exceed the node budget nothing is changed.
func (t *Tracker) commit(path []choiceKey, w float64) error {
	if err := t.fits(path); err != nil {
		return err
	}
	t.add(path, w)
	t.consumed += w
	t.depth = max(t.depth, len(path))
	return nil
}

// discard marks the round-off residual w below path as consumed without
// counting it as emitted.
func (t *Tracker) discard(path []choiceKey, w float64) error {
	if err := t.fits(path); err != nil {
		return err
	}
	t.add(path, w)
	return nil
}

// emitted reports whether the complete path was committed before.
func (t *Tracker) emitted(path []choiceKey) bool {
	if len(path) == 0 {
		return false
	}
	n := t.root
	for _, k := range path[:len(path)-1] {
		if n = t.child(n, k); n == nil {
			return false
		}
	}
	return t.consumedAt(n, path[len(path)-1]) > 0
}

// fits checks the node budget for path.
func (t *Tracker) fits(path []choiceKey) error {
	missing := 0
	n := t.root
	for d := 0; d < len(path)-1 && n != nil; d++ {
		n = t.child(n, path[d])
		if n == nil {
			missing = len(path) - 1 - d
		}
	}
	if t.maxNodes > 0 && t.nodes+missing > t.maxNodes {
		return errors.New(errors.ErrCodeResource,
			"redundancy tracker needs %d nodes, budget is %d", t.nodes+missing, t.maxNodes)
	}
	return nil
}

func (t *Tracker) add(path []choiceKey, w float64) {
	n := t.root
	for d, k := range path {
		if n.edges == nil {
			n.edges = make(map[choiceKey]*edge)
		}
		e := n.edges[k]
		if e == nil {
			e = &edge{}
			n.edges[k] = e
		}
		e.consumed += w
		if d == len(path)-1 {
			return
		}
		if e.next == nil {
			e.next = &node{id: t.nodes}
			t.nodes++
		}
		n = e.next
	}
}

// NodeCount returns the number of materialised nodes, root included.
func (t *Tracker) NodeCount() int { return t.nodes }

// Depth returns the longest committed path.
func (t *Tracker) Depth() int { return t.depth }

// Consumed returns the total weight of all emitted structures.
func (t *Tracker) Consumed() float64 { return t.consumed }

// Coverage returns the fraction of the ensemble's mass already emitted.
func (t *Tracker) Coverage() float64 {
	if t.z == 0 {
		return 0
	}
	return min(t.consumed/t.z, 1)
}
