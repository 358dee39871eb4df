package sampling

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-graphviz"
)

var choiceNames = [...]string{
	choiceUnpaired:      "unpaired",
	choiceExtStem:       "stem",
	choiceHairpin:       "hairpin",
	choiceInterior:      "interior",
	choiceMulti:         "multi",
	choiceMLLeading:     "ml-first",
	choiceMLSplit:       "ml-split",
	choiceBranch:        "branch",
	choiceMulti2Split:   "ml2-split",
	choiceOpen:          "open",
	choiceOuterHairpin:  "outer-hairpin",
	choiceOuterInterior: "outer-interior",
	choiceOuterMulti:    "outer-multi",
}

func (k choiceKind) String() string {
	if int(k) < len(choiceNames) {
		return choiceNames[k]
	}
	return fmt.Sprintf("choice(%d)", int(k))
}

func (k choiceKey) String() string {
	switch k.kind {
	case choiceUnpaired, choiceHairpin, choiceOpen:
		return k.kind.String()
	case choiceInterior, choiceOuterHairpin:
		return fmt.Sprintf("%s %d,%d", k.kind, k.a, k.b)
	case choiceOuterInterior:
		return fmt.Sprintf("%s %d,%d %d,%d", k.kind, k.a, k.b, k.c, k.d)
	default:
		return fmt.Sprintf("%s %d", k.kind, k.a)
	}
}

func compareKeys(a, b choiceKey) int {
	return cmp.Or(
		cmp.Compare(a.kind, b.kind),
		cmp.Compare(a.a, b.a),
		cmp.Compare(a.b, b.b),
		cmp.Compare(a.c, b.c),
		cmp.Compare(a.d, b.d),
	)
}

// ToDOT renders the tracker tree in Graphviz DOT format. Edge labels show
// the choice and the fraction of the ensemble consumed through it.
func (t *Tracker) ToDOT() string {
	var buf bytes.Buffer
	buf.WriteString("digraph T {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=10, width=0.3];\n")
	buf.WriteString("  edge [fontsize=9];\n")
	buf.WriteString("\n")

	var leaves int
	var walk func(n *node)
	walk = func(n *node) {
		fmt.Fprintf(&buf, "  n%d [label=\"%d\"];\n", n.id, n.id)
		for _, k := range slices.SortedFunc(maps.Keys(n.edges), compareKeys) {
			e := n.edges[k]
			label := fmt.Sprintf("%s\\n%.3g", k, t.fraction(e.consumed))
			if e.next == nil {
				leaves++
				fmt.Fprintf(&buf, "  l%d [shape=point];\n", leaves)
				fmt.Fprintf(&buf, "  n%d -> l%d [label=\"%s\"];\n", n.id, leaves, label)
				continue
			}
			fmt.Fprintf(&buf, "  n%d -> n%d [label=\"%s\"];\n", n.id, e.next.id, label)
			walk(e.next)
		}
	}
	walk(t.root)

	buf.WriteString("}\n")
	return buf.String()
}

func (t *Tracker) fraction(w float64) float64 {
	if t.z == 0 {
		return 0
	}
	return w / t.z
}

// RenderSVG renders the tracker tree to SVG using Graphviz.
func (t *Tracker) RenderSVG(ctx context.Context) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(t.ToDOT()))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
