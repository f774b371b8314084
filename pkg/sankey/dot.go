package sankey

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

// ToDOT converts a diagram to Graphviz DOT: one box node per cell-type
// group, columns constrained to the same rank, edge pen width scaled
// by the pair count. Render the result with [RenderGraphviz].
func ToDOT(d Diagram) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("\n")

	for _, n := range d.Nodes {
		fmt.Fprintf(&buf, "  %q [fillcolor=%q];\n", n.Label, n.Color)
	}

	// Pin each stage to its own rank so columns stay ordered even when
	// a category is missing from a middle stage.
	for c := range d.Columns() {
		buf.WriteString("  { rank=same;")
		for _, n := range d.Nodes {
			if n.Column == c {
				fmt.Fprintf(&buf, " %q;", n.Label)
			}
		}
		buf.WriteString(" }\n")
	}

	buf.WriteString("\n")
	maxValue := 1
	for _, l := range d.Links {
		maxValue = max(maxValue, l.Value)
	}
	for _, l := range d.Links {
		penwidth := 1 + 7*float64(l.Value)/float64(maxValue)
		fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\", penwidth=%.2f];\n",
			d.Nodes[l.Source].Label, d.Nodes[l.Target].Label, l.Value, penwidth)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderGraphviz renders a DOT graph to SVG bytes using Graphviz.
func RenderGraphviz(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render DOT")
	}
	return buf.Bytes(), nil
}
