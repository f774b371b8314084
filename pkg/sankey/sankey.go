// Package sankey builds cell-type flow diagrams from crosstabs of
// matched pairs.
//
// A Diagram is pure data (labeled nodes in stage columns plus weighted
// links) so the same flow can be drawn as a native SVG or handed to
// Graphviz as DOT.
package sankey

import (
	"fmt"
	"strconv"

	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/palette"
)

// DefaultThreshold is the minimum pair count a link must exceed to be
// drawn. Small spillover counts are mostly annotation noise.
const DefaultThreshold = 10

// Node is one cell-type group at one stage of the flow.
type Node struct {
	Label  string
	Column int
	Color  string
}

// Link is a weighted flow between two nodes, by index into
// Diagram.Nodes.
type Link struct {
	Source, Target int
	Value          int
}

// Diagram is a finished flow layout handed to a renderer.
type Diagram struct {
	Title string
	Nodes []Node
	Links []Link
}

// Columns returns the number of stage columns.
func (d Diagram) Columns() int {
	cols := 0
	for _, n := range d.Nodes {
		cols = max(cols, n.Column+1)
	}
	return cols
}

// Options configures Flow and Chain.
type Options struct {
	// Title of the diagram.
	Title string

	// Threshold is the count a link must exceed to be kept. 0 means
	// DefaultThreshold; -1 keeps every non-empty link.
	Threshold int

	// NodeColors assigns one color per stage column; columns beyond
	// the slice get a seeded random color.
	NodeColors []string

	// Seed drives the random per-column colors.
	Seed uint64
}

func (o *Options) validate() error {
	switch {
	case o.Threshold < -1:
		return errors.New(errors.ErrCodeInvalidThreshold,
			"link threshold must be >= 0 (or -1 to keep every link), got %d", o.Threshold)
	case o.Threshold == -1:
		o.Threshold = 0
	case o.Threshold == 0:
		o.Threshold = DefaultThreshold
	}
	return nil
}

// Flow builds a two-column diagram from one crosstab. Reference
// categories (columns of the table) form the left column, query
// categories the right. Node labels carry the dataset prefixes, e.g.
// "Neuron_E11.5". Links are kept where count > threshold.
func Flow(t Crosstab, prefixRef, prefixQuery string, opts Options) (Diagram, error) {
	if err := t.Validate(); err != nil {
		return Diagram{}, err
	}
	if err := opts.validate(); err != nil {
		return Diagram{}, err
	}
	return chain([]Crosstab{t}, []string{prefixRef, prefixQuery}, opts)
}

// Chain builds a multi-column diagram from a series of crosstabs.
// Table i links stage i (its reference categories) to stage i+1 (its
// query categories); stage prefixes count up from start by step, in
// the manner of embryonic-day labels (11.5, 12.5, ...).
func Chain(tables []Crosstab, start, step float64, opts Options) (Diagram, error) {
	if len(tables) == 0 {
		return Diagram{}, errors.New(errors.ErrCodeInvalidInput, "chain needs at least one crosstab")
	}
	for i, t := range tables {
		if err := t.Validate(); err != nil {
			return Diagram{}, errors.Wrap(errors.GetCode(err), err, "crosstab %d", i)
		}
	}
	if err := opts.validate(); err != nil {
		return Diagram{}, err
	}

	prefixes := make([]string, len(tables)+1)
	for i := range prefixes {
		prefixes[i] = strconv.FormatFloat(start+float64(i)*step, 'g', -1, 64)
	}
	return chain(tables, prefixes, opts)
}

// chain assembles nodes and links; prefixes has one entry per stage
// column (len(tables)+1). Options are already validated.
func chain(tables []Crosstab, prefixes []string, opts Options) (Diagram, error) {
	colors := columnColors(len(prefixes), opts)

	d := Diagram{Title: opts.Title}
	nodeIdx := make(map[string]int)
	node := func(category string, column int) int {
		label := fmt.Sprintf("%s_%s", category, prefixes[column])
		if i, ok := nodeIdx[label]; ok {
			return i
		}
		d.Nodes = append(d.Nodes, Node{Label: label, Column: column, Color: colors[column]})
		nodeIdx[label] = len(d.Nodes) - 1
		return len(d.Nodes) - 1
	}

	for stage, t := range tables {
		// Materialize every category as a node so empty groups still
		// show up in the legend column.
		for _, ref := range t.Cols {
			node(ref, stage)
		}
		for _, query := range t.Rows {
			node(query, stage+1)
		}

		for i, query := range t.Rows {
			for j, ref := range t.Cols {
				if t.Counts[i][j] <= opts.Threshold {
					continue
				}
				d.Links = append(d.Links, Link{
					Source: node(ref, stage),
					Target: node(query, stage+1),
					Value:  t.Counts[i][j],
				})
			}
		}
	}
	return d, nil
}

func columnColors(n int, opts Options) []string {
	random := palette.Random(n, opts.Seed)
	colors := make([]string, n)
	for i := range colors {
		if i < len(opts.NodeColors) && opts.NodeColors[i] != "" {
			colors[i] = opts.NodeColors[i]
		} else {
			colors[i] = random[i]
		}
	}
	return colors
}
