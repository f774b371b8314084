// Package dataset models one spatial single-cell dataset as used by the
// alignment figure builders.
//
// A Dataset is an immutable-by-convention snapshot: builders copy the
// caller's cells on construction and apply coordinate transforms
// (rescale, flip, swap) to the copy, never to caller-owned memory.
package dataset

import (
	"slices"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

// Cell is one cell record: a unique ID, a 2D spatial coordinate, and
// optional categorical / expression annotations.
type Cell struct {
	ID   string
	X, Y float64
	Type string  // cell type annotation, empty when the dataset carries none
	Expr float64 // expression value, meaningful only when Dataset.HasExpr
}

// Dataset is a named table of cells.
type Dataset struct {
	Name    string
	Cells   []Cell
	HasType bool // cells carry a Type annotation
	HasExpr bool // cells carry an Expr value
}

// New validates and copies cells into a Dataset.
//
// Every cell needs a non-empty unique ID; mapping pairs reference cells
// by ID, so duplicates would make line endpoints ambiguous.
func New(name string, cells []Cell) (*Dataset, error) {
	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDataset, "dataset %s has no cells", name)
	}

	seen := make(map[string]struct{}, len(cells))
	for i, c := range cells {
		if c.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidDataset, "dataset %s: cell %d has empty id", name, i)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidDataset, "dataset %s: duplicate cell id %q", name, c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	ds := &Dataset{Name: name, Cells: slices.Clone(cells)}
	for _, c := range ds.Cells {
		if c.Type != "" {
			ds.HasType = true
			break
		}
	}
	return ds, nil
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := *d
	out.Cells = slices.Clone(d.Cells)
	return &out
}

// Len returns the number of cells.
func (d *Dataset) Len() int { return len(d.Cells) }

// RescaleCoords min-max scales each axis independently to [0,1].
// A constant axis cannot be scaled and is reported as a degenerate
// coordinate range.
func (d *Dataset) RescaleCoords() error {
	minX, maxX := d.Cells[0].X, d.Cells[0].X
	minY, maxY := d.Cells[0].Y, d.Cells[0].Y
	for _, c := range d.Cells[1:] {
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}
	if maxX == minX {
		return errors.New(errors.ErrCodeDegenerate, "dataset %s: x axis is constant (%g)", d.Name, minX)
	}
	if maxY == minY {
		return errors.New(errors.ErrCodeDegenerate, "dataset %s: y axis is constant (%g)", d.Name, minY)
	}

	for i := range d.Cells {
		d.Cells[i].X = (d.Cells[i].X - minX) / (maxX - minX)
		d.Cells[i].Y = (d.Cells[i].Y - minY) / (maxY - minY)
	}
	return nil
}

// FlipX mirrors the x axis as 1-x. Meaningful after RescaleCoords.
func (d *Dataset) FlipX() {
	for i := range d.Cells {
		d.Cells[i].X = 1 - d.Cells[i].X
	}
}

// FlipY mirrors the y axis as 1-y. Meaningful after RescaleCoords.
func (d *Dataset) FlipY() {
	for i := range d.Cells {
		d.Cells[i].Y = 1 - d.Cells[i].Y
	}
}

// SwapXY exchanges the x and y coordinates of every cell.
func (d *Dataset) SwapXY() {
	for i := range d.Cells {
		d.Cells[i].X, d.Cells[i].Y = d.Cells[i].Y, d.Cells[i].X
	}
}

// Index returns a cell-ID → slice-position lookup.
func (d *Dataset) Index() map[string]int {
	idx := make(map[string]int, len(d.Cells))
	for i, c := range d.Cells {
		idx[c.ID] = i
	}
	return idx
}

// Categories returns the sorted unique cell types, skipping cells
// without annotation.
func (d *Dataset) Categories() []string {
	set := make(map[string]struct{})
	for _, c := range d.Cells {
		if c.Type != "" {
			set[c.Type] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// UnionCategories merges the observed cell types of several datasets
// into one sorted list.
func UnionCategories(datasets ...*Dataset) []string {
	set := make(map[string]struct{})
	for _, d := range datasets {
		for _, t := range d.Categories() {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
