package scene

import (
	"math/rand/v2"

	"github.com/spatial-tools/alignviz/pkg/dataset"
	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/mapping"
	"github.com/spatial-tools/alignviz/pkg/palette"
)

// Defaults for the pairwise match builder.
const (
	DefaultPairSubsample = 300
	DefaultPairLineColor = "#808080"
)

// Axes names accepted by PairOptions.FlipA / FlipB.
const (
	FlipNone = ""
	FlipX    = "x"
	FlipY    = "y"
	FlipXY   = "xy"
)

// PairOptions configures NewPair.
type PairOptions struct {
	// SubsampleSize caps the drawn pairs. 0 means DefaultPairSubsample.
	SubsampleSize int

	// ScaleCoords min-max rescales both datasets' axes to [0,1].
	// Forced on when FlipA or FlipB is set, since flips are expressed
	// as 1-v on normalized coordinates.
	ScaleCoords bool

	// FlipA / FlipB mirror axes of the respective dataset ("x", "y",
	// "xy") to visually align slide orientations.
	FlipA, FlipB string

	// SwapXY exchanges x and y on dataset B.
	SwapXY bool

	// Annotate colors points and lines by cell type. Requires both
	// datasets to carry annotations.
	Annotate bool

	// ExprScale selects a continuous color scale (e.g. "reds") to
	// color points by expression instead of category.
	ExprScale string

	// ExprClipPct trims expression outliers at the given percentile
	// when normalizing (0 = plain min/max).
	ExprClipPct float64

	// Seed drives color assignment and subsampling.
	Seed uint64

	// Point and line styling.
	PointSize float64
	LineColor string
	LineWidth float64
	LineAlpha float64
}

func (o *PairOptions) setDefaults() {
	if o.SubsampleSize == 0 {
		o.SubsampleSize = DefaultPairSubsample
	}
	if o.FlipA != FlipNone || o.FlipB != FlipNone {
		o.ScaleCoords = true
	}
	if o.LineColor == "" {
		o.LineColor = DefaultPairLineColor
	}
	if o.PointSize == 0 {
		o.PointSize = 0.1
	}
	if o.LineWidth == 0 {
		o.LineWidth = 0.3
	}
	if o.LineAlpha == 0 {
		o.LineAlpha = 0.7
	}
}

// PairView is the snapshot a LinePolicy draws from: the two normalized
// datasets at z=0 (A, reference) and z=1 (B, query), the subsampled
// mapping, and the shared styling.
type PairView struct {
	A, B       *dataset.Dataset
	Mapping    mapping.Mapping
	Categories []string // sorted union of both datasets
	Opts       PairOptions

	idxA, idxB map[string]int
}

// CellA resolves a reference cell by ID.
func (v *PairView) CellA(id string) (dataset.Cell, bool) {
	i, ok := v.idxA[id]
	if !ok {
		return dataset.Cell{}, false
	}
	return v.A.Cells[i], true
}

// CellB resolves a query cell by ID.
func (v *PairView) CellB(id string) (dataset.Cell, bool) {
	i, ok := v.idxB[id]
	if !ok {
		return dataset.Cell{}, false
	}
	return v.B.Cells[i], true
}

// Endpoints returns the two line endpoints for a pair, or ok=false if
// either ID is unknown (such pairs are skipped, not fatal).
func (v *PairView) Endpoints(p mapping.Pair) (from, to Vec3, ok bool) {
	ref, okA := v.CellA(p.Ref)
	query, okB := v.CellB(p.Query)
	if !okA || !okB {
		return Vec3{}, Vec3{}, false
	}
	return Vec3{X: ref.X, Y: ref.Y, Z: 0}, Vec3{X: query.X, Y: query.Y, Z: 1}, true
}

// PairTypes returns the annotation categories of both endpoints.
func (v *PairView) PairTypes(p mapping.Pair) (refType, queryType string, ok bool) {
	ref, okA := v.CellA(p.Ref)
	query, okB := v.CellB(p.Query)
	if !okA || !okB {
		return "", "", false
	}
	return ref.Type, query.Type, true
}

// LinePolicy decides which correspondence lines a pairwise figure
// draws and how they are colored. Implementations: MatchPolicy,
// ErrorPolicy, CategoryPolicy.
type LinePolicy interface {
	// Validate checks policy parameters against the snapshot.
	Validate(v *PairView) error
	// Lines produces the correspondence lines and endpoint markers.
	Lines(v *PairView) ([]Line, []Marker, error)
}

// PairBuilder renders two datasets as z-layers with per-pair lines.
type PairBuilder struct {
	view   PairView
	policy LinePolicy
}

// NewPair validates and snapshots the inputs.
//
// Dataset A is the reference (z=0), B the query (z=1). The mapping
// references cells by ID. The policy is validated against the
// normalized snapshot, so CategoryPolicy highlight lists are checked
// here, at construction.
func NewPair(a, b *dataset.Dataset, m mapping.Mapping, policy LinePolicy, opts PairOptions) (*PairBuilder, error) {
	opts.setDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if opts.Annotate && (!a.HasType || !b.HasType) {
		return nil, errors.New(errors.ErrCodeInvalidDataset,
			"annotation coloring requires cell types on both datasets")
	}
	if opts.ExprScale != "" {
		if _, err := palette.ScaleByName(opts.ExprScale); err != nil {
			return nil, err
		}
		if !a.HasExpr || !b.HasExpr {
			return nil, errors.New(errors.ErrCodeInvalidDataset,
				"expression coloring requires expression values on both datasets")
		}
	}

	ca, cb := a.Clone(), b.Clone()
	if opts.ScaleCoords {
		if err := ca.RescaleCoords(); err != nil {
			return nil, err
		}
		if err := cb.RescaleCoords(); err != nil {
			return nil, err
		}
	}
	if err := applyFlip(ca, opts.FlipA); err != nil {
		return nil, err
	}
	if err := applyFlip(cb, opts.FlipB); err != nil {
		return nil, err
	}
	if opts.SwapXY {
		cb.SwapXY()
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9a1c))
	sub := m.Subsample(opts.SubsampleSize, rng)

	b2 := &PairBuilder{
		view: PairView{
			A: ca, B: cb,
			Mapping:    sub,
			Categories: dataset.UnionCategories(ca, cb),
			Opts:       opts,
			idxA:       ca.Index(),
			idxB:       cb.Index(),
		},
		policy: policy,
	}
	if policy == nil {
		b2.policy = &MatchPolicy{}
	}
	if err := b2.policy.Validate(&b2.view); err != nil {
		return nil, err
	}
	return b2, nil
}

// View exposes the normalized snapshot, mainly for tests.
func (b *PairBuilder) View() *PairView { return &b.view }

// Build derives the scene: two scatter layers plus the policy's lines.
func (b *PairBuilder) Build() (Scene, error) {
	s := Scene{}

	if b.view.Opts.Annotate && b.view.Opts.ExprScale == "" {
		s.Colors = palette.Assign(b.view.Categories, b.view.Opts.Seed)
	}

	layerA, err := b.scatterLayer(b.view.A, 0, s.Colors)
	if err != nil {
		return Scene{}, err
	}
	layerB, err := b.scatterLayer(b.view.B, 1, s.Colors)
	if err != nil {
		return Scene{}, err
	}
	s.Layers = []Layer{layerA, layerB}

	lines, markers, err := b.policy.Lines(&b.view)
	if err != nil {
		return Scene{}, err
	}
	s.Lines = lines
	s.Markers = markers
	return s, nil
}

func (b *PairBuilder) scatterLayer(ds *dataset.Dataset, z float64, colors map[string]string) (Layer, error) {
	opts := b.view.Opts
	layer := Layer{Name: ds.Name, Z: z, Points: make([]Point, 0, ds.Len())}

	var scale palette.Scale
	var lo, hi float64
	if opts.ExprScale != "" {
		var err error
		scale, err = palette.ScaleByName(opts.ExprScale)
		if err != nil {
			return Layer{}, err
		}
		// Expression normalizes per dataset, not across the pair.
		lo, hi, err = ds.ExprRange(opts.ExprClipPct)
		if err != nil {
			return Layer{}, err
		}
	}

	for _, c := range ds.Cells {
		p := Point{
			Pos:   Vec3{X: c.X, Y: c.Y, Z: z},
			Size:  opts.PointSize,
			Alpha: 1,
		}
		switch {
		case opts.ExprScale != "":
			p.Color = scale.At(dataset.NormalizeExpr(c.Expr, lo, hi))
		case colors != nil:
			p.Color = colors[c.Type]
		default:
			p.Color = DefaultPairLineColor
		}
		layer.Points = append(layer.Points, p)
	}
	return layer, nil
}

func applyFlip(ds *dataset.Dataset, axes string) error {
	switch axes {
	case FlipNone:
	case FlipX:
		ds.FlipX()
	case FlipY:
		ds.FlipY()
	case FlipXY:
		ds.FlipX()
		ds.FlipY()
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown flip axes %q (want x, y or xy)", axes)
	}
	return nil
}
