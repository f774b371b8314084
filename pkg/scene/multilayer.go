package scene

import (
	"math/rand/v2"

	"github.com/spatial-tools/alignviz/pkg/dataset"
	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/mapping"
	"github.com/spatial-tools/alignviz/pkg/palette"
)

// Defaults for the multi-layer scene builder.
const (
	DefaultLayerSubsample = 200
	DefaultSmoothK        = 10
	DefaultLayerHeight    = 1.0
	DefaultLineColor      = "#4169E1"
)

// MultiLayerOptions configures NewMultiLayer.
type MultiLayerOptions struct {
	// SubsampleSize caps the correspondence lines drawn per layer
	// pair. 0 means DefaultLayerSubsample.
	SubsampleSize int

	// ScaleCoords min-max rescales each layer's axes to [0,1].
	ScaleCoords bool

	// Smooth replaces each direct reference with the spatially
	// nearest of the query's top-K ranked candidates. Requires Ranks.
	Smooth bool

	// SmoothK is the rank cutoff for smoothing. 0 means DefaultSmoothK.
	SmoothK int

	// Ranks holds one rank list set per mapping: Ranks[j][query] is
	// the candidate reference order for layer j's mapping.
	Ranks [][][]int

	// LayerHeight is the z distance between consecutive layers.
	// 0 means DefaultLayerHeight.
	LayerHeight float64

	// Seed drives color assignment and subsampling.
	Seed uint64

	// Point and line styling.
	PointSize  float64
	PointAlpha float64
	LineColor  string
	LineWidth  float64
	LineAlpha  float64
}

func (o *MultiLayerOptions) setDefaults() {
	if o.SubsampleSize == 0 {
		o.SubsampleSize = DefaultLayerSubsample
	}
	if o.SmoothK == 0 {
		o.SmoothK = DefaultSmoothK
	}
	if o.LayerHeight == 0 {
		o.LayerHeight = DefaultLayerHeight
	}
	if o.LineColor == "" {
		o.LineColor = DefaultLineColor
	}
	if o.PointSize == 0 {
		o.PointSize = 0.5
	}
	if o.PointAlpha == 0 {
		o.PointAlpha = 0.6
	}
	if o.LineWidth == 0 {
		o.LineWidth = 0.6
	}
	if o.LineAlpha == 0 {
		o.LineAlpha = 0.8
	}
}

// MultiLayerBuilder stacks N datasets as layers connected by N-1
// mappings.
type MultiLayerBuilder struct {
	layers   []*dataset.Dataset
	mappings []mapping.IndexMapping
	opts     MultiLayerOptions
	union    []string
}

// NewMultiLayer validates and snapshots the inputs.
//
// Exactly len(datasets)-1 mappings are required, each pairing layer j
// (reference) with layer j+1 (query). Datasets are copied; rescaling
// happens on the copy.
func NewMultiLayer(datasets []*dataset.Dataset, mappings []mapping.IndexMapping, opts MultiLayerOptions) (*MultiLayerBuilder, error) {
	if len(datasets) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidDataset, "need at least 2 datasets, got %d", len(datasets))
	}
	if len(mappings) != len(datasets)-1 {
		return nil, errors.New(errors.ErrCodeInvalidMapping,
			"%d datasets need %d mappings, got %d", len(datasets), len(datasets)-1, len(mappings))
	}
	opts.setDefaults()
	if opts.Smooth {
		if len(opts.Ranks) != len(mappings) {
			return nil, errors.New(errors.ErrCodeInvalidMapping,
				"smoothing needs one rank list per mapping: have %d, want %d", len(opts.Ranks), len(mappings))
		}
		for j, ranks := range opts.Ranks {
			refLen := datasets[j].Len()
			for q, candidates := range ranks {
				for _, c := range candidates {
					if c < 0 || c >= refLen {
						return nil, errors.New(errors.ErrCodeInvalidMapping,
							"rank list %d, query %d: candidate %d out of range [0,%d)", j, q, c, refLen)
					}
				}
			}
		}
	}

	b := &MultiLayerBuilder{
		mappings: mappings,
		opts:     opts,
	}
	for i, ds := range datasets {
		cp := ds.Clone()
		if opts.ScaleCoords {
			if err := cp.RescaleCoords(); err != nil {
				return nil, err
			}
		}
		b.layers = append(b.layers, cp)

		if i > 0 {
			m := mappings[i-1]
			if err := m.Validate(datasets[i-1].Len(), ds.Len()); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidMapping, err, "mapping %d", i-1)
			}
		}
	}
	b.union = dataset.UnionCategories(b.layers...)
	return b, nil
}

// Build derives the scene: one scatter layer per dataset plus dashed
// correspondence lines for each subsampled pair.
func (b *MultiLayerBuilder) Build() (Scene, error) {
	colors := palette.Assign(b.union, b.opts.Seed)
	rng := rand.New(rand.NewPCG(b.opts.Seed, b.opts.Seed^0x51a7))

	s := Scene{Colors: colors}

	for j, m := range b.mappings {
		// Scatter both layers of the pair; a layer already emitted by
		// the previous iteration is not re-plotted.
		for i := range 2 {
			if i == 0 && j > 0 {
				continue
			}
			idx := j + i
			s.Layers = append(s.Layers, b.scatterLayer(idx, colors))
		}

		sub := m.Subsample(b.opts.SubsampleSize, rng)
		lines, err := b.mappingLines(j, sub)
		if err != nil {
			return Scene{}, err
		}
		s.Lines = append(s.Lines, lines...)
	}
	return s, nil
}

func (b *MultiLayerBuilder) scatterLayer(idx int, colors map[string]string) Layer {
	ds := b.layers[idx]
	z := b.opts.LayerHeight * float64(idx)
	layer := Layer{Name: ds.Name, Z: z, Points: make([]Point, 0, ds.Len())}
	for _, c := range ds.Cells {
		layer.Points = append(layer.Points, Point{
			Pos:   Vec3{X: c.X, Y: c.Y, Z: z},
			Color: colors[c.Type],
			Size:  b.opts.PointSize,
			Alpha: b.opts.PointAlpha,
		})
	}
	return layer
}

// mappingLines draws the subsampled pairs of mapping j: query cell in
// layer j+1 down to its (possibly smoothed) reference in layer j.
func (b *MultiLayerBuilder) mappingLines(j int, m mapping.IndexMapping) ([]Line, error) {
	ref, query := b.layers[j], b.layers[j+1]
	zRef := b.opts.LayerHeight * float64(j)
	zQuery := b.opts.LayerHeight * float64(j+1)

	var smoother *mapping.Smoother
	if b.opts.Smooth {
		smoother = &mapping.Smoother{Ranks: b.opts.Ranks[j], K: b.opts.SmoothK}
	}

	lines := make([]Line, 0, len(m.Pairs))
	for _, p := range m.Pairs {
		refIdx := p.Ref
		qc := query.Cells[p.Query]
		if smoother != nil {
			smoothed, err := smoother.Smooth(p.Query, [2]float64{qc.X, qc.Y}, func(i int) [2]float64 {
				c := ref.Cells[i]
				return [2]float64{c.X, c.Y}
			})
			if err != nil {
				return nil, err
			}
			refIdx = smoothed
		}
		rc := ref.Cells[refIdx]

		lines = append(lines, Line{
			From:   Vec3{X: rc.X, Y: rc.Y, Z: zRef},
			To:     Vec3{X: qc.X, Y: qc.Y, Z: zQuery},
			Color:  b.opts.LineColor,
			Width:  b.opts.LineWidth,
			Alpha:  b.opts.LineAlpha,
			Dashed: true,
		})
	}
	return lines, nil
}
