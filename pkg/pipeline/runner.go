package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/spatial-tools/alignviz/pkg/dataset"
	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/mapping"
	"github.com/spatial-tools/alignviz/pkg/render"
	"github.com/spatial-tools/alignviz/pkg/sankey"
	"github.com/spatial-tools/alignviz/pkg/scene"
)

// Runner executes figure pipelines. It is stateless apart from the
// logger; one Runner can serve concurrent requests with different
// options.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to log.Default.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Inputs holds the loaded and decoded input files of one request.
type Inputs struct {
	Datasets      []*dataset.Dataset
	IndexMappings []mapping.IndexMapping
	Ranks         [][][]int
	PairMapping   mapping.Mapping
	Tables        []sankey.Crosstab
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is set for scene and match figures.
	Scene scene.Scene

	// Diagram is set for sankey figures.
	Diagram sankey.Diagram

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CellCount  int
	LineCount  int
	LinkCount  int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// Execute runs the complete load → build → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	loadStart := time.Now()
	in, err := r.Load(opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	for _, ds := range in.Datasets {
		result.Stats.CellCount += ds.Len()
	}
	r.Logger.Info("loaded inputs",
		"datasets", len(in.Datasets),
		"cells", result.Stats.CellCount,
		"duration", result.Stats.LoadTime)

	buildStart := time.Now()
	if err := r.Build(in, opts, result); err != nil {
		return nil, err
	}
	result.Stats.BuildTime = time.Since(buildStart)
	r.Logger.Info("built figure",
		"kind", opts.Kind,
		"lines", result.Stats.LineCount,
		"links", result.Stats.LinkCount,
		"duration", result.Stats.BuildTime)

	renderStart := time.Now()
	if err := r.Render(ctx, opts, result); err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads and decodes the input files named by the options.
func (r *Runner) Load(opts Options) (*Inputs, error) {
	in := &Inputs{}

	for _, path := range opts.Datasets {
		ds, err := dataset.ReadCSVFile(path)
		if err != nil {
			return nil, err
		}
		in.Datasets = append(in.Datasets, ds)
	}

	switch opts.Kind {
	case KindScene:
		for _, path := range opts.Mappings {
			m, ranks, err := mapping.ReadIndexJSONFile(path)
			if err != nil {
				return nil, err
			}
			in.IndexMappings = append(in.IndexMappings, m)
			in.Ranks = append(in.Ranks, ranks)
		}
	case KindMatch, KindSankey:
		if len(opts.Mappings) == 1 {
			m, err := mapping.ReadJSONFile(opts.Mappings[0])
			if err != nil {
				return nil, err
			}
			in.PairMapping = m
		}
		for _, path := range opts.Crosstabs {
			t, err := sankey.ReadCSVFile(path)
			if err != nil {
				return nil, err
			}
			in.Tables = append(in.Tables, t)
		}
	}
	return in, nil
}

// Build constructs the scene or diagram from loaded inputs.
func (r *Runner) Build(in *Inputs, opts Options, result *Result) error {
	switch opts.Kind {
	case KindScene:
		return r.buildScene(in, opts, result)
	case KindMatch:
		return r.buildMatch(in, opts, result)
	case KindSankey:
		return r.buildSankey(in, opts, result)
	}
	return errors.New(errors.ErrCodeInternal, "unreachable kind %q", opts.Kind)
}

func (r *Runner) buildScene(in *Inputs, opts Options, result *Result) error {
	mlOpts := scene.MultiLayerOptions{
		SubsampleSize: opts.Subsample,
		ScaleCoords:   opts.ScaleCoords,
		Smooth:        opts.Smooth,
		SmoothK:       opts.SmoothK,
		Seed:          *opts.Seed,
	}
	if opts.Smooth {
		mlOpts.Ranks = in.Ranks
	}

	b, err := scene.NewMultiLayer(in.Datasets, in.IndexMappings, mlOpts)
	if err != nil {
		return err
	}
	s, err := b.Build()
	if err != nil {
		return err
	}
	result.Scene = s
	result.Stats.LineCount = len(s.Lines)
	return nil
}

func (r *Runner) buildMatch(in *Inputs, opts Options, result *Result) error {
	b, err := scene.NewPair(in.Datasets[0], in.Datasets[1], in.PairMapping, opts.policy(), scene.PairOptions{
		SubsampleSize: opts.Subsample,
		ScaleCoords:   opts.ScaleCoords,
		FlipA:         opts.FlipA,
		FlipB:         opts.FlipB,
		SwapXY:        opts.SwapXY,
		Annotate:      opts.Annotate,
		ExprScale:     opts.ExprScale,
		ExprClipPct:   opts.ExprClipPct,
		Seed:          *opts.Seed,
	})
	if err != nil {
		return err
	}
	s, err := b.Build()
	if err != nil {
		return err
	}
	result.Scene = s
	result.Stats.LineCount = len(s.Lines)
	return nil
}

func (r *Runner) buildSankey(in *Inputs, opts Options, result *Result) error {
	tables := in.Tables
	if len(tables) == 0 {
		t, err := sankey.FromPairs(in.Datasets[0], in.Datasets[1], in.PairMapping)
		if err != nil {
			return err
		}
		tables = []sankey.Crosstab{t}
	}

	sankeyOpts := sankey.Options{
		Title:     opts.Title,
		Threshold: opts.Threshold,
		Seed:      *opts.Seed,
	}

	var d sankey.Diagram
	var err error
	if len(tables) == 1 {
		prefixRef, prefixQuery := r.flowPrefixes(in, opts)
		d, err = sankey.Flow(tables[0], prefixRef, prefixQuery, sankeyOpts)
	} else {
		step := opts.ChainStep
		if step == 0 {
			step = 1
		}
		d, err = sankey.Chain(tables, opts.ChainStart, step, sankeyOpts)
	}
	if err != nil {
		return err
	}
	result.Diagram = d
	result.Stats.LinkCount = len(d.Links)
	return nil
}

// flowPrefixes picks the stage labels of a single-table flow: explicit
// prefixes first, then dataset names, then a generic ref/query pair.
func (r *Runner) flowPrefixes(in *Inputs, opts Options) (string, string) {
	if len(opts.Prefixes) >= 2 {
		return opts.Prefixes[0], opts.Prefixes[1]
	}
	if len(in.Datasets) == 2 {
		return in.Datasets[0].Name, in.Datasets[1].Name
	}
	return "ref", "query"
}

// Render produces every requested format from the built figure.
func (r *Runner) Render(ctx context.Context, opts Options, result *Result) error {
	svg, err := r.renderSVG(ctx, opts, result)
	if err != nil {
		return err
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatSVG:
			result.Artifacts[FormatSVG] = svg
		case FormatPNG:
			data, err := r.renderPNG(opts, result, svg)
			if err != nil {
				return err
			}
			result.Artifacts[FormatPNG] = data
		case FormatPDF:
			data, err := render.ToPDF(svg)
			if err != nil {
				return err
			}
			result.Artifacts[FormatPDF] = data
		case FormatDOT:
			result.Artifacts[FormatDOT] = []byte(sankey.ToDOT(result.Diagram))
		}
	}
	return nil
}

func (r *Runner) renderSVG(ctx context.Context, opts Options, result *Result) ([]byte, error) {
	if opts.Kind == KindSankey {
		if opts.Engine == EngineGraphviz {
			return sankey.RenderGraphviz(ctx, sankey.ToDOT(result.Diagram))
		}
		return sankey.RenderSVG(result.Diagram, sankey.WithSize(opts.Width, opts.Height)), nil
	}
	renderOpts := []render.Option{
		render.WithSize(opts.Width, opts.Height),
		render.WithTitle(opts.Title),
	}
	if opts.Legend {
		renderOpts = append(renderOpts, render.WithLegend())
	}
	return render.RenderSVG(result.Scene, renderOpts...), nil
}

// renderPNG rasterizes scenes natively; sankey SVG goes through rsvg.
func (r *Runner) renderPNG(opts Options, result *Result, svg []byte) ([]byte, error) {
	if opts.Kind == KindSankey {
		return render.ToPNG(svg, opts.PNGScale)
	}
	renderOpts := []render.Option{
		render.WithSize(opts.Width*opts.PNGScale, opts.Height*opts.PNGScale),
		render.WithTitle(opts.Title),
		render.WithPointScale(3 * opts.PNGScale),
		render.WithLineScale(opts.PNGScale),
	}
	if opts.Legend {
		renderOpts = append(renderOpts, render.WithLegend())
	}
	return render.RenderPNG(result.Scene, renderOpts...)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
