// Package pipeline orchestrates the load → build → render flow shared
// by the CLI and the HTTP server.
//
// A figure request is described by Options, executed by a Runner:
//
//	runner := pipeline.NewRunner(logger)
//	opts := pipeline.Options{
//	    Kind:     pipeline.KindMatch,
//	    Datasets: []string{"e11.csv", "e12.csv"},
//	    Mappings: []string{"matching.json"},
//	    Formats:  []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/sankey"
	"github.com/spatial-tools/alignviz/pkg/scene"
)

// Defaults shared by CLI, server and library callers.
const (
	// DefaultWidth is the default frame width in pixels.
	DefaultWidth = 1000.0

	// DefaultHeight is the default frame height in pixels.
	DefaultHeight = 800.0

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultPNGScale is the rsvg-convert zoom factor for PNG export.
	DefaultPNGScale = 2.0

	// DefaultThreshold re-exports the sankey link threshold.
	DefaultThreshold = sankey.DefaultThreshold
)

// Figure kinds.
const (
	KindScene  = "scene"  // multi-layer 3D stack
	KindMatch  = "match"  // pairwise match figure
	KindSankey = "sankey" // cell-type flow diagram
)

// Output format constants.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
	FormatDOT = "dot"
)

// Sankey layout engines.
const (
	EngineRibbon   = "ribbon"   // native curved-ribbon layout
	EngineGraphviz = "graphviz" // DOT rendered through Graphviz
)

// ValidKinds is the set of supported figure kinds.
var ValidKinds = map[string]bool{
	KindScene:  true,
	KindMatch:  true,
	KindSankey: true,
}

// ValidFormats is the set of supported output formats per kind; DOT
// only makes sense for flow diagrams.
var ValidFormats = map[string]map[string]bool{
	KindScene:  {FormatSVG: true, FormatPNG: true, FormatPDF: true},
	KindMatch:  {FormatSVG: true, FormatPNG: true, FormatPDF: true},
	KindSankey: {FormatSVG: true, FormatPNG: true, FormatPDF: true, FormatDOT: true},
}

// ValidModes is the set of error-highlight modes for match figures.
var ValidModes = map[string]bool{
	scene.ModeHighTrue:  true,
	scene.ModeLowTrue:   true,
	scene.ModeHighFalse: true,
	scene.ModeLowFalse:  true,
}

// Options describes one figure request. The struct serializes to JSON
// for the HTTP API.
type Options struct {
	// Kind selects the figure: scene, match or sankey.
	Kind string `json:"kind"`

	// Input files. Datasets are CSV cell tables; Mappings are JSON
	// mapping files (positional for scene, by cell ID for match and
	// sankey); Crosstabs are precomputed CSV tables for sankey.
	Datasets  []string `json:"datasets,omitempty"`
	Mappings  []string `json:"mappings,omitempty"`
	Crosstabs []string `json:"crosstabs,omitempty"`

	// Build options shared by scene and match. A nil Seed means
	// DefaultSeed; an explicit zero is honored.
	Subsample   int     `json:"subsample,omitempty"`
	ScaleCoords bool    `json:"scale_coords,omitempty"`
	Seed        *uint64 `json:"seed,omitempty"`

	// Scene options.
	Smooth  bool `json:"smooth,omitempty"`
	SmoothK int  `json:"smooth_k,omitempty"`

	// Match options. Annotated figures color lines by the
	// correctness/reliability taxonomy unless PlainLines is set.
	Annotate    bool     `json:"annotate,omitempty"`
	PlainLines  bool     `json:"plain_lines,omitempty"`
	FlipA       string   `json:"flip_a,omitempty"`
	FlipB       string   `json:"flip_b,omitempty"`
	SwapXY      bool     `json:"swap_xy,omitempty"`
	ExprScale   string   `json:"expr_scale,omitempty"`
	ExprClipPct float64  `json:"expr_clip_pct,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	HighlightA  []string `json:"highlight_a,omitempty"`
	HighlightB  []string `json:"highlight_b,omitempty"`

	// Sankey options. Threshold 0 means DefaultThreshold; -1 keeps
	// every non-empty link.
	Threshold  int      `json:"threshold,omitempty"`
	Prefixes   []string `json:"prefixes,omitempty"`
	ChainStart float64  `json:"chain_start,omitempty"`
	ChainStep  float64  `json:"chain_step,omitempty"`
	Engine     string   `json:"engine,omitempty"`

	// Render options.
	Formats  []string `json:"formats,omitempty"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	Title    string   `json:"title,omitempty"`
	Legend   bool     `json:"legend,omitempty"`
	PNGScale float64  `json:"png_scale,omitempty"`

	// Runtime options (not serialized).
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateKind checks that a figure kind is valid.
func ValidateKind(kind string) error {
	if !ValidKinds[kind] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid kind %q (must be one of: scene, match, sankey)", kind)
	}
	return nil
}

// ValidateFormat checks that a format is valid for the given kind.
func ValidateFormat(kind, format string) error {
	if !ValidFormats[kind][format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format %q for %s figures", format, kind)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := ValidateKind(o.Kind); err != nil {
		return err
	}
	if err := o.validateInputs(); err != nil {
		return err
	}

	o.setRenderDefaults()
	for _, f := range o.Formats {
		if err := ValidateFormat(o.Kind, f); err != nil {
			return err
		}
	}
	if o.Mode != "" && !ValidModes[o.Mode] {
		return errors.New(errors.ErrCodeInvalidMode,
			"invalid mode %q (must be one of: high_true, low_true, high_false, low_false)", o.Mode)
	}
	if o.Threshold < -1 {
		return errors.New(errors.ErrCodeInvalidThreshold,
			"threshold must be >= 0 (or -1 to keep every link), got %d", o.Threshold)
	}
	switch o.Engine {
	case "", EngineRibbon, EngineGraphviz:
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid engine %q (must be ribbon or graphviz)", o.Engine)
	}

	o.validated = true
	return nil
}

func (o *Options) validateInputs() error {
	switch o.Kind {
	case KindScene:
		if len(o.Datasets) < 2 {
			return errors.New(errors.ErrCodeInvalidInput,
				"scene figures need at least 2 datasets, got %d", len(o.Datasets))
		}
		if len(o.Mappings) != len(o.Datasets)-1 {
			return errors.New(errors.ErrCodeInvalidMapping,
				"%d datasets need %d mappings, got %d", len(o.Datasets), len(o.Datasets)-1, len(o.Mappings))
		}
	case KindMatch:
		if len(o.Datasets) != 2 {
			return errors.New(errors.ErrCodeInvalidInput,
				"match figures need exactly 2 datasets, got %d", len(o.Datasets))
		}
		if len(o.Mappings) != 1 {
			return errors.New(errors.ErrCodeInvalidMapping,
				"match figures need exactly 1 mapping, got %d", len(o.Mappings))
		}
	case KindSankey:
		fromTables := len(o.Crosstabs) > 0
		fromPairs := len(o.Datasets) == 2 && len(o.Mappings) == 1
		if !fromTables && !fromPairs {
			return errors.New(errors.ErrCodeInvalidInput,
				"sankey figures need crosstab files, or 2 datasets and 1 mapping")
		}
	}
	return nil
}

func (o *Options) setRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == nil {
		seed := DefaultSeed
		o.Seed = &seed
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// policy builds the match line policy selected by the options: Mode
// picks ErrorPolicy, highlight lists pick CategoryPolicy, otherwise
// MatchPolicy.
func (o *Options) policy() scene.LinePolicy {
	switch {
	case o.Mode != "":
		return &scene.ErrorPolicy{Mode: o.Mode}
	case len(o.HighlightA) > 0 || len(o.HighlightB) > 0:
		return &scene.CategoryPolicy{HighlightA: o.HighlightA, HighlightB: o.HighlightB}
	default:
		return &scene.MatchPolicy{Plain: o.PlainLines}
	}
}
