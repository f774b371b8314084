package scene

import (
	"slices"

	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/palette"
)

// Line colors of the correctness/reliability taxonomy drawn by
// MatchPolicy.
const (
	ColorCorrect           = "#ade8f4" // categories match, reliable (or no reliability data)
	ColorIncorrect         = "#ffafcc" // categories differ, unreliable (or no reliability data)
	ColorCorrectUnreliable = "#588157" // categories match but the pair was flagged unreliable
	ColorIncorrectReliable = "#ffb703" // categories differ yet the pair was flagged reliable
	DefaultHighlightColor  = "#ff0000"
	DefaultEndpointDotSize = 0.3
	highlightEndpointSize  = 1.0
)

// MatchPolicy is the default line policy: every subsampled pair is
// drawn, colored by the four-way correctness × reliability taxonomy
// whenever annotations are available.
type MatchPolicy struct {
	// Plain suppresses the per-pair taxonomy coloring; every line uses
	// the default line color instead.
	Plain bool
}

// Validate implements LinePolicy.
func (p *MatchPolicy) Validate(*PairView) error { return nil }

// Lines implements LinePolicy.
func (p *MatchPolicy) Lines(v *PairView) ([]Line, []Marker, error) {
	showTaxonomy := v.Opts.Annotate && !p.Plain

	lines := make([]Line, 0, len(v.Mapping.Pairs))
	for i, pair := range v.Mapping.Pairs {
		from, to, ok := v.Endpoints(pair)
		if !ok {
			continue
		}

		color := v.Opts.LineColor
		if showTaxonomy {
			refType, queryType, _ := v.PairTypes(pair)
			color = taxonomyColor(refType == queryType, v.Mapping.Reliability, i)
		}

		lines = append(lines, Line{
			From: from, To: to,
			Color:  color,
			Width:  v.Opts.LineWidth,
			Alpha:  v.Opts.LineAlpha,
			Dashed: true,
		})
	}
	return lines, nil, nil
}

// taxonomyColor picks the line color for a pair: correct/incorrect by
// category equality, refined by the reliability flag when present.
func taxonomyColor(correct bool, reliability []bool, i int) string {
	color := ColorIncorrect
	if correct {
		color = ColorCorrect
	}
	if reliability == nil {
		return color
	}
	if correct && !reliability[i] {
		return ColorCorrectUnreliable
	}
	if !correct && reliability[i] {
		return ColorIncorrectReliable
	}
	return color
}

// Error-highlight modes: first half selects the reliability flag,
// second half selects category agreement.
const (
	ModeHighTrue  = "high_true"  // reliable pairs with matching categories
	ModeLowTrue   = "low_true"   // unreliable pairs with matching categories
	ModeHighFalse = "high_false" // reliable pairs with differing categories
	ModeLowFalse  = "low_false"  // unreliable pairs with differing categories
)

var validModes = []string{ModeHighTrue, ModeLowTrue, ModeHighFalse, ModeLowFalse}

// ErrorPolicy draws only the pairs matching Mode, in a single
// highlight color with endpoint markers, to make one failure class
// stand out.
type ErrorPolicy struct {
	Mode           string
	HighlightColor string // default DefaultHighlightColor
	MarkerColor    string // default DefaultHighlightColor
}

// Validate implements LinePolicy. The mode needs reliability data and
// annotations to be evaluable.
func (p *ErrorPolicy) Validate(v *PairView) error {
	if !slices.Contains(validModes, p.Mode) {
		return errors.New(errors.ErrCodeInvalidMode,
			"unknown mode %q (want one of %v)", p.Mode, validModes)
	}
	if v.Mapping.Reliability == nil {
		return errors.New(errors.ErrCodeInvalidMapping, "mode %q requires reliability data", p.Mode)
	}
	if !v.Opts.Annotate {
		return errors.New(errors.ErrCodeInvalidMode, "mode %q requires annotation coloring", p.Mode)
	}
	return nil
}

// Lines implements LinePolicy.
func (p *ErrorPolicy) Lines(v *PairView) ([]Line, []Marker, error) {
	wantReliable := p.Mode == ModeHighTrue || p.Mode == ModeHighFalse
	wantCorrect := p.Mode == ModeHighTrue || p.Mode == ModeLowTrue

	lineColor := p.HighlightColor
	if lineColor == "" {
		lineColor = DefaultHighlightColor
	}
	markerColor := p.MarkerColor
	if markerColor == "" {
		markerColor = DefaultHighlightColor
	}

	var lines []Line
	var markers []Marker
	for i, pair := range v.Mapping.Pairs {
		if v.Mapping.Reliability[i] != wantReliable {
			continue
		}
		refType, queryType, ok := v.PairTypes(pair)
		if !ok || (refType == queryType) != wantCorrect {
			continue
		}
		from, to, ok := v.Endpoints(pair)
		if !ok {
			continue
		}

		lines = append(lines, Line{
			From: from, To: to,
			Color:  lineColor,
			Width:  v.Opts.LineWidth,
			Alpha:  v.Opts.LineAlpha,
			Dashed: true,
		})
		markers = append(markers,
			Marker{Pos: from, Color: markerColor, Size: DefaultEndpointDotSize},
			Marker{Pos: to, Color: markerColor, Size: DefaultEndpointDotSize},
		)
	}
	return lines, markers, nil
}

// CategoryPolicy draws only pairs whose endpoints both fall in the
// caller's highlight lists, one color per highlighted category.
type CategoryPolicy struct {
	// HighlightA / HighlightB restrict the reference / query endpoint
	// categories.
	HighlightA, HighlightB []string

	// LineColors optionally supplies the per-category palette; when
	// too short (or nil) a fresh random palette is generated.
	LineColors []string

	// MarkerColor, when set, draws endpoint dots in that color.
	MarkerColor string
}

// Validate implements LinePolicy: every highlighted category must be
// observed in the union of both datasets.
func (p *CategoryPolicy) Validate(v *PairView) error {
	if !v.Opts.Annotate {
		return errors.New(errors.ErrCodeInvalidCategory, "category highlighting requires annotation coloring")
	}
	for _, side := range [][]string{p.HighlightA, p.HighlightB} {
		for _, cat := range side {
			if !slices.Contains(v.Categories, cat) {
				return errors.New(errors.ErrCodeInvalidCategory,
					"highlighted cell type %q not present in the datasets", cat)
			}
		}
	}
	return nil
}

// Lines implements LinePolicy.
func (p *CategoryPolicy) Lines(v *PairView) ([]Line, []Marker, error) {
	// Color is keyed by whichever side highlights more categories.
	keyBySideA := len(p.HighlightA) >= len(p.HighlightB)
	keys := p.HighlightB
	if keyBySideA {
		keys = p.HighlightA
	}

	colors := p.LineColors
	if len(colors) < len(keys) {
		colors = palette.Random(len(keys), v.Opts.Seed)
	}

	var lines []Line
	var markers []Marker
	for _, pair := range v.Mapping.Pairs {
		refType, queryType, ok := v.PairTypes(pair)
		if !ok {
			continue
		}
		if !slices.Contains(p.HighlightA, refType) || !slices.Contains(p.HighlightB, queryType) {
			continue
		}
		from, to, ok := v.Endpoints(pair)
		if !ok {
			continue
		}

		key := queryType
		if keyBySideA {
			key = refType
		}
		color := colors[slices.Index(keys, key)]

		if p.MarkerColor != "" {
			markers = append(markers,
				Marker{Pos: from, Color: p.MarkerColor, Size: highlightEndpointSize},
				Marker{Pos: to, Color: p.MarkerColor, Size: highlightEndpointSize},
			)
		}
		lines = append(lines, Line{
			From: from, To: to,
			Color:  color,
			Width:  v.Opts.LineWidth,
			Alpha:  v.Opts.LineAlpha,
			Dashed: true,
		})
	}
	return lines, markers, nil
}
