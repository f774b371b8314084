package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	"github.com/spatial-tools/alignviz/pkg/scene"
)

// Option configures scene rendering; the same options drive the SVG
// and raster paths.
type Option func(*renderer)

type renderer struct {
	width, height float64
	margin        float64
	projection    Projection
	pointScale    float64
	lineScale     float64
	title         string
	background    string
	legend        bool
}

// WithSize sets the figure dimensions in pixels.
func WithSize(width, height float64) Option {
	return func(r *renderer) { r.width, r.height = width, height }
}

// WithProjection replaces the default oblique projection.
func WithProjection(p Projection) Option {
	return func(r *renderer) { r.projection = p }
}

// WithPointScale multiplies every point and marker radius.
func WithPointScale(s float64) Option {
	return func(r *renderer) { r.pointScale = s }
}

// WithLineScale multiplies every line width.
func WithLineScale(s float64) Option {
	return func(r *renderer) { r.lineScale = s }
}

// WithTitle draws a centered title above the scene.
func WithTitle(t string) Option {
	return func(r *renderer) { r.title = t }
}

// WithBackground fills the frame with a color instead of leaving it
// transparent.
func WithBackground(color string) Option {
	return func(r *renderer) { r.background = color }
}

// WithLegend draws the category color legend when the scene carries
// one.
func WithLegend() Option {
	return func(r *renderer) { r.legend = true }
}

func newRenderer(opts ...Option) renderer {
	r := renderer{
		width: 1000, height: 800, margin: 40,
		projection: DefaultProjection,
		pointScale: 3, lineScale: 1,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws a scene as an SVG document: scatter layers bottom
// up, then correspondence lines, then markers, then the optional
// legend and title.
func RenderSVG(s scene.Scene, opts ...Option) []byte {
	r := newRenderer(opts...)
	vp := newViewport(r.projection, s, r.width, r.height, r.margin)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)

	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
			r.width, r.height, r.background)
	}
	if r.title != "" {
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-size="16" text-anchor="middle">%s</text>`+"\n",
			r.width/2, r.margin/2, escapeXML(r.title))
	}

	r.renderLayers(&buf, s, vp)
	r.renderLines(&buf, s, vp)
	r.renderMarkers(&buf, s, vp)
	if r.legend && len(s.Colors) > 0 {
		r.renderLegend(&buf, s.Colors)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r renderer) renderLayers(buf *bytes.Buffer, s scene.Scene, vp viewport) {
	// Painter's order: deepest layer first.
	layers := slices.Clone(s.Layers)
	slices.SortStableFunc(layers, func(a, b scene.Layer) int {
		switch {
		case a.Z < b.Z:
			return -1
		case a.Z > b.Z:
			return 1
		}
		return 0
	})

	for _, layer := range layers {
		fmt.Fprintf(buf, `  <g class="layer" data-name=%q>`+"\n", layer.Name)
		for _, pt := range layer.Points {
			x, y := vp.apply(r.projection.Project(pt.Pos))
			fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.2f" fill="%s" fill-opacity="%.2f"/>`+"\n",
				x, y, pt.Size*r.pointScale, pt.Color, pt.Alpha)
		}
		buf.WriteString("  </g>\n")
	}
}

func (r renderer) renderLines(buf *bytes.Buffer, s scene.Scene, vp viewport) {
	if len(s.Lines) == 0 {
		return
	}
	buf.WriteString("  <g class=\"lines\">\n")
	for _, l := range s.Lines {
		x1, y1 := vp.apply(r.projection.Project(l.From))
		x2, y2 := vp.apply(r.projection.Project(l.To))
		dash := ""
		if l.Dashed {
			dash = ` stroke-dasharray="4 3"`
		}
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.2f" stroke-opacity="%.2f"%s/>`+"\n",
			x1, y1, x2, y2, l.Color, l.Width*r.lineScale, l.Alpha, dash)
	}
	buf.WriteString("  </g>\n")
}

func (r renderer) renderMarkers(buf *bytes.Buffer, s scene.Scene, vp viewport) {
	for _, m := range s.Markers {
		x, y := vp.apply(r.projection.Project(m.Pos))
		fmt.Fprintf(buf, `  <circle cx="%.1f" cy="%.1f" r="%.2f" fill="%s"/>`+"\n",
			x, y, m.Size*r.pointScale, m.Color)
	}
}

func (r renderer) renderLegend(buf *bytes.Buffer, colors map[string]string) {
	x := r.width - r.margin - 140
	y := r.margin
	buf.WriteString("  <g class=\"legend\">\n")
	for _, cat := range slices.Sorted(maps.Keys(colors)) {
		fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="10" height="10" fill="%s"/>`+"\n",
			x, y, colors[cat])
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="11">%s</text>`+"\n",
			x+14, y+9, escapeXML(cat))
		y += 16
	}
	buf.WriteString("  </g>\n")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, c := range s {
		switch c {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(c)
		}
	}
	return buf.String()
}
