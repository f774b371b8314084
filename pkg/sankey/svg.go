package sankey

import (
	"bytes"
	"fmt"
)

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height float64
	nodeThickness float64
	nodePad       float64
	fontSize      float64
	fontColor     string
	linkColor     string
	linkAlpha     float64
}

// WithSize sets the figure dimensions in pixels.
func WithSize(width, height float64) SVGOption {
	return func(r *svgRenderer) { r.width, r.height = width, height }
}

// WithNodeGeometry sets the node bar thickness and the vertical gap
// between nodes in a column.
func WithNodeGeometry(thickness, pad float64) SVGOption {
	return func(r *svgRenderer) { r.nodeThickness, r.nodePad = thickness, pad }
}

// WithFont sets the label font size and color.
func WithFont(size float64, color string) SVGOption {
	return func(r *svgRenderer) { r.fontSize, r.fontColor = size, color }
}

// WithLinkStyle sets the ribbon color and opacity.
func WithLinkStyle(color string, alpha float64) SVGOption {
	return func(r *svgRenderer) { r.linkColor, r.linkAlpha = color, alpha }
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		width: 1300, height: 900,
		nodeThickness: 50, nodePad: 50,
		fontSize: 15, fontColor: "black",
		linkColor: "#999999", linkAlpha: 0.4,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// nodeBox is the computed placement of one node bar.
type nodeBox struct {
	x, y, h float64
	// running offsets for ribbon attachment on each side
	outOff, inOff float64
}

// RenderSVG draws the diagram as an SVG document: one bar per node,
// stacked per stage column, with ribbon links whose stroke width is
// proportional to the pair count.
func RenderSVG(d Diagram, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	boxes, unit := r.layout(d)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)

	if d.Title != "" {
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" text-anchor="middle" fill="%s">%s</text>`+"\n",
			r.width/2, r.fontSize*1.5, r.fontSize*1.3, r.fontColor, escapeXML(d.Title))
	}

	r.renderLinks(&buf, d, boxes, unit)
	r.renderNodes(&buf, d, boxes)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// layout stacks the nodes of each column and returns the per-node
// boxes plus the pixel height of one unit of flow.
func (r svgRenderer) layout(d Diagram) ([]nodeBox, float64) {
	cols := d.Columns()
	if cols == 0 {
		return nil, 0
	}

	// A node's weight is the larger of its inflow and outflow; nodes
	// without links keep a minimum bar.
	weight := make([]int, len(d.Nodes))
	in := make([]int, len(d.Nodes))
	out := make([]int, len(d.Nodes))
	for _, l := range d.Links {
		out[l.Source] += l.Value
		in[l.Target] += l.Value
	}
	for i := range d.Nodes {
		weight[i] = max(max(in[i], out[i]), 1)
	}

	// Scale flow units so the heaviest column fits the frame.
	top := r.fontSize * 3
	usable := r.height - top - r.nodePad
	unit := 0.0
	for c := range cols {
		total, n := 0, 0
		for i, nd := range d.Nodes {
			if nd.Column == c {
				total += weight[i]
				n++
			}
		}
		if n == 0 {
			continue
		}
		avail := usable - float64(n-1)*r.nodePad
		if avail <= 0 {
			avail = usable / 2
		}
		u := avail / float64(total)
		if unit == 0 || u < unit {
			unit = u
		}
	}

	colStep := 0.0
	if cols > 1 {
		colStep = (r.width - 2*r.nodePad - r.nodeThickness) / float64(cols-1)
	}

	boxes := make([]nodeBox, len(d.Nodes))
	for c := range cols {
		y := top
		for i, nd := range d.Nodes {
			if nd.Column != c {
				continue
			}
			h := float64(weight[i]) * unit
			boxes[i] = nodeBox{x: r.nodePad + float64(c)*colStep, y: y, h: h}
			y += h + r.nodePad
		}
	}
	return boxes, unit
}

func (r svgRenderer) renderNodes(buf *bytes.Buffer, d Diagram, boxes []nodeBox) {
	for i, n := range d.Nodes {
		b := boxes[i]
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="green" stroke-width="0.5"/>`+"\n",
			b.x, b.y, r.nodeThickness, b.h, n.Color)
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" fill="%s">%s</text>`+"\n",
			b.x+r.nodeThickness+4, b.y+b.h/2+r.fontSize/3, r.fontSize, r.fontColor, escapeXML(n.Label))
	}
}

func (r svgRenderer) renderLinks(buf *bytes.Buffer, d Diagram, boxes []nodeBox, unit float64) {
	for _, l := range d.Links {
		src, dst := &boxes[l.Source], &boxes[l.Target]
		w := float64(l.Value) * unit

		x1 := src.x + r.nodeThickness
		y1 := src.y + src.outOff + w/2
		x2 := dst.x
		y2 := dst.y + dst.inOff + w/2
		src.outOff += w
		dst.inOff += w

		mx := (x1 + x2) / 2
		fmt.Fprintf(buf, `  <path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="%s" stroke-width="%.1f" stroke-opacity="%.2f"/>`+"\n",
			x1, y1, mx, y1, mx, y2, x2, y2, r.linkColor, w, r.linkAlpha)
	}
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
