package render

import (
	"bytes"
	"image/png"
	"maps"
	"slices"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/scene"
)

// RenderPNG rasterizes a scene directly with a 2D canvas, using the
// same projection and options as [RenderSVG]. This path needs no
// external tools; use [ToPNG] on SVG output when the two must match
// pixel for pixel.
func RenderPNG(s scene.Scene, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	vp := newViewport(r.projection, s, r.width, r.height, r.margin)

	dc := gg.NewContext(int(r.width), int(r.height))
	if r.background != "" {
		dc.SetHexColor(r.background)
	} else {
		dc.SetRGB(1, 1, 1)
	}
	dc.Clear()

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
		for _, pt := range layer.Points {
			x, y := vp.apply(r.projection.Project(pt.Pos))
			setHexWithAlpha(dc, pt.Color, pt.Alpha)
			dc.DrawCircle(x, y, pt.Size*r.pointScale)
			dc.Fill()
		}
	}

	for _, l := range s.Lines {
		x1, y1 := vp.apply(r.projection.Project(l.From))
		x2, y2 := vp.apply(r.projection.Project(l.To))
		setHexWithAlpha(dc, l.Color, l.Alpha)
		dc.SetLineWidth(l.Width * r.lineScale)
		if l.Dashed {
			dc.SetDash(4, 3)
		} else {
			dc.SetDash()
		}
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}
	dc.SetDash()

	for _, m := range s.Markers {
		x, y := vp.apply(r.projection.Project(m.Pos))
		dc.SetHexColor(m.Color)
		dc.DrawCircle(x, y, m.Size*r.pointScale)
		dc.Fill()
	}

	if r.title != "" {
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(r.title, r.width/2, r.margin/2, 0.5, 0.5)
	}
	if r.legend && len(s.Colors) > 0 {
		drawLegend(dc, r, s.Colors)
	}

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&buf, dc.Image()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode png")
	}
	return buf.Bytes(), nil
}

func drawLegend(dc *gg.Context, r renderer, colors map[string]string) {
	x := r.width - r.margin - 140
	y := r.margin
	for _, cat := range slices.Sorted(maps.Keys(colors)) {
		dc.SetHexColor(colors[cat])
		dc.DrawRectangle(x, y, 10, 10)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawString(cat, x+14, y+9)
		y += 16
	}
}

func setHexWithAlpha(dc *gg.Context, hex string, alpha float64) {
	c, err := colorful.Hex(hex)
	if err != nil {
		dc.SetRGBA(0, 0, 0, alpha)
		return
	}
	dc.SetRGBA(c.R, c.G, c.B, alpha)
}
