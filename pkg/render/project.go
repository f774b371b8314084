// Package render draws scene snapshots as SVG or raster figures and
// converts SVG output to PNG and PDF.
package render

import (
	"math"

	"github.com/spatial-tools/alignviz/pkg/scene"
)

// Projection flattens scene space onto the drawing plane with an
// oblique shear: the y axis recedes diagonally while z stacks layers
// vertically, giving the usual tilted-stack look of layered scatter
// figures.
type Projection struct {
	// ShearX and ShearY control how far the receding y axis moves a
	// point right and up per unit of y.
	ShearX, ShearY float64

	// ZScale is the vertical distance per unit of layer depth.
	ZScale float64
}

// DefaultProjection is the projection used when none is supplied.
var DefaultProjection = Projection{ShearX: 0.45, ShearY: 0.30, ZScale: 0.9}

// Project maps a scene point to abstract plane coordinates. The v axis
// points up; renderers flip it into screen space.
func (p Projection) Project(pt scene.Vec3) (u, v float64) {
	return pt.X + p.ShearX*pt.Y, p.ZScale*pt.Z + p.ShearY*pt.Y
}

// Bounds returns the plane-space bounding box of every point, line
// endpoint and marker in the scene.
func (p Projection) Bounds(s scene.Scene) (minU, minV, maxU, maxV float64) {
	minU, minV = math.Inf(1), math.Inf(1)
	maxU, maxV = math.Inf(-1), math.Inf(-1)
	grow := func(pt scene.Vec3) {
		u, v := p.Project(pt)
		minU, maxU = min(minU, u), max(maxU, u)
		minV, maxV = min(minV, v), max(maxV, v)
	}

	for _, layer := range s.Layers {
		for _, pt := range layer.Points {
			grow(pt.Pos)
		}
	}
	for _, l := range s.Lines {
		grow(l.From)
		grow(l.To)
	}
	for _, m := range s.Markers {
		grow(m.Pos)
	}

	if math.IsInf(minU, 1) {
		return 0, 0, 1, 1
	}
	if maxU == minU {
		maxU = minU + 1
	}
	if maxV == minV {
		maxV = minV + 1
	}
	return minU, minV, maxU, maxV
}

// viewport maps plane coordinates into a pixel frame, preserving the
// aspect ratio and flipping v into screen-down y.
type viewport struct {
	scale          float64
	offU, offV     float64
	height, margin float64
}

func newViewport(p Projection, s scene.Scene, width, height, margin float64) viewport {
	minU, minV, maxU, maxV := p.Bounds(s)
	scale := min((width-2*margin)/(maxU-minU), (height-2*margin)/(maxV-minV))
	return viewport{scale: scale, offU: minU, offV: minV, height: height, margin: margin}
}

func (vp viewport) apply(u, v float64) (x, y float64) {
	return vp.margin + (u-vp.offU)*vp.scale, vp.height - vp.margin - (v-vp.offV)*vp.scale
}
