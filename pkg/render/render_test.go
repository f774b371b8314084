package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spatial-tools/alignviz/pkg/scene"
)

func testScene() scene.Scene {
	return scene.Scene{
		Layers: []scene.Layer{
			{Name: "upper", Z: 1, Points: []scene.Point{
				{Pos: scene.Vec3{X: 0.2, Y: 0.8, Z: 1}, Color: "#ff0000", Size: 0.5, Alpha: 0.6},
			}},
			{Name: "lower", Z: 0, Points: []scene.Point{
				{Pos: scene.Vec3{X: 0, Y: 0, Z: 0}, Color: "#00ff00", Size: 0.5, Alpha: 0.6},
				{Pos: scene.Vec3{X: 1, Y: 1, Z: 0}, Color: "#0000ff", Size: 0.5, Alpha: 1},
			}},
		},
		Lines: []scene.Line{
			{From: scene.Vec3{X: 0, Y: 0, Z: 0}, To: scene.Vec3{X: 0.2, Y: 0.8, Z: 1},
				Color: "#4169E1", Width: 0.6, Alpha: 0.8, Dashed: true},
		},
		Markers: []scene.Marker{
			{Pos: scene.Vec3{X: 1, Y: 1, Z: 0}, Color: "#ff0000", Size: 1},
		},
		Colors: map[string]string{"Neuron": "#ff0000", "Glia": "#00ff00"},
	}
}

func TestProjectionRecede(t *testing.T) {
	p := DefaultProjection

	// y recedes up and to the right, z stacks straight up.
	u0, v0 := p.Project(scene.Vec3{X: 0, Y: 0, Z: 0})
	u1, v1 := p.Project(scene.Vec3{X: 0, Y: 1, Z: 0})
	assert.Greater(t, u1, u0)
	assert.Greater(t, v1, v0)

	u2, v2 := p.Project(scene.Vec3{X: 0, Y: 0, Z: 1})
	assert.Equal(t, u0, u2)
	assert.Greater(t, v2, v0)
}

func TestProjectionBoundsEmptyScene(t *testing.T) {
	minU, minV, maxU, maxV := DefaultProjection.Bounds(scene.Scene{})
	assert.Equal(t, []float64{0, 0, 1, 1}, []float64{minU, minV, maxU, maxV})
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(testScene(), WithSize(640, 480), WithTitle("stack"), WithLegend()))

	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.Contains(t, svg, `viewBox="0 0 640.0 480.0"`)
	assert.Contains(t, svg, ">stack</text>")
	assert.Equal(t, 3, strings.Count(svg, "<circle ")-1, "three scatter points plus one marker")
	assert.Contains(t, svg, `stroke-dasharray="4 3"`)
	assert.Contains(t, svg, "Neuron")

	// Painter's order: the z=0 layer group is emitted before z=1.
	assert.Less(t, strings.Index(svg, `data-name="lower"`), strings.Index(svg, `data-name="upper"`))
}

func TestRenderSVGCoordinatesInFrame(t *testing.T) {
	s := testScene()
	svg := string(RenderSVG(s, WithSize(500, 400)))
	// The projected extremes land inside the frame, margins included.
	assert.NotContains(t, svg, `cx="-`)
	assert.NotContains(t, svg, `cy="-`)
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(testScene(), WithSize(320, 240), WithTitle("stack"), WithLegend())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestRenderPNGBadColorFallsBack(t *testing.T) {
	s := scene.Scene{Layers: []scene.Layer{{Name: "l", Points: []scene.Point{
		{Pos: scene.Vec3{X: 0, Y: 0}, Color: "not-a-color", Size: 1, Alpha: 0.5},
		{Pos: scene.Vec3{X: 1, Y: 1}, Color: "#112233", Size: 1, Alpha: 1},
	}}}}
	_, err := RenderPNG(s, WithSize(64, 64))
	assert.NoError(t, err)
}
