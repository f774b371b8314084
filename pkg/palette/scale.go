package palette

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

// Scale maps normalized values in [0,1] to colors by interpolating
// between anchor colors in Lab space.
type Scale struct {
	name    string
	anchors []colorful.Color
}

// Name returns the scale's registered name.
func (s Scale) Name() string { return s.name }

// At returns the hex color for t. Values outside [0,1] are clamped.
func (s Scale) At(t float64) string {
	if t <= 0 {
		return s.anchors[0].Hex()
	}
	if t >= 1 {
		return s.anchors[len(s.anchors)-1].Hex()
	}
	pos := t * float64(len(s.anchors)-1)
	lo := int(pos)
	hi := min(lo+1, len(s.anchors)-1)
	return s.anchors[lo].BlendLab(s.anchors[hi], pos-float64(lo)).Clamped().Hex()
}

func mustScale(name string, hexes ...string) Scale {
	anchors := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		anchors[i] = c
	}
	return Scale{name: name, anchors: anchors}
}

// Continuous scales for expression coloring. Anchor stops follow the
// matplotlib colormaps of the same names.
var (
	Viridis = mustScale("viridis",
		"#440154", "#482374", "#404387", "#345e8d", "#29788e",
		"#20908c", "#22a784", "#44be70", "#79d151", "#bdde26", "#fde725")

	Plasma = mustScale("plasma",
		"#0d0887", "#4b03a1", "#7d03a8", "#a82296", "#cb4679",
		"#e56b5d", "#f89441", "#fdc328", "#f0f921")

	Inferno = mustScale("inferno",
		"#000004", "#280b54", "#65156e", "#9f2a63", "#d44842",
		"#f57d15", "#fac127", "#fcffa4")

	Magma = mustScale("magma",
		"#000004", "#1c1044", "#4f127b", "#812581", "#b5367a",
		"#e55064", "#fb8761", "#fec287", "#fcfdbf")

	Reds = mustScale("reds",
		"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a",
		"#ef3b2c", "#cb181d", "#a50f15", "#67000d")
)

var scales = map[string]Scale{
	"viridis": Viridis,
	"plasma":  Plasma,
	"inferno": Inferno,
	"magma":   Magma,
	"reds":    Reds,
}

// ScaleByName looks up a continuous scale by its registered name.
func ScaleByName(name string) (Scale, error) {
	s, ok := scales[name]
	if !ok {
		return Scale{}, errors.New(errors.ErrCodeInvalidInput,
			"unknown color scale %q (available: viridis, plasma, inferno, magma, reds)", name)
	}
	return s, nil
}
