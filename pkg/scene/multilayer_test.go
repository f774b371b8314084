package scene

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spatial-tools/alignviz/pkg/dataset"
	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/mapping"
)

func gridDataset(t *testing.T, name string, n int) *dataset.Dataset {
	t.Helper()
	cells := make([]dataset.Cell, 0, n)
	types := []string{"Neuron", "Glia", "Endothelial"}
	for i := range n {
		cells = append(cells, dataset.Cell{
			ID:   fmt.Sprintf("%s-%d", name, i),
			X:    float64(i % 10),
			Y:    float64(i / 10),
			Type: types[i%len(types)],
		})
	}
	ds, err := dataset.New(name, cells)
	require.NoError(t, err)
	return ds
}

func identityMapping(n int) mapping.IndexMapping {
	m := mapping.IndexMapping{Pairs: make([]mapping.IndexPair, n)}
	for i := range n {
		m.Pairs[i] = mapping.IndexPair{Query: i, Ref: i}
	}
	return m
}

func TestNewMultiLayerMappingCount(t *testing.T) {
	layers := []*dataset.Dataset{
		gridDataset(t, "e11", 40),
		gridDataset(t, "e12", 40),
		gridDataset(t, "e13", 40),
	}

	_, err := NewMultiLayer(layers, []mapping.IndexMapping{identityMapping(40)}, MultiLayerOptions{ScaleCoords: true})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidMapping), "3 layers with 1 mapping must fail, got %v", err)

	_, err = NewMultiLayer(layers, []mapping.IndexMapping{identityMapping(40), identityMapping(40)}, MultiLayerOptions{ScaleCoords: true})
	assert.NoError(t, err)
}

func TestMultiLayerBuild(t *testing.T) {
	layers := []*dataset.Dataset{
		gridDataset(t, "e11", 40),
		gridDataset(t, "e12", 40),
		gridDataset(t, "e13", 40),
	}
	b, err := NewMultiLayer(layers,
		[]mapping.IndexMapping{identityMapping(40), identityMapping(40)},
		MultiLayerOptions{ScaleCoords: true, SubsampleSize: 25, Seed: 42})
	require.NoError(t, err)

	s, err := b.Build()
	require.NoError(t, err)

	assert.Len(t, s.Layers, 3, "each dataset scattered exactly once")
	assert.Len(t, s.Lines, 50, "25 subsampled lines per layer pair")
	assert.Len(t, s.Colors, 3)

	for _, l := range s.Lines {
		assert.True(t, l.Dashed)
		assert.Equal(t, DefaultLineColor, l.Color)
		assert.InDelta(t, 1.0, l.To.Z-l.From.Z, 1e-12, "lines span adjacent layers")
	}

	// Rescaled coordinates stay inside the unit square.
	for _, layer := range s.Layers {
		for _, p := range layer.Points {
			assert.GreaterOrEqual(t, p.Pos.X, 0.0)
			assert.LessOrEqual(t, p.Pos.X, 1.0)
			assert.GreaterOrEqual(t, p.Pos.Y, 0.0)
			assert.LessOrEqual(t, p.Pos.Y, 1.0)
		}
	}
}

func TestMultiLayerBuildReproducible(t *testing.T) {
	make3 := func() Scene {
		layers := []*dataset.Dataset{gridDataset(t, "a", 60), gridDataset(t, "b", 60)}
		b, err := NewMultiLayer(layers, []mapping.IndexMapping{identityMapping(60)},
			MultiLayerOptions{ScaleCoords: true, SubsampleSize: 10, Seed: 7})
		require.NoError(t, err)
		s, err := b.Build()
		require.NoError(t, err)
		return s
	}
	assert.Equal(t, make3(), make3(), "same seed, same scene")
}

func TestMultiLayerSmoothing(t *testing.T) {
	// Reference layer: a row of cells at y=0; query layer: one line of
	// cells directly above. The direct mapping points every query at
	// ref 0, but with smoothing each query snaps to the nearest of its
	// top-2 ranked candidates.
	refCells := []dataset.Cell{
		{ID: "r0", X: 0, Y: 0, Type: "Neuron"},
		{ID: "r1", X: 0, Y: 0.5, Type: "Neuron"},
		{ID: "r2", X: 1, Y: 1, Type: "Neuron"},
	}
	queryCells := []dataset.Cell{
		{ID: "q0", X: 1, Y: 1, Type: "Neuron"},
		{ID: "q1", X: 0, Y: 1, Type: "Neuron"},
	}
	ref, err := dataset.New("ref", refCells)
	require.NoError(t, err)
	query, err := dataset.New("query", queryCells)
	require.NoError(t, err)

	m := mapping.IndexMapping{Pairs: []mapping.IndexPair{{Query: 0, Ref: 0}, {Query: 1, Ref: 0}}}
	ranks := [][]int{
		{1, 2, 0}, // q0 at (1,1): top-2 {1,2}; r2 at (1,1) is nearest
		{1, 2, 0}, // q1 at (0,1): top-2 {1,2}; r1 at (0,0.5) is nearest
	}

	b, err := NewMultiLayer([]*dataset.Dataset{ref, query}, []mapping.IndexMapping{m},
		MultiLayerOptions{Smooth: true, SmoothK: 2, Ranks: [][][]int{ranks}, Seed: 1})
	require.NoError(t, err)

	s, err := b.Build()
	require.NoError(t, err)
	require.Len(t, s.Lines, 2)

	assert.Equal(t, Vec3{X: 1, Y: 1, Z: 0}, s.Lines[0].From, "q0 smoothed to r2")
	assert.Equal(t, Vec3{X: 0, Y: 0.5, Z: 0}, s.Lines[1].From, "q1 smoothed to r1")
}

func TestMultiLayerSmoothingRequiresRanks(t *testing.T) {
	layers := []*dataset.Dataset{gridDataset(t, "a", 20), gridDataset(t, "b", 20)}
	_, err := NewMultiLayer(layers, []mapping.IndexMapping{identityMapping(20)},
		MultiLayerOptions{ScaleCoords: true, Smooth: true})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidMapping), "got %v", err)
}

func TestMultiLayerRejectsOutOfRangePairs(t *testing.T) {
	layers := []*dataset.Dataset{gridDataset(t, "a", 20), gridDataset(t, "b", 20)}
	bad := mapping.IndexMapping{Pairs: []mapping.IndexPair{{Query: 25, Ref: 0}}}
	_, err := NewMultiLayer(layers, []mapping.IndexMapping{bad}, MultiLayerOptions{ScaleCoords: true})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidMapping), "got %v", err)
}
