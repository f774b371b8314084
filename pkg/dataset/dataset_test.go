package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

func cellsFixture() []Cell {
	return []Cell{
		{ID: "c1", X: 10, Y: 100, Type: "Neuron"},
		{ID: "c2", X: 20, Y: 300, Type: "Glia"},
		{ID: "c3", X: 30, Y: 200, Type: "Neuron"},
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		cells   []Cell
		wantErr bool
	}{
		{"valid", cellsFixture(), false},
		{"empty", nil, true},
		{"missing id", []Cell{{X: 1, Y: 2}}, true},
		{"duplicate id", []Cell{{ID: "a", X: 1, Y: 2}, {ID: "a", X: 3, Y: 4}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("slice0", tt.cells)
			if tt.wantErr {
				assert.True(t, errors.Is(err, errors.ErrCodeInvalidDataset), "want INVALID_DATASET, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewCopiesCells(t *testing.T) {
	cells := cellsFixture()
	ds, err := New("slice0", cells)
	require.NoError(t, err)

	require.NoError(t, ds.RescaleCoords())
	assert.Equal(t, 10.0, cells[0].X, "caller cells must stay untouched")
}

func TestRescaleCoords(t *testing.T) {
	ds, err := New("slice0", cellsFixture())
	require.NoError(t, err)
	require.NoError(t, ds.RescaleCoords())

	minX, maxX := ds.Cells[0].X, ds.Cells[0].X
	minY, maxY := ds.Cells[0].Y, ds.Cells[0].Y
	for _, c := range ds.Cells {
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}
	assert.Equal(t, 0.0, minX)
	assert.Equal(t, 1.0, maxX)
	assert.Equal(t, 0.0, minY)
	assert.Equal(t, 1.0, maxY)
}

func TestRescaleCoordsDegenerate(t *testing.T) {
	ds, err := New("flat", []Cell{{ID: "a", X: 5, Y: 1}, {ID: "b", X: 5, Y: 2}})
	require.NoError(t, err)

	err = ds.RescaleCoords()
	assert.True(t, errors.Is(err, errors.ErrCodeDegenerate), "constant x axis must fail, got %v", err)
}

func TestFlipAndSwap(t *testing.T) {
	ds, err := New("slice0", cellsFixture())
	require.NoError(t, err)
	require.NoError(t, ds.RescaleCoords())

	before := ds.Cells[0]
	ds.FlipX()
	assert.InDelta(t, 1-before.X, ds.Cells[0].X, 1e-12)

	ds.SwapXY()
	assert.Equal(t, before.Y, ds.Cells[0].X)
}

func TestCategories(t *testing.T) {
	ds, err := New("slice0", cellsFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"Glia", "Neuron"}, ds.Categories())

	other, err := New("slice1", []Cell{{ID: "z1", X: 0, Y: 1, Type: "Endothelial"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Endothelial", "Glia", "Neuron"}, UnionCategories(ds, other))
}

func TestExprRange(t *testing.T) {
	cells := make([]Cell, 0, 101)
	for i := 0; i <= 100; i++ {
		cells = append(cells, Cell{ID: string(rune('a'+i/26)) + string(rune('a'+i%26)), X: float64(i), Y: float64(i), Expr: float64(i)})
	}
	ds, err := New("expr", cells)
	require.NoError(t, err)
	ds.HasExpr = true

	lo, hi, err := ds.ExprRange(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 100.0, hi)

	lo, hi, err = ds.ExprRange(5)
	require.NoError(t, err)
	assert.Greater(t, lo, 0.0)
	assert.Less(t, hi, 100.0)

	assert.Equal(t, 0.0, NormalizeExpr(-3, 0, 10))
	assert.Equal(t, 1.0, NormalizeExpr(30, 0, 10))
	assert.InDelta(t, 0.5, NormalizeExpr(5, 0, 10), 1e-12)
}
