package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := strings.Join([]string{
		"index,x,y,celltype,expr",
		"c1,1.5,2.5,Neuron,0.1",
		"c2,3.0,4.0,Glia,2.4",
	}, "\n")

	ds, err := ReadCSV("slice0", strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.True(t, ds.HasType)
	assert.True(t, ds.HasExpr)
	assert.Equal(t, Cell{ID: "c1", X: 1.5, Y: 2.5, Type: "Neuron", Expr: 0.1}, ds.Cells[0])
}

func TestReadCSVAliases(t *testing.T) {
	in := "ID,X,Y,annotation\nc1,1,2,Neuron\nc2,2,1,Glia\n"
	ds, err := ReadCSV("slice0", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Glia", "Neuron"}, ds.Categories())
	assert.False(t, ds.HasExpr)
}

func TestReadCSVMissingColumns(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no y", "index,x\nc1,1\n"},
		{"no id", "x,y\n1,2\n"},
		{"bad x", "index,x,y\nc1,abc,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV("bad", strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}
