package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

func TestValidateKind(t *testing.T) {
	assert.NoError(t, ValidateKind(KindScene))
	assert.NoError(t, ValidateKind(KindMatch))
	assert.NoError(t, ValidateKind(KindSankey))
	assert.Error(t, ValidateKind("tower"))
}

func TestValidateFormatPerKind(t *testing.T) {
	assert.NoError(t, ValidateFormat(KindSankey, FormatDOT))
	err := ValidateFormat(KindMatch, FormatDOT)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{
		Kind:     KindMatch,
		Datasets: []string{"a.csv", "b.csv"},
		Mappings: []string{"m.json"},
	}
	require.NoError(t, opts.ValidateAndSetDefaults())

	assert.Equal(t, []string{FormatSVG}, opts.Formats)
	assert.Equal(t, DefaultWidth, opts.Width)
	assert.Equal(t, DefaultHeight, opts.Height)
	require.NotNil(t, opts.Seed)
	assert.Equal(t, DefaultSeed, *opts.Seed)
	assert.Equal(t, DefaultPNGScale, opts.PNGScale)
	assert.NotNil(t, opts.Logger)

	// Idempotent.
	require.NoError(t, opts.ValidateAndSetDefaults())
}

func TestOptionsValidateExplicitZeros(t *testing.T) {
	zero := uint64(0)
	opts := Options{
		Kind:      KindSankey,
		Crosstabs: []string{"t.csv"},
		Seed:      &zero,
		Threshold: -1,
	}
	require.NoError(t, opts.ValidateAndSetDefaults())

	// Seed zero is a real value, not a request for the default.
	require.NotNil(t, opts.Seed)
	assert.Equal(t, uint64(0), *opts.Seed)
	assert.Equal(t, -1, opts.Threshold)
}

func TestOptionsValidateInputCounts(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"scene too few datasets", Options{Kind: KindScene, Datasets: []string{"a.csv"}}, errors.ErrCodeInvalidInput},
		{"scene mapping count", Options{Kind: KindScene,
			Datasets: []string{"a.csv", "b.csv", "c.csv"},
			Mappings: []string{"m.json"}}, errors.ErrCodeInvalidMapping},
		{"match dataset count", Options{Kind: KindMatch,
			Datasets: []string{"a.csv"},
			Mappings: []string{"m.json"}}, errors.ErrCodeInvalidInput},
		{"sankey no inputs", Options{Kind: KindSankey}, errors.ErrCodeInvalidInput},
		{"bad mode", Options{Kind: KindMatch,
			Datasets: []string{"a.csv", "b.csv"}, Mappings: []string{"m.json"},
			Mode: "sideways"}, errors.ErrCodeInvalidMode},
		{"negative threshold", Options{Kind: KindSankey,
			Crosstabs: []string{"t.csv"}, Threshold: -2}, errors.ErrCodeInvalidThreshold},
		{"bad engine", Options{Kind: KindSankey,
			Crosstabs: []string{"t.csv"}, Engine: "circular"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeDatasetCSV(t *testing.T, dir, name string, n int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("index,x,y,celltype\n")
	types := []string{"Neuron", "Glia"}
	for i := range n {
		fmt.Fprintf(&sb, "c%d,%d,%d,%s\n", i, i%7, i/7, types[i%2])
	}
	return writeFile(t, dir, name, sb.String())
}

func TestExecuteMatch(t *testing.T) {
	dir := t.TempDir()
	a := writeDatasetCSV(t, dir, "e11.csv", 30)
	b := writeDatasetCSV(t, dir, "e12.csv", 30)

	var pairs []string
	for i := range 30 {
		pairs = append(pairs, fmt.Sprintf(`{"query":"c%d","ref":"c%d"}`, i, i))
	}
	m := writeFile(t, dir, "matching.json", `{"pairs":[`+strings.Join(pairs, ",")+`]}`)

	runner := NewRunner(nil)
	result, err := runner.Execute(context.Background(), Options{
		Kind:        KindMatch,
		Datasets:    []string{a, b},
		Mappings:    []string{m},
		ScaleCoords: true,
		Annotate:    true,
		Subsample:   10,
		Formats:     []string{FormatSVG, FormatPNG},
	})
	require.NoError(t, err)

	assert.Len(t, result.Scene.Layers, 2)
	assert.Equal(t, 10, result.Stats.LineCount)
	assert.Equal(t, 60, result.Stats.CellCount)
	assert.Contains(t, string(result.Artifacts[FormatSVG]), "<svg ")
	assert.NotEmpty(t, result.Artifacts[FormatPNG])
}

func TestExecuteScene(t *testing.T) {
	dir := t.TempDir()
	a := writeDatasetCSV(t, dir, "e11.csv", 20)
	b := writeDatasetCSV(t, dir, "e12.csv", 20)

	var pairs []string
	for i := range 20 {
		pairs = append(pairs, fmt.Sprintf(`{"query":%d,"ref":%d}`, i, i))
	}
	m := writeFile(t, dir, "matching.json", `{"pairs":[`+strings.Join(pairs, ",")+`]}`)

	runner := NewRunner(nil)
	result, err := runner.Execute(context.Background(), Options{
		Kind:        KindScene,
		Datasets:    []string{a, b},
		Mappings:    []string{m},
		ScaleCoords: true,
		Subsample:   5,
	})
	require.NoError(t, err)

	assert.Len(t, result.Scene.Layers, 2)
	assert.Equal(t, 5, result.Stats.LineCount)
	assert.Contains(t, string(result.Artifacts[FormatSVG]), "<svg ")
}

func TestExecuteSankeyFromPairs(t *testing.T) {
	dir := t.TempDir()
	a := writeDatasetCSV(t, dir, "e11.csv", 60)
	b := writeDatasetCSV(t, dir, "e12.csv", 60)

	// Identity mapping: every pair matches types, so both diagonal
	// counts (30 each) clear the default threshold.
	var pairs []string
	for i := range 60 {
		pairs = append(pairs, fmt.Sprintf(`{"query":"c%d","ref":"c%d"}`, i, i))
	}
	m := writeFile(t, dir, "matching.json", `{"pairs":[`+strings.Join(pairs, ",")+`]}`)

	runner := NewRunner(nil)
	result, err := runner.Execute(context.Background(), Options{
		Kind:     KindSankey,
		Datasets: []string{a, b},
		Mappings: []string{m},
		Formats:  []string{FormatSVG, FormatDOT},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.LinkCount)
	assert.Contains(t, string(result.Artifacts[FormatDOT]), "digraph flow {")
	// Stage prefixes fall back to the dataset file names.
	assert.Contains(t, string(result.Artifacts[FormatSVG]), "Neuron_e11")
}

func TestExecuteSankeyFromCrosstab(t *testing.T) {
	dir := t.TempDir()
	tab := writeFile(t, dir, "table.csv", "celltype,Neuron,Glia\nNeuron,5,15\nGlia,20,3\n")

	runner := NewRunner(nil)
	result, err := runner.Execute(context.Background(), Options{
		Kind:      KindSankey,
		Crosstabs: []string{tab},
		Prefixes:  []string{"E11.5", "E12.5"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.LinkCount)
	assert.Contains(t, string(result.Artifacts[FormatSVG]), "Neuron_E11.5")
}

func TestExecuteSankeyGraphvizEngine(t *testing.T) {
	dir := t.TempDir()
	tab := writeFile(t, dir, "table.csv", "celltype,Neuron,Glia\nNeuron,5,15\nGlia,20,3\n")

	runner := NewRunner(nil)
	result, err := runner.Execute(context.Background(), Options{
		Kind:      KindSankey,
		Crosstabs: []string{tab},
		Prefixes:  []string{"E11.5", "E12.5"},
		Engine:    EngineGraphviz,
	})
	require.NoError(t, err)
	assert.Contains(t, string(result.Artifacts[FormatSVG]), "<svg")
}

func TestExecuteMissingFile(t *testing.T) {
	runner := NewRunner(nil)
	_, err := runner.Execute(context.Background(), Options{
		Kind:     KindMatch,
		Datasets: []string{"/nonexistent/a.csv", "/nonexistent/b.csv"},
		Mappings: []string{"/nonexistent/m.json"},
	})
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)
}
