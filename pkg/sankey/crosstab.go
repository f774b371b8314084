package sankey

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/spatial-tools/alignviz/pkg/dataset"
	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/mapping"
)

// Crosstab is a contingency table of matched cell-type pairs: rows are
// query categories, columns are reference categories, Counts[i][j] is
// the number of pairs mapping a query cell of type Rows[i] onto a
// reference cell of type Cols[j].
type Crosstab struct {
	Rows   []string
	Cols   []string
	Counts [][]int
}

// Validate checks the table shape and count signs.
func (t Crosstab) Validate() error {
	if len(t.Rows) == 0 || len(t.Cols) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "crosstab needs at least one row and one column")
	}
	if len(t.Counts) != len(t.Rows) {
		return errors.New(errors.ErrCodeInvalidInput,
			"crosstab has %d rows but %d count rows", len(t.Rows), len(t.Counts))
	}
	for i, row := range t.Counts {
		if len(row) != len(t.Cols) {
			return errors.New(errors.ErrCodeInvalidInput,
				"crosstab row %d has %d counts, want %d", i, len(row), len(t.Cols))
		}
		for j, c := range row {
			if c < 0 {
				return errors.New(errors.ErrCodeInvalidInput,
					"crosstab cell (%d,%d) has negative count %d", i, j, c)
			}
		}
	}
	return nil
}

// FromPairs tabulates a mapping between two annotated datasets. The
// reference dataset contributes the columns, the query dataset the
// rows. Pairs referencing unknown cell IDs are skipped.
func FromPairs(ref, query *dataset.Dataset, m mapping.Mapping) (Crosstab, error) {
	if !ref.HasType || !query.HasType {
		return Crosstab{}, errors.New(errors.ErrCodeInvalidDataset,
			"crosstab requires cell types on both datasets")
	}
	if err := m.Validate(); err != nil {
		return Crosstab{}, err
	}

	t := Crosstab{Rows: query.Categories(), Cols: ref.Categories()}
	rowIdx := make(map[string]int, len(t.Rows))
	for i, r := range t.Rows {
		rowIdx[r] = i
	}
	colIdx := make(map[string]int, len(t.Cols))
	for j, c := range t.Cols {
		colIdx[c] = j
	}
	t.Counts = make([][]int, len(t.Rows))
	for i := range t.Counts {
		t.Counts[i] = make([]int, len(t.Cols))
	}

	refCells, queryCells := ref.Index(), query.Index()
	for _, p := range m.Pairs {
		ri, ok := refCells[p.Ref]
		if !ok {
			continue
		}
		qi, ok := queryCells[p.Query]
		if !ok {
			continue
		}
		t.Counts[rowIdx[query.Cells[qi].Type]][colIdx[ref.Cells[ri].Type]]++
	}
	return t, nil
}

// ReadCSV parses a crosstab: a header row with the column categories
// (the first field, the row-label column name, is ignored), then one
// row per query category with integer counts.
func ReadCSV(r io.Reader) (Crosstab, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return Crosstab{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse crosstab csv")
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return Crosstab{}, errors.New(errors.ErrCodeInvalidFormat,
			"crosstab csv needs a header row and at least one data row")
	}

	t := Crosstab{Cols: records[0][1:]}
	for _, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			return Crosstab{}, errors.New(errors.ErrCodeInvalidFormat,
				"crosstab row %q has %d fields, want %d", rec[0], len(rec), len(records[0]))
		}
		counts := make([]int, 0, len(rec)-1)
		for _, f := range rec[1:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				return Crosstab{}, errors.Wrap(errors.ErrCodeInvalidFormat, err,
					"crosstab row %q: bad count %q", rec[0], f)
			}
			counts = append(counts, n)
		}
		t.Rows = append(t.Rows, rec[0])
		t.Counts = append(t.Counts, counts)
	}
	if err := t.Validate(); err != nil {
		return Crosstab{}, err
	}
	return t, nil
}

// ReadCSVFile reads a crosstab from a file path.
func ReadCSVFile(path string) (Crosstab, error) {
	f, err := os.Open(path)
	if err != nil {
		return Crosstab{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open crosstab %s", path)
	}
	defer f.Close()
	return ReadCSV(f)
}
