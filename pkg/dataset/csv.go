package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

// Column aliases accepted in CSV headers, all matched case-insensitively.
var (
	idAliases   = []string{"index", "id", "cell_id"}
	typeAliases = []string{"celltype", "cell_type", "annotation", "type"}
	exprAliases = []string{"expr", "expression", "value"}
)

// ReadCSV parses a dataset from CSV with a header row.
//
// Required columns: an id column (index/id/cell_id), x, and y. Optional
// columns: a cell-type column (celltype/annotation/...) and an
// expression column (expr/expression/value). Missing required columns
// fail with INVALID_DATASET.
func ReadCSV(name string, r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "dataset %s: read header", name)
	}

	idCol := findColumn(header, idAliases)
	xCol := findColumn(header, []string{"x"})
	yCol := findColumn(header, []string{"y"})
	typeCol := findColumn(header, typeAliases)
	exprCol := findColumn(header, exprAliases)

	if idCol < 0 || xCol < 0 || yCol < 0 {
		return nil, errors.New(errors.ErrCodeInvalidDataset,
			"dataset %s: header %v must contain id, x and y columns", name, header)
	}

	var cells []Cell
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "dataset %s: line %d", name, line)
		}

		cell := Cell{ID: record[idCol]}
		if cell.X, err = strconv.ParseFloat(record[xCol], 64); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "dataset %s: line %d: x", name, line)
		}
		if cell.Y, err = strconv.ParseFloat(record[yCol], 64); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "dataset %s: line %d: y", name, line)
		}
		if typeCol >= 0 {
			cell.Type = record[typeCol]
		}
		if exprCol >= 0 {
			if cell.Expr, err = strconv.ParseFloat(record[exprCol], 64); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "dataset %s: line %d: expr", name, line)
			}
		}
		cells = append(cells, cell)
	}

	ds, err := New(name, cells)
	if err != nil {
		return nil, err
	}
	ds.HasExpr = exprCol >= 0
	return ds, nil
}

// ReadCSVFile loads a dataset from path, naming it after the file.
func ReadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open dataset %s", path)
	}
	defer f.Close()

	name := strings.TrimSuffix(f.Name(), ".csv")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return ReadCSV(name, f)
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, a := range aliases {
			if h == a {
				return i
			}
		}
	}
	return -1
}
