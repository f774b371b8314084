package dataset

import (
	"github.com/montanaflynn/stats"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

// ExprRange returns the [lo, hi] normalization range for expression
// coloring.
//
// With clipPct == 0 the range is the plain min/max. A positive clipPct
// (e.g. 1 for the 1st/99th percentiles) trims outliers so a handful of
// extreme counts do not wash out the color scale.
func (d *Dataset) ExprRange(clipPct float64) (lo, hi float64, err error) {
	if !d.HasExpr {
		return 0, 0, errors.New(errors.ErrCodeInvalidDataset, "dataset %s has no expression values", d.Name)
	}
	if clipPct < 0 || clipPct >= 50 {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "clip percentile %g out of [0, 50)", clipPct)
	}

	values := make(stats.Float64Data, len(d.Cells))
	for i, c := range d.Cells {
		values[i] = c.Expr
	}

	if clipPct == 0 {
		lo, err = values.Min()
		if err != nil {
			return 0, 0, errors.Wrap(errors.ErrCodeInternal, err, "expression min")
		}
		hi, err = values.Max()
		if err != nil {
			return 0, 0, errors.Wrap(errors.ErrCodeInternal, err, "expression max")
		}
		return lo, hi, nil
	}

	lo, err = stats.Percentile(values, clipPct)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInternal, err, "expression percentile %g", clipPct)
	}
	hi, err = stats.Percentile(values, 100-clipPct)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInternal, err, "expression percentile %g", 100-clipPct)
	}
	return lo, hi, nil
}

// NormalizeExpr maps v into [0,1] for the given range, clamping
// values outside it. A collapsed range maps everything to 0.
func NormalizeExpr(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	t := (v - lo) / (hi - lo)
	return max(0, min(1, t))
}
