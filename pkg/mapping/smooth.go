package mapping

import (
	"gonum.org/v1/gonum/floats"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

// Smoother replaces a pair's direct reference cell with the spatially
// nearest candidate among the query's top-K ranked alternatives.
//
// Ranks holds, per query index, the candidate reference indices
// ordered by upstream similarity (best first). K is the rank cutoff.
type Smoother struct {
	Ranks [][]int
	K     int
}

// Smooth returns the smoothed reference index for the given query.
//
// queryPt is the query cell's spatial coordinate in its own layer;
// refCoord resolves a candidate index to its coordinate in the
// adjacent layer. K outside [1, len(candidates)] is an error.
func (s Smoother) Smooth(query int, queryPt [2]float64, refCoord func(int) [2]float64) (int, error) {
	if query < 0 || query >= len(s.Ranks) {
		return 0, errors.New(errors.ErrCodeInvalidMapping,
			"query index %d has no rank list (have %d)", query, len(s.Ranks))
	}
	candidates := s.Ranks[query]
	if s.K < 1 || s.K > len(candidates) {
		return 0, errors.New(errors.ErrCodeInvalidRange,
			"smoothing cutoff %d out of [1, %d]", s.K, len(candidates))
	}

	best := candidates[0]
	bestDist := distance(queryPt, refCoord(best))
	for _, c := range candidates[1:s.K] {
		if d := distance(queryPt, refCoord(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, nil
}

func distance(a, b [2]float64) float64 {
	return floats.Distance(a[:], b[:], 2)
}
