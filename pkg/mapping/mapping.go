// Package mapping models cell-to-cell correspondences produced by an
// upstream spatial alignment run.
//
// Two pair flavors exist: ID pairs (cell IDs, used by the pairwise
// match figure) and index pairs (positions into layer slices, used by
// the multi-layer scene builder). Both support uniform subsampling;
// the caller supplies the seeded generator so figures are reproducible
// when the seed is fixed.
package mapping

import (
	"math/rand/v2"
	"slices"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

// Pair links a query cell to its reference cell by ID.
type Pair struct {
	Query string `json:"query"`
	Ref   string `json:"ref"`
}

// IndexPair links a query cell to its reference cell by position.
type IndexPair struct {
	Query int `json:"query"`
	Ref   int `json:"ref"`
}

// Mapping is a set of ID pairs with optional per-pair reliability.
type Mapping struct {
	Pairs       []Pair
	Reliability []bool // nil, or parallel to Pairs
}

// Validate checks structural consistency.
func (m Mapping) Validate() error {
	if len(m.Pairs) == 0 {
		return errors.New(errors.ErrCodeInvalidMapping, "mapping has no pairs")
	}
	if m.Reliability != nil && len(m.Reliability) != len(m.Pairs) {
		return errors.New(errors.ErrCodeInvalidMapping,
			"reliability length %d does not match %d pairs", len(m.Reliability), len(m.Pairs))
	}
	return nil
}

// Subsample draws at most n pairs uniformly without replacement,
// keeping reliability aligned with the drawn pairs.
func (m Mapping) Subsample(n int, rng *rand.Rand) Mapping {
	idx := SampleIndices(len(m.Pairs), n, rng)

	out := Mapping{Pairs: make([]Pair, len(idx))}
	if m.Reliability != nil {
		out.Reliability = make([]bool, len(idx))
	}
	for i, j := range idx {
		out.Pairs[i] = m.Pairs[j]
		if m.Reliability != nil {
			out.Reliability[i] = m.Reliability[j]
		}
	}
	return out
}

// IndexMapping is a set of positional pairs between two adjacent
// layers.
type IndexMapping struct {
	Pairs []IndexPair
}

// Validate checks every pair indexes within the given layer sizes.
func (m IndexMapping) Validate(refLen, queryLen int) error {
	if len(m.Pairs) == 0 {
		return errors.New(errors.ErrCodeInvalidMapping, "mapping has no pairs")
	}
	for i, p := range m.Pairs {
		if p.Query < 0 || p.Query >= queryLen {
			return errors.New(errors.ErrCodeInvalidMapping,
				"pair %d: query index %d out of range [0,%d)", i, p.Query, queryLen)
		}
		if p.Ref < 0 || p.Ref >= refLen {
			return errors.New(errors.ErrCodeInvalidMapping,
				"pair %d: ref index %d out of range [0,%d)", i, p.Ref, refLen)
		}
	}
	return nil
}

// Subsample draws at most n pairs uniformly without replacement.
func (m IndexMapping) Subsample(n int, rng *rand.Rand) IndexMapping {
	idx := SampleIndices(len(m.Pairs), n, rng)
	out := IndexMapping{Pairs: make([]IndexPair, len(idx))}
	for i, j := range idx {
		out.Pairs[i] = m.Pairs[j]
	}
	return out
}

// SampleIndices returns min(n, total) distinct indices in [0, total),
// drawn uniformly without replacement, in ascending order.
func SampleIndices(total, n int, rng *rand.Rand) []int {
	if n >= total {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	perm := rng.Perm(total)[:n]
	slices.Sort(perm)
	return perm
}
