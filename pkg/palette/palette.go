// Package palette provides color assignment for alignment figures.
//
// Categorical colors are generated pseudo-randomly from a seed so that
// a figure rendered twice with the same seed assigns the same color to
// the same cell type. There is no perceptual-distance guarantee between
// adjacent draws; callers that need curated palettes can pass their own
// colors wherever a palette is accepted.
package palette

import (
	"math/rand/v2"
	"regexp"
	"slices"
)

// hexDigits are the characters drawn for each color digit.
const hexDigits = "0123456789ABCDEF"

// HexPattern matches the colors produced by Random.
var HexPattern = regexp.MustCompile(`^#[0-9A-F]{6}$`)

// Random returns n hex colors of the form "#RRGGBB".
//
// Each of the six digits is drawn independently from a generator seeded
// with seed, so the sequence is deterministic per seed. Colors are not
// guaranteed to be distinct.
func Random(n int, seed uint64) []string {
	rng := rand.New(rand.NewPCG(seed, seed^0xa11c0102))
	colors := make([]string, 0, n)
	for range n {
		buf := make([]byte, 0, 7)
		buf = append(buf, '#')
		for range 6 {
			buf = append(buf, hexDigits[rng.IntN(len(hexDigits))])
		}
		colors = append(colors, string(buf))
	}
	return colors
}

// Assign builds a stable category→color map.
//
// Categories are sorted before assignment so the mapping does not
// depend on input order, only on the category set and the seed.
func Assign(categories []string, seed uint64) map[string]string {
	sorted := slices.Clone(categories)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	colors := Random(len(sorted), seed)
	m := make(map[string]string, len(sorted))
	for i, c := range sorted {
		m[c] = colors[i]
	}
	return m
}
