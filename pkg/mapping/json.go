package mapping

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spatial-tools/alignviz/pkg/errors"
)

type mappingFile struct {
	Pairs       []Pair `json:"pairs"`
	Reliability []bool `json:"reliability,omitempty"`
}

type indexMappingFile struct {
	Pairs []IndexPair `json:"pairs"`
	Ranks [][]int     `json:"ranks,omitempty"`
}

// ReadJSON decodes an ID mapping:
//
//	{"pairs": [{"query": "b1", "ref": "a2"}, ...], "reliability": [true, ...]}
func ReadJSON(r io.Reader) (Mapping, error) {
	var f mappingFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Mapping{}, errors.Wrap(errors.ErrCodeInvalidMapping, err, "decode mapping")
	}
	m := Mapping{Pairs: f.Pairs, Reliability: f.Reliability}
	if err := m.Validate(); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

// ReadJSONFile loads an ID mapping from path.
func ReadJSONFile(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mapping{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open mapping %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadIndexJSON decodes a positional mapping with optional per-query
// rank lists:
//
//	{"pairs": [{"query": 1, "ref": 0}, ...], "ranks": [[5,3,9,1], ...]}
func ReadIndexJSON(r io.Reader) (IndexMapping, [][]int, error) {
	var f indexMappingFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return IndexMapping{}, nil, errors.Wrap(errors.ErrCodeInvalidMapping, err, "decode mapping")
	}
	if len(f.Pairs) == 0 {
		return IndexMapping{}, nil, errors.New(errors.ErrCodeInvalidMapping, "mapping has no pairs")
	}
	return IndexMapping{Pairs: f.Pairs}, f.Ranks, nil
}

// ReadIndexJSONFile loads a positional mapping from path.
func ReadIndexJSONFile(path string) (IndexMapping, [][]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return IndexMapping{}, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open mapping %s", path)
	}
	defer f.Close()
	return ReadIndexJSON(f)
}
