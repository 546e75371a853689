package analysis

import "github.com/RoaringBitmap/roaring/v2"

// Coverage is the number of residues of one record that fall inside at least
// one motif occurrence, across all motifs of a run. Length is the record's
// residue count.
type Coverage struct {
	ID       string  `json:"id"`
	Length   int     `json:"length"`
	Covered  int     `json:"covered"`
	Fraction float64 `json:"fraction"`
}

// coverageSet collects covered residue offsets for a single record.
type coverageSet struct {
	bm *roaring.Bitmap
}

func newCoverageSet() coverageSet { return coverageSet{bm: roaring.New()} }

func (c coverageSet) add(positions []int, motifLen int) {
	for _, p := range positions {
		c.bm.AddRange(uint64(p), uint64(p+motifLen))
	}
}

func (c coverageSet) result(id string, length int) Coverage {
	n := int(c.bm.GetCardinality())
	cov := Coverage{ID: id, Length: length, Covered: n}
	if length > 0 {
		cov.Fraction = float64(n) / float64(length)
	}
	return cov
}

// MotifCoverage computes the coverage of a single record by the given motifs.
func MotifCoverage(id, residues string, motifs ...string) (Coverage, error) {
	set := newCoverageSet()
	for _, m := range motifs {
		pos, err := FindPositions(residues, m)
		if err != nil {
			return Coverage{}, err
		}
		set.add(pos, len(m))
	}
	return set.result(id, len(residues)), nil
}
