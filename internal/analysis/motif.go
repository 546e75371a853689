package analysis

import (
	"errors"
	"strings"

	"seqanalyzer/internal/sequence"
)

// ErrInvalidMotif is returned for an empty search pattern.
var ErrInvalidMotif = errors.New("analysis: motif must not be empty")

// MotifHit lists the start offsets of a motif in one record.
type MotifHit struct {
	ID        string `json:"id"`
	Positions []int  `json:"positions"`
}

// ValidateMotif reports ErrInvalidMotif for an empty motif.
func ValidateMotif(motif string) error {
	if motif == "" {
		return ErrInvalidMotif
	}
	return nil
}

// FindPositions returns every 0-based offset p where residues[p:p+len(motif)]
// equals motif byte for byte. Overlapping occurrences are all reported, so "AA"
// in "AAA" gives [0 1]. The result is never nil.
func FindPositions(residues, motif string) ([]int, error) {
	if err := ValidateMotif(motif); err != nil {
		return nil, err
	}
	return positions(residues, motif), nil
}

func positions(residues, motif string) []int {
	out := []int{}
	if len(motif) > len(residues) {
		return out
	}
	// Restarting one byte after each match keeps overlapping hits.
	for off := 0; off <= len(residues)-len(motif); {
		i := strings.Index(residues[off:], motif)
		if i < 0 {
			break
		}
		out = append(out, off+i)
		off += i + 1
	}
	return out
}

// FindMotif returns one MotifHit per record, in collection order. The motif is
// matched case-sensitively.
func FindMotif(records sequence.Collection, motif string) ([]MotifHit, error) {
	if err := ValidateMotif(motif); err != nil {
		return nil, err
	}
	out := make([]MotifHit, records.Len())
	records.Each(func(i int, r sequence.Record) bool {
		out[i] = MotifHit{ID: r.ID, Positions: positions(r.Residues, motif)}
		return true
	})
	return out, nil
}
