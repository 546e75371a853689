package fasta

import (
	"bufio"
	"io"

	"seqanalyzer/internal/sequence"
)

// DefaultLineWidth is the conventional residues-per-line for written FASTA.
const DefaultLineWidth = 60

// Write writes records as FASTA, wrapping residues every width columns. A
// width <= 0 keeps each sequence on a single line. The header is the record's
// Description, or its ID when the description is empty.
func Write(w io.Writer, width int, recs ...sequence.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range recs {
		hdr := r.Description
		if hdr == "" {
			hdr = r.ID
		}
		bw.WriteByte('>')
		bw.WriteString(hdr)
		bw.WriteByte('\n')

		seq := r.Residues
		step := width
		if step <= 0 {
			step = len(seq)
		}
		for i := 0; i < len(seq); i += step {
			end := min(i+step, len(seq))
			bw.WriteString(seq[i:end])
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}
