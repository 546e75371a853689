// Package fasta reads FASTA formatted data into sequence records. Parsing is
// kept conservative: anything that is not a header, a comment or a blank line
// is sequence data, and sequence data before the first header is an error.
package fasta

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"seqanalyzer/internal/sequence"
)

var (
	// ErrMissingHeader is reported when sequence data appears before any '>' line.
	ErrMissingHeader = errors.New("sequence data before first header")
	// ErrEmptyID is reported for a header line with no identifier.
	ErrEmptyID = errors.New("header has no identifier")
)

// maxLineSize allows very long single-line sequences (64 MiB).
const maxLineSize = 64 << 20

// ParseError ties a parse failure to the 1-based input line it was found on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fasta: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader yields FASTA records one at a time in input order.
type Reader struct {
	sc   *bufio.Scanner
	line int
	next *sequence.Record
	err  error
}

// NewReader returns a Reader over r. Compressed input must be unwrapped by the
// caller (see Decompress).
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{sc: sc}
}

// Read returns the next record, or io.EOF after the last one. After any error
// every later call returns the same error.
func (r *Reader) Read() (sequence.Record, error) {
	if r.err != nil {
		return sequence.Record{}, r.err
	}
	var (
		rec  sequence.Record
		have bool
		sb   strings.Builder
	)
	if r.next != nil {
		rec, have = *r.next, true
		r.next = nil
	}
	for r.sc.Scan() {
		r.line++
		line := strings.TrimSpace(r.sc.Text())
		if line == "" || line[0] == ';' {
			continue
		}
		if line[0] == '>' {
			hdr, err := r.header(line)
			if err != nil {
				r.err = err
				return sequence.Record{}, err
			}
			if have {
				r.next = &hdr
				rec.Residues = sb.String()
				return rec, nil
			}
			rec, have = hdr, true
			continue
		}
		if !have {
			r.err = &ParseError{Line: r.line, Err: ErrMissingHeader}
			return sequence.Record{}, r.err
		}
		appendResidues(&sb, line)
	}
	if err := r.sc.Err(); err != nil {
		r.err = fmt.Errorf("fasta: read after line %d: %w", r.line, err)
		return sequence.Record{}, r.err
	}
	r.err = io.EOF
	if !have {
		return sequence.Record{}, io.EOF
	}
	rec.Residues = sb.String()
	return rec, nil
}

func (r *Reader) header(line string) (sequence.Record, error) {
	desc := strings.TrimSpace(line[1:])
	fields := strings.Fields(desc)
	if len(fields) == 0 {
		return sequence.Record{}, &ParseError{Line: r.line, Err: ErrEmptyID}
	}
	return sequence.Record{ID: fields[0], Description: desc}, nil
}

// appendResidues drops interior whitespace, which some writers use to group columns.
func appendResidues(sb *strings.Builder, line string) {
	for _, c := range line {
		if unicode.IsSpace(c) {
			continue
		}
		sb.WriteRune(c)
	}
}

// ParseFasta reads all FASTA records from r.
func ParseFasta(r io.Reader) ([]sequence.Record, error) {
	fr := NewReader(r)
	var records []sequence.Record
	for {
		rec, err := fr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// ReadCollection reads all records from r into a frozen Collection. Nothing is
// returned until the whole input has been consumed.
func ReadCollection(r io.Reader) (sequence.Collection, error) {
	fr := NewReader(r)
	var b sequence.Builder
	for {
		rec, err := fr.Read()
		if errors.Is(err, io.EOF) {
			return b.Freeze(), nil
		}
		if err != nil {
			return sequence.Collection{}, err
		}
		b.Add(rec)
	}
}
