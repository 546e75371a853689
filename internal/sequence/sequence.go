// Package sequence holds the in-memory record store shared by the loaders and
// the analyzers. A Collection is filled once and then only read.
package sequence

// Record is a single sequence entry. ID is the first whitespace-delimited token
// of the FASTA header; Description keeps the full header line without '>'.
type Record struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Residues    string `json:"residues"`
}

// Len returns the number of residues in the record.
func (r Record) Len() int { return len(r.Residues) }

// Collection is an ordered, immutable list of records. Order is the order the
// records were read in. The zero value is an empty collection.
type Collection struct {
	records []Record
}

// NewCollection copies recs into a new Collection so later changes to the
// caller's slice are not visible to readers.
func NewCollection(recs []Record) Collection {
	if len(recs) == 0 {
		return Collection{}
	}
	cp := make([]Record, len(recs))
	copy(cp, recs)
	return Collection{records: cp}
}

// Len returns the number of records.
func (c Collection) Len() int { return len(c.records) }

// At returns the i-th record. It panics if i is out of range, like a slice index.
func (c Collection) At(i int) Record { return c.records[i] }

// Records returns a copy of the records in order.
func (c Collection) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Each calls fn for every record in order and stops early when fn returns false.
func (c Collection) Each(fn func(i int, r Record) bool) {
	for i, r := range c.records {
		if !fn(i, r) {
			return
		}
	}
}

// TotalResidues sums the residue counts of all records.
func (c Collection) TotalResidues() int {
	n := 0
	for _, r := range c.records {
		n += len(r.Residues)
	}
	return n
}

// Builder accumulates records during a load. Freeze hands the records over to
// an immutable Collection; the builder must not be used afterwards.
type Builder struct {
	records []Record
	frozen  bool
}

// Add appends a record. It panics after Freeze.
func (b *Builder) Add(r Record) {
	if b.frozen {
		panic("sequence: Add after Freeze")
	}
	b.records = append(b.records, r)
}

// Len returns the number of records added so far.
func (b *Builder) Len() int { return len(b.records) }

// Freeze returns the collection and ends the load phase.
func (b *Builder) Freeze() Collection {
	b.frozen = true
	c := Collection{records: b.records}
	b.records = nil
	return c
}
