package sequence

import "testing"

func TestNewCollectionCopiesInput(t *testing.T) {
	recs := []Record{{ID: "a", Residues: "ACGT"}, {ID: "b", Residues: "GG"}}
	c := NewCollection(recs)
	recs[0].ID = "mutated"
	if c.At(0).ID != "a" {
		t.Fatalf("collection changed after caller mutation: %+v", c.At(0))
	}
	out := c.Records()
	out[1].Residues = "TT"
	if c.At(1).Residues != "GG" {
		t.Fatalf("Records() leaked internal slice: %+v", c.At(1))
	}
	if c.Len() != 2 || c.TotalResidues() != 6 {
		t.Fatalf("unexpected len/total: %d/%d", c.Len(), c.TotalResidues())
	}
}

func TestBuilderFreeze(t *testing.T) {
	var b Builder
	b.Add(Record{ID: "x", Residues: "A"})
	b.Add(Record{ID: "y", Residues: "C"})
	c := b.Freeze()
	if c.Len() != 2 || c.At(1).ID != "y" {
		t.Fatalf("unexpected collection: %+v", c.Records())
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on Add after Freeze")
		}
	}()
	b.Add(Record{ID: "z"})
}

func TestEachStopsEarly(t *testing.T) {
	c := NewCollection([]Record{{ID: "1"}, {ID: "2"}, {ID: "3"}})
	var seen []string
	c.Each(func(i int, r Record) bool {
		seen = append(seen, r.ID)
		return i < 1
	})
	if len(seen) != 2 {
		t.Fatalf("expected 2 visits, got %v", seen)
	}
	var empty Collection
	if empty.Len() != 0 || len(empty.Records()) != 0 {
		t.Fatalf("zero collection should be empty")
	}
}
