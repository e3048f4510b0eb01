package bwa

import "fmt"

// Hit is a single alignment of a query to the reference.
type Hit struct {
	Chrom    string
	Start    int // 1-based
	Negative bool
	Cigar    Cigar
	Edits    int
}

// NewHit builds a hit. When rc is true the query was submitted
// reverse-complemented, so the strand is inverted and the cigar element
// order reversed to describe the original query.
func NewHit(chrom string, start int, negative bool, cigar Cigar, edits int, rc bool) Hit {
	if rc {
		negative = !negative
		cigar = cigar.Reversed()
	}
	return Hit{Chrom: chrom, Start: start, Negative: negative, Cigar: cigar, Edits: edits}
}

// End is the 1-based inclusive reference end position.
func (h Hit) End() int {
	return h.Start + h.Cigar.ReferenceLength() - 1
}

// Mismatches is the number of base mismatches: total edits minus bases
// involved in indels.
func (h Hit) Mismatches() int {
	return h.Edits - h.Cigar.IndelBases()
}

func (h Hit) String() string {
	strand := "+"
	if h.Negative {
		strand = "-"
	}
	return fmt.Sprintf("%s:%d-%d:%s %s nm=%d", h.Chrom, h.Start, h.End(), strand, h.Cigar, h.Edits)
}

// Result is the outcome of aligning one query. HitCount may exceed
// len(Hits) when the aligner truncated reporting.
type Result struct {
	Query    string
	HitCount int
	Hits     []Hit
}
