// Package primer provides the primer and primer-pair value types shared by
// the design pipeline. Both are immutable once constructed; the constructors
// enforce the structural invariants.
package primer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
)

// InvalidPrimerError reports an invariant violation when building a Primer.
type InvalidPrimerError struct {
	Message string
}

func (e *InvalidPrimerError) Error() string {
	return "invalid primer: " + e.Message
}

// Primer is a single oligo located on the reference. Bases is stated in the
// primer's own 5'->3' orientation: reverse-complemented relative to the
// reference when the mapping is on the minus strand. Bases may be empty when
// the sequence is not materialized.
type Primer struct {
	Bases      string
	Tm         float64
	Penalty    float64
	Mapping    genome.Mapping
	Name       string
	NamePrefix string
	Tail       string // optional 5' tail appended at synthesis, not mapped
}

// New validates and builds a Primer.
func New(p Primer) (*Primer, error) {
	if p.Bases != "" && len(p.Bases) != p.Mapping.Length() {
		return nil, &InvalidPrimerError{
			Message: fmt.Sprintf("bases length %d != mapping length %d for %s",
				len(p.Bases), p.Mapping.Length(), p.Mapping),
		}
	}
	if p.Name != "" && p.NamePrefix != "" {
		return nil, &InvalidPrimerError{
			Message: fmt.Sprintf("name %q and name prefix %q are mutually exclusive", p.Name, p.NamePrefix),
		}
	}
	return &p, nil
}

// Length is the number of reference bases the primer covers.
func (p *Primer) Length() int {
	return p.Mapping.Length()
}

// GC returns the primer's GC content in the 0-100 range.
func (p *Primer) GC() float64 {
	return genome.GCContent(p.Bases)
}

// DisplayName resolves the primer's name: Name if set, otherwise NamePrefix
// with the mapping appended, otherwise the mapping alone.
func (p *Primer) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.NamePrefix != "":
		return fmt.Sprintf("%s_%s", p.NamePrefix, p.Mapping)
	default:
		return p.Mapping.String()
	}
}

// SequenceWithTail returns the full synthesized sequence: the optional 5'
// tail followed by the genomic bases.
func (p *Primer) SequenceWithTail() string {
	return p.Tail + p.Bases
}

// String renders the compact tab-separated form:
// bases, tm, penalty, mapping.
func (p *Primer) String() string {
	return fmt.Sprintf("%s\t%.2f\t%.2f\t%s", p.Bases, p.Tm, p.Penalty, p.Mapping)
}

// Parse reads the compact tab-separated form written by String.
func Parse(s string) (*Primer, error) {
	fields := strings.Split(s, "\t")
	if len(fields) != 4 {
		return nil, &InvalidPrimerError{Message: fmt.Sprintf("compact form has %d fields, expected 4", len(fields))}
	}
	tm, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, &InvalidPrimerError{Message: fmt.Sprintf("malformed tm %q", fields[1])}
	}
	penalty, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, &InvalidPrimerError{Message: fmt.Sprintf("malformed penalty %q", fields[2])}
	}
	mapping, err := parseMapping(fields[3])
	if err != nil {
		return nil, err
	}
	return New(Primer{Bases: fields[0], Tm: tm, Penalty: penalty, Mapping: mapping})
}

// parseMapping reads "chrom:start-end:strand".
func parseMapping(s string) (genome.Mapping, error) {
	lastColon := strings.LastIndexByte(s, ':')
	if lastColon < 0 {
		return genome.Mapping{}, &InvalidPrimerError{Message: fmt.Sprintf("malformed mapping %q", s)}
	}
	strand, err := genome.ParseStrand(s[lastColon+1:])
	if err != nil {
		return genome.Mapping{}, &InvalidPrimerError{Message: err.Error()}
	}
	span := s[:lastColon]
	colon := strings.LastIndexByte(span, ':')
	dash := strings.LastIndexByte(span, '-')
	if colon < 0 || dash < colon {
		return genome.Mapping{}, &InvalidPrimerError{Message: fmt.Sprintf("malformed mapping %q", s)}
	}
	start, err := strconv.Atoi(span[colon+1 : dash])
	if err != nil {
		return genome.Mapping{}, &InvalidPrimerError{Message: fmt.Sprintf("malformed mapping start in %q", s)}
	}
	end, err := strconv.Atoi(span[dash+1:])
	if err != nil {
		return genome.Mapping{}, &InvalidPrimerError{Message: fmt.Sprintf("malformed mapping end in %q", s)}
	}
	return genome.NewMapping(span[:colon], start, end, strand)
}
