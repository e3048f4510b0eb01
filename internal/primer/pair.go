package primer

import (
	"fmt"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
)

// InvalidPairError reports an invariant violation when building a Pair.
type InvalidPairError struct {
	Message string
}

func (e *InvalidPairError) Error() string {
	return "invalid primer pair: " + e.Message
}

// Pair is a left/right primer pair bounding an amplicon. By convention of
// the pair design task the left primer is on the plus strand and the right
// primer on the minus strand.
type Pair struct {
	Left             *Primer
	Right            *Primer
	Amplicon         genome.Mapping
	AmpliconSequence string
	Tm               float64
	Penalty          float64
	Name             string
	NamePrefix       string
}

// NewPair validates and builds a Pair.
func NewPair(p Pair) (*Pair, error) {
	if p.Left == nil || p.Right == nil {
		return nil, &InvalidPairError{Message: "both primers are required"}
	}
	left, right := p.Left.Mapping, p.Right.Mapping
	if left.RefName != right.RefName || left.RefName != p.Amplicon.RefName {
		return nil, &InvalidPairError{
			Message: fmt.Sprintf("references differ: left %s, right %s, amplicon %s",
				left.RefName, right.RefName, p.Amplicon.RefName),
		}
	}
	if left.Strand != genome.Plus {
		return nil, &InvalidPairError{Message: fmt.Sprintf("left primer on %s strand", left.Strand)}
	}
	if right.Strand != genome.Minus {
		return nil, &InvalidPairError{Message: fmt.Sprintf("right primer on %s strand", right.Strand)}
	}
	if p.Amplicon.Start != left.Start || p.Amplicon.End != right.End {
		return nil, &InvalidPairError{
			Message: fmt.Sprintf("amplicon %s does not span left start %d to right end %d",
				p.Amplicon, left.Start, right.End),
		}
	}
	if p.AmpliconSequence != "" && len(p.AmpliconSequence) != p.Amplicon.Length() {
		return nil, &InvalidPairError{
			Message: fmt.Sprintf("amplicon sequence length %d != amplicon length %d",
				len(p.AmpliconSequence), p.Amplicon.Length()),
		}
	}
	if p.Name != "" && p.NamePrefix != "" {
		return nil, &InvalidPairError{
			Message: fmt.Sprintf("name %q and name prefix %q are mutually exclusive", p.Name, p.NamePrefix),
		}
	}
	return &p, nil
}

// Length is the amplicon length.
func (p *Pair) Length() int {
	return p.Amplicon.Length()
}

// Inner returns the region between the two primers. When the primers
// overlap it collapses to the midpoint of the amplicon.
func (p *Pair) Inner() genome.Mapping {
	innerStart := p.Left.Mapping.End + 1
	innerEnd := p.Right.Mapping.Start - 1
	if innerStart > innerEnd {
		mid := (p.Amplicon.Start + p.Amplicon.End) / 2
		return genome.Mapping{RefName: p.Amplicon.RefName, Start: mid, End: mid, Strand: genome.Plus}
	}
	return genome.Mapping{RefName: p.Amplicon.RefName, Start: innerStart, End: innerEnd, Strand: genome.Plus}
}

// DisplayName resolves the pair's name in the same way as Primer.
func (p *Pair) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.NamePrefix != "":
		return fmt.Sprintf("%s_%s", p.NamePrefix, p.Amplicon)
	default:
		return p.Amplicon.String()
	}
}

func (p *Pair) String() string {
	return fmt.Sprintf("%s/%s %s", p.Left.Bases, p.Right.Bases, p.Amplicon)
}
