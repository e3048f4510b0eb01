// Package design builds masked design templates around target intervals and
// orchestrates the primer-picking, off-target, and dimer subsystems for one
// target at a time.
package design

import (
	"fmt"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
	"github.com/fulcrumgenomics/fgprimer/internal/variant"
)

// Region expands the target symmetrically by maxAmpliconLength minus the
// target length on each side, clamped to the chromosome.
func Region(target genome.Mapping, maxAmpliconLength int, seqs genome.Sequences) (genome.Mapping, error) {
	chromLength, err := seqs.Length(target.RefName)
	if err != nil {
		return genome.Mapping{}, err
	}

	padding := maxAmpliconLength - target.Length()
	if padding < 0 {
		padding = 0
	}
	start := target.Start - padding
	if start < 1 {
		start = 1
	}
	end := target.End + padding
	if end > chromLength {
		end = chromLength
	}
	return genome.Mapping{RefName: target.RefName, Start: start, End: end, Strand: genome.Plus}, nil
}

// Template is the sequence context handed to the primer picker. Soft is the
// reference slice as retrieved (lower-case marks soft-masked bases); Hard is
// the same bases with positions under qualifying variants replaced by N.
type Template struct {
	Target genome.Mapping
	Region genome.Mapping
	Soft   string
	Hard   string
}

// BuildTemplate computes the design region around target, extracts the
// reference bases, and hard-masks common variation.
func BuildTemplate(target genome.Mapping, maxAmpliconLength int, seqs genome.Sequences,
	lookup variant.Lookup, minMaf float64, includeMissingMafs bool) (*Template, error) {

	region, err := Region(target, maxAmpliconLength, seqs)
	if err != nil {
		return nil, err
	}
	soft, err := seqs.Fetch(region.RefName, region.Start, region.End)
	if err != nil {
		return nil, fmt.Errorf("fetch design region %s: %w", region, err)
	}

	hard := soft
	if lookup != nil {
		variants, err := lookup.Query(region.RefName, region.Start, region.End, minMaf, includeMissingMafs)
		if err != nil {
			return nil, fmt.Errorf("query variants over %s: %w", region, err)
		}
		hard = MaskVariants(region, soft, variants)
	}

	return &Template{Target: target, Region: region, Soft: soft, Hard: hard}, nil
}

// MaskVariants replaces reference positions affected by the variants with N.
// SNPs mask their own position; insertions protect both flanking bases;
// deletions mask the deleted bases but not the anchor; other events mask
// pos through pos+len(ref). Positions outside the region are ignored.
func MaskVariants(region genome.Mapping, sequence string, variants []*variant.Variant) string {
	masked := []byte(sequence)

	mask := func(pos int) {
		if pos < region.Start || pos > region.End {
			return
		}
		masked[pos-region.Start] = 'N'
	}

	for _, v := range variants {
		switch v.VariantType() {
		case variant.SNP:
			mask(v.Pos)
		case variant.Insertion:
			mask(v.Pos)
			mask(v.Pos + 1)
		case variant.Deletion:
			for pos := v.Pos + 1; pos <= v.Pos+len(v.Ref)-1; pos++ {
				mask(pos)
			}
		default:
			for pos := v.Pos; pos <= v.Pos+len(v.Ref); pos++ {
				mask(pos)
			}
		}
	}
	return string(masked)
}
