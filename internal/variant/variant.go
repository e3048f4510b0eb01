// Package variant provides the internal variant form and minor-allele
// frequency aware overlap lookups over variant catalogs.
package variant

import (
	"fmt"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
	"github.com/fulcrumgenomics/fgprimer/internal/vcf"
)

// Type classifies a variant by the lengths of its alleles.
type Type int

const (
	SNP Type = iota
	Insertion
	Deletion
	Other
)

func (t Type) String() string {
	switch t {
	case SNP:
		return "SNP"
	case Insertion:
		return "insertion"
	case Deletion:
		return "deletion"
	default:
		return "other"
	}
}

// Variant is the internal form of a catalog variant. MAF is nil when no
// frequency could be derived from the source record.
type Variant struct {
	ID    string
	Chrom string
	Pos   int // 1-based
	Ref   string
	Alt   string
	MAF   *float64
}

// VariantType derives the type from the allele lengths.
func (v *Variant) VariantType() Type {
	switch {
	case len(v.Ref) == 1 && len(v.Alt) == 1:
		return SNP
	case len(v.Ref) == 1 && len(v.Alt) > 1:
		return Insertion
	case len(v.Ref) > 1 && len(v.Alt) == 1:
		return Deletion
	default:
		return Other
	}
}

// ToMapping returns the genomic span used for overlap queries: SNPs and
// insertions occupy the single position Pos; deletions span the whole
// reference allele, Pos through Pos+len(Ref)-1; other types occupy Pos.
func (v *Variant) ToMapping() genome.Mapping {
	end := v.Pos
	if v.VariantType() == Deletion {
		end = v.Pos + len(v.Ref) - 1
	}
	return genome.Mapping{RefName: v.Chrom, Start: v.Pos, End: end, Strand: genome.Plus}
}

func (v *Variant) String() string {
	return fmt.Sprintf("%s@%s:%d %s>%s", v.ID, v.Chrom, v.Pos, v.Ref, v.Alt)
}

// FromRecord converts a VCF record into the internal form, taking the first
// alternate allele and deriving the MAF.
func FromRecord(r *vcf.Record) *Variant {
	return &Variant{
		ID:    r.ID,
		Chrom: r.Chrom,
		Pos:   r.Pos,
		Ref:   r.Ref,
		Alt:   r.FirstAlt(),
		MAF:   DeriveMAF(r),
	}
}

// DeriveMAF extracts a minor-allele frequency from a VCF record. Sources are
// tried in priority order: 1-CAF[0], sum(AF), sum(AC)/AN, then the fraction
// of non-reference non-missing genotype calls. Returns nil when none apply.
func DeriveMAF(r *vcf.Record) *float64 {
	if caf, ok := r.InfoFloats("CAF"); ok && len(caf) > 0 {
		maf := 1 - caf[0]
		return &maf
	}
	if af, ok := r.InfoFloats("AF"); ok && len(af) > 0 {
		maf := 0.0
		for _, f := range af {
			maf += f
		}
		return &maf
	}
	ac, okAC := r.InfoInts("AC")
	an, okAN := r.InfoInts("AN")
	if okAC && okAN && len(ac) > 0 && len(an) > 0 && an[0] > 0 {
		sum := 0
		for _, n := range ac {
			sum += n
		}
		maf := float64(sum) / float64(an[0])
		return &maf
	}
	if alleles := r.GenotypeAlleles(); len(alleles) > 0 {
		nonMissing, nonRef := 0, 0
		for _, a := range alleles {
			if a < 0 {
				continue
			}
			nonMissing++
			if a > 0 {
				nonRef++
			}
		}
		if nonMissing > 0 {
			maf := float64(nonRef) / float64(nonMissing)
			return &maf
		}
	}
	return nil
}
