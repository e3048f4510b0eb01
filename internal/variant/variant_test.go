package variant

import (
	"testing"

	"github.com/fulcrumgenomics/fgprimer/internal/vcf"
)

func TestVariant_Type(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		alt  string
		want Type
	}{
		{"SNP", "A", "G", SNP},
		{"insertion", "A", "ACGT", Insertion},
		{"deletion", "CTA", "C", Deletion},
		{"MNV", "CA", "GG", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Ref: tt.ref, Alt: tt.alt}
			if got := v.VariantType(); got != tt.want {
				t.Errorf("VariantType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVariant_ToMapping(t *testing.T) {
	tests := []struct {
		name       string
		ref        string
		alt        string
		start, end int
	}{
		{"SNP at pos", "A", "G", 100, 100},
		{"insertion at pos", "A", "ACGT", 100, 100},
		{"deletion spans ref", "CTA", "C", 100, 102},
		{"other at pos", "CA", "GG", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Chrom: "chr2", Pos: 100, Ref: tt.ref, Alt: tt.alt}
			m := v.ToMapping()
			if m.Start != tt.start || m.End != tt.end {
				t.Errorf("ToMapping() = %v, want %d-%d", m, tt.start, tt.end)
			}
		})
	}
}

func record(info map[string]string, format string, samples ...string) *vcf.Record {
	return &vcf.Record{
		Chrom: "chr1", Pos: 100, ID: "rs1", Ref: "A", Alt: "G",
		Filter: "PASS", Info: info, Format: format, Samples: samples,
	}
}

func TestDeriveMAF(t *testing.T) {
	tests := []struct {
		name string
		rec  *vcf.Record
		want *float64
	}{
		{"from CAF", record(map[string]string{"CAF": "0.9,0.1"}, ""), ptr(0.1)},
		{"CAF beats AF", record(map[string]string{"CAF": "0.8,0.2", "AF": "0.5"}, ""), ptr(0.2)},
		{"sum of AF", record(map[string]string{"AF": "0.1,0.05"}, ""), ptr(0.15)},
		{"AC over AN", record(map[string]string{"AC": "20,5", "AN": "100"}, ""), ptr(0.25)},
		{"AC without AN missing", record(map[string]string{"AC": "20"}, ""), nil},
		{"genotype fraction", record(map[string]string{}, "GT", "0/1", "1/1", "0/0", "./."), ptr(0.5)},
		{"missing", record(map[string]string{}, ""), nil},
	}

	const tol = 1e-9
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveMAF(tt.rec)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("DeriveMAF() = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("DeriveMAF() = nil, want %v", *tt.want)
			case tt.want != nil && got != nil:
				if diff := *got - *tt.want; diff > tol || diff < -tol {
					t.Errorf("DeriveMAF() = %v, want %v", *got, *tt.want)
				}
			}
		})
	}
}

func ptr(f float64) *float64 {
	return &f
}
