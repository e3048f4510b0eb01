package primer3

import (
	"fmt"
	"strconv"
)

// IntRange is a min/optimal/max triple over integer quantities such as
// sizes. NewIntRange enforces min <= opt <= max.
type IntRange struct {
	Min, Opt, Max int
}

// NewIntRange validates and builds an IntRange.
func NewIntRange(min, opt, max int) (IntRange, error) {
	if min > opt || opt > max {
		return IntRange{}, fmt.Errorf("invalid range: min %d <= opt %d <= max %d does not hold", min, opt, max)
	}
	return IntRange{Min: min, Opt: opt, Max: max}, nil
}

// FloatRange is a min/optimal/max triple over float quantities such as Tms
// and GC percentages. An Opt of 0 disables the optimum where the consumer
// allows it (amplicon Tm).
type FloatRange struct {
	Min, Opt, Max float64
}

// NewFloatRange validates and builds a FloatRange. Opt = 0 is accepted as
// the disabled optimum.
func NewFloatRange(min, opt, max float64) (FloatRange, error) {
	if opt != 0 && (min > opt || opt > max) {
		return FloatRange{}, fmt.Errorf("invalid range: min %v <= opt %v <= max %v does not hold", min, opt, max)
	}
	if min > max {
		return FloatRange{}, fmt.Errorf("invalid range: min %v > max %v", min, max)
	}
	return FloatRange{Min: min, Opt: opt, Max: max}, nil
}

// Params bundles the design constraints handed to primer3 plus the
// post-hoc constraints the picker cannot express natively
// (PrimerMaxDinucBases).
type Params struct {
	AmpliconSizes       IntRange
	AmpliconTms         FloatRange // Opt = 0 disables the product Tm optimum
	PrimerSizes         IntRange
	PrimerTms           FloatRange
	PrimerGcs           FloatRange // 0-100
	GcClampMin          int        // min Gs or Cs in the 3'-most 5 bases
	GcClampMax          int        // max Gs or Cs in the 3'-most 5 bases
	PrimerMaxPolyX      int
	PrimerMaxNs         int
	PrimerMaxDinucBases int // post-filter, not a primer3 tag
	AvoidMaskedBases    bool
	NumToReturn         int
}

// DefaultParams returns a reasonable parameter set for short amplicon
// design.
func DefaultParams() *Params {
	return &Params{
		AmpliconSizes:       IntRange{Min: 100, Opt: 150, Max: 250},
		AmpliconTms:         FloatRange{},
		PrimerSizes:         IntRange{Min: 18, Opt: 21, Max: 27},
		PrimerTms:           FloatRange{Min: 57, Opt: 60, Max: 63},
		PrimerGcs:           FloatRange{Min: 30, Opt: 45, Max: 65},
		GcClampMin:          0,
		GcClampMax:          5,
		PrimerMaxPolyX:      5,
		PrimerMaxNs:         1,
		PrimerMaxDinucBases: 6,
		AvoidMaskedBases:    true,
		NumToReturn:         5,
	}
}

// Validate checks every triple invariant.
func (p *Params) Validate() error {
	if _, err := NewIntRange(p.AmpliconSizes.Min, p.AmpliconSizes.Opt, p.AmpliconSizes.Max); err != nil {
		return fmt.Errorf("amplicon sizes: %w", err)
	}
	if _, err := NewFloatRange(p.AmpliconTms.Min, p.AmpliconTms.Opt, p.AmpliconTms.Max); err != nil {
		return fmt.Errorf("amplicon tms: %w", err)
	}
	if _, err := NewIntRange(p.PrimerSizes.Min, p.PrimerSizes.Opt, p.PrimerSizes.Max); err != nil {
		return fmt.Errorf("primer sizes: %w", err)
	}
	if _, err := NewFloatRange(p.PrimerTms.Min, p.PrimerTms.Opt, p.PrimerTms.Max); err != nil {
		return fmt.Errorf("primer tms: %w", err)
	}
	if _, err := NewFloatRange(p.PrimerGcs.Min, p.PrimerGcs.Opt, p.PrimerGcs.Max); err != nil {
		return fmt.Errorf("primer gcs: %w", err)
	}
	if p.GcClampMin > p.GcClampMax {
		return fmt.Errorf("gc clamp: min %d > max %d", p.GcClampMin, p.GcClampMax)
	}
	return nil
}

// ToTags renders the parameters as primer3 global tags.
func (p *Params) ToTags() map[string]string {
	tags := map[string]string{
		"PRIMER_PRODUCT_SIZE_RANGE": fmt.Sprintf("%d-%d", p.AmpliconSizes.Min, p.AmpliconSizes.Max),
		"PRIMER_PRODUCT_OPT_SIZE":   strconv.Itoa(p.AmpliconSizes.Opt),
		"PRIMER_MIN_SIZE":           strconv.Itoa(p.PrimerSizes.Min),
		"PRIMER_OPT_SIZE":           strconv.Itoa(p.PrimerSizes.Opt),
		"PRIMER_MAX_SIZE":           strconv.Itoa(p.PrimerSizes.Max),
		"PRIMER_MIN_TM":             formatFloat(p.PrimerTms.Min),
		"PRIMER_OPT_TM":             formatFloat(p.PrimerTms.Opt),
		"PRIMER_MAX_TM":             formatFloat(p.PrimerTms.Max),
		"PRIMER_MIN_GC":             formatFloat(p.PrimerGcs.Min),
		"PRIMER_OPT_GC_PERCENT":     formatFloat(p.PrimerGcs.Opt),
		"PRIMER_MAX_GC":             formatFloat(p.PrimerGcs.Max),
		"PRIMER_GC_CLAMP":           strconv.Itoa(p.GcClampMin),
		"PRIMER_MAX_END_GC":         strconv.Itoa(p.GcClampMax),
		"PRIMER_MAX_POLY_X":         strconv.Itoa(p.PrimerMaxPolyX),
		"PRIMER_MAX_NS_ACCEPTED":    strconv.Itoa(p.PrimerMaxNs),
		"PRIMER_NUM_RETURN":         strconv.Itoa(p.NumToReturn),
		"PRIMER_LOWERCASE_MASKING":  boolTag(p.AvoidMaskedBases),
	}
	// A zero optimum disables the product Tm constraint entirely.
	if p.AmpliconTms.Opt != 0 {
		tags["PRIMER_PRODUCT_MIN_TM"] = formatFloat(p.AmpliconTms.Min)
		tags["PRIMER_PRODUCT_OPT_TM"] = formatFloat(p.AmpliconTms.Opt)
		tags["PRIMER_PRODUCT_MAX_TM"] = formatFloat(p.AmpliconTms.Max)
	}
	return tags
}

// Weights are the per-criterion penalty multipliers for the primer3 scoring
// function. Zero values are emitted as 0 rather than omitted so a design
// session always runs with a fully specified objective.
type Weights struct {
	ProductSizeLt float64
	ProductSizeGt float64
	ProductTmLt   float64
	ProductTmGt   float64
	PrimerSizeLt  float64
	PrimerSizeGt  float64
	PrimerTmLt    float64
	PrimerTmGt    float64
	PrimerGcLt    float64
	PrimerGcGt    float64
	SelfAny       float64
	SelfEnd       float64
	EndStability  float64
	PairPenalty   float64
}

// DefaultWeights returns the stock weighting for targeted assay design.
func DefaultWeights() *Weights {
	return &Weights{
		ProductSizeLt: 1,
		ProductSizeGt: 1,
		ProductTmLt:   0,
		ProductTmGt:   0,
		PrimerSizeLt:  0.25,
		PrimerSizeGt:  0.25,
		PrimerTmLt:    1,
		PrimerTmGt:    1,
		PrimerGcLt:    0.25,
		PrimerGcGt:    0.25,
		SelfAny:       0.1,
		SelfEnd:       0.2,
		EndStability:  0.25,
		PairPenalty:   1,
	}
}

// ToTags renders the weights as primer3 global tags.
func (w *Weights) ToTags() map[string]string {
	return map[string]string{
		"PRIMER_PAIR_WT_PRODUCT_SIZE_LT": formatFloat(w.ProductSizeLt),
		"PRIMER_PAIR_WT_PRODUCT_SIZE_GT": formatFloat(w.ProductSizeGt),
		"PRIMER_PAIR_WT_PRODUCT_TM_LT":   formatFloat(w.ProductTmLt),
		"PRIMER_PAIR_WT_PRODUCT_TM_GT":   formatFloat(w.ProductTmGt),
		"PRIMER_WT_SIZE_LT":              formatFloat(w.PrimerSizeLt),
		"PRIMER_WT_SIZE_GT":              formatFloat(w.PrimerSizeGt),
		"PRIMER_WT_TM_LT":                formatFloat(w.PrimerTmLt),
		"PRIMER_WT_TM_GT":                formatFloat(w.PrimerTmGt),
		"PRIMER_WT_GC_PERCENT_LT":        formatFloat(w.PrimerGcLt),
		"PRIMER_WT_GC_PERCENT_GT":        formatFloat(w.PrimerGcGt),
		"PRIMER_WT_SELF_ANY":             formatFloat(w.SelfAny),
		"PRIMER_WT_SELF_END":             formatFloat(w.SelfEnd),
		"PRIMER_WT_END_STABILITY":        formatFloat(w.EndStability),
		"PRIMER_PAIR_WT_PR_PENALTY":      formatFloat(w.PairPenalty),
	}
}

// formatFloat renders a float the way primer3 expects: no exponent, no
// trailing zero noise.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func boolTag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
