package design

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
	"github.com/fulcrumgenomics/fgprimer/internal/ntthal"
	"github.com/fulcrumgenomics/fgprimer/internal/offtarget"
	"github.com/fulcrumgenomics/fgprimer/internal/primer"
	"github.com/fulcrumgenomics/fgprimer/internal/primer3"
	"github.com/fulcrumgenomics/fgprimer/internal/variant"
)

// Config bundles the collaborators and thresholds for a designer.
type Config struct {
	Sequences          genome.Sequences
	Variants           variant.Lookup // nil disables masking
	MinMaf             float64
	IncludeMissingMafs bool
	Params             *primer3.Params
	Weights            *primer3.Weights
	MaxDimerTm         float64 // dimer Tm at or above this counts against a pair
}

// PairPicker is the slice of the primer3 driver the designer consumes;
// *primer3.Driver satisfies it.
type PairPicker interface {
	DesignPrimerPairs(primer3.Request) ([]*primer.Pair, []primer3.FailureCount, error)
	Close() error
}

// Candidate is one scored primer pair with its off-target verdict and dimer
// count.
type Candidate struct {
	Pair      *primer.Pair
	OffTarget *offtarget.Result
	Dimers    int
}

// Result is the outcome of designing one target.
type Result struct {
	Target     genome.Mapping
	Template   *Template
	Candidates []Candidate       // off-target passing pairs, ranked by dimer count, then penalty
	Rejected   []Candidate       // pairs that failed the off-target check
	Failures   []primer3.FailureCount
}

// Designer turns a target interval into ranked primer-pair candidates. It
// owns its picker driver, off-target detector, and dimer checker; Close closes
// the detector and the driver (the dimer checker has nothing to close). Not
// safe for concurrent use.
type Designer struct {
	cfg      Config
	driver   PairPicker
	detector *offtarget.Detector
	dimers   *ntthal.Checker
	logger   *zap.Logger
}

// NewDesigner assembles a designer from already-constructed subsystems.
func NewDesigner(cfg Config, driver PairPicker, detector *offtarget.Detector,
	dimers *ntthal.Checker, logger *zap.Logger) (*Designer, error) {

	if cfg.Sequences == nil {
		return nil, fmt.Errorf("designer requires a reference sequence provider")
	}
	if cfg.Params == nil {
		cfg.Params = primer3.DefaultParams()
	}
	if cfg.Weights == nil {
		cfg.Weights = primer3.DefaultWeights()
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("designer params: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Designer{cfg: cfg, driver: driver, detector: detector, dimers: dimers, logger: logger}, nil
}

// Design runs the full pipeline for one target: masked template, primer
// picking, off-target classification, and dimer scoring across the passing
// set.
func (d *Designer) Design(target genome.Mapping) (*Result, error) {
	template, err := BuildTemplate(target, d.cfg.Params.AmpliconSizes.Max, d.cfg.Sequences,
		d.cfg.Variants, d.cfg.MinMaf, d.cfg.IncludeMissingMafs)
	if err != nil {
		return nil, err
	}

	req := primer3.Request{
		Target:         target,
		Region:         template.Region,
		Sequence:       template.Soft,
		MaskedSequence: template.Hard,
		Params:         d.cfg.Params,
		Weights:        d.cfg.Weights,
	}
	pairs, failures, err := d.driver.DesignPrimerPairs(req)
	if err != nil {
		return nil, err
	}

	d.logger.Info("picked candidate pairs",
		zap.String("target", target.String()),
		zap.Int("pairs", len(pairs)))

	result := &Result{Target: target, Template: template, Failures: failures}
	if len(pairs) == 0 {
		return result, nil
	}

	verdicts, err := d.detector.Check(pairs)
	if err != nil {
		return nil, err
	}

	var passing []Candidate
	for i, pair := range pairs {
		c := Candidate{Pair: pair, OffTarget: verdicts[i]}
		if verdicts[i].Passes {
			passing = append(passing, c)
		} else {
			result.Rejected = append(result.Rejected, c)
		}
	}

	if d.dimers != nil {
		// Score each pair's primers against every primer in the passing set.
		pool := make([]string, 0, 2*len(passing))
		for _, c := range passing {
			pool = append(pool, c.Pair.Left.Bases, c.Pair.Right.Bases)
		}
		for i := range passing {
			left, err := d.dimers.CountDimers(passing[i].Pair.Left.Bases, pool, d.cfg.MaxDimerTm)
			if err != nil {
				return nil, err
			}
			right, err := d.dimers.CountDimers(passing[i].Pair.Right.Bases, pool, d.cfg.MaxDimerTm)
			if err != nil {
				return nil, err
			}
			passing[i].Dimers = left + right
		}
	}

	sort.SliceStable(passing, func(i, j int) bool {
		if passing[i].Dimers != passing[j].Dimers {
			return passing[i].Dimers < passing[j].Dimers
		}
		return passing[i].Pair.Penalty < passing[j].Pair.Penalty
	})
	result.Candidates = passing
	return result, nil
}

// Close releases the designer's subsystems in reverse order of acquisition.
func (d *Designer) Close() error {
	var firstErr error
	if d.detector != nil {
		if err := d.detector.Close(); err != nil {
			firstErr = err
		}
	}
	if d.driver != nil {
		if err := d.driver.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
