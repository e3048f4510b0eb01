// Package offtarget predicts off-target amplicons for candidate primer
// pairs by enumerating genomic hits for each primer and joining left/right
// hits under orientation and size constraints.
package offtarget

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fulcrumgenomics/fgprimer/internal/bwa"
	"github.com/fulcrumgenomics/fgprimer/internal/genome"
	"github.com/fulcrumgenomics/fgprimer/internal/primer"
)

// Mapper abstracts the aligner wrapper for the detector; *bwa.Aligner
// satisfies it.
type Mapper interface {
	Map(queries []string) ([]bwa.Result, error)
	Close() error
}

// Options bound what counts as an acceptable primer pair.
type Options struct {
	MaxPrimerHits     int // a primer with more genomic hits fails its pairs outright
	MaxPrimerPairHits int // max predicted amplicons for a pair to pass
	MaxAmpliconSize   int // join limit on predicted amplicon length
	KeepAmplicons     bool
	KeepPrimerHits    bool
}

// Result is the off-target verdict for one primer pair.
type Result struct {
	Pair      *primer.Pair
	Passes    bool
	Amplicons []genome.Mapping // retained when KeepAmplicons is set
	LeftHits  []genome.Mapping // retained when KeepPrimerHits is set
	RightHits []genome.Mapping // retained when KeepPrimerHits is set
}

// pairKey is the structural identity of a pair for caching.
type pairKey struct {
	leftBases  string
	rightBases string
	left       genome.Mapping
	right      genome.Mapping
}

func keyOf(p *primer.Pair) pairKey {
	return pairKey{
		leftBases:  p.Left.Bases,
		rightBases: p.Right.Bases,
		left:       p.Left.Mapping,
		right:      p.Right.Mapping,
	}
}

// Detector joins primer hit sets into off-target amplicon predictions. It
// owns its aligner and two process-lifetime caches; it is not safe for
// concurrent use.
type Detector struct {
	opts        Options
	mapper      Mapper
	primerCache map[string]bwa.Result
	pairCache   map[pairKey]*Result
	logger      *zap.Logger
}

// NewDetector builds a detector that exclusively owns mapper.
func NewDetector(opts Options, mapper Mapper, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		opts:        opts,
		mapper:      mapper,
		primerCache: make(map[string]bwa.Result),
		pairCache:   make(map[pairKey]*Result),
		logger:      logger,
	}
}

// Check classifies each pair, reusing cached verdicts and batching all
// uncached primer sequences into one aligner call.
func (d *Detector) Check(pairs []*primer.Pair) ([]*Result, error) {
	results := make([]*Result, len(pairs))

	// Partition into cache hits and misses.
	var misses []int
	for i, pair := range pairs {
		if cached, ok := d.pairCache[keyOf(pair)]; ok {
			results[i] = cached
			continue
		}
		misses = append(misses, i)
	}
	if len(misses) == 0 {
		return results, nil
	}

	// Gather unique primer sequences not already aligned.
	var queries []string
	seen := make(map[string]struct{})
	for _, i := range misses {
		for _, bases := range []string{pairs[i].Left.Bases, pairs[i].Right.Bases} {
			if _, ok := d.primerCache[bases]; ok {
				continue
			}
			if _, ok := seen[bases]; ok {
				continue
			}
			seen[bases] = struct{}{}
			queries = append(queries, bases)
		}
	}

	if len(queries) > 0 {
		mapped, err := d.mapper.Map(queries)
		if err != nil {
			return nil, fmt.Errorf("align %d primer sequences: %w", len(queries), err)
		}
		for _, r := range mapped {
			d.primerCache[r.Query] = r
		}
	}

	for _, i := range misses {
		result := d.classify(pairs[i])
		d.pairCache[keyOf(pairs[i])] = result
		results[i] = result
	}
	return results, nil
}

// classify joins the pair's cached hit sets into amplicon predictions.
func (d *Detector) classify(pair *primer.Pair) *Result {
	left := d.primerCache[pair.Left.Bases]
	right := d.primerCache[pair.Right.Bases]

	// A primer mapping too many places fails the pair with no join attempted.
	if left.HitCount > d.opts.MaxPrimerHits || right.HitCount > d.opts.MaxPrimerHits {
		d.logger.Debug("primer hit count exceeds limit",
			zap.String("pair", pair.DisplayName()),
			zap.Int("leftHits", left.HitCount),
			zap.Int("rightHits", right.HitCount))
		return d.finish(pair, false, nil, left, right)
	}

	var amplicons []genome.Mapping
	for _, h1 := range left.Hits {
		for _, h2 := range right.Hits {
			if m, ok := joinAmplicon(h1, h2, d.opts.MaxAmpliconSize); ok {
				amplicons = append(amplicons, m)
			}
		}
	}

	passes := len(amplicons) <= d.opts.MaxPrimerPairHits
	return d.finish(pair, passes, amplicons, left, right)
}

func (d *Detector) finish(pair *primer.Pair, passes bool, amplicons []genome.Mapping, left, right bwa.Result) *Result {
	result := &Result{Pair: pair, Passes: passes}
	if d.opts.KeepAmplicons {
		result.Amplicons = amplicons
	}
	if d.opts.KeepPrimerHits {
		result.LeftHits = hitMappings(left.Hits)
		result.RightHits = hitMappings(right.Hits)
	}
	return result
}

// joinAmplicon reports whether two hits form a plausible amplicon: same
// chromosome, opposite strands, the minus-strand hit downstream of the
// plus-strand hit, and the span within maxSize.
func joinAmplicon(h1, h2 bwa.Hit, maxSize int) (genome.Mapping, bool) {
	if h1.Chrom != h2.Chrom || h1.Negative == h2.Negative {
		return genome.Mapping{}, false
	}
	plus, minus := h1, h2
	if plus.Negative {
		plus, minus = h2, h1
	}
	if minus.Start <= plus.End() {
		return genome.Mapping{}, false
	}
	length := minus.End() - plus.Start + 1
	if length > maxSize {
		return genome.Mapping{}, false
	}
	return genome.Mapping{RefName: plus.Chrom, Start: plus.Start, End: minus.End(), Strand: genome.Plus}, true
}

func hitMappings(hits []bwa.Hit) []genome.Mapping {
	if len(hits) == 0 {
		return nil
	}
	out := make([]genome.Mapping, len(hits))
	for i, h := range hits {
		strand := genome.Plus
		if h.Negative {
			strand = genome.Minus
		}
		out[i] = genome.Mapping{RefName: h.Chrom, Start: h.Start, End: h.End(), Strand: strand}
	}
	return out
}

// Close releases the detector's aligner.
func (d *Detector) Close() error {
	return d.mapper.Close()
}
