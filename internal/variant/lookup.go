package variant

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/fulcrumgenomics/fgprimer/internal/vcf"
)

// Lookup answers overlap queries over a variant catalog. Implementations
// holding OS handles are released via Close.
type Lookup interface {
	// Query returns variants whose genomic span overlaps [start, end] on
	// chrom, after MAF filtering: if minMaf <= 0 all variants pass; if
	// includeMissingMafs is set, variants without a derivable MAF also pass;
	// otherwise a present MAF >= minMaf is required.
	Query(chrom string, start, end int, minMaf float64, includeMissingMafs bool) ([]*Variant, error)
	io.Closer
}

// passesMAF applies the MAF filter shared by all Lookup implementations.
func passesMAF(v *Variant, minMaf float64, includeMissingMafs bool) bool {
	if minMaf <= 0 {
		return true
	}
	if v.MAF == nil {
		return includeMissingMafs
	}
	return *v.MAF >= minMaf
}

// CachedLookup holds an entire variant catalog in memory, indexed per
// chromosome in interval trees built at construction time.
type CachedLookup struct {
	trees  map[string]*intervalTree
	logger *zap.Logger
}

// NewCachedLookup consumes one or more VCF files, keeping passing records.
func NewCachedLookup(paths []string, logger *zap.Logger) (*CachedLookup, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	byChrom := make(map[string][]*Variant)
	total := 0
	for _, path := range paths {
		parser, err := vcf.NewParser(path)
		if err != nil {
			return nil, fmt.Errorf("open variant source %s: %w", path, err)
		}
		n, err := consume(parser, byChrom)
		parser.Close()
		if err != nil {
			return nil, fmt.Errorf("read variant source %s: %w", path, err)
		}
		total += n
	}

	trees := make(map[string]*intervalTree, len(byChrom))
	for chrom, variants := range byChrom {
		trees[chrom] = buildIntervalTree(variants)
	}

	logger.Info("loaded variant catalog",
		zap.Int("variants", total),
		zap.Int("chromosomes", len(trees)))

	return &CachedLookup{trees: trees, logger: logger}, nil
}

// NewCachedLookupFromVariants builds an in-memory lookup directly from
// variants. Intended for tests and callers with pre-parsed catalogs.
func NewCachedLookupFromVariants(variants []*Variant) *CachedLookup {
	byChrom := make(map[string][]*Variant)
	for _, v := range variants {
		byChrom[v.Chrom] = append(byChrom[v.Chrom], v)
	}
	trees := make(map[string]*intervalTree, len(byChrom))
	for chrom, vs := range byChrom {
		trees[chrom] = buildIntervalTree(vs)
	}
	return &CachedLookup{trees: trees, logger: zap.NewNop()}
}

func consume(parser *vcf.Parser, byChrom map[string][]*Variant) (int, error) {
	n := 0
	for {
		r, err := parser.Next()
		if err != nil {
			return n, err
		}
		if r == nil {
			return n, nil
		}
		if !r.Passes() {
			continue
		}
		v := FromRecord(r)
		byChrom[v.Chrom] = append(byChrom[v.Chrom], v)
		n++
	}
}

// Query implements Lookup.
func (l *CachedLookup) Query(chrom string, start, end int, minMaf float64, includeMissingMafs bool) ([]*Variant, error) {
	tree, ok := l.trees[chrom]
	if !ok {
		return nil, nil
	}
	var out []*Variant
	for _, v := range tree.overlapping(start, end) {
		if passesMAF(v, minMaf, includeMissingMafs) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Close implements Lookup; the cached lookup holds no OS handles.
func (l *CachedLookup) Close() error {
	return nil
}
