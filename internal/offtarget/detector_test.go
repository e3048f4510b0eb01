package offtarget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulcrumgenomics/fgprimer/internal/bwa"
	"github.com/fulcrumgenomics/fgprimer/internal/genome"
	"github.com/fulcrumgenomics/fgprimer/internal/primer"
)

// fakeMapper serves canned results and records every batch it is asked to
// align.
type fakeMapper struct {
	results map[string]bwa.Result
	batches [][]string
	closed  bool
}

func (m *fakeMapper) Map(queries []string) ([]bwa.Result, error) {
	m.batches = append(m.batches, append([]string(nil), queries...))
	out := make([]bwa.Result, len(queries))
	for i, q := range queries {
		r, ok := m.results[q]
		if !ok {
			r = bwa.Result{Query: q, HitCount: 0}
		}
		r.Query = q
		out[i] = r
	}
	return out, nil
}

func (m *fakeMapper) Close() error {
	m.closed = true
	return nil
}

func hit(t *testing.T, chrom string, start int, negative bool, cigar string) bwa.Hit {
	t.Helper()
	c, err := bwa.ParseCigar(cigar)
	require.NoError(t, err)
	return bwa.NewHit(chrom, start, negative, c, 0, false)
}

func makePair(t *testing.T, leftBases, rightBases string) *primer.Pair {
	t.Helper()
	left, err := primer.New(primer.Primer{
		Bases:   leftBases,
		Mapping: genome.MustMapping("chr1", 500, 500+len(leftBases)-1, genome.Plus),
	})
	require.NoError(t, err)
	right, err := primer.New(primer.Primer{
		Bases:   rightBases,
		Mapping: genome.MustMapping("chr1", 700, 700+len(rightBases)-1, genome.Minus),
	})
	require.NoError(t, err)
	pair, err := primer.NewPair(primer.Pair{
		Left:     left,
		Right:    right,
		Amplicon: genome.MustMapping("chr1", 500, 700+len(rightBases)-1, genome.Plus),
	})
	require.NoError(t, err)
	return pair
}

func defaultOpts() Options {
	return Options{
		MaxPrimerHits:     100,
		MaxPrimerPairHits: 1,
		MaxAmpliconSize:   450,
		KeepAmplicons:     true,
	}
}

func TestDetector_SingleAmpliconPasses(t *testing.T) {
	leftBases := "GGCTAGAGTGCAGTGGTGCGATCT"
	rightBases := genome.ReverseComplement("TACCGTGCCTGGCTGATTGCCT")
	pair := makePair(t, leftBases, rightBases)

	mapper := &fakeMapper{results: map[string]bwa.Result{
		leftBases: {HitCount: 1, Hits: []bwa.Hit{
			hit(t, "chr1", 781, false, "24M"),
		}},
		rightBases: {HitCount: 1, Hits: []bwa.Hit{
			hit(t, "chr1", 1021, true, "22M"),
		}},
	}}

	d := NewDetector(defaultOpts(), mapper, nil)
	results, err := d.Check([]*primer.Pair{pair})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Passes)
	require.Len(t, r.Amplicons, 1)
	assert.Equal(t, genome.MustMapping("chr1", 781, 1042, genome.Plus), r.Amplicons[0])
}

func TestDetector_JoinConstraints(t *testing.T) {
	tests := []struct {
		name  string
		left  bwa.Hit
		right bwa.Hit
		want  int
	}{
		{"different chromosome", hit(t, "chr1", 100, false, "20M"), hit(t, "chr2", 300, true, "20M"), 0},
		{"same strand", hit(t, "chr1", 100, false, "20M"), hit(t, "chr1", 300, false, "20M"), 0},
		{"minus before plus", hit(t, "chr1", 300, false, "20M"), hit(t, "chr1", 100, true, "20M"), 0},
		{"too large", hit(t, "chr1", 100, false, "20M"), hit(t, "chr1", 5000, true, "20M"), 0},
		{"roles by strand flag", hit(t, "chr1", 300, true, "20M"), hit(t, "chr1", 100, false, "20M"), 1},
		{"valid", hit(t, "chr1", 100, false, "20M"), hit(t, "chr1", 300, true, "20M"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := makePair(t, strings.Repeat("A", 20), strings.Repeat("C", 20))
			mapper := &fakeMapper{results: map[string]bwa.Result{
				pair.Left.Bases:  {HitCount: 1, Hits: []bwa.Hit{tt.left}},
				pair.Right.Bases: {HitCount: 1, Hits: []bwa.Hit{tt.right}},
			}}
			d := NewDetector(defaultOpts(), mapper, nil)

			results, err := d.Check([]*primer.Pair{pair})
			require.NoError(t, err)
			assert.Len(t, results[0].Amplicons, tt.want)
		})
	}
}

func TestDetector_TooManyPrimerHitsFails(t *testing.T) {
	pair := makePair(t, strings.Repeat("A", 20), strings.Repeat("C", 20))
	mapper := &fakeMapper{results: map[string]bwa.Result{
		pair.Left.Bases:  {HitCount: 5000},
		pair.Right.Bases: {HitCount: 1, Hits: []bwa.Hit{hit(t, "chr1", 300, true, "20M")}},
	}}
	d := NewDetector(defaultOpts(), mapper, nil)

	results, err := d.Check([]*primer.Pair{pair})
	require.NoError(t, err)
	assert.False(t, results[0].Passes)
	assert.Empty(t, results[0].Amplicons)
}

func TestDetector_TooManyAmpliconsFails(t *testing.T) {
	pair := makePair(t, strings.Repeat("A", 20), strings.Repeat("C", 20))
	mapper := &fakeMapper{results: map[string]bwa.Result{
		pair.Left.Bases: {HitCount: 2, Hits: []bwa.Hit{
			hit(t, "chr1", 100, false, "20M"),
			hit(t, "chr1", 150, false, "20M"),
		}},
		pair.Right.Bases: {HitCount: 1, Hits: []bwa.Hit{hit(t, "chr1", 300, true, "20M")}},
	}}
	d := NewDetector(defaultOpts(), mapper, nil)

	results, err := d.Check([]*primer.Pair{pair})
	require.NoError(t, err)
	assert.False(t, results[0].Passes, "two predicted amplicons exceed MaxPrimerPairHits=1")
	assert.Len(t, results[0].Amplicons, 2)
}

func TestDetector_CachesPrimersAndPairs(t *testing.T) {
	pair := makePair(t, strings.Repeat("A", 20), strings.Repeat("C", 20))
	mapper := &fakeMapper{results: map[string]bwa.Result{
		pair.Left.Bases:  {HitCount: 1, Hits: []bwa.Hit{hit(t, "chr1", 100, false, "20M")}},
		pair.Right.Bases: {HitCount: 1, Hits: []bwa.Hit{hit(t, "chr1", 300, true, "20M")}},
	}}
	d := NewDetector(defaultOpts(), mapper, nil)

	first, err := d.Check([]*primer.Pair{pair})
	require.NoError(t, err)
	second, err := d.Check([]*primer.Pair{pair})
	require.NoError(t, err)

	assert.Same(t, first[0], second[0], "pair verdict is cached")
	assert.Len(t, mapper.batches, 1, "second check does not touch the aligner")
}

func TestDetector_BatchesUniqueSequences(t *testing.T) {
	shared := strings.Repeat("A", 20)
	pair1 := makePair(t, shared, strings.Repeat("C", 20))
	pair2 := makePair(t, shared, strings.Repeat("G", 20))

	mapper := &fakeMapper{results: map[string]bwa.Result{}}
	d := NewDetector(defaultOpts(), mapper, nil)

	_, err := d.Check([]*primer.Pair{pair1, pair2})
	require.NoError(t, err)

	require.Len(t, mapper.batches, 1)
	assert.Len(t, mapper.batches[0], 3, "shared left primer aligned once")
}

func TestDetector_KeepPrimerHits(t *testing.T) {
	pair := makePair(t, strings.Repeat("A", 20), strings.Repeat("C", 20))
	mapper := &fakeMapper{results: map[string]bwa.Result{
		pair.Left.Bases:  {HitCount: 1, Hits: []bwa.Hit{hit(t, "chr1", 100, false, "20M")}},
		pair.Right.Bases: {HitCount: 1, Hits: []bwa.Hit{hit(t, "chr1", 300, true, "20M")}},
	}}
	opts := defaultOpts()
	opts.KeepPrimerHits = true
	d := NewDetector(opts, mapper, nil)

	results, err := d.Check([]*primer.Pair{pair})
	require.NoError(t, err)
	require.Len(t, results[0].LeftHits, 1)
	assert.Equal(t, genome.MustMapping("chr1", 100, 119, genome.Plus), results[0].LeftHits[0])
	require.Len(t, results[0].RightHits, 1)
	assert.Equal(t, genome.MustMapping("chr1", 300, 319, genome.Minus), results[0].RightHits[0])
}

func TestDetector_Close(t *testing.T) {
	mapper := &fakeMapper{}
	d := NewDetector(defaultOpts(), mapper, nil)
	require.NoError(t, d.Close())
	assert.True(t, mapper.closed)
}
