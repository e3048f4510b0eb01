package primer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
)

func TestNew_Validation(t *testing.T) {
	mapping := genome.MustMapping("chr1", 100, 119, genome.Plus)

	p, err := New(Primer{Bases: strings.Repeat("A", 20), Tm: 60, Penalty: 1, Mapping: mapping})
	require.NoError(t, err)
	assert.Equal(t, 20, p.Length())

	// Empty bases are permitted
	_, err = New(Primer{Mapping: mapping})
	assert.NoError(t, err)

	// Bases/mapping length mismatch
	_, err = New(Primer{Bases: "ACGT", Mapping: mapping})
	var invalid *InvalidPrimerError
	require.ErrorAs(t, err, &invalid)

	// Name and prefix are mutually exclusive
	_, err = New(Primer{Mapping: mapping, Name: "p1", NamePrefix: "pre"})
	require.ErrorAs(t, err, &invalid)
}

func TestPrimer_GC(t *testing.T) {
	p, err := New(Primer{Bases: "GGCC", Mapping: genome.MustMapping("chr1", 1, 4, genome.Plus)})
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.GC())
}

func TestPrimer_DisplayName(t *testing.T) {
	mapping := genome.MustMapping("chr1", 10, 13, genome.Plus)

	p, err := New(Primer{Bases: "ACGT", Mapping: mapping, Name: "fwd1"})
	require.NoError(t, err)
	assert.Equal(t, "fwd1", p.DisplayName())

	p, err = New(Primer{Bases: "ACGT", Mapping: mapping, NamePrefix: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "t1_chr1:10-13:+", p.DisplayName())

	p, err = New(Primer{Bases: "ACGT", Mapping: mapping})
	require.NoError(t, err)
	assert.Equal(t, "chr1:10-13:+", p.DisplayName())
}

func TestPrimer_SequenceWithTail(t *testing.T) {
	p, err := New(Primer{Bases: "ACGT", Tail: "GGG", Mapping: genome.MustMapping("chr1", 1, 4, genome.Plus)})
	require.NoError(t, err)
	assert.Equal(t, "GGGACGT", p.SequenceWithTail())
}

func TestPrimer_String(t *testing.T) {
	p, err := New(Primer{Bases: "ACGT", Tm: 60.125, Penalty: 0.5, Mapping: genome.MustMapping("chr1", 1, 4, genome.Minus)})
	require.NoError(t, err)
	assert.Equal(t, "ACGT\t60.12\t0.50\tchr1:1-4:-", p.String())

	fields := strings.Split(p.String(), "\t")
	assert.Len(t, fields, 4)
}

func TestPrimer_CompactRoundTrip(t *testing.T) {
	p, err := New(Primer{Bases: "ACGTACGTACGTACGTACGT", Tm: 61.25, Penalty: 1.75, Mapping: genome.MustMapping("chr2", 9000, 9019, genome.Minus)})
	require.NoError(t, err)

	parsed, err := Parse(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.Bases, parsed.Bases)
	assert.Equal(t, p.Tm, parsed.Tm)
	assert.Equal(t, p.Penalty, parsed.Penalty)
	assert.Equal(t, p.Mapping, parsed.Mapping)

	// Reserializing is format-stable.
	assert.Equal(t, p.String(), parsed.String())

	for _, bad := range []string{"", "ACGT\t60", "ACGT\tx\t1\tchr1:1-4:+", "ACGT\t60\t1\tchr1:1-4:?"} {
		_, err := Parse(bad)
		assert.Error(t, err, "Parse(%q)", bad)
	}
}
