package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
	"github.com/fulcrumgenomics/fgprimer/internal/primer"
)

func TestBedWriter_WritePrimer(t *testing.T) {
	p, err := primer.New(primer.Primer{
		Bases:   strings.Repeat("A", 20),
		Mapping: genome.MustMapping("chr1", 101, 120, genome.Plus),
		Name:    "fwd1",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	bw := NewBedWriter(&buf)
	require.NoError(t, bw.WriteHeader("primers"))
	require.NoError(t, bw.WritePrimer(p))
	require.NoError(t, bw.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `track name="primers" itemRgb="On"`, lines[0])

	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 12, "BED12 records always have 12 tab-separated fields")
	assert.Equal(t, "chr1", fields[0])
	assert.Equal(t, "100", fields[1], "starts convert to 0-based")
	assert.Equal(t, "120", fields[2], "ends convert to half-open")
	assert.Equal(t, "fwd1", fields[3])
	assert.Equal(t, "+", fields[5])
	assert.Equal(t, "1", fields[9])
	assert.Equal(t, "20", fields[10])
	assert.Equal(t, "0", fields[11])
}

func TestBedWriter_WritePair(t *testing.T) {
	left, err := primer.New(primer.Primer{
		Bases:   strings.Repeat("A", 20),
		Mapping: genome.MustMapping("chr1", 101, 120, genome.Plus),
	})
	require.NoError(t, err)
	right, err := primer.New(primer.Primer{
		Bases:   strings.Repeat("T", 22),
		Mapping: genome.MustMapping("chr1", 279, 300, genome.Minus),
	})
	require.NoError(t, err)
	pair, err := primer.NewPair(primer.Pair{
		Left:     left,
		Right:    right,
		Amplicon: genome.MustMapping("chr1", 101, 300, genome.Plus),
		Name:     "pair1",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	bw := NewBedWriter(&buf)
	require.NoError(t, bw.WritePair(pair))
	require.NoError(t, bw.Flush())

	fields := strings.Split(strings.TrimRight(buf.String(), "\n"), "\t")
	require.Len(t, fields, 12)
	assert.Equal(t, "100", fields[1])
	assert.Equal(t, "300", fields[2])
	assert.Equal(t, "pair1", fields[3])
	assert.Equal(t, "2", fields[9], "one block per primer")
	assert.Equal(t, "20,22", fields[10])
	assert.Equal(t, "0,178", fields[11])
}
