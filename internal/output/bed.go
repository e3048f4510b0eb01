// Package output serializes designed primers and primer pairs as BED
// tracks. Coordinates convert from the pipeline's 1-based closed intervals
// to BED's 0-based half-open form at this boundary only.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
	"github.com/fulcrumgenomics/fgprimer/internal/primer"
)

const (
	pairRGB   = "0,0,255"
	primerRGB = "255,0,0"
)

// BedWriter writes 12-column BED records for primers and primer pairs.
type BedWriter struct {
	w *bufio.Writer
}

// NewBedWriter creates a BED writer.
func NewBedWriter(w io.Writer) *BedWriter {
	return &BedWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes a track line naming the BED track.
func (bw *BedWriter) WriteHeader(name string) error {
	_, err := fmt.Fprintf(bw.w, "track name=%q itemRgb=\"On\"\n", name)
	return err
}

// WritePrimer writes one primer as a single-block BED12 record.
func (bw *BedWriter) WritePrimer(p *primer.Primer) error {
	m := p.Mapping
	fields := bed12(m, p.DisplayName(), primerRGB,
		[]int{m.Length()}, []int{0})
	return bw.writeFields(fields)
}

// WritePair writes one primer pair as a two-block BED12 record spanning the
// amplicon, with one block per primer.
func (bw *BedWriter) WritePair(p *primer.Pair) error {
	blockSizes := []int{p.Left.Mapping.Length(), p.Right.Mapping.Length()}
	blockStarts := []int{0, p.Right.Mapping.Start - p.Amplicon.Start}
	fields := bed12(p.Amplicon, p.DisplayName(), pairRGB, blockSizes, blockStarts)
	return bw.writeFields(fields)
}

// bed12 renders the 12 BED columns for a mapping and its blocks.
func bed12(m genome.Mapping, name, rgb string, blockSizes, blockStarts []int) []string {
	return []string{
		m.RefName,
		strconv.Itoa(m.Start - 1), // 0-based start
		strconv.Itoa(m.End),       // half-open end
		name,
		"500",
		m.Strand.String(),
		strconv.Itoa(m.Start - 1),
		strconv.Itoa(m.End),
		rgb,
		strconv.Itoa(len(blockSizes)),
		joinInts(blockSizes),
		joinInts(blockStarts),
	}
}

func (bw *BedWriter) writeFields(fields []string) error {
	_, err := bw.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// Flush flushes buffered records to the underlying writer.
func (bw *BedWriter) Flush() error {
	return bw.w.Flush()
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
