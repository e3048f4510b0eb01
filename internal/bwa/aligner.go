package bwa

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
)

// Error reports a protocol failure talking to the aligner: an out-of-order
// record, a record that could not be parsed, or an impossible
// unmapped/hit-count combination.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "aligner: " + e.Message
}

// Options configure the aligner child process and the wrapper's hit
// handling.
type Options struct {
	Executable        string
	Index             string
	MaxMismatches     int // max differences across the whole query
	MaxSeedMismatches int // max differences within the seed
	SeedLength        int
	MaxGapOpens       int
	MaxGapExtends     int
	MaxHits           int // hits above this count are reported but not enumerated
	Threads           int
	ReverseComplement bool // submit queries reverse-complemented
	IncludeAltHits    bool // keep hits to contigs named *_alt
}

// DefaultOptions returns the stock configuration for primer specificity
// checks.
func DefaultOptions(executable, index string) Options {
	return Options{
		Executable:        executable,
		Index:             index,
		MaxMismatches:     3,
		MaxSeedMismatches: 3,
		SeedLength:        20,
		MaxGapOpens:       0,
		MaxGapExtends:     -1,
		MaxHits:           250,
		Threads:           1,
	}
}

// Aligner owns one long-running interactive aligner process. All access is
// serialized by the caller; Map blocks until every submitted query has been
// read back.
type Aligner struct {
	opts    Options
	cmd     *exec.Cmd
	stdin   io.Closer
	in      *bufio.Writer
	out     *bufio.Reader
	header  []string
	logger  *zap.Logger
	nextID  int
	closed  bool
}

// NewAligner starts the aligner and consumes its SAM header, through the
// first @PG line.
func NewAligner(opts Options, logger *zap.Logger) (*Aligner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	args := []string{
		"aln",
		"-N", // non-iterative search: find all hits with <= n differences
		"-S", // SAM output with a single primary alignment per query
		"-Z", // interactive mode: no input buffering, empty lines flush
		"-n", strconv.Itoa(opts.MaxMismatches),
		"-k", strconv.Itoa(opts.MaxSeedMismatches),
		"-l", strconv.Itoa(opts.SeedLength),
		"-o", strconv.Itoa(opts.MaxGapOpens),
		"-e", strconv.Itoa(opts.MaxGapExtends),
		"-X", strconv.Itoa(opts.MaxHits),
		"-t", strconv.Itoa(opts.Threads),
		opts.Index,
		"/dev/stdin",
	}

	cmd := exec.Command(opts.Executable, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("aligner stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("aligner stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("start aligner %s: %w", opts.Executable, err)
	}

	logger.Info("started aligner",
		zap.String("executable", opts.Executable),
		zap.String("index", opts.Index),
		zap.Int("pid", cmd.Process.Pid))

	a := &Aligner{
		opts:   opts,
		cmd:    cmd,
		stdin:  stdin,
		in:     bufio.NewWriter(stdin),
		out:    bufio.NewReader(stdout),
		logger: logger,
	}
	if err := a.readHeader(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newAlignerFromStreams wires a wrapper to arbitrary streams and consumes
// the header. For tests.
func newAlignerFromStreams(opts Options, in io.Writer, out io.Reader, logger *zap.Logger) (*Aligner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aligner{
		opts:   opts,
		in:     bufio.NewWriter(in),
		out:    bufio.NewReader(out),
		logger: logger,
	}
	if err := a.readHeader(); err != nil {
		return nil, err
	}
	return a, nil
}

// readHeader consumes SAM header lines until and including the first @PG
// line. No alignment record may be read before the header is consumed.
func (a *Aligner) readHeader() error {
	for {
		line, err := a.out.ReadString('\n')
		if err != nil {
			return &Error{Message: fmt.Sprintf("reading header: %v", err)}
		}
		line = strings.TrimRight(line, "\r\n")
		if !strings.HasPrefix(line, "@") {
			return &Error{Message: fmt.Sprintf("unexpected non-header line before @PG: %q", line)}
		}
		a.header = append(a.header, line)
		if strings.HasPrefix(line, "@PG") {
			return nil
		}
	}
}

// Header returns the consumed SAM header lines.
func (a *Aligner) Header() []string {
	return a.header
}

// Map aligns the queries and returns one result per query, in submission
// order.
func (a *Aligner) Map(queries []string) ([]Result, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	ids := make([]string, len(queries))
	for i, query := range queries {
		ids[i] = strconv.Itoa(a.nextID)
		a.nextID++
		bases := query
		if a.opts.ReverseComplement {
			bases = genome.ReverseComplement(query)
		}
		if _, err := fmt.Fprintf(a.in, "@%s\n%s\n+\n%s\n", ids[i], bases, strings.Repeat("H", len(bases))); err != nil {
			return nil, fmt.Errorf("write query: %w", err)
		}
	}
	if err := a.in.Flush(); err != nil {
		return nil, fmt.Errorf("flush queries: %w", err)
	}

	// Empty lines force the child to process pending records; three pairs
	// with interleaved flushes push every record through its pipeline.
	for i := 0; i < 3; i++ {
		if _, err := a.in.WriteString("\n\n"); err != nil {
			return nil, fmt.Errorf("write flush lines: %w", err)
		}
		if err := a.in.Flush(); err != nil {
			return nil, fmt.Errorf("flush: %w", err)
		}
	}

	results := make([]Result, len(queries))
	for i, query := range queries {
		record, err := a.readRecord()
		if err != nil {
			return nil, err
		}
		if record.Name != ids[i] {
			return nil, &Error{Message: fmt.Sprintf("out-of-order record: read %q, expected %q", record.Name, ids[i])}
		}
		result, err := a.buildResult(query, record)
		if err != nil {
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}

func (a *Aligner) readRecord() (*samRecord, error) {
	line, err := a.out.ReadString('\n')
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("reading record: %v", err)}
	}
	line = strings.TrimRight(line, "\r\n")
	record, err := parseSAMRecord(line)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	return record, nil
}

// buildResult converts one SAM record into a Result per the hit-count
// semantics: unmapped queries have zero hits; queries whose total hit count
// exceeds MaxHits report the count with no hits enumerated; otherwise the
// primary alignment plus any XA secondaries form the hit set.
func (a *Aligner) buildResult(query string, record *samRecord) (Result, error) {
	if record.Unmapped() {
		return Result{Query: query, HitCount: 0}, nil
	}

	hitCount, ok, err := record.IntAttr("HN")
	if err != nil {
		return Result{}, &Error{Message: err.Error()}
	}
	if !ok {
		// A mapped record must carry its total hit count.
		return Result{}, &Error{Message: fmt.Sprintf("mapped record %q missing HN attribute", record.Name)}
	}
	if hitCount > a.opts.MaxHits {
		return Result{Query: query, HitCount: hitCount}, nil
	}

	edits, ok, err := record.IntAttr("NM")
	if err != nil {
		return Result{}, &Error{Message: err.Error()}
	}
	if !ok {
		return Result{}, &Error{Message: fmt.Sprintf("mapped record %q missing NM attribute", record.Name)}
	}
	cigar, err := ParseCigar(record.Cigar)
	if err != nil {
		return Result{}, &Error{Message: err.Error()}
	}

	hits := []Hit{NewHit(record.RefName, record.Pos, record.ReverseStrand(), cigar, edits, a.opts.ReverseComplement)}
	if xa, ok := record.StrAttr("XA"); ok {
		secondary, err := parseXA(xa, a.opts.ReverseComplement)
		if err != nil {
			return Result{}, &Error{Message: err.Error()}
		}
		hits = append(hits, secondary...)
	}

	if !a.opts.IncludeAltHits {
		kept := hits[:0]
		for _, h := range hits {
			if !strings.HasSuffix(h.Chrom, "_alt") {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	if len(hits) == 0 {
		return Result{Query: query, HitCount: hitCount}, nil
	}
	return Result{Query: query, HitCount: len(hits), Hits: hits}, nil
}

// Close terminates the child and releases both streams. Idempotent.
func (a *Aligner) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	if a.stdin != nil {
		if err := a.stdin.Close(); err != nil {
			firstErr = err
		}
	}
	if a.cmd != nil && a.cmd.Process != nil {
		a.cmd.Process.Kill()
		a.cmd.Wait()
	}
	return firstErr
}

