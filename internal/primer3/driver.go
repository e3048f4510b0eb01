package primer3

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
	"github.com/fulcrumgenomics/fgprimer/internal/primer"
)

// Error is returned when primer3 wrote non-tag lines, closed its stream
// prematurely, or reported PRIMER_ERROR.
type Error struct {
	Message     string
	ErrorLines  []string
	PickerError string // the PRIMER_ERROR payload, when present
}

func (e *Error) Error() string {
	msg := "primer3: " + e.Message
	if e.PickerError != "" {
		msg += ": " + e.PickerError
	}
	if len(e.ErrorLines) > 0 {
		msg += "\n" + strings.Join(e.ErrorLines, "\n")
	}
	return msg
}

// Request is one design request against an already-computed design region.
// Sequence is the template as retrieved from the reference (case preserved);
// MaskedSequence is the same bases with common-variant positions replaced by
// N, and is what primer3 sees as SEQUENCE_TEMPLATE.
type Request struct {
	Task           Task
	Target         genome.Mapping
	Region         genome.Mapping
	Sequence       string
	MaskedSequence string
	Params         *Params
	Weights        *Weights
}

// Driver owns one long-running primer3_core child process and serializes
// design requests against it.
type Driver struct {
	cmd     *exec.Cmd
	stdin   io.Closer
	in      *bufio.Writer
	out     *bufio.Reader
	readEnd io.Closer
	logger  *zap.Logger
	closed  bool
}

// globalTags persist across every design request in the session.
var globalTags = map[string]string{
	"PRIMER_FIRST_BASE_INDEX": "1",
	"PRIMER_EXPLAIN_FLAG":     "1",
}

// NewDriver launches executable with -strict_tags and stderr merged into
// stdout.
func NewDriver(executable string, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := exec.Command(executable, "-strict_tags")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("primer3 stdin pipe: %w", err)
	}

	// A single pipe carries both stdout and stderr so error text interleaves
	// with the tag stream in emission order.
	readEnd, writeEnd, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("primer3 output pipe: %w", err)
	}
	cmd.Stdout = writeEnd
	cmd.Stderr = writeEnd

	if err := cmd.Start(); err != nil {
		stdin.Close()
		readEnd.Close()
		writeEnd.Close()
		return nil, fmt.Errorf("start primer3 %s: %w", executable, err)
	}
	writeEnd.Close()

	logger.Info("started primer3", zap.String("executable", executable), zap.Int("pid", cmd.Process.Pid))

	return &Driver{
		cmd:     cmd,
		stdin:   stdin,
		in:      bufio.NewWriter(stdin),
		out:     bufio.NewReader(readEnd),
		readEnd: readEnd,
		logger:  logger,
	}, nil
}

// newDriverFromStreams wires a driver to arbitrary streams. For tests.
func newDriverFromStreams(in io.Writer, out io.Reader, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		in:     bufio.NewWriter(in),
		out:    bufio.NewReader(out),
		logger: logger,
	}
}

// Close terminates the child and releases its streams. Idempotent.
func (d *Driver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var firstErr error
	if d.stdin != nil {
		if err := d.stdin.Close(); err != nil {
			firstErr = err
		}
	}
	if d.readEnd != nil {
		if err := d.readEnd.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Kill()
		d.cmd.Wait()
	}
	return firstErr
}

// assembleTags merges the request into a single tag map. Later sources win:
// globals, task tags, params, weights, then the template itself.
func assembleTags(req Request) map[string]string {
	tags := make(map[string]string)
	for k, v := range globalTags {
		tags[k] = v
	}
	for k, v := range req.Task.Tags(req.Target, req.Region) {
		tags[k] = v
	}
	if req.Params != nil {
		for k, v := range req.Params.ToTags() {
			tags[k] = v
		}
	}
	if req.Weights != nil {
		for k, v := range req.Weights.ToTags() {
			tags[k] = v
		}
	}
	tags["SEQUENCE_TEMPLATE"] = req.MaskedSequence
	return tags
}

// roundTrip writes one tag record and reads the response record. Only
// response keys (keys that are not input tags) are retained in the result;
// non-tag lines are accumulated as error text.
func (d *Driver) roundTrip(tags map[string]string) (map[string]string, error) {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(d.in, "%s=%s\n", k, tags[k]); err != nil {
			return nil, fmt.Errorf("write primer3 request: %w", err)
		}
	}
	if _, err := d.in.WriteString("=\n"); err != nil {
		return nil, fmt.Errorf("write primer3 request terminator: %w", err)
	}
	if err := d.in.Flush(); err != nil {
		return nil, fmt.Errorf("flush primer3 request: %w", err)
	}

	output := make(map[string]string)
	var errorLines []string
	for {
		line, err := d.out.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, &Error{Message: "stream closed before response terminator", ErrorLines: errorLines}
			}
			return nil, fmt.Errorf("read primer3 response: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "=" {
			break
		}
		if line == "" {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			errorLines = append(errorLines, line)
			continue
		}
		key, value := line[:eq], line[eq+1:]
		if isInputTag(key) {
			continue // echo of the request, not a result
		}
		output[key] = value
	}

	if len(errorLines) > 0 {
		return nil, &Error{
			Message:     "error output from primer3",
			ErrorLines:  errorLines,
			PickerError: output["PRIMER_ERROR"],
		}
	}
	if pickerErr, ok := output["PRIMER_ERROR"]; ok {
		return nil, &Error{Message: "design failed", PickerError: pickerErr}
	}
	return output, nil
}

// DesignPrimerPairs runs a pair design and returns the surviving pairs plus
// the failure breakdown.
func (d *Driver) DesignPrimerPairs(req Request) ([]*primer.Pair, []FailureCount, error) {
	req.Task = PairTask{}
	output, err := d.roundTrip(assembleTags(req))
	if err != nil {
		return nil, nil, err
	}

	count, err := resultCount(output, req.Task.CountTag())
	if err != nil {
		return nil, nil, err
	}

	pairs := make([]*primer.Pair, 0, count)
	for i := 0; i < count; i++ {
		p, err := d.parsePair(output, i, req)
		if err != nil {
			return nil, nil, err
		}
		pairs = append(pairs, p)
	}

	maxDinuc := maxDinucBases(req.Params)
	kept := pairs[:0]
	dropped := make(map[string]struct{})
	for _, p := range pairs {
		leftOk := genome.LongestDinucRun(p.Left.Bases) <= maxDinuc
		rightOk := genome.LongestDinucRun(p.Right.Bases) <= maxDinuc
		if leftOk && rightOk {
			kept = append(kept, p)
			continue
		}
		if !leftOk {
			dropped[p.Left.Bases] = struct{}{}
		}
		if !rightOk {
			dropped[p.Right.Bases] = struct{}{}
		}
	}

	failures := ParseFailures(explains(output), len(dropped), d.logger)
	return kept, failures, nil
}

// DesignLeftPrimers runs a left primer-list design.
func (d *Driver) DesignLeftPrimers(req Request) ([]*primer.Primer, []FailureCount, error) {
	return d.designPrimerList(req, LeftTask{}, Left)
}

// DesignRightPrimers runs a right primer-list design.
func (d *Driver) DesignRightPrimers(req Request) ([]*primer.Primer, []FailureCount, error) {
	return d.designPrimerList(req, RightTask{}, Right)
}

func (d *Driver) designPrimerList(req Request, task Task, side Side) ([]*primer.Primer, []FailureCount, error) {
	req.Task = task
	output, err := d.roundTrip(assembleTags(req))
	if err != nil {
		return nil, nil, err
	}

	count, err := resultCount(output, task.CountTag())
	if err != nil {
		return nil, nil, err
	}

	primers := make([]*primer.Primer, 0, count)
	for i := 0; i < count; i++ {
		p, err := d.parsePrimer(output, side, i, req)
		if err != nil {
			return nil, nil, err
		}
		primers = append(primers, p)
	}

	maxDinuc := maxDinucBases(req.Params)
	kept := primers[:0]
	dropped := make(map[string]struct{})
	for _, p := range primers {
		if genome.LongestDinucRun(p.Bases) <= maxDinuc {
			kept = append(kept, p)
		} else {
			dropped[p.Bases] = struct{}{}
		}
	}

	failures := ParseFailures(explains(output), len(dropped), d.logger)
	return kept, failures, nil
}

func maxDinucBases(p *Params) int {
	if p == nil {
		return DefaultParams().PrimerMaxDinucBases
	}
	return p.PrimerMaxDinucBases
}

// explains collects whichever explanation tags the response carries.
func explains(output map[string]string) []string {
	var out []string
	for _, tag := range []string{"PRIMER_LEFT_EXPLAIN", "PRIMER_RIGHT_EXPLAIN", "PRIMER_PAIR_EXPLAIN"} {
		if s, ok := output[tag]; ok {
			out = append(out, s)
		}
	}
	return out
}

func resultCount(output map[string]string, countTag string) (int, error) {
	raw, ok := output[countTag]
	if !ok {
		return 0, &Error{Message: fmt.Sprintf("response missing %s", countTag)}
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Message: fmt.Sprintf("malformed %s value %q", countTag, raw)}
	}
	return count, nil
}

// parsePrimer builds one primer from the response. PRIMER_<side>_<i> is
// "pos,len" in region-relative 1-based coordinates; for RIGHT primers pos is
// the 3'-most base and the span extends backwards.
func (d *Driver) parsePrimer(output map[string]string, side Side, i int, req Request) (*primer.Primer, error) {
	posTag := fmt.Sprintf("PRIMER_%s_%d", side, i)
	raw, ok := output[posTag]
	if !ok {
		return nil, &Error{Message: fmt.Sprintf("response missing %s", posTag)}
	}
	pos, length, err := parsePosLen(raw)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("malformed %s value %q", posTag, raw)}
	}

	var mapping genome.Mapping
	switch side {
	case Left:
		mapping, err = req.Region.Resolve(pos, length, genome.Plus)
	case Right:
		mapping, err = req.Region.Resolve(pos-length+1, length, genome.Minus)
	}
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("%s outside design region: %v", posTag, err)}
	}

	// Bases come from the un-masked template, in the primer's own 5'->3'
	// orientation.
	relStart := mapping.Start - req.Region.Start
	bases := req.Sequence[relStart : relStart+length]
	if mapping.Strand == genome.Minus {
		bases = genome.ReverseComplement(bases)
	}

	tm, err := floatTag(output, fmt.Sprintf("PRIMER_%s_%d_TM", side, i))
	if err != nil {
		return nil, err
	}
	penalty, err := floatTag(output, fmt.Sprintf("PRIMER_%s_%d_PENALTY", side, i))
	if err != nil {
		return nil, err
	}

	return primer.New(primer.Primer{Bases: bases, Tm: tm, Penalty: penalty, Mapping: mapping})
}

// parsePair builds one primer pair from the response.
func (d *Driver) parsePair(output map[string]string, i int, req Request) (*primer.Pair, error) {
	left, err := d.parsePrimer(output, Left, i, req)
	if err != nil {
		return nil, err
	}
	right, err := d.parsePrimer(output, Right, i, req)
	if err != nil {
		return nil, err
	}

	amplicon := genome.Mapping{
		RefName: req.Region.RefName,
		Start:   left.Mapping.Start,
		End:     right.Mapping.End,
		Strand:  genome.Plus,
	}
	relStart := amplicon.Start - req.Region.Start
	ampliconSeq := req.Sequence[relStart : relStart+amplicon.Length()]

	tm, err := floatTag(output, fmt.Sprintf("PRIMER_PAIR_%d_PRODUCT_TM", i))
	if err != nil {
		return nil, err
	}
	penalty, err := floatTag(output, fmt.Sprintf("PRIMER_PAIR_%d_PENALTY", i))
	if err != nil {
		return nil, err
	}

	return primer.NewPair(primer.Pair{
		Left:             left,
		Right:            right,
		Amplicon:         amplicon,
		AmpliconSequence: ampliconSeq,
		Tm:               tm,
		Penalty:          penalty,
	})
}

func parsePosLen(raw string) (pos, length int, err error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected pos,len")
	}
	pos, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	length, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return pos, length, nil
}

func floatTag(output map[string]string, tag string) (float64, error) {
	raw, ok := output[tag]
	if !ok {
		return 0, &Error{Message: fmt.Sprintf("response missing %s", tag)}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &Error{Message: fmt.Sprintf("malformed %s value %q", tag, raw)}
	}
	return f, nil
}
