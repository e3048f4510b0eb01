// Package ntthal invokes the ntthal duplex melting-temperature executable
// on demand and caches results per unordered sequence pair.
package ntthal

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TimeoutError is returned when one ntthal invocation exceeds its deadline.
type TimeoutError struct {
	S1, S2  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("ntthal timed out after %s for %s/%s", e.Timeout, e.S1, e.S2)
}

// Options configure the ntthal invocation.
type Options struct {
	Executable           string
	MonovalentMillimolar float64 // monovalent cation concentration
	DivalentMillimolar   float64 // divalent cation concentration
	DntpMillimolar       float64 // dNTP concentration
	DnaNanomolar         float64 // annealing oligo concentration
	Temperature          float64 // simulation temperature in Celsius
	Timeout              time.Duration
	NoCache              bool
}

// DefaultOptions returns PCR-typical conditions.
func DefaultOptions(executable string) Options {
	return Options{
		Executable:           executable,
		MonovalentMillimolar: 50,
		DivalentMillimolar:   1.5,
		DntpMillimolar:       0.6,
		DnaNanomolar:         250,
		Temperature:          37,
		Timeout:              5 * time.Second,
	}
}

// pairKey is the canonicalized (lexicographically ordered) sequence pair.
type pairKey struct {
	a, b string
}

func canonical(s1, s2 string) pairKey {
	if s1 <= s2 {
		return pairKey{a: s1, b: s2}
	}
	return pairKey{a: s2, b: s1}
}

// runner executes one duplex-Tm calculation and returns the raw first
// output. Swappable for tests.
type runner func(s1, s2 string) (string, error)

// Checker computes duplex Tms with caching and counts primer dimers.
type Checker struct {
	opts   Options
	cache  map[pairKey]float64
	run    runner
	logger *zap.Logger
}

// NewChecker builds a checker around the configured executable.
func NewChecker(opts Options, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Checker{opts: opts, logger: logger}
	if !opts.NoCache {
		c.cache = make(map[pairKey]float64)
	}
	c.run = c.invoke
	return c
}

// invoke runs one ntthal subprocess under the configured timeout.
func (c *Checker) invoke(s1, s2 string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.opts.Executable,
		"-r", // report the Tm only
		"-mv", formatConc(c.opts.MonovalentMillimolar),
		"-dv", formatConc(c.opts.DivalentMillimolar),
		"-n", formatConc(c.opts.DntpMillimolar),
		"-d", formatConc(c.opts.DnaNanomolar),
		"-t", formatConc(c.opts.Temperature),
		"-s1", s1,
		"-s2", s2,
	)

	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", &TimeoutError{S1: s1, S2: s2, Timeout: c.opts.Timeout}
	}
	if err != nil {
		return "", fmt.Errorf("run ntthal: %w", err)
	}
	return string(out), nil
}

// Tm returns the duplex melting temperature of the two sequences. The pair
// is canonicalized by lexicographic order both for the cache key and for the
// invocation, so identical unordered pairs always hit the same entry.
func (c *Checker) Tm(s1, s2 string) (float64, error) {
	key := canonical(s1, s2)
	if c.cache != nil {
		if tm, ok := c.cache[key]; ok {
			return tm, nil
		}
	}

	c.logger.Debug("duplex tm cache miss", zap.String("s1", key.a), zap.String("s2", key.b))
	out, err := c.run(key.a, key.b)
	if err != nil {
		return 0, err
	}
	tm, err := parseTm(out)
	if err != nil {
		return 0, err
	}

	if c.cache != nil {
		c.cache[key] = tm
	}
	return tm, nil
}

// CountDimers returns the number of targets whose duplex Tm with query is
// at least minTm.
func (c *Checker) CountDimers(query string, targets []string, minTm float64) (int, error) {
	count := 0
	for _, target := range targets {
		tm, err := c.Tm(query, target)
		if err != nil {
			return 0, err
		}
		if tm >= minTm {
			count++
		}
	}
	return count, nil
}

// parseTm extracts the Tm as the first token of the first output line.
func parseTm(out string) (float64, error) {
	line := out
	if idx := strings.IndexByte(line, '\n'); idx != -1 {
		line = line[:idx]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty ntthal output")
	}
	tm, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed ntthal output %q: %w", line, err)
	}
	return tm, nil
}

func formatConc(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
