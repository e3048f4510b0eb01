package genome

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sequences provides read access to reference bases. Coordinates are
// 1-based closed. Fetch preserves the case of the stored sequence; callers
// interpret lower-case as soft-masked.
type Sequences interface {
	Fetch(refName string, start, end int) (string, error)
	Length(refName string) (int, error)
	Dict() *Dict
}

// FastaSequences is an in-memory Sequences implementation loaded from a
// FASTA file (plain or gzipped).
type FastaSequences struct {
	names     []string
	sequences map[string]string
}

// LoadFasta reads a FASTA file into memory.
func LoadFasta(path string) (*FastaSequences, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return ReadFasta(reader)
}

// ReadFasta parses FASTA content from a reader.
func ReadFasta(reader io.Reader) (*FastaSequences, error) {
	s := &FastaSequences{sequences: make(map[string]string)}

	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long sequence lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var currentName string
	var currentSeq strings.Builder

	flush := func() {
		if currentName != "" {
			s.names = append(s.names, currentName)
			s.sequences[currentName] = currentSeq.String()
		}
		currentSeq.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			header := strings.TrimPrefix(line, ">")
			if idx := strings.IndexAny(header, " \t"); idx != -1 {
				header = header[:idx]
			}
			currentName = header
		} else {
			currentSeq.WriteString(strings.TrimSpace(line))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan FASTA: %w", err)
	}
	if len(s.names) == 0 {
		return nil, fmt.Errorf("no sequences found in FASTA input")
	}
	return s, nil
}

// Fetch returns the bases of refName over [start, end], case preserved.
func (s *FastaSequences) Fetch(refName string, start, end int) (string, error) {
	seq, ok := s.sequences[refName]
	if !ok {
		return "", fmt.Errorf("reference %q not found", refName)
	}
	if start < 1 || end > len(seq) || end < start-1 {
		return "", fmt.Errorf("range %d-%d outside reference %q of length %d", start, end, refName, len(seq))
	}
	return seq[start-1 : end], nil
}

// FetchMapping returns the bases covered by m in m's own 5'->3' orientation:
// reverse-complemented when m is on the minus strand.
func (s *FastaSequences) FetchMapping(m Mapping) (string, error) {
	bases, err := s.Fetch(m.RefName, m.Start, m.End)
	if err != nil {
		return "", err
	}
	if m.Strand == Minus {
		bases = ReverseComplement(bases)
	}
	return bases, nil
}

// Length returns the length of refName in bases.
func (s *FastaSequences) Length(refName string) (int, error) {
	seq, ok := s.sequences[refName]
	if !ok {
		return 0, fmt.Errorf("reference %q not found", refName)
	}
	return len(seq), nil
}

// Dict returns a sequence dictionary over the loaded references, in file
// order.
func (s *FastaSequences) Dict() *Dict {
	lengths := make(map[string]int, len(s.names))
	for _, name := range s.names {
		lengths[name] = len(s.sequences[name])
	}
	return NewDict(s.names, lengths)
}
