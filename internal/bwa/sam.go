package bwa

import (
	"fmt"
	"strconv"
	"strings"
)

// samFlag bits consumed by the wrapper.
const (
	flagUnmapped = 0x4
	flagReverse  = 0x10
)

// samRecord is the subset of a SAM alignment line the wrapper consumes.
type samRecord struct {
	Name    string
	Flag    int
	RefName string
	Pos     int
	Cigar   string
	attrs   map[string]string
}

// parseSAMRecord parses one SAM alignment line.
func parseSAMRecord(line string) (*samRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 11 {
		return nil, fmt.Errorf("sam record has %d fields, expected at least 11: %q", len(fields), line)
	}

	flag, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("sam record flag %q: %w", fields[1], err)
	}
	pos, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("sam record pos %q: %w", fields[3], err)
	}

	r := &samRecord{
		Name:    fields[0],
		Flag:    flag,
		RefName: fields[2],
		Pos:     pos,
		Cigar:   fields[5],
		attrs:   make(map[string]string),
	}

	// Optional attributes: TAG:TYPE:VALUE
	for _, field := range fields[11:] {
		parts := strings.SplitN(field, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed sam attribute %q", field)
		}
		r.attrs[parts[0]] = parts[2]
	}

	return r, nil
}

func (r *samRecord) Unmapped() bool {
	return r.Flag&flagUnmapped != 0
}

func (r *samRecord) ReverseStrand() bool {
	return r.Flag&flagReverse != 0
}

// IntAttr returns an integer attribute such as HN or NM.
func (r *samRecord) IntAttr(tag string) (int, bool, error) {
	raw, ok := r.attrs[tag]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("sam attribute %s=%q is not an integer", tag, raw)
	}
	return n, true, nil
}

// StrAttr returns a string attribute such as XA.
func (r *samRecord) StrAttr(tag string) (string, bool) {
	raw, ok := r.attrs[tag]
	return raw, ok
}

// parseXA expands the XA secondary-alignment string: semicolon-separated
// entries of "chrom,±start,cigar,edits".
func parseXA(xa string, rc bool) ([]Hit, error) {
	var hits []Hit
	for _, entry := range strings.Split(xa, ";") {
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("malformed XA entry %q", entry)
		}
		signedStart := parts[1]
		if len(signedStart) < 2 || (signedStart[0] != '+' && signedStart[0] != '-') {
			return nil, fmt.Errorf("malformed XA start %q", signedStart)
		}
		start, err := strconv.Atoi(signedStart[1:])
		if err != nil {
			return nil, fmt.Errorf("malformed XA start %q: %w", signedStart, err)
		}
		cigar, err := ParseCigar(parts[2])
		if err != nil {
			return nil, fmt.Errorf("XA entry %q: %w", entry, err)
		}
		edits, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("malformed XA edits %q: %w", parts[3], err)
		}
		hits = append(hits, NewHit(parts[0], start, signedStart[0] == '-', cigar, edits, rc))
	}
	return hits, nil
}
