package genome

import "strings"

// complement maps a base to its complement, preserving case. IUPAC ambiguity
// codes map to their complementary codes; unknown bytes map to N.
var complement = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 'N'
	}
	pairs := map[byte]byte{
		'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'U': 'A',
		'R': 'Y', 'Y': 'R', 'S': 'S', 'W': 'W', 'K': 'M', 'M': 'K',
		'B': 'V', 'V': 'B', 'D': 'H', 'H': 'D', 'N': 'N',
	}
	for b, c := range pairs {
		t[b] = c
		t[b+'a'-'A'] = c + 'a' - 'A'
	}
	return t
}()

// Complement returns the complement of a single base, preserving case.
func Complement(b byte) byte {
	return complement[b]
}

// ReverseComplement returns the reverse complement of seq, preserving case.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		out[len(seq)-1-i] = complement[seq[i]]
	}
	return string(out)
}

// GCContent returns the fraction of G and C bases in seq as a percentage in
// the 0-100 range. Case-insensitive; the ambiguity code S (G or C) counts as
// GC, all other ambiguous bases count as non-GC.
func GCContent(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'G', 'C', 'g', 'c', 'S', 's':
			gc++
		}
	}
	return 100 * float64(gc) / float64(len(seq))
}

// LongestHomopolymer returns the length of the longest run of a single base
// in seq, case-insensitive.
func LongestHomopolymer(seq string) int {
	s := strings.ToUpper(seq)
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if i > 0 && s[i] == s[i-1] {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// LongestDinucRun returns the number of bases in the longest run of a
// repeated dinucleotide in seq, case-insensitive. A homopolymer is a
// degenerate dinucleotide repeat, so "AAAA" reports 4.
func LongestDinucRun(seq string) int {
	s := strings.ToUpper(seq)
	if len(s) < 2 {
		return len(s)
	}
	longest := 2
	// For each phase, extend while s[i] == s[i-2].
	run := 2
	for i := 2; i < len(s); i++ {
		if s[i] == s[i-2] {
			run++
		} else {
			run = 2
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// CountAmbiguous returns the number of bases in seq that are not A, C, G, or
// T, case-insensitive.
func CountAmbiguous(seq string) int {
	n := 0
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		default:
			n++
		}
	}
	return n
}
