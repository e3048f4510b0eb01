package genome

import "testing"

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{"empty", "", ""},
		{"simple", "ACGT", "ACGT"},
		{"asymmetric", "AACGT", "ACGTT"},
		{"case preserved", "acGT", "ACgt"},
		{"ambiguity codes", "ANRY", "RYNT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReverseComplement(tt.seq); got != tt.want {
				t.Errorf("ReverseComplement(%q) = %q, want %q", tt.seq, got, tt.want)
			}
		})
	}
}

func TestReverseComplement_Involution(t *testing.T) {
	seq := "GGCTAGAGTGCAGTGGTGCGATCT"
	if got := ReverseComplement(ReverseComplement(seq)); got != seq {
		t.Errorf("double reverse complement = %q, want %q", got, seq)
	}
}

func TestGCContent(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want float64
	}{
		{"empty", "", 0},
		{"all AT", "ATATAT", 0},
		{"all GC", "GCGCGC", 100},
		{"half", "ACGT", 50},
		{"lowercase", "acgt", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GCContent(tt.seq); got != tt.want {
				t.Errorf("GCContent(%q) = %v, want %v", tt.seq, got, tt.want)
			}
		})
	}
}

func TestLongestHomopolymer(t *testing.T) {
	tests := []struct {
		seq  string
		want int
	}{
		{"", 0},
		{"A", 1},
		{"ACGT", 1},
		{"AAacGG", 3},
		{"ACGGGGGT", 5},
	}

	for _, tt := range tests {
		if got := LongestHomopolymer(tt.seq); got != tt.want {
			t.Errorf("LongestHomopolymer(%q) = %d, want %d", tt.seq, got, tt.want)
		}
	}
}

func TestLongestDinucRun(t *testing.T) {
	tests := []struct {
		seq  string
		want int
	}{
		{"", 0},
		{"A", 1},
		{"AC", 2},
		{"ACGT", 2},
		{"ACACAC", 6},
		{"TTACACACGG", 6},
		{"AAAAA", 5},
		{"acacAC", 6},
	}

	for _, tt := range tests {
		if got := LongestDinucRun(tt.seq); got != tt.want {
			t.Errorf("LongestDinucRun(%q) = %d, want %d", tt.seq, got, tt.want)
		}
	}
}

func TestCountAmbiguous(t *testing.T) {
	tests := []struct {
		seq  string
		want int
	}{
		{"ACGT", 0},
		{"ACNNT", 2},
		{"acgtn", 1},
		{"RYKM", 4},
	}

	for _, tt := range tests {
		if got := CountAmbiguous(tt.seq); got != tt.want {
			t.Errorf("CountAmbiguous(%q) = %d, want %d", tt.seq, got, tt.want)
		}
	}
}
