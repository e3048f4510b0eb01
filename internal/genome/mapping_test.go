package genome

import "testing"

func TestNewMapping_Validation(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		end     int
		strand  Strand
		wantErr bool
	}{
		{"simple", 10, 20, Plus, false},
		{"single base", 10, 10, Minus, false},
		{"zero width", 10, 9, Plus, false},
		{"start below 1", 0, 5, Plus, true},
		{"end before start-1", 10, 8, Plus, true},
		{"bad strand", 10, 20, Strand('x'), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapping("chr1", tt.start, tt.end, tt.strand)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMapping(%d, %d) error = %v, wantErr %v", tt.start, tt.end, err, tt.wantErr)
			}
		})
	}
}

func TestMapping_Length(t *testing.T) {
	if got := MustMapping("chr1", 10, 20, Plus).Length(); got != 11 {
		t.Errorf("Length() = %d, want 11", got)
	}
	if got := MustMapping("chr1", 10, 9, Plus).Length(); got != 0 {
		t.Errorf("zero-width Length() = %d, want 0", got)
	}
}

func TestMapping_Resolve(t *testing.T) {
	m := MustMapping("chr1", 100, 199, Plus)

	sub, err := m.Resolve(1, m.Length())
	if err != nil {
		t.Fatalf("Resolve(1, length) error = %v", err)
	}
	if sub != m {
		t.Errorf("Resolve(1, length) = %v, want identity %v", sub, m)
	}

	sub, err = m.Resolve(11, 20, Minus)
	if err != nil {
		t.Fatalf("Resolve(11, 20) error = %v", err)
	}
	want := MustMapping("chr1", 110, 129, Minus)
	if sub != want {
		t.Errorf("Resolve(11, 20) = %v, want %v", sub, want)
	}

	for _, tt := range []struct {
		name          string
		start, length int
	}{
		{"start below 1", 0, 10},
		{"start beyond length", 101, 1},
		{"negative length", 1, -1},
		{"end beyond mapping", 91, 20},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Resolve(tt.start, tt.length); err == nil {
				t.Errorf("Resolve(%d, %d) expected error", tt.start, tt.length)
			}
		})
	}
}

func TestMapping_Project(t *testing.T) {
	m := MustMapping("chr1", 100, 199, Plus)

	if got, err := m.Project(m.Start); err != nil || got != 1 {
		t.Errorf("Project(start) = %d, %v, want 1", got, err)
	}
	if got, err := m.Project(m.End); err != nil || got != m.Length() {
		t.Errorf("Project(end) = %d, %v, want %d", got, err, m.Length())
	}
	if _, err := m.Project(99); err == nil {
		t.Error("Project(99) expected error")
	}
	if _, err := m.Project(200); err == nil {
		t.Error("Project(200) expected error")
	}
}

func TestMapping_OverlapsContainsAbuts(t *testing.T) {
	a := MustMapping("chr1", 100, 200, Plus)

	tests := []struct {
		name     string
		other    Mapping
		overlaps bool
		contains bool
		abuts    bool
	}{
		{"inside", MustMapping("chr1", 150, 160, Plus), true, true, false},
		{"partial", MustMapping("chr1", 180, 250, Plus), true, false, false},
		{"left abut", MustMapping("chr1", 50, 99, Plus), false, false, true},
		{"right abut", MustMapping("chr1", 201, 250, Plus), false, false, true},
		{"disjoint", MustMapping("chr1", 300, 400, Plus), false, false, false},
		{"other reference", MustMapping("chr2", 100, 200, Plus), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.other); got != tt.overlaps {
				t.Errorf("Overlaps = %v, want %v", got, tt.overlaps)
			}
			if got := a.Contains(tt.other); got != tt.contains {
				t.Errorf("Contains = %v, want %v", got, tt.contains)
			}
			if got := a.Abuts(tt.other); got != tt.abuts {
				t.Errorf("Abuts = %v, want %v", got, tt.abuts)
			}
		})
	}
}

func TestMapping_Union(t *testing.T) {
	a := MustMapping("chr1", 100, 200, Plus)
	b := MustMapping("chr1", 150, 300, Plus)

	u1, err := a.Union(b)
	if err != nil {
		t.Fatalf("Union error = %v", err)
	}
	u2, err := b.Union(a)
	if err != nil {
		t.Fatalf("reverse Union error = %v", err)
	}
	if u1.Start != 100 || u1.End != 300 {
		t.Errorf("Union = %v, want chr1:100-300", u1)
	}
	if u1.Start != u2.Start || u1.End != u2.End {
		t.Errorf("Union not commutative: %v vs %v", u1, u2)
	}

	abutting := MustMapping("chr1", 201, 250, Plus)
	if _, err := a.Union(abutting); err != nil {
		t.Errorf("Union of abutting mappings error = %v", err)
	}

	disjoint := MustMapping("chr1", 300, 400, Plus)
	if _, err := a.Union(disjoint); err == nil {
		t.Error("Union of disjoint mappings expected error")
	}
	other := MustMapping("chr2", 100, 200, Plus)
	if _, err := a.Union(other); err == nil {
		t.Error("Union across references expected error")
	}
}

func TestMapping_Shift(t *testing.T) {
	m := MustMapping("chr1", 100, 200, Minus)

	shifted, err := m.Shift(-50)
	if err != nil {
		t.Fatalf("Shift error = %v", err)
	}
	if shifted.Start != 50 || shifted.End != 150 || shifted.Strand != Minus {
		t.Errorf("Shift(-50) = %v", shifted)
	}
	if _, err := m.Shift(-100); err == nil {
		t.Error("Shift before position 1 expected error")
	}
}

func TestMapping_FivePrimePosition(t *testing.T) {
	if got := MustMapping("chr1", 100, 200, Plus).FivePrimePosition(); got != 100 {
		t.Errorf("plus strand = %d, want 100", got)
	}
	if got := MustMapping("chr1", 100, 200, Minus).FivePrimePosition(); got != 200 {
		t.Errorf("minus strand = %d, want 200", got)
	}
}

func TestMapping_Compare(t *testing.T) {
	dict := NewDict([]string{"chr1", "chr2"}, map[string]int{"chr1": 1000, "chr2": 1000})

	tests := []struct {
		name string
		a, b Mapping
		sign int
	}{
		{"same", MustMapping("chr1", 10, 20, Plus), MustMapping("chr1", 10, 20, Plus), 0},
		{"by start", MustMapping("chr1", 10, 20, Plus), MustMapping("chr1", 11, 20, Plus), -1},
		{"by end", MustMapping("chr1", 10, 20, Plus), MustMapping("chr1", 10, 19, Plus), 1},
		{"plus before minus", MustMapping("chr1", 10, 20, Plus), MustMapping("chr1", 10, 20, Minus), -1},
		{"by reference", MustMapping("chr2", 1, 5, Plus), MustMapping("chr1", 500, 600, Plus), 1},
	}

	sign := func(n int) int {
		switch {
		case n < 0:
			return -1
		case n > 0:
			return 1
		default:
			return 0
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Compare(tt.b, dict)
			if err != nil {
				t.Fatalf("Compare error = %v", err)
			}
			if sign(got) != tt.sign {
				t.Errorf("Compare = %d, want sign %d", got, tt.sign)
			}
		})
	}

	unknown := MustMapping("chrUn", 1, 5, Plus)
	if _, err := unknown.Compare(MustMapping("chr1", 1, 5, Plus), dict); err == nil {
		t.Error("Compare with unknown reference expected error")
	}
}
