package variant

import "sort"

// intervalTree provides overlap queries over variants on one chromosome
// using a sorted-slice approach. Variants are loaded once and never modified
// after build.
type intervalTree struct {
	intervals []interval
	maxEnd    []int // maxEnd[i] = max(End) for intervals[i:]
}

type interval struct {
	start   int
	end     int
	variant *Variant
}

// buildIntervalTree creates an interval tree from variants, keyed by their
// genomic spans.
func buildIntervalTree(variants []*Variant) *intervalTree {
	if len(variants) == 0 {
		return &intervalTree{}
	}

	intervals := make([]interval, len(variants))
	for i, v := range variants {
		m := v.ToMapping()
		intervals[i] = interval{start: m.Start, end: m.End, variant: v}
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	// Build suffix-max array: maxEnd[i] = max(end) for intervals[i:]
	maxEnd := make([]int, len(intervals))
	maxEnd[len(intervals)-1] = intervals[len(intervals)-1].end
	for i := len(intervals) - 2; i >= 0; i-- {
		maxEnd[i] = intervals[i].end
		if maxEnd[i+1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i+1]
		}
	}

	return &intervalTree{intervals: intervals, maxEnd: maxEnd}
}

// overlapping returns all variants whose span intersects [start, end],
// in start order.
func (t *intervalTree) overlapping(start, end int) []*Variant {
	if len(t.intervals) == 0 {
		return nil
	}

	var result []*Variant

	// Binary search: candidates all have start <= end.
	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].start > end
	})

	for i := 0; i < hi; i++ {
		// Prune: if maxEnd[i] < start, no interval from i onward can reach
		// the query range.
		if t.maxEnd[i] < start {
			break
		}
		if t.intervals[i].end >= start {
			result = append(result, t.intervals[i].variant)
		}
	}
	return result
}
