package primer3

import (
	"fmt"

	"github.com/fulcrumgenomics/fgprimer/internal/genome"
)

// Side identifies which primer of a design a tag or result refers to.
type Side string

const (
	Left  Side = "LEFT"
	Right Side = "RIGHT"
)

// Task selects what primer3 is asked to pick for a design request and knows
// how to render its task-specific tags relative to the design region.
type Task interface {
	// Tags returns the task-specific input tags. target and region are
	// absolute reference coordinates; region contains target.
	Tags(target, region genome.Mapping) map[string]string
	// CountTag is the response tag holding the number of returned results.
	CountTag() string
	// Sides lists the primer sides this task produces.
	Sides() []Side
}

// PairTask designs left and right primers bracketing the target.
type PairTask struct{}

func (PairTask) Tags(target, region genome.Mapping) map[string]string {
	targetStart := target.Start - region.Start + 1
	return map[string]string{
		"PRIMER_TASK":                "generic",
		"PRIMER_PICK_LEFT_PRIMER":    "1",
		"PRIMER_PICK_RIGHT_PRIMER":   "1",
		"PRIMER_PICK_INTERNAL_OLIGO": "0",
		"SEQUENCE_TARGET":            fmt.Sprintf("%d,%d", targetStart, target.Length()),
	}
}

func (PairTask) CountTag() string {
	return "PRIMER_PAIR_NUM_RETURNED"
}

func (PairTask) Sides() []Side {
	return []Side{Left, Right}
}

// LeftTask picks a list of left primers upstream of the target.
type LeftTask struct{}

func (LeftTask) Tags(target, region genome.Mapping) map[string]string {
	targetStart := target.Start - region.Start + 1
	return map[string]string{
		"PRIMER_TASK":                "pick_primer_list",
		"PRIMER_PICK_LEFT_PRIMER":    "1",
		"PRIMER_PICK_RIGHT_PRIMER":   "0",
		"PRIMER_PICK_INTERNAL_OLIGO": "0",
		"SEQUENCE_INCLUDED_REGION":   fmt.Sprintf("1,%d", targetStart-1),
	}
}

func (LeftTask) CountTag() string {
	return "PRIMER_LEFT_NUM_RETURNED"
}

func (LeftTask) Sides() []Side {
	return []Side{Left}
}

// RightTask picks a list of right primers downstream of the target.
type RightTask struct{}

func (RightTask) Tags(target, region genome.Mapping) map[string]string {
	targetEnd := target.End - region.Start + 1
	return map[string]string{
		"PRIMER_TASK":                "pick_primer_list",
		"PRIMER_PICK_LEFT_PRIMER":    "0",
		"PRIMER_PICK_RIGHT_PRIMER":   "1",
		"PRIMER_PICK_INTERNAL_OLIGO": "0",
		"SEQUENCE_INCLUDED_REGION":   fmt.Sprintf("%d,%d", targetEnd+1, region.Length()-targetEnd),
	}
}

func (RightTask) CountTag() string {
	return "PRIMER_RIGHT_NUM_RETURNED"
}

func (RightTask) Sides() []Side {
	return []Side{Right}
}
