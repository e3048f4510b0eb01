package primer3

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// FailureReason is a member of the closed enumeration of reasons primer3
// rejects candidate primers, plus LongDinuc for the post-hoc dinucleotide
// filter applied by the driver.
type FailureReason int

const (
	GcClamp FailureReason = iota
	GcContent
	Hairpin
	HighTm
	LowTm
	HighAnyCompl
	HighEndCompl
	HighEndStability
	LongPolyX
	LowercaseMasking
	TooManyNs
	ProductSize
	NotInOkRegion
	LongDinuc
)

func (r FailureReason) String() string {
	switch r {
	case GcClamp:
		return "GcClamp"
	case GcContent:
		return "GcContent"
	case Hairpin:
		return "Hairpin"
	case HighTm:
		return "HighTm"
	case LowTm:
		return "LowTm"
	case HighAnyCompl:
		return "HighAnyCompl"
	case HighEndCompl:
		return "HighEndCompl"
	case HighEndStability:
		return "HighEndStability"
	case LongPolyX:
		return "LongPolyX"
	case LowercaseMasking:
		return "LowercaseMasking"
	case TooManyNs:
		return "TooManyNs"
	case ProductSize:
		return "ProductSize"
	case NotInOkRegion:
		return "NotInOkRegion"
	case LongDinuc:
		return "LongDinuc"
	default:
		return "Unknown"
	}
}

// reasonByText maps the explanation strings primer3 emits to the closed
// enumeration.
var reasonByText = map[string]FailureReason{
	"GC clamp failed":             GcClamp,
	"GC content failed":           GcContent,
	"hairpin stability":           Hairpin,
	"high tm":                     HighTm,
	"low tm":                      LowTm,
	"high any compl":              HighAnyCompl,
	"high end compl":              HighEndCompl,
	"high 3' stability":           HighEndStability,
	"long poly-x seq":             LongPolyX,
	"lowercase masking of 3' end": LowercaseMasking,
	"too many Ns":                 TooManyNs,
	"product size":                ProductSize,
	"not in any ok left region":   NotInOkRegion,
	"not in any ok right region":  NotInOkRegion,
}

// FailureCount pairs a reason with the number of candidates it rejected.
type FailureCount struct {
	Reason FailureReason
	Count  int
}

var failureToken = regexp.MustCompile(`^(.+) (\d+)$`)

// ParseFailures combines one or more primer3 explanation strings into a
// failure breakdown. Each string is a comma-delimited list of
// "<reason> <count>" tokens; "ok" and "considered" tokens are ignored;
// unknown reasons are logged and dropped. dinucDropped, when positive, is
// appended as a LongDinuc entry. The result is sorted by count descending.
func ParseFailures(explains []string, dinucDropped int, logger *zap.Logger) []FailureCount {
	if logger == nil {
		logger = zap.NewNop()
	}

	counts := make(map[FailureReason]int)
	for _, explain := range explains {
		for _, token := range strings.Split(explain, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			m := failureToken.FindStringSubmatch(token)
			if m == nil {
				logger.Warn("malformed failure token", zap.String("token", token))
				continue
			}
			text := strings.TrimSpace(m[1])
			if text == "ok" || text == "considered" {
				continue
			}
			count, err := strconv.Atoi(m[2])
			if err != nil {
				logger.Warn("malformed failure count", zap.String("token", token))
				continue
			}
			reason, ok := reasonByText[text]
			if !ok {
				logger.Warn("unknown failure reason", zap.String("reason", text), zap.Int("count", count))
				continue
			}
			counts[reason] += count
		}
	}

	if dinucDropped > 0 {
		counts[LongDinuc] += dinucDropped
	}

	out := make([]FailureCount, 0, len(counts))
	for reason, count := range counts {
		out = append(out, FailureCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
