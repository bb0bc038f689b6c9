package scoring

import (
	"fmt"
	"strings"
)

// MissingPolicy decides what an unanswered question adds to its dimension sum.
// No policy ever counts a missing question as answered.
type MissingPolicy string

const (
	MissingZero MissingPolicy = "zero" // adds 0
	MissingMin  MissingPolicy = "min"  // adds 1
	MissingMid  MissingPolicy = "mid"  // adds 3
	MissingSkip MissingPolicy = "skip" // adds nothing
)

const DefaultPolicy = MissingSkip

// ParsePolicy is strict; use it at the edges (config, request bodies).
// An empty string yields DefaultPolicy.
func ParsePolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPolicy, nil
	case MissingZero, MissingMin, MissingMid, MissingSkip:
		return p, nil
	default:
		return "", fmt.Errorf("unknown missing-data policy %q", s)
	}
}

// fill is the contribution of a missing answer. Unknown policies behave as skip.
func (p MissingPolicy) fill() (int, bool) {
	switch p {
	case MissingZero:
		return 0, true
	case MissingMin:
		return likertMin, true
	case MissingMid:
		return likertMid, true
	default:
		return 0, false
	}
}
