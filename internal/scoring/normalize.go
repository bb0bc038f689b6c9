package scoring

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

const (
	likertMin = 1
	likertMax = 5
	likertMid = 3
)

// Answer is a normalized response: either a Likert value in [1,5] or missing.
type Answer struct {
	Value int
	OK    bool
}

// Missing is the zero Answer.
var Missing = Answer{}

// Likert coerces an untyped form value to a clamped Likert answer.
// Anything that does not coerce to a finite number is Missing; numbers
// outside [1,5] are clamped, not rejected.
func Likert(raw any) Answer {
	switch v := raw.(type) {
	case nil, bool:
		return Missing
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return Missing
		}
		raw = v
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	f = math.Max(likertMin, math.Min(likertMax, math.Round(f)))
	return Answer{Value: int(f), OK: true}
}

// Reversed maps 1<->5 and 2<->4. Missing stays missing.
func (a Answer) Reversed() Answer {
	if !a.OK {
		return a
	}
	return Answer{Value: likertMin + likertMax - a.Value, OK: true}
}

// Normalize is Likert followed by the reverse transform when reverse is set.
func Normalize(raw any, reverse bool) Answer {
	a := Likert(raw)
	if reverse {
		return a.Reversed()
	}
	return a
}
