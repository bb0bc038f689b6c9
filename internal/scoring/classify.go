package scoring

import "github.com/mind-engage/mindengage-perma/internal/bank"

var (
	positiveCodes = map[bank.Dimension]string{
		bank.Positive: "P", bank.Engagement: "E", bank.Social: "S", bank.Meaning: "M", bank.Achieve: "A",
	}
	negativeCodes = map[bank.Dimension]string{
		bank.Positive: "N", bank.Engagement: "D", bank.Social: "I", bank.Meaning: "U", bank.Achieve: "L",
	}
)

// Midpoints are 3 per question in the reference bank (2 for P/E/M/A, 7 for S).
// They are fixed: a dimension with unanswered questions is still compared
// against the full-bank midpoint, which pulls sparse answers toward the
// negative code.
var Midpoints = map[bank.Dimension]int{
	bank.Positive:   6,
	bank.Engagement: 6,
	bank.Social:     21,
	bank.Meaning:    6,
	bank.Achieve:    6,
}

// Classify returns the positive code when sum reaches the midpoint
// (sum >= midpoint), the negative code otherwise.
func Classify(d bank.Dimension, sum int) string {
	mid, ok := Midpoints[d]
	if !ok {
		return ""
	}
	if sum >= mid {
		return positiveCodes[d]
	}
	return negativeCodes[d]
}

// CodePair returns the positive and negative code letters for d.
func CodePair(d bank.Dimension) (pos, neg string) {
	return positiveCodes[d], negativeCodes[d]
}
