// Package scoring turns raw PERMA answers into per-dimension sums, result
// codes and an overall percentage. Everything here is pure: no I/O, no
// shared mutable state, and no errors; malformed answers count as missing.
package scoring

import (
	"math"
	"strings"

	"github.com/mind-engage/mindengage-perma/internal/bank"
)

type DimensionScore struct {
	Sum      int `json:"sum"`
	Answered int `json:"answered"`
}

type Result struct {
	Sums     map[bank.Dimension]int    `json:"sums"`
	Answered map[bank.Dimension]int    `json:"answered"`
	Codes    map[bank.Dimension]string `json:"codes"`
	Total    int                       `json:"total"`
	Percent  int                       `json:"percent"`
}

// Aggregate sums one dimension. answers may be nil.
func Aggregate(answers map[string]any, questions []bank.Question, policy MissingPolicy) DimensionScore {
	var ds DimensionScore
	for _, q := range questions {
		a := Normalize(answers[q.ID], q.ReverseScore)
		if a.OK {
			ds.Sum += a.Value
			ds.Answered++
			continue
		}
		if v, ok := policy.fill(); ok {
			ds.Sum += v
		}
	}
	return ds
}

// Percent places total within the range reachable by the answered questions
// alone, [1*answered, 5*answered], as an integer in [0,100].
func Percent(total, answered int) int {
	if answered <= 0 {
		return 0
	}
	lo := float64(likertMin * answered)
	hi := float64(likertMax * answered)
	p := math.Round((float64(total) - lo) / (hi - lo) * 100)
	return int(math.Max(0, math.Min(100, p)))
}

// Score runs every dimension of b against answers.
func Score(b *bank.Bank, answers map[string]any, policy MissingPolicy) Result {
	r := Result{
		Sums:     make(map[bank.Dimension]int, len(bank.Dimensions)),
		Answered: make(map[bank.Dimension]int, len(bank.Dimensions)),
		Codes:    make(map[bank.Dimension]string, len(bank.Dimensions)),
	}
	answeredTotal := 0
	for _, d := range bank.Dimensions {
		ds := Aggregate(answers, b.Questions(d), policy)
		r.Sums[d] = ds.Sum
		r.Answered[d] = ds.Answered
		r.Codes[d] = Classify(d, ds.Sum)
		r.Total += ds.Sum
		answeredTotal += ds.Answered
	}
	r.Percent = Percent(r.Total, answeredTotal)
	return r
}

// Code is the lower-cased result code in P,E,S,M,A order, e.g. "pdima".
func (r Result) Code() string {
	return ResultCode(r.Codes)
}

// ResultCode joins codes in dimension order and lower-cases them.
func ResultCode(codes map[bank.Dimension]string) string {
	var sb strings.Builder
	for _, d := range bank.Dimensions {
		sb.WriteString(codes[d])
	}
	return strings.ToLower(sb.String())
}

// ValidCode reports whether code is a well-formed result code: five letters,
// each the positive or negative code of its dimension. Case-insensitive.
func ValidCode(code string) bool {
	code = strings.ToUpper(code)
	if len(code) != len(bank.Dimensions) {
		return false
	}
	for i, d := range bank.Dimensions {
		c := code[i : i+1]
		if c != positiveCodes[d] && c != negativeCodes[d] {
			return false
		}
	}
	return true
}
