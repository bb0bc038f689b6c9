// Package bank holds the PERMA question bank: the five wellbeing dimensions
// and their ordered questions. A Bank is built once at startup and is
// read-only afterwards, so it can be shared across goroutines.
package bank

import (
	"errors"
	"fmt"
	"strings"
)

type Dimension string

const (
	Positive   Dimension = "P"
	Engagement Dimension = "E"
	Social     Dimension = "S"
	Meaning    Dimension = "M"
	Achieve    Dimension = "A"
)

// Dimensions lists every dimension in scoring and result-code order.
var Dimensions = []Dimension{Positive, Engagement, Social, Meaning, Achieve}

// ParseDimension accepts "p", "P", " P " and so on.
func ParseDimension(s string) (Dimension, bool) {
	d := Dimension(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", false
	}
	return d, true
}

func (d Dimension) Valid() bool {
	for _, k := range Dimensions {
		if k == d {
			return true
		}
	}
	return false
}

type Question struct {
	ID           string   `yaml:"id" json:"id"`
	Text         string   `yaml:"text" json:"text"`
	ReverseScore bool     `yaml:"reverse_score,omitempty" json:"reverse_score"`
	Options      []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// forwardOnlyID is always scored forward, whatever the source document says.
const forwardOnlyID = "S7"

var (
	ErrDuplicateID = errors.New("duplicate question id")
	ErrEmptyID     = errors.New("question id required")
)

type Bank struct {
	dims  map[Dimension][]Question
	index map[string]Dimension
}

// Section is one dimension with its questions, used for ordered rendering.
type Section struct {
	Dimension Dimension  `json:"dimension"`
	Questions []Question `json:"questions"`
}

// New validates dims and builds an immutable Bank. Dimensions missing from
// dims are present but empty.
func New(dims map[Dimension][]Question) (*Bank, error) {
	b := &Bank{
		dims:  make(map[Dimension][]Question, len(Dimensions)),
		index: map[string]Dimension{},
	}
	for d := range dims {
		if !d.Valid() {
			return nil, fmt.Errorf("unknown dimension %q", d)
		}
	}
	for _, d := range Dimensions {
		src := dims[d]
		qs := make([]Question, 0, len(src))
		for i, q := range src {
			q.ID = strings.TrimSpace(q.ID)
			if q.ID == "" {
				return nil, fmt.Errorf("%s[%d]: %w", d, i, ErrEmptyID)
			}
			if prev, dup := b.index[q.ID]; dup {
				return nil, fmt.Errorf("%s: %w (also in %s)", q.ID, ErrDuplicateID, prev)
			}
			if q.ID == forwardOnlyID {
				q.ReverseScore = false
			}
			q.Options = append([]string(nil), q.Options...)
			b.index[q.ID] = d
			qs = append(qs, q)
		}
		b.dims[d] = qs
	}
	return b, nil
}

// Questions returns a copy of the ordered questions for d.
func (b *Bank) Questions(d Dimension) []Question {
	if b == nil {
		return nil
	}
	return append([]Question(nil), b.dims[d]...)
}

// Lookup finds a question by id.
func (b *Bank) Lookup(id string) (Question, Dimension, bool) {
	if b == nil {
		return Question{}, "", false
	}
	d, ok := b.index[id]
	if !ok {
		return Question{}, "", false
	}
	for _, q := range b.dims[d] {
		if q.ID == id {
			return q, d, true
		}
	}
	return Question{}, "", false
}

// Len is the total number of questions across all dimensions.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.index)
}

// Sections returns the bank in dimension order.
func (b *Bank) Sections() []Section {
	out := make([]Section, 0, len(Dimensions))
	for _, d := range Dimensions {
		out = append(out, Section{Dimension: d, Questions: b.Questions(d)})
	}
	return out
}
