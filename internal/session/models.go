package session

import (
	"errors"

	"github.com/mind-engage/mindengage-perma/internal/scoring"
)

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrNotSubmitted     = errors.New("session not submitted")
)

type Session struct {
	ID          string                `json:"id"`
	Participant string                `json:"participant"`
	Status      string                `json:"status"` // in_progress|submitted
	Policy      scoring.MissingPolicy `json:"policy"`
	Answers     map[string]any        `json:"answers"` // questionID -> raw Likert value
	Result      *scoring.Result       `json:"result,omitempty"`
	Code        string                `json:"code,omitempty"` // lower-case result code
	StartedAt   int64                 `json:"started_at"`
	SubmittedAt int64                 `json:"submitted_at,omitempty"`
}

type ListOpts struct {
	Status string // optional: in_progress|submitted
	Limit  int
	Offset int
}
