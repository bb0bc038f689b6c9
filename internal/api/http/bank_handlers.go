package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-perma/internal/bank"
	"github.com/mind-engage/mindengage-perma/internal/scoring"
)

// GET /bank
func GetBankHandler(b *bank.Bank) http.HandlerFunc {
	sections := b.Sections()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sections)
	}
}

type scoreReq struct {
	Answers map[string]any `json:"answers"`
	Policy  string         `json:"policy,omitempty"`
}

type scoreResp struct {
	scoring.Result
	Code string `json:"code"`
}

// POST /score  { "answers": {...}, "policy": "skip" }
// Stateless scoring for test harnesses; nothing is stored.
func ScoreHandler(b *bank.Bank, defPolicy scoring.MissingPolicy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		policy := defPolicy
		if req.Policy != "" {
			p, err := scoring.ParsePolicy(req.Policy)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			policy = p
		}
		res := scoring.Score(b, req.Answers, policy)
		writeJSON(w, http.StatusOK, scoreResp{Result: res, Code: res.Code()})
	}
}
