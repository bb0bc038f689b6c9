package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-perma/internal/prescription"
	"github.com/mind-engage/mindengage-perma/internal/scoring"
	"github.com/mind-engage/mindengage-perma/internal/session"
)

// POST /sessions  { "participant": "...", "policy": "skip" }
func CreateSessionHandler(store session.Store, defPolicy scoring.MissingPolicy, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Participant string `json:"participant"`
			Policy      string `json:"policy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Participant) == "" {
			http.Error(w, "participant required", http.StatusBadRequest)
			return
		}
		if req.Policy == "" {
			req.Policy = string(defPolicy)
		}
		s, err := store.Create(r.Context(), req.Participant, req.Policy)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Info("session created", zap.String("session", s.ID), zap.String("policy", string(s.Policy)))
		writeJSON(w, http.StatusCreated, s)
	}
}

// POST /sessions/{sessionID}/answers
// Either one answer { "question_id": "P1", "value": 4 } or a batch
// { "answers": { "P1": 4, "P2": 2 } }.
func SaveAnswersHandler(store session.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		var req struct {
			QuestionID string         `json:"question_id"`
			Value      any            `json:"value"`
			Answers    map[string]any `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		answers := req.Answers
		if answers == nil {
			answers = map[string]any{}
		}
		if qid := strings.TrimSpace(req.QuestionID); qid != "" {
			answers[qid] = req.Value
		}
		if len(answers) == 0 {
			http.Error(w, "question_id or answers required", http.StatusBadRequest)
			return
		}
		s, err := store.SaveAnswers(r.Context(), id, answers)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		log.Debug("answers saved", zap.String("session", id), zap.Int("count", len(answers)))
		writeJSON(w, http.StatusOK, s)
	}
}

// POST /sessions/{sessionID}/submit
func SubmitSessionHandler(store session.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		s, err := store.Submit(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		log.Info("session submitted",
			zap.String("session", id),
			zap.String("code", s.Code),
			zap.Int("percent", s.Result.Percent))
		writeJSON(w, http.StatusOK, s)
	}
}

// GET /sessions/{sessionID}
func GetSessionHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// GET /sessions?status=&limit=&offset=
func ListSessionsHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.List(r.Context(), session.ListOpts{
			Status: strings.TrimSpace(q.Get("status")),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /sessions/{sessionID}/prescription
func SessionPrescriptionHandler(sessions session.Store, rx prescription.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if s.Status != session.StatusSubmitted {
			writeStoreError(w, session.ErrNotSubmitted)
			return
		}
		p, err := rx.Get(r.Context(), s.Code)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
