package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-perma/internal/prescription"
)

// GET /prescriptions/{code}
func GetPrescriptionHandler(rx prescription.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := rx.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// GET /prescriptions
func ListPrescriptionsHandler(rx prescription.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := rx.List(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// PUT /prescriptions/{code}  { "title": "...", "body": "..." }
func PutPrescriptionHandler(rx prescription.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Title == "" || req.Body == "" {
			http.Error(w, "title and body required", http.StatusBadRequest)
			return
		}
		p, err := rx.Put(r.Context(), prescription.Prescription{
			Code:  chi.URLParam(r, "code"),
			Title: req.Title,
			Body:  req.Body,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
