package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	auth "github.com/mind-engage/mindengage-perma/internal/auth/middleware"
	"github.com/mind-engage/mindengage-perma/internal/bank"
	"github.com/mind-engage/mindengage-perma/internal/prescription"
	"github.com/mind-engage/mindengage-perma/internal/rbac"
	"github.com/mind-engage/mindengage-perma/internal/scoring"
	"github.com/mind-engage/mindengage-perma/internal/session"
)

type Deps struct {
	Bank          *bank.Bank
	Sessions      session.Store
	Prescriptions prescription.Store
	Auth          *auth.AuthService
	Policy        scoring.MissingPolicy
	CORSOrigins   []string
	Logger        *zap.Logger
	Ready         func() bool // nil: always ready
}

func NewRouter(d Deps) chi.Router {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(d.Auth))

	// Participant flow: anonymous, the session id is the handle.
	r.Get("/bank", GetBankHandler(d.Bank))
	r.Post("/score", ScoreHandler(d.Bank, d.Policy))
	r.Post("/sessions", CreateSessionHandler(d.Sessions, d.Policy, log))
	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", GetSessionHandler(d.Sessions))
		sr.Post("/answers", SaveAnswersHandler(d.Sessions, log))
		sr.Post("/submit", SubmitSessionHandler(d.Sessions, log))
		sr.Get("/prescription", SessionPrescriptionHandler(d.Sessions, d.Prescriptions))
	})
	r.Get("/prescriptions/{code}", GetPrescriptionHandler(d.Prescriptions))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.RequireAny("session:list", "session:view-all")).
			Get("/sessions", ListSessionsHandler(d.Sessions))
		pr.With(rbac.Require("prescription:list")).
			Get("/prescriptions", ListPrescriptionsHandler(d.Prescriptions))
		pr.With(rbac.Require("prescription:write")).
			Put("/prescriptions/{code}", PutPrescriptionHandler(d.Prescriptions))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil && !d.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
