package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-perma/internal/api/http"
	auth "github.com/mind-engage/mindengage-perma/internal/auth/middleware"
	"github.com/mind-engage/mindengage-perma/internal/bank"
	"github.com/mind-engage/mindengage-perma/internal/db"
	"github.com/mind-engage/mindengage-perma/internal/prescription"
	"github.com/mind-engage/mindengage-perma/internal/scoring"
	"github.com/mind-engage/mindengage-perma/internal/session"
	syncx "github.com/mind-engage/mindengage-perma/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The bank is fatal configuration: no bank, no service.
	b, err := bank.LoadOrDefault(cfg.BankPath)
	if err != nil {
		return err
	}
	policy, err := scoring.ParsePolicy(cfg.MissingPolicy)
	if err != nil {
		return err
	}

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	rx := prescription.NewSQLStore(dbh)
	seed, err := prescription.LoadSeed(cfg.PrescriptionsPath)
	if err != nil {
		return err
	}
	added, err := prescription.Seed(openCtx, rx, seed)
	if err != nil {
		return err
	}

	var ready atomic.Bool
	router := api.NewRouter(api.Deps{
		Bank:          b,
		Sessions:      session.NewSQLStore(dbh, b, syncx.NewEventRepo(dbh)),
		Prescriptions: rx,
		Auth:          auth.NewAuthService(cfg.HMACSecret, cfg.AdminUser, cfg.AdminPassHash),
		Policy:        policy,
		CORSOrigins:   cfg.CORSOrigins(),
		Logger:        logger,
		Ready:         ready.Load,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	ready.Store(true)

	logger.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver),
		zap.Int("questions", b.Len()),
		zap.String("missing_policy", string(policy)),
		zap.Int("prescriptions_seeded", added))
	if cfg.AdminPassHash == "" {
		logger.Warn("ADMIN_PASS_HASH not set; admin login disabled")
	}

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	ready.Store(false)
	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
