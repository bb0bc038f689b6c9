package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-perma/internal/config"
	"github.com/mind-engage/mindengage-perma/internal/logging"
)

var (
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "permad",
	Short: "PERMA wellbeing assessment service",
	Long: `permad serves the PERMA self-assessment: it hands out the question bank,
collects answers per session, scores them and looks up the prescription for
the resulting five-letter code.

Configuration comes from the environment (MODE, HTTP_ADDR, DB_DRIVER, DB_DSN,
BANK_PATH, PRESCRIPTIONS_PATH, MISSING_POLICY, LOG_LEVEL, LOG_FORMAT, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.FromEnv()
		var err error
		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, scoreCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
