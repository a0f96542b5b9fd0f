// Package cli provides the cvctl operator command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cv-status/internal/app"
	"cv-status/internal/campaign"
	"cv-status/internal/config"
	"cv-status/internal/storage"
)

// noDB marks commands that run without a database connection.
const noDB = "no-db"

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	cfg        *config.Config
	db         *storage.DB
	logger     *slog.Logger
	closeLog   func() error
	stopSignal context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "cvctl",
	Short: "Operate the candidate status service",
	Long: `cvctl runs the operator tasks of the candidate status service against the
same database and configuration as the API server.

Configuration comes from the environment (and a .env file when present).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
			return nil
		}

		cfg = config.LoadConfig()
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, level)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		stopSignal = stop
		cmd.SetContext(ctx)

		if cmd.Annotations[noDB] != "" {
			return nil
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		var err error
		db, err = app.OpenDB(cfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		return nil
	},
}

// tracker returns a tracker that records signals only; it never sends mail.
func tracker() *campaign.Tracker {
	return campaign.NewTracker(db, nil, nil, cfg.AppBaseURL, cfg.SendConcurrency, logger)
}

// Execute runs the root command and releases what PersistentPreRunE opened.
func Execute() error {
	defer cleanup()
	return rootCmd.Execute()
}

func cleanup() {
	if db != nil {
		db.Close()
		db = nil
	}
	if closeLog != nil {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		closeLog = nil
	}
	if stopSignal != nil {
		stopSignal()
		stopSignal = nil
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(exportCmd)
}
