package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medication-tracker/internal/adapters/auth/iam"
	pg "medication-tracker/internal/adapters/storage/postgres"
	"medication-tracker/internal/platform/config"
	"medication-tracker/internal/platform/logger"
	"medication-tracker/internal/ports/auth"
	"medication-tracker/internal/router"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "medtrack",
		Short:        "Medication adherence tracker",
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newScanCommand())
	cmd.AddCommand(newExportCommand())

	return cmd
}

// app es lo que comparten los subcomandos.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	db       *sql.DB
	verifier auth.AuthVerifier
	opts     router.Options
	svcs     *router.Services
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	a := &app{cfg: cfg, log: log}

	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := pg.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	// Sin IAM configurado queda modo dev (X-Debug-User-ID).
	if cfg.IAM.BaseURL != "" {
		v, err := iam.NewVerifier(iam.Config{
			BaseURL: cfg.IAM.BaseURL,
			APIKey:  cfg.IAM.APIKey,
			Timeout: cfg.IAM.Timeout,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("iam verifier: %w", err)
		}
		a.verifier = v
	}

	a.opts = router.Options{
		AuthVerifier:        a.verifier,
		DB:                  a.db,
		Logger:              log,
		Location:            cfg.Location,
		AdherenceWindowDays: cfg.Stats.AdherenceWindowDays,
		ExportDays:          cfg.Export.Days,
	}
	a.svcs = router.NewServices(a.opts)
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if zl, ok := a.log.(*logger.ZapLogger); ok {
		_ = zl.Sync()
	}
}
