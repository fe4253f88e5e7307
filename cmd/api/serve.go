package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"medication-tracker/internal/jobs/reminders"
	"medication-tracker/internal/router"
)

func newServeCommand() *cobra.Command {
	var noScanner bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the reminder scanner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			var scanner *reminders.Scanner
			if !noScanner {
				scanner = newScanner(a)
				if err := scanner.Start(); err != nil {
					return err
				}
			}

			srv := &http.Server{
				Addr:         a.cfg.Addr(),
				Handler:      router.Mount(a.svcs, a.opts),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("starting server", map[string]any{"addr": srv.Addr})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			a.log.Info("shutting down", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if scanner != nil {
				if err := scanner.Stop(shutdownCtx); err != nil {
					a.log.Warn("scanner stop", map[string]any{"error": err})
				}
			}
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&noScanner, "no-scanner", false, "serve HTTP only, without the periodic reminder scan")
	return cmd
}

func newScanner(a *app) *reminders.Scanner {
	return reminders.New(a.svcs.Users, a.svcs.Medications, reminders.NewLogNotifier(a.log), reminders.Options{
		Schedule:       a.cfg.Scan.Schedule,
		Lookahead:      a.cfg.Scan.Lookahead,
		UserTimeout:    a.cfg.Scan.UserTimeout,
		MaxMedications: a.cfg.Scan.MaxMedications,
		Location:       a.cfg.Location,
		Logger:         a.log,
	})
}
