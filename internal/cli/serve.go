package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"ianua-caldav/internal/locandina"
	"ianua-caldav/internal/logger"
	"ianua-caldav/internal/metrics"
	"ianua-caldav/internal/publish"
	"ianua-caldav/internal/refresh"
	"ianua-caldav/internal/scrape"
	"ianua-caldav/internal/server"
	"ianua-caldav/internal/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the feed server with periodic refresh",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pub := publish.New()
	m := metrics.New()

	var store *storage.Storage
	if cfg.DataDir != "" {
		store, err = storage.New(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		// Warm start: a persisted snapshot beats serving 503s until the
		// first scrape succeeds.
		snap, err := store.LoadSnapshot()
		switch {
		case err != nil:
			logger.Warn("ignoring unreadable persisted snapshot", logger.Fields{"error": err.Error()})
		case snap != nil:
			pub.Publish(snap)
			logger.Info("restored persisted snapshot", logger.Fields{
				"events":       len(snap.Events),
				"generated_at": snap.GeneratedAt,
			})
		}
	}

	var enricher refresh.Enricher
	if !cfg.SkipLocandine {
		enricher = locandina.New(time.Duration(cfg.FetchTimeout))
	}

	runner := refresh.New(refresh.Options{
		Fetcher:          scrape.NewSite(cfg.SourceURL, time.Duration(cfg.FetchTimeout)),
		Extractor:        scrape.NewTimetable(cfg.SourceURL),
		Enricher:         enricher,
		Publisher:        pub,
		Storage:          store,
		Metrics:          m,
		Location:         loc,
		MaxFetchAttempts: cfg.MaxFetchAttempts,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		_ = runner.Run(ctx)
	}()

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.RefreshCron, func() {
		_ = runner.Run(ctx)
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshCron, err)
	}
	sched.Start()
	defer sched.Stop()

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.New(pub, runner, m, cfg.CalendarName, loc).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	logger.Info("feed server listening", logger.Fields{
		"addr":    cfg.Listen,
		"source":  cfg.SourceURL,
		"refresh": cfg.RefreshCron,
	})

	select {
	case <-ctx.Done():
		logger.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
