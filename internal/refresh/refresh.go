// Package refresh runs the scrape → parse → publish cycle.
//
// A cycle is fetch (with bounded retries), extract, normalize, build, publish,
// and optionally persist. Only one cycle runs at a time: a trigger arriving
// while a cycle is in flight is dropped, not queued, so a slow or hanging
// fetch can never pile up overlapping cycles. Any cycle failure leaves the
// previously published snapshot in place — stale-but-available beats absent.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ianua-caldav/internal/event"
	"ianua-caldav/internal/fetch"
	"ianua-caldav/internal/logger"
	"ianua-caldav/internal/metrics"
	"ianua-caldav/internal/publish"
	"ianua-caldav/internal/scrape"
	"ianua-caldav/internal/storage"
)

// ErrCycleInProgress is returned when a trigger is dropped because another
// cycle is still running.
var ErrCycleInProgress = errors.New("refresh: cycle already in progress")

// Enricher fills in record details that need extra requests, such as venue
// and speaker information from linked flyer PDFs. Enrichment is best-effort
// and must never fail the cycle.
type Enricher interface {
	Enrich(ctx context.Context, records []event.RawRecord) []event.RawRecord
}

// Options configures a Runner. Fetcher, Extractor, Publisher and Metrics are
// required; Storage and Enricher are optional.
type Options struct {
	Fetcher   fetch.Fetcher
	Extractor scrape.Extractor
	Enricher  Enricher
	Publisher *publish.Publisher
	Storage   *storage.Storage
	Metrics   *metrics.Metrics

	// Location resolves source-local dates; defaults to UTC.
	Location *time.Location

	// MaxFetchAttempts bounds transient-failure retries per cycle.
	MaxFetchAttempts uint

	// RetryInterval is the initial backoff delay between fetch attempts.
	RetryInterval time.Duration
}

// Runner executes refresh cycles.
type Runner struct {
	opts Options
	mu   sync.Mutex
}

// New creates a Runner, filling in option defaults.
func New(opts Options) *Runner {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxFetchAttempts == 0 {
		opts.MaxFetchAttempts = 3
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	return &Runner{opts: opts}
}

// Run executes one refresh cycle and blocks until it finishes. It returns
// ErrCycleInProgress when another cycle holds the lock; any other error means
// this cycle was aborted and the previous snapshot remains published.
func (r *Runner) Run(ctx context.Context) error {
	if !r.mu.TryLock() {
		r.dropped()
		return ErrCycleInProgress
	}
	defer r.mu.Unlock()
	return r.cycle(ctx)
}

// Start begins a refresh cycle in the background. It returns
// ErrCycleInProgress immediately when another cycle is running, nil when the
// cycle was started.
func (r *Runner) Start(ctx context.Context) error {
	if !r.mu.TryLock() {
		r.dropped()
		return ErrCycleInProgress
	}
	go func() {
		defer r.mu.Unlock()
		_ = r.cycle(ctx)
	}()
	return nil
}

func (r *Runner) dropped() {
	logger.Warn("refresh trigger dropped, cycle already running", nil)
	r.opts.Metrics.ObserveCycle(metrics.ResultSkipped, 0)
}

// cycle runs the pipeline. The caller must hold r.mu.
func (r *Runner) cycle(ctx context.Context) error {
	started := time.Now()

	html, err := r.fetchWithRetry(ctx)
	if err != nil {
		r.opts.Metrics.ObserveCycle(metrics.ResultFetchError, time.Since(started))
		logger.Error("refresh cycle aborted: fetch failed", nil, err)
		return fmt.Errorf("fetching source page: %w", err)
	}

	records, err := r.opts.Extractor.Extract(html)
	if err != nil {
		r.opts.Metrics.ObserveCycle(metrics.ResultParseError, time.Since(started))
		logger.Error("refresh cycle aborted: page structure not recognized", nil, err)
		return fmt.Errorf("extracting records: %w", err)
	}

	if r.opts.Enricher != nil {
		records = r.opts.Enricher.Enrich(ctx, records)
	}

	cycleTime := time.Now().UTC()
	events := event.Normalize(records, cycleTime, r.opts.Location)
	snap := event.BuildSnapshot(events, html, cycleTime)

	result := metrics.ResultSuccess
	if prev, err := r.opts.Publisher.Current(); err == nil && prev.SourceFingerprint == snap.SourceFingerprint {
		// Content did not change; publish anyway to refresh GeneratedAt.
		result = metrics.ResultUnchanged
	}

	r.opts.Publisher.Publish(snap)
	r.opts.Metrics.ObservePublish(len(snap.Events), cycleTime)
	r.opts.Metrics.ObserveDropped(len(records) - len(snap.Events))
	r.opts.Metrics.ObserveCycle(result, time.Since(started))

	logger.Info("refresh cycle finished", logger.Fields{
		"result":      result,
		"records":     len(records),
		"events":      len(snap.Events),
		"fingerprint": snap.SourceFingerprint,
		"duration":    time.Since(started).String(),
	})

	if r.opts.Storage != nil {
		if err := r.opts.Storage.SaveSnapshot(snap); err != nil {
			// Persistence is best-effort; the snapshot is already live.
			logger.Error("persisting snapshot failed", nil, err)
		}
	}

	return nil
}

// fetchWithRetry retries transient fetch failures with exponential backoff up
// to the configured attempt count. Permanent failures and context
// cancellation stop immediately.
func (r *Runner) fetchWithRetry(ctx context.Context) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		html, err := r.opts.Fetcher.Fetch(ctx)
		if err != nil {
			var fetchErr *fetch.Error
			if errors.As(err, &fetchErr) && fetchErr.Kind == fetch.Permanent {
				return nil, backoff.Permanent(err)
			}
			logger.Warn("fetch attempt failed", logger.Fields{
				"attempt": attempt,
				"max":     r.opts.MaxFetchAttempts,
			})
			return nil, err
		}
		return html, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.opts.MaxFetchAttempts-1)), ctx)
	return backoff.RetryWithData(op, policy)
}
