// Package ingest walks a leaderboard's pagination chain and fills a page
// store with the raw pages, exactly once per snapshot.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/cache"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/steam"
)

var (
	ingestRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_ingest_runs_total",
		Help: "Total ingestion runs by result",
	}, []string{"result"})

	pagesIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_pages_ingested_total",
		Help: "Total leaderboard pages fetched and stored",
	})
)

// DefaultMaxPages bounds the pagination chain. A board large enough to hit
// it would hold half a billion entries at Steam's page size.
const DefaultMaxPages = 100000

// Fetcher fetches one leaderboard page. *steam.Client implements it.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) (*steam.Page, error)
}

// Config holds the runner configuration.
type Config struct {
	// StartURL locates the first page of the board.
	StartURL string

	// Fetcher performs the page requests.
	Fetcher Fetcher

	// Store receives the raw pages.
	Store cache.PageStore

	// FetchDelay is the pause between consecutive page requests. Zero
	// means no pause.
	FetchDelay time.Duration

	// MaxPages bounds the pagination chain. Zero means DefaultMaxPages.
	MaxPages int
}

// Runner fetches every page of one board into its store. Pages are fetched
// strictly one at a time, in chain order, with no retries: the first
// failure aborts the run and leaves the store partial and unmarked.
type Runner struct {
	fetcher  Fetcher
	store    cache.PageStore
	startURL string
	delay    time.Duration
	maxPages int
	logger   zerolog.Logger
}

// NewRunner creates a runner from the given configuration.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.StartURL == "" {
		return nil, fmt.Errorf("start URL is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	return &Runner{
		fetcher:  cfg.Fetcher,
		store:    cfg.Store,
		startURL: cfg.StartURL,
		delay:    cfg.FetchDelay,
		maxPages: maxPages,
		logger:   log.With().Str("component", "ingest").Logger(),
	}, nil
}

// Run ensures the store holds the complete board and returns the number of
// pages fetched. A store already marked complete is trusted as-is and
// causes no requests. A store holding pages without the completion marker
// is a leftover from an aborted run; it is reset and the board refetched
// from the start.
func (r *Runner) Run(ctx context.Context) (int, error) {
	runID := uuid.NewString()
	logger := r.logger.With().Str("run_id", runID).Logger()

	complete, err := r.store.Complete(ctx)
	if err != nil {
		return 0, err
	}
	if complete {
		ingestRunsTotal.WithLabelValues("cache_hit").Inc()
		logger.Info().Msg("Cache already complete, skipping fetch")
		return 0, nil
	}

	empty, err := r.store.Empty(ctx)
	if err != nil {
		return 0, err
	}
	if !empty {
		logger.Warn().Msg("Partial cache found, resetting before refetch")
		if err := r.store.Reset(ctx); err != nil {
			return 0, err
		}
	}

	logger.Info().Str("start_url", r.startURL).Msg("Fetching board")

	fetched, err := r.fetchChain(ctx, logger)
	if err != nil {
		ingestRunsTotal.WithLabelValues("error").Inc()
		return fetched, err
	}

	if err := r.store.MarkComplete(ctx); err != nil {
		ingestRunsTotal.WithLabelValues("error").Inc()
		return fetched, err
	}

	ingestRunsTotal.WithLabelValues("fetched").Inc()
	logger.Info().Int("pages", fetched).Msg("Board ingested")
	return fetched, nil
}

func (r *Runner) fetchChain(ctx context.Context, logger zerolog.Logger) (int, error) {
	fetched := 0
	url := r.startURL
	seen := make(map[string]struct{})

	for url != "" {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}
		if _, dup := seen[url]; dup {
			return fetched, fmt.Errorf("pagination cycle at %s", url)
		}
		seen[url] = struct{}{}

		if fetched >= r.maxPages {
			return fetched, fmt.Errorf("pagination did not terminate after %d pages", r.maxPages)
		}

		page, err := r.fetcher.FetchPage(ctx, url)
		if err != nil {
			return fetched, fmt.Errorf("fetch page %d: %w", fetched+1, err)
		}

		key := cache.PageKey{Start: page.RangeStart, End: page.RangeEnd}
		if err := r.store.PutPage(ctx, key, page.Raw); err != nil {
			return fetched, err
		}

		fetched++
		pagesIngestedTotal.Inc()
		logger.Debug().
			Str("key", key.String()).
			Int("page", fetched).
			Int("entries", len(page.Entries)).
			Msg("Page stored")

		url = page.NextURL
		if url != "" && r.delay > 0 {
			select {
			case <-ctx.Done():
				return fetched, ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}

	return fetched, nil
}
