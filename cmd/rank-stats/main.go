// Command rank-stats fetches a Steam leaderboard, caches it, and derives
// per-division rank statistics.
//
// One invocation runs the whole pipeline: ingest the board's pages (or
// reuse a previously completed cache), assemble the unified dataset, bin
// the scores into divisions, and write the leaderboard and statistics as
// CSV files, optionally mirroring them to Postgres. Configuration comes
// from the environment; a .env file in the working directory is loaded
// first.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/cache"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/dataset"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/export"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/ingest"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/logging"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/stats"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/steam"
)

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rank-stats: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("rank-stats")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Pipeline failed")
	}
}

func run(ctx context.Context, cfg config, logger zerolog.Logger) error {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := steam.New(steam.Config{UserAgent: cfg.UserAgent})
	if err != nil {
		return err
	}

	startURL := cfg.LeaderboardURL
	if startURL == "" {
		startURL = client.LeaderboardURL(cfg.AppID, cfg.LeaderboardID)
	}

	runner, err := ingest.NewRunner(ingest.Config{
		StartURL:   startURL,
		Fetcher:    client,
		Store:      store,
		FetchDelay: cfg.FetchDelay,
	})
	if err != nil {
		return err
	}

	assembler, err := dataset.NewAssembler(dataset.Config{
		Ingestor: runner,
		Pages:    store,
		Datasets: store,
	})
	if err != nil {
		return err
	}

	ds, err := assembler.Dataset(ctx)
	if err != nil {
		return err
	}

	divisionStats, err := stats.Compute(ds.Entries, cfg.Divisions)
	if err != nil {
		return err
	}
	subTierStats, err := stats.Compute(ds.Entries, cfg.SubTiers)
	if err != nil {
		return err
	}

	logger.Info().Int("players", len(ds.Entries)).Msg("Dataset ready")
	for _, row := range divisionStats {
		logger.Info().
			Str("division", row.Label).
			Int("players", row.Count).
			Float64("percent", row.Percent).
			Float64("top_percent", row.CumulativeTopPercent).
			Msg("Division distribution")
	}

	if err := writeFile(cfg.OutCSV, func(w io.Writer) error {
		return export.WriteLeaderboardCSV(w, ds.Entries)
	}); err != nil {
		return err
	}
	logger.Info().Str("path", cfg.OutCSV).Int("entries", len(ds.Entries)).Msg("Wrote leaderboard CSV")

	if err := writeFile(cfg.StatsCSV, func(w io.Writer) error {
		return export.WriteBinStatsCSV(w, divisionStats)
	}); err != nil {
		return err
	}
	logger.Info().Str("path", cfg.StatsCSV).Msg("Wrote division stats CSV")

	if err := writeFile(cfg.SubTierCSV, func(w io.Writer) error {
		return export.WriteBinStatsCSV(w, subTierStats)
	}); err != nil {
		return err
	}
	logger.Info().Str("path", cfg.SubTierCSV).Msg("Wrote sub-tier stats CSV")

	if cfg.PGDSN != "" {
		if err := exportPostgres(ctx, cfg, ds, divisionStats); err != nil {
			return err
		}
	}

	return nil
}

// openStore builds the configured cache backend. The returned func
// releases backend resources.
func openStore(cfg config) (cache.Store, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		prefix := fmt.Sprintf("leaderboard:%s:%s", cfg.AppID, cfg.LeaderboardID)
		store, err := cache.NewRedisStore(cfg.RedisURL, prefix)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		store, err := cache.NewFileStore(cfg.CacheDir, cfg.DatasetCache)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func exportPostgres(ctx context.Context, cfg config, ds *dataset.Dataset, bins []stats.BinStats) error {
	sink, err := export.NewPostgresSink(ctx, cfg.PGDSN, cfg.PGSchema)
	if err != nil {
		return err
	}
	defer sink.Close()

	if err := sink.EnsureSchema(ctx); err != nil {
		return err
	}

	snap := export.Snapshot{
		ID:            uuid.NewString(),
		AppID:         cfg.AppID,
		LeaderboardID: cfg.LeaderboardID,
		AssembledAt:   ds.AssembledAt,
	}
	return sink.Save(ctx, snap, ds.Entries, bins)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// serveMetrics exposes Prometheus metrics, pprof and a health probe for
// long runs.
func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	logger.Info().Str("addr", addr).Msg("Metrics listener started")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics listener failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
