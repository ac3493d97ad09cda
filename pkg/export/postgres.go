package export

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/stats"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/steam"
)

var rowsExportedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leaderboard_rows_exported_total",
	Help: "Total rows written to Postgres by table",
}, []string{"table"})

// entryInsertChunk bounds how many rows go into one batch.
const entryInsertChunk = 1000

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Snapshot identifies one exported board state.
type Snapshot struct {
	// ID is the snapshot identifier, usually a fresh UUID string.
	ID string

	// AppID and LeaderboardID name the board the snapshot came from.
	AppID         string
	LeaderboardID string

	// AssembledAt is when the unified dataset was built.
	AssembledAt time.Time
}

// PostgresSink persists snapshots to Postgres. One snapshot produces a row
// in snapshots, the full entry list in leaderboard_entries and one row per
// division in division_stats. Re-exporting the same snapshot ID is a
// no-op thanks to ON CONFLICT DO NOTHING.
type PostgresSink struct {
	pool   *pgxpool.Pool
	schema string
	logger zerolog.Logger
}

// NewPostgresSink connects to Postgres using the given DSN. The schema
// name must be a plain lowercase identifier; it is created on Save if
// missing.
func NewPostgresSink(ctx context.Context, dsn, schema string) (*PostgresSink, error) {
	if schema == "" {
		schema = "public"
	}
	if !identPattern.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name %q", schema)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresSink{
		pool:   pool,
		schema: schema,
		logger: log.With().Str("component", "postgres-sink").Logger(),
	}, nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}

// EnsureSchema creates the schema and tables if they do not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, s.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.snapshots (
			id TEXT PRIMARY KEY,
			app_id TEXT NOT NULL,
			leaderboard_id TEXT NOT NULL,
			assembled_at TIMESTAMPTZ NOT NULL,
			entry_count INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.leaderboard_entries (
			snapshot_id TEXT NOT NULL REFERENCES %s.snapshots(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			steamid TEXT NOT NULL,
			score INTEGER NOT NULL,
			PRIMARY KEY (snapshot_id, rank)
		)`, s.schema, s.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.division_stats (
			snapshot_id TEXT NOT NULL REFERENCES %s.snapshots(id) ON DELETE CASCADE,
			division TEXT NOT NULL,
			lower_bound INTEGER NOT NULL,
			entry_count INTEGER NOT NULL,
			percent DOUBLE PRECISION NOT NULL,
			top_percent DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (snapshot_id, division)
		)`, s.schema, s.schema),
	}

	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Save exports one snapshot: its metadata row, all entries and all
// division rows.
func (s *PostgresSink) Save(ctx context.Context, snap Snapshot, entries []steam.Entry, bins []stats.BinStats) error {
	if snap.ID == "" {
		return fmt.Errorf("snapshot ID is required")
	}

	startTime := time.Now()

	insertSnap := fmt.Sprintf(`INSERT INTO %s.snapshots
		(id, app_id, leaderboard_id, assembled_at, entry_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`, s.schema)
	if _, err := s.pool.Exec(ctx, insertSnap,
		snap.ID, snap.AppID, snap.LeaderboardID, snap.AssembledAt, len(entries)); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	rowsExportedTotal.WithLabelValues("snapshots").Inc()

	if err := s.insertEntries(ctx, snap.ID, entries); err != nil {
		return err
	}
	if err := s.insertBinStats(ctx, snap.ID, bins); err != nil {
		return err
	}

	s.logger.Info().
		Str("snapshot_id", snap.ID).
		Int("entries", len(entries)).
		Int("divisions", len(bins)).
		Dur("duration", time.Since(startTime)).
		Msg("Snapshot exported")
	return nil
}

func (s *PostgresSink) insertEntries(ctx context.Context, snapshotID string, entries []steam.Entry) error {
	insert := fmt.Sprintf(`INSERT INTO %s.leaderboard_entries
		(snapshot_id, rank, steamid, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (snapshot_id, rank) DO NOTHING`, s.schema)

	for start := 0; start < len(entries); start += entryInsertChunk {
		end := min(start+entryInsertChunk, len(entries))

		b := &pgx.Batch{}
		for _, e := range entries[start:end] {
			b.Queue(insert, snapshotID, e.Rank, e.SteamID, e.Score)
		}

		br := s.pool.SendBatch(ctx, b)
		for i := 0; i < b.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert entries: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("insert entries: %w", err)
		}

		rowsExportedTotal.WithLabelValues("leaderboard_entries").Add(float64(end - start))
	}
	return nil
}

func (s *PostgresSink) insertBinStats(ctx context.Context, snapshotID string, bins []stats.BinStats) error {
	if len(bins) == 0 {
		return nil
	}

	insert := fmt.Sprintf(`INSERT INTO %s.division_stats
		(snapshot_id, division, lower_bound, entry_count, percent, top_percent)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (snapshot_id, division) DO NOTHING`, s.schema)

	b := &pgx.Batch{}
	for _, row := range bins {
		b.Queue(insert, snapshotID, row.Label, row.Lower, row.Count, row.Percent, row.CumulativeTopPercent)
	}

	br := s.pool.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert division stats: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert division stats: %w", err)
	}

	rowsExportedTotal.WithLabelValues("division_stats").Add(float64(len(bins)))
	return nil
}
