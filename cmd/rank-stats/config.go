package main

import (
	"fmt"
	"os"
	"time"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/stats"
)

// config holds everything the pipeline needs, resolved from the
// environment.
type config struct {
	AppID          string
	LeaderboardID  string
	LeaderboardURL string

	CacheBackend string
	CacheDir     string
	DatasetCache string
	RedisURL     string

	OutCSV     string
	StatsCSV   string
	SubTierCSV string

	PGDSN    string
	PGSchema string

	Divisions stats.BinSpec
	SubTiers  stats.BinSpec

	FetchDelay  time.Duration
	MetricsAddr string
	UserAgent   string

	LogLevel  string
	LogPretty bool
}

// loadConfig resolves the configuration from environment variables,
// falling back to defaults aimed at the Rivals of Aether II ranked board.
func loadConfig() (config, error) {
	cfg := config{
		AppID:          getEnv("APP_ID", "2217000"),
		LeaderboardID:  getEnv("LEADERBOARD_ID", "14800950"),
		LeaderboardURL: os.Getenv("LEADERBOARD_URL"),
		CacheBackend:   getEnv("CACHE_BACKEND", "file"),
		CacheDir:       getEnv("CACHE_DIR", "./cache/xml"),
		DatasetCache:   getEnv("DATASET_CACHE", "./cache/dataset.json"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		OutCSV:         getEnv("OUT_CSV", "./leaderboard.csv"),
		StatsCSV:       getEnv("STATS_CSV", "./division_stats.csv"),
		SubTierCSV:     getEnv("SUBTIER_CSV", "./subtier_stats.csv"),
		PGDSN:          os.Getenv("PG_DSN"),
		PGSchema:       getEnv("PG_SCHEMA", "public"),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		UserAgent:      getEnv("USER_AGENT", "steam-rank-stats/1.0"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnv("LOG_PRETTY", "false") == "true",
	}

	if cfg.CacheBackend != "file" && cfg.CacheBackend != "redis" {
		return config{}, fmt.Errorf("unknown CACHE_BACKEND %q (want file or redis)", cfg.CacheBackend)
	}

	delay, err := time.ParseDuration(getEnv("FETCH_DELAY", "500ms"))
	if err != nil {
		return config{}, fmt.Errorf("parse FETCH_DELAY: %w", err)
	}
	if delay < 0 {
		return config{}, fmt.Errorf("FETCH_DELAY must not be negative, got %s", delay)
	}
	cfg.FetchDelay = delay

	if value := os.Getenv("DIVISIONS"); value != "" {
		cfg.Divisions, err = parseDivisions(value)
		if err != nil {
			return config{}, fmt.Errorf("parse DIVISIONS: %w", err)
		}
	} else {
		cfg.Divisions = defaultDivisions()
	}
	cfg.SubTiers = defaultSubTiers()

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
