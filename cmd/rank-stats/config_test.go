package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/stats"
)

// clearEnv blanks every variable loadConfig reads so ambient shell state
// cannot leak into the test. Empty values fall back to the defaults.
func clearEnv(t *testing.T) {
	t.Helper()

	keys := []string{
		"APP_ID", "LEADERBOARD_ID", "LEADERBOARD_URL",
		"CACHE_BACKEND", "CACHE_DIR", "DATASET_CACHE", "REDIS_URL",
		"OUT_CSV", "STATS_CSV", "SUBTIER_CSV",
		"PG_DSN", "PG_SCHEMA", "METRICS_ADDR",
		"USER_AGENT", "LOG_LEVEL", "LOG_PRETTY",
		"FETCH_DELAY", "DIVISIONS",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.AppID != "2217000" {
		t.Errorf("AppID = %q, want 2217000", cfg.AppID)
	}
	if cfg.LeaderboardID != "14800950" {
		t.Errorf("LeaderboardID = %q, want 14800950", cfg.LeaderboardID)
	}
	if cfg.LeaderboardURL != "" {
		t.Errorf("LeaderboardURL = %q, want empty", cfg.LeaderboardURL)
	}
	if cfg.CacheBackend != "file" {
		t.Errorf("CacheBackend = %q, want file", cfg.CacheBackend)
	}
	if cfg.CacheDir != "./cache/xml" {
		t.Errorf("CacheDir = %q, want ./cache/xml", cfg.CacheDir)
	}
	if cfg.DatasetCache != "./cache/dataset.json" {
		t.Errorf("DatasetCache = %q, want ./cache/dataset.json", cfg.DatasetCache)
	}
	if cfg.OutCSV != "./leaderboard.csv" {
		t.Errorf("OutCSV = %q, want ./leaderboard.csv", cfg.OutCSV)
	}
	if cfg.PGSchema != "public" {
		t.Errorf("PGSchema = %q, want public", cfg.PGSchema)
	}
	if cfg.FetchDelay != 500*time.Millisecond {
		t.Errorf("FetchDelay = %s, want 500ms", cfg.FetchDelay)
	}
	if cfg.UserAgent != "steam-rank-stats/1.0" {
		t.Errorf("UserAgent = %q, want steam-rank-stats/1.0", cfg.UserAgent)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.LogPretty {
		t.Error("LogPretty = true, want false")
	}
	if len(cfg.Divisions) != 7 {
		t.Errorf("Expected 7 default divisions, got %d", len(cfg.Divisions))
	}
	if len(cfg.SubTiers) != 13 {
		t.Errorf("Expected 13 default sub-tiers, got %d", len(cfg.SubTiers))
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ID", "440")
	t.Setenv("LEADERBOARD_ID", "42")
	t.Setenv("LEADERBOARD_URL", "http://localhost:8080/?xml=1")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache.internal:6379/1")
	t.Setenv("FETCH_DELAY", "2s")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("DIVISIONS", "0:Low,1000:High:#FFFFFF")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.AppID != "440" {
		t.Errorf("AppID = %q, want 440", cfg.AppID)
	}
	if cfg.LeaderboardID != "42" {
		t.Errorf("LeaderboardID = %q, want 42", cfg.LeaderboardID)
	}
	if cfg.LeaderboardURL != "http://localhost:8080/?xml=1" {
		t.Errorf("LeaderboardURL = %q", cfg.LeaderboardURL)
	}
	if cfg.CacheBackend != "redis" {
		t.Errorf("CacheBackend = %q, want redis", cfg.CacheBackend)
	}
	if cfg.RedisURL != "redis://cache.internal:6379/1" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.FetchDelay != 2*time.Second {
		t.Errorf("FetchDelay = %s, want 2s", cfg.FetchDelay)
	}
	if !cfg.LogPretty {
		t.Error("LogPretty = false, want true")
	}
	if len(cfg.Divisions) != 2 {
		t.Fatalf("Expected 2 divisions, got %d", len(cfg.Divisions))
	}
	if cfg.Divisions[1].Lower != 1000 || cfg.Divisions[1].Label != "High" || cfg.Divisions[1].Color != "#FFFFFF" {
		t.Errorf("Unexpected second division %+v", cfg.Divisions[1])
	}
	// Sub-tiers are not configurable and keep their defaults.
	if len(cfg.SubTiers) != 13 {
		t.Errorf("Expected 13 default sub-tiers, got %d", len(cfg.SubTiers))
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{
			name:    "unknown cache backend",
			key:     "CACHE_BACKEND",
			value:   "memcached",
			wantMsg: "CACHE_BACKEND",
		},
		{
			name:    "unparseable fetch delay",
			key:     "FETCH_DELAY",
			value:   "soon",
			wantMsg: "parse FETCH_DELAY",
		},
		{
			name:    "negative fetch delay",
			key:     "FETCH_DELAY",
			value:   "-1s",
			wantMsg: "must not be negative",
		},
		{
			name:    "divisions missing label",
			key:     "DIVISIONS",
			value:   "1000",
			wantMsg: "want lower:label",
		},
		{
			name:    "divisions bad lower bound",
			key:     "DIVISIONS",
			value:   "low:Stone",
			wantMsg: "bad lower bound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := loadConfig()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadConfigDivisionsOutOfOrder(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIVISIONS", "500:Mid,100:Low")

	_, err := loadConfig()
	if !errors.Is(err, stats.ErrInvalidSpec) {
		t.Errorf("Expected ErrInvalidSpec for descending bounds, got %v", err)
	}
}
