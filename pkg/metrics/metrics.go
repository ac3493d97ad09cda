// Package metrics provides the centralized Prometheus metrics registry for
// the leaderboard pipeline. All metrics are defined in their respective
// packages (steam, cache, ingest, dataset, export) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pipeline.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/steam):
//   - leaderboard_page_requests_total{status} (Counter): Page requests by HTTP status
//   - leaderboard_page_request_duration_seconds (Histogram): Page request duration
//   - leaderboard_page_fetch_errors_total{kind} (Counter): Fetch failures by kind (network, status, parse)
//
// Cache Metrics (pkg/cache):
//   - leaderboard_cache_pages_stored_total{backend} (Counter): Pages written by backend (file, redis)
//   - leaderboard_cache_resets_total{backend} (Counter): Full cache resets
//   - leaderboard_cache_dataset_hits_total{backend} (Counter): Dataset loads served
//   - leaderboard_cache_dataset_misses_total{backend} (Counter): Dataset loads missed
//
// Ingest Metrics (pkg/ingest):
//   - leaderboard_ingest_runs_total{result} (Counter): Runs by result (cache_hit, fetched, error)
//   - leaderboard_pages_ingested_total (Counter): Pages fetched and stored
//
// Dataset Metrics (pkg/dataset):
//   - leaderboard_dataset_builds_total{source} (Counter): Dataset requests by source (cache, built)
//
// Export Metrics (pkg/export):
//   - leaderboard_rows_exported_total{table} (Counter): Rows written to Postgres by table
//
// Example Prometheus Queries:
//
//   # Share of runs served entirely from cache
//   sum(rate(leaderboard_ingest_runs_total{result="cache_hit"}[1h])) /
//   sum(rate(leaderboard_ingest_runs_total[1h]))
//
//   # Fetch error rate by kind
//   rate(leaderboard_page_fetch_errors_total[5m])
//
//   # P95 page request latency
//   histogram_quantile(0.95, rate(leaderboard_page_request_duration_seconds_bucket[5m]))
