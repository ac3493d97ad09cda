package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesStored tracks page writes by backend (file, redis)
	PagesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_pages_stored_total",
			Help: "Total number of leaderboard pages written to the cache",
		},
		[]string{"backend"},
	)

	// Resets tracks full store resets by backend
	Resets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_resets_total",
			Help: "Total number of cache resets",
		},
		[]string{"backend"},
	)

	// DatasetHits tracks dataset loads served from the cache
	DatasetHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_dataset_hits_total",
			Help: "Total number of dataset loads served from the cache",
		},
		[]string{"backend"},
	)

	// DatasetMisses tracks dataset loads that found nothing stored
	DatasetMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_dataset_misses_total",
			Help: "Total number of dataset loads that missed",
		},
		[]string{"backend"},
	)
)

const (
	backendFile  = "file"
	backendRedis = "redis"
)
