package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedisStore keeps pages and the dataset in Redis. Pages live under
// "{prefix}:page:{start}-{end}" with an index set at "{prefix}:pages", the
// completion marker at "{prefix}:complete" and the dataset at
// "{prefix}:dataset". Entries carry no TTL: a leaderboard snapshot stays
// valid until the store is reset.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed store from a connection URL
// (e.g. "redis://localhost:6379/0"). The prefix namespaces all keys so
// several boards can share one Redis instance.
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	if prefix == "" {
		prefix = "leaderboard"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	return &RedisStore{
		client: redis.NewClient(opt),
		prefix: prefix,
		logger: log.With().Str("component", "redis-cache").Logger(),
	}, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return &IOError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Empty reports whether the page index holds no keys.
func (s *RedisStore) Empty(ctx context.Context) (bool, error) {
	n, err := s.client.SCard(ctx, s.indexKey()).Result()
	if err != nil {
		return false, &IOError{Op: "list-pages", Err: err}
	}
	return n == 0, nil
}

// PutPage stores one page body and records its key in the index set.
func (s *RedisStore) PutPage(ctx context.Context, key PageKey, body []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.pageKey(key), body, 0)
	pipe.SAdd(ctx, s.indexKey(), key.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return &IOError{Op: "put-page", Key: key.String(), Err: err}
	}

	PagesStored.WithLabelValues(backendRedis).Inc()
	s.logger.Debug().
		Str("key", key.String()).
		Int("bytes", len(body)).
		Msg("Stored page")
	return nil
}

// Pages returns every indexed page body. Index members whose body has gone
// missing are skipped.
func (s *RedisStore) Pages(ctx context.Context) (map[PageKey][]byte, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, &IOError{Op: "list-pages", Err: err}
	}

	pages := make(map[PageKey][]byte, len(members))
	for _, member := range members {
		key, err := ParseKey(member)
		if err != nil {
			return nil, &IOError{Op: "list-pages", Key: member, Err: err}
		}

		body, err := s.client.Get(ctx, s.pageKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, &IOError{Op: "read-page", Key: member, Err: err}
		}
		pages[key] = body
	}
	return pages, nil
}

// MarkComplete records the completion marker with the current time as its
// value.
func (s *RedisStore) MarkComplete(ctx context.Context) error {
	stamp := time.Now().UTC().Format(time.RFC3339)
	if err := s.client.Set(ctx, s.markerKey(), stamp, 0).Err(); err != nil {
		return &IOError{Op: "mark-complete", Err: err}
	}
	return nil
}

// Complete reports whether the completion marker is set.
func (s *RedisStore) Complete(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.markerKey()).Result()
	if err != nil {
		return false, &IOError{Op: "check-complete", Err: err}
	}
	return n > 0, nil
}

// Reset drops all pages, the index set and the completion marker. The
// dataset is left alone.
func (s *RedisStore) Reset(ctx context.Context) error {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return &IOError{Op: "reset", Err: err}
	}

	keys := make([]string, 0, len(members)+2)
	for _, member := range members {
		keys = append(keys, s.prefix+":page:"+member)
	}
	keys = append(keys, s.indexKey(), s.markerKey())

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return &IOError{Op: "reset", Err: err}
	}

	Resets.WithLabelValues(backendRedis).Inc()
	s.logger.Info().Int("pages_removed", len(members)).Msg("Cache reset")
	return nil
}

// HasDataset reports whether a dataset is stored.
func (s *RedisStore) HasDataset(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.datasetKey()).Result()
	if err != nil {
		return false, &IOError{Op: "check-dataset", Err: err}
	}
	return n > 0, nil
}

// LoadDataset reads the stored dataset, or returns ErrNoDataset.
func (s *RedisStore) LoadDataset(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.datasetKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		DatasetMisses.WithLabelValues(backendRedis).Inc()
		return nil, ErrNoDataset
	}
	if err != nil {
		return nil, &IOError{Op: "load-dataset", Err: err}
	}

	DatasetHits.WithLabelValues(backendRedis).Inc()
	return data, nil
}

// SaveDataset stores the dataset, replacing any previous one.
func (s *RedisStore) SaveDataset(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.datasetKey(), data, 0).Err(); err != nil {
		return &IOError{Op: "save-dataset", Err: err}
	}

	s.logger.Debug().Int("bytes", len(data)).Msg("Stored dataset")
	return nil
}

func (s *RedisStore) pageKey(key PageKey) string {
	return s.prefix + ":page:" + key.String()
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":pages"
}

func (s *RedisStore) markerKey() string {
	return s.prefix + ":complete"
}

func (s *RedisStore) datasetKey() string {
	return s.prefix + ":dataset"
}
