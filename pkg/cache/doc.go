// Package cache persists fetched leaderboard pages and the assembled
// dataset between runs.
//
// A PageStore holds one verbatim XML body per page, keyed by the entry
// range the page covers, plus a completion marker that records whether the
// store holds the whole board. A DatasetStore holds the serialized unified
// dataset. Two backends implement both interfaces:
//
//   - FileStore keeps one file per page under a directory, named
//     "{start}-{end}.xml", with the dataset as a separate artifact file.
//   - RedisStore keeps the same data in Redis for shared environments.
//
// Page bodies are stored exactly as fetched, so a run served from cache
// reproduces what the network run saw. Storing a page under an existing
// key replaces the body, which makes repeated ingestion runs idempotent.
//
// # Basic Usage
//
//	store, err := cache.NewFileStore("./cache/xml", "./cache/dataset.json")
//	if err != nil {
//		return err
//	}
//
//	key := cache.PageKey{Start: 0, End: 5000}
//	if err := store.PutPage(ctx, key, body); err != nil {
//		return err
//	}
//
//	complete, err := store.Complete(ctx)
//	if err != nil {
//		return err
//	}
//	if !complete {
//		// Pages may be missing - refetch the board.
//	}
//
// # Errors
//
// Backend failures are reported as *IOError, which carries the failed
// operation and the page key involved. A missing dataset is reported as
// ErrNoDataset so callers can tell "not built yet" from "broken".
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - leaderboard_cache_pages_stored_total{backend} - Pages written
//   - leaderboard_cache_resets_total{backend} - Store resets
//   - leaderboard_cache_dataset_hits_total{backend} - Dataset loads served
//   - leaderboard_cache_dataset_misses_total{backend} - Dataset loads missed
package cache
