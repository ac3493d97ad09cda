package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoDataset is returned by LoadDataset when no dataset has been saved.
var ErrNoDataset = errors.New("cache: no dataset stored")

// PageStore persists raw leaderboard pages between runs. Implementations
// store bodies verbatim and treat PutPage on an existing key as a replace,
// so re-running ingestion against a populated store is harmless.
type PageStore interface {
	// Empty reports whether the store holds no pages.
	Empty(ctx context.Context) (bool, error)

	// PutPage stores one page body under its key, replacing any previous
	// body stored there.
	PutPage(ctx context.Context, key PageKey, body []byte) error

	// Pages returns every stored page body keyed by entry range.
	Pages(ctx context.Context) (map[PageKey][]byte, error)

	// MarkComplete records that the store holds every page of the board.
	MarkComplete(ctx context.Context) error

	// Complete reports whether MarkComplete was recorded since the last
	// Reset.
	Complete(ctx context.Context) (bool, error)

	// Reset drops all pages and the completion marker.
	Reset(ctx context.Context) error
}

// DatasetStore persists the serialized unified dataset.
type DatasetStore interface {
	// HasDataset reports whether a dataset is stored.
	HasDataset(ctx context.Context) (bool, error)

	// LoadDataset returns the stored dataset, or ErrNoDataset.
	LoadDataset(ctx context.Context) ([]byte, error)

	// SaveDataset stores the dataset, replacing any previous one.
	SaveDataset(ctx context.Context, data []byte) error
}

// Store combines page and dataset persistence. Both provided backends
// implement it.
type Store interface {
	PageStore
	DatasetStore
}

// IOError reports a cache backend failure while reading or writing.
type IOError struct {
	// Op is the operation that failed (e.g. "put-page", "load-dataset").
	Op string

	// Key is the page key involved, or "" when the operation has none.
	Key string

	// Err is the underlying backend error.
	Err error
}

func (e *IOError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
