package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// completeMarker is the file recording that every page of the board is
// present. Its name can never collide with a page file.
const completeMarker = "complete"

// FileStore keeps pages as plain files under a directory, one file per
// page named "{start}-{end}.xml", and the dataset as a separate artifact
// file. Files hold the verbatim fetched bodies.
type FileStore struct {
	dir         string
	datasetPath string
	logger      zerolog.Logger
}

// NewFileStore creates a file-backed store rooted at dir, with the dataset
// artifact at datasetPath. Both parent directories are created if needed.
func NewFileStore(dir, datasetPath string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if datasetPath == "" {
		return nil, fmt.Errorf("dataset path is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Op: "init", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(datasetPath), 0o755); err != nil {
		return nil, &IOError{Op: "init", Err: err}
	}

	return &FileStore{
		dir:         dir,
		datasetPath: datasetPath,
		logger:      log.With().Str("component", "file-cache").Logger(),
	}, nil
}

// Empty reports whether the directory holds no page files.
func (s *FileStore) Empty(ctx context.Context) (bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return false, &IOError{Op: "list-pages", Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := pageFileKey(entry.Name()); ok {
			return false, nil
		}
	}
	return true, nil
}

// PutPage writes one page body to "{start}-{end}.xml", replacing any
// existing file.
func (s *FileStore) PutPage(ctx context.Context, key PageKey, body []byte) error {
	path := s.pagePath(key)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return &IOError{Op: "put-page", Key: key.String(), Err: err}
	}

	PagesStored.WithLabelValues(backendFile).Inc()
	s.logger.Debug().
		Str("key", key.String()).
		Int("bytes", len(body)).
		Msg("Stored page")
	return nil
}

// Pages reads every page file in the directory. Files whose names do not
// follow the page naming scheme are ignored.
func (s *FileStore) Pages(ctx context.Context) (map[PageKey][]byte, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &IOError{Op: "list-pages", Err: err}
	}

	pages := make(map[PageKey][]byte)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := pageFileKey(entry.Name())
		if !ok {
			continue
		}

		body, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, &IOError{Op: "read-page", Key: key.String(), Err: err}
		}
		pages[key] = body
	}
	return pages, nil
}

// MarkComplete records the completion marker with the current time as its
// content.
func (s *FileStore) MarkComplete(ctx context.Context) error {
	stamp := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(s.markerPath(), []byte(stamp), 0o644); err != nil {
		return &IOError{Op: "mark-complete", Err: err}
	}
	return nil
}

// Complete reports whether the completion marker exists.
func (s *FileStore) Complete(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.markerPath())
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &IOError{Op: "check-complete", Err: err}
}

// Reset removes all page files and the completion marker. Foreign files in
// the directory are left alone.
func (s *FileStore) Reset(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return &IOError{Op: "reset", Err: err}
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		_, isPage := pageFileKey(name)
		if !isPage && name != completeMarker {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return &IOError{Op: "reset", Key: name, Err: err}
		}
		removed++
	}

	Resets.WithLabelValues(backendFile).Inc()
	s.logger.Info().Int("files_removed", removed).Msg("Cache reset")
	return nil
}

// HasDataset reports whether the dataset artifact exists.
func (s *FileStore) HasDataset(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.datasetPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &IOError{Op: "check-dataset", Err: err}
}

// LoadDataset reads the dataset artifact, or returns ErrNoDataset.
func (s *FileStore) LoadDataset(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.datasetPath)
	if os.IsNotExist(err) {
		DatasetMisses.WithLabelValues(backendFile).Inc()
		return nil, ErrNoDataset
	}
	if err != nil {
		return nil, &IOError{Op: "load-dataset", Err: err}
	}

	DatasetHits.WithLabelValues(backendFile).Inc()
	return data, nil
}

// SaveDataset writes the dataset artifact, replacing any previous one.
func (s *FileStore) SaveDataset(ctx context.Context, data []byte) error {
	if err := os.WriteFile(s.datasetPath, data, 0o644); err != nil {
		return &IOError{Op: "save-dataset", Err: err}
	}

	s.logger.Debug().Int("bytes", len(data)).Msg("Stored dataset")
	return nil
}

func (s *FileStore) pagePath(key PageKey) string {
	return filepath.Join(s.dir, key.String()+".xml")
}

func (s *FileStore) markerPath() string {
	return filepath.Join(s.dir, completeMarker)
}

// pageFileKey extracts the page key from a file name of the form
// "{start}-{end}.xml". The second return is false for any other name.
func pageFileKey(name string) (PageKey, bool) {
	base, found := strings.CutSuffix(name, ".xml")
	if !found {
		return PageKey{}, false
	}
	key, err := ParseKey(base)
	if err != nil {
		return PageKey{}, false
	}
	return key, true
}
