// Package dataset merges cached leaderboard pages into one unified dataset
// and persists it so later runs skip both the network and the merge.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/cache"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/steam"
)

var datasetBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leaderboard_dataset_builds_total",
	Help: "Total dataset requests by source",
}, []string{"source"})

// Ingestor ensures the page store holds the complete board before
// assembly. *ingest.Runner implements it.
type Ingestor interface {
	Run(ctx context.Context) (int, error)
}

// Config holds the assembler configuration.
type Config struct {
	// Ingestor fills the page store when needed.
	Ingestor Ingestor

	// Pages is the store the ingestor writes to.
	Pages cache.PageStore

	// Datasets persists the assembled dataset.
	Datasets cache.DatasetStore
}

// Assembler produces the unified dataset for one board.
type Assembler struct {
	ingestor Ingestor
	pages    cache.PageStore
	datasets cache.DatasetStore
	logger   zerolog.Logger
}

// NewAssembler creates an assembler from the given configuration.
func NewAssembler(cfg Config) (*Assembler, error) {
	if cfg.Ingestor == nil {
		return nil, fmt.Errorf("ingestor is required")
	}
	if cfg.Pages == nil {
		return nil, fmt.Errorf("page store is required")
	}
	if cfg.Datasets == nil {
		return nil, fmt.Errorf("dataset store is required")
	}

	return &Assembler{
		ingestor: cfg.Ingestor,
		pages:    cfg.Pages,
		datasets: cfg.Datasets,
		logger:   log.With().Str("component", "dataset").Logger(),
	}, nil
}

// Dataset returns the unified dataset, building it on first use. A stored
// dataset is decoded and returned as-is; otherwise ingestion is run, every
// cached page parsed, the pages ordered by the range start each page
// reports for itself, and the concatenated entries saved before returning.
// A page that fails to parse aborts assembly with a *steam.ParseError.
func (a *Assembler) Dataset(ctx context.Context) (*Dataset, error) {
	stored, err := a.datasets.LoadDataset(ctx)
	if err == nil {
		ds, err := Decode(stored)
		if err != nil {
			return nil, err
		}
		datasetBuildsTotal.WithLabelValues("cache").Inc()
		a.logger.Debug().
			Int("entries", len(ds.Entries)).
			Time("assembled_at", ds.AssembledAt).
			Msg("Dataset served from cache")
		return ds, nil
	}
	if !errors.Is(err, cache.ErrNoDataset) {
		return nil, err
	}

	if _, err := a.ingestor.Run(ctx); err != nil {
		return nil, err
	}

	ds, err := a.assemble(ctx)
	if err != nil {
		return nil, err
	}

	data, err := ds.Encode()
	if err != nil {
		return nil, err
	}
	if err := a.datasets.SaveDataset(ctx, data); err != nil {
		return nil, err
	}

	datasetBuildsTotal.WithLabelValues("built").Inc()
	a.logger.Info().Int("entries", len(ds.Entries)).Msg("Dataset assembled")
	return ds, nil
}

func (a *Assembler) assemble(ctx context.Context) (*Dataset, error) {
	bodies, err := a.pages.Pages(ctx)
	if err != nil {
		return nil, err
	}

	pages := make([]*steam.Page, 0, len(bodies))
	total := 0
	for key, body := range bodies {
		page, err := steam.ParsePage(body)
		if err != nil {
			return nil, fmt.Errorf("cached page %s: %w", key, err)
		}
		pages = append(pages, page)
		total += len(page.Entries)
	}

	// Order by what each page says about itself, not by store key. The two
	// agree for pages this tool wrote, but the page content is the source
	// of truth.
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].RangeStart != pages[j].RangeStart {
			return pages[i].RangeStart < pages[j].RangeStart
		}
		return pages[i].RangeEnd < pages[j].RangeEnd
	})

	entries := make([]steam.Entry, 0, total)
	for _, page := range pages {
		entries = append(entries, page.Entries...)
	}

	if len(pages) > 0 && pages[0].TotalEntries > 0 && pages[0].TotalEntries != len(entries) {
		a.logger.Warn().
			Int("reported", pages[0].TotalEntries).
			Int("assembled", len(entries)).
			Msg("Entry count differs from the board's reported total")
	}

	return &Dataset{
		Entries:     entries,
		AssembledAt: time.Now().UTC(),
	}, nil
}
