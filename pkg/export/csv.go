// Package export writes leaderboard snapshots to downstream consumers:
// CSV files and Postgres.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/stats"
	"github.com/leaderboard-tools/steam-rank-stats/pkg/steam"
)

// WriteLeaderboardCSV writes one row per entry with columns
// rank,name,score, ordered by rank ascending regardless of input order.
func WriteLeaderboardCSV(w io.Writer, entries []steam.Entry) error {
	sorted := make([]steam.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Rank < sorted[j].Rank
	})

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "name", "score"}); err != nil {
		return fmt.Errorf("write leaderboard header: %w", err)
	}
	for _, e := range sorted {
		row := []string{strconv.Itoa(e.Rank), e.SteamID, strconv.Itoa(e.Score)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write leaderboard row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush leaderboard csv: %w", err)
	}
	return nil
}

// WriteBinStatsCSV writes one row per division with columns
// division,lower,count,percent,top_percent, in input order. Percentages
// are rendered with two decimals.
func WriteBinStatsCSV(w io.Writer, rows []stats.BinStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"division", "lower", "count", "percent", "top_percent"}); err != nil {
		return fmt.Errorf("write stats header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Label,
			strconv.Itoa(row.Lower),
			strconv.Itoa(row.Count),
			strconv.FormatFloat(row.Percent, 'f', 2, 64),
			strconv.FormatFloat(row.CumulativeTopPercent, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write stats row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush stats csv: %w", err)
	}
	return nil
}
