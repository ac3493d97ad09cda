// Package stats bins leaderboard scores into labelled divisions and
// derives per-division counts, shares and cumulative top shares.
package stats

import (
	"errors"
	"fmt"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/steam"
)

// ErrInvalidSpec is returned for bin specifications that are empty or not
// strictly increasing.
var ErrInvalidSpec = errors.New("invalid bin specification")

// Division is one score band. A division covers scores from Lower
// (inclusive) up to the next division's Lower (exclusive); the last
// division is open-ended.
type Division struct {
	// Lower is the inclusive lower score bound.
	Lower int

	// Label names the division (e.g. "Gold").
	Label string

	// Color is an optional display color, carried through untouched.
	Color string
}

// BinSpec is an ordered list of divisions with strictly increasing lower
// bounds.
type BinSpec []Division

// Validate checks that the spec is non-empty and strictly increasing.
func (s BinSpec) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no divisions", ErrInvalidSpec)
	}
	for i := 1; i < len(s); i++ {
		if s[i].Lower <= s[i-1].Lower {
			return fmt.Errorf("%w: bound %d (%q) not above bound %d (%q)",
				ErrInvalidSpec, s[i].Lower, s[i].Label, s[i-1].Lower, s[i-1].Label)
		}
	}
	return nil
}

// binIndex returns the index of the division covering score, or -1 when
// the score falls below the lowest bound.
func (s BinSpec) binIndex(score int) int {
	for i := len(s) - 1; i >= 0; i-- {
		if score >= s[i].Lower {
			return i
		}
	}
	return -1
}

// BinStats is the result row for one division.
type BinStats struct {
	Division

	// Count of entries whose score falls in this division.
	Count int

	// Percent of binned entries in this division.
	Percent float64

	// CumulativeTopPercent of binned entries in this division or any
	// higher one, i.e. "the top X% of players are at least here".
	CumulativeTopPercent float64
}

// Compute bins the entries' scores against the spec, one result row per
// division in spec order. Scores below the lowest bound are dropped and do
// not contribute to any denominator. An empty entry list yields all-zero
// rows, never an error; an invalid spec yields ErrInvalidSpec.
func Compute(entries []steam.Entry, spec BinSpec) ([]BinStats, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	counts := make([]int, len(spec))
	binned := 0
	for _, e := range entries {
		idx := spec.binIndex(e.Score)
		if idx < 0 {
			continue
		}
		counts[idx]++
		binned++
	}

	out := make([]BinStats, len(spec))
	fromTop := 0
	for i := len(spec) - 1; i >= 0; i-- {
		fromTop += counts[i]
		out[i] = BinStats{Division: spec[i], Count: counts[i]}
		if binned > 0 {
			out[i].Percent = float64(counts[i]) / float64(binned) * 100
			out[i].CumulativeTopPercent = float64(fromTop) / float64(binned) * 100
		}
	}

	return out, nil
}
