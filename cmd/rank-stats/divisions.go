package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/stats"
)

// defaultDivisions returns the ranked divisions of Rivals of Aether II,
// the board this tool targets by default.
func defaultDivisions() stats.BinSpec {
	return stats.BinSpec{
		{Lower: 0, Label: "Stone", Color: "#5A5A5A"},
		{Lower: 500, Label: "Bronze", Color: "#B87333"},
		{Lower: 700, Label: "Silver", Color: "#C0C0C0"},
		{Lower: 900, Label: "Gold", Color: "#FFD700"},
		{Lower: 1100, Label: "Platinum", Color: "#C5B4E3"},
		{Lower: 1300, Label: "Diamond", Color: "#00BFFF"},
		{Lower: 1500, Label: "Master", Color: "#50C878"},
	}
}

// defaultSubTiers returns the same ladder split into its sub-tiers.
func defaultSubTiers() stats.BinSpec {
	return stats.BinSpec{
		{Lower: 0, Label: "Stone 0-399", Color: "#5A5A5A"},
		{Lower: 400, Label: "Stone 400-499", Color: "#7D7D7D"},
		{Lower: 500, Label: "Bronze 500-599", Color: "#B87333"},
		{Lower: 600, Label: "Bronze 600-699", Color: "#D18E5F"},
		{Lower: 700, Label: "Silver 700-799", Color: "#C0C0C0"},
		{Lower: 800, Label: "Silver 800-899", Color: "#D9D9D9"},
		{Lower: 900, Label: "Gold 900-999", Color: "#FFD700"},
		{Lower: 1000, Label: "Gold 1000-1099", Color: "#FFE66D"},
		{Lower: 1100, Label: "Plat 1100-1199", Color: "#C5B4E3"},
		{Lower: 1200, Label: "Plat 1200-1299", Color: "#E3D7F8"},
		{Lower: 1300, Label: "Diamond 1300-1399", Color: "#00BFFF"},
		{Lower: 1400, Label: "Diamond 1400-1499", Color: "#82CAFF"},
		{Lower: 1500, Label: "Master 1500+", Color: "#50C878"},
	}
}

// parseDivisions parses the DIVISIONS environment value. Divisions are
// comma separated, each "lower:label" or "lower:label:color".
//
// Example:
//
//	0:Stone:#5A5A5A,500:Bronze:#B87333,1500:Master
func parseDivisions(value string) (stats.BinSpec, error) {
	parts := strings.Split(value, ",")
	spec := make(stats.BinSpec, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fields := strings.SplitN(part, ":", 3)
		if len(fields) < 2 {
			return nil, fmt.Errorf("division %q: want lower:label[:color]", part)
		}

		lower, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("division %q: bad lower bound: %w", part, err)
		}

		label := strings.TrimSpace(fields[1])
		if label == "" {
			return nil, fmt.Errorf("division %q: empty label", part)
		}

		div := stats.Division{Lower: lower, Label: label}
		if len(fields) == 3 {
			div.Color = strings.TrimSpace(fields[2])
		}
		spec = append(spec, div)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}
