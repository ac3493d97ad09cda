package dataset

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/steam"
)

// Dataset is the unified, board-wide list of leaderboard entries, ordered
// by the position of the page each entry came from.
type Dataset struct {
	Entries     []steam.Entry `json:"entries"`
	AssembledAt time.Time     `json:"assembled_at"`
}

// Encode serializes the dataset for the dataset store.
func (d *Dataset) Encode() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return data, nil
}

// Decode deserializes a dataset produced by Encode.
func Decode(data []byte) (*Dataset, error) {
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &d, nil
}
