package cache

import (
	"fmt"
	"strconv"
	"strings"
)

// PageKey identifies one cached leaderboard page by the entry range the
// page reported for itself.
type PageKey struct {
	// Start is the first entry position the page covers.
	Start int

	// End is the last entry position the page covers.
	End int
}

// String generates the deterministic key string used for file names and
// Redis keys.
// Format: {start}-{end}
//
// Example:
//
//	0-5001
func (k PageKey) String() string {
	return fmt.Sprintf("%d-%d", k.Start, k.End)
}

// ParseKey parses a key string back into a PageKey. It accepts exactly the
// form String produces: two non-negative integers joined by a dash.
func ParseKey(s string) (PageKey, error) {
	startPart, endPart, found := strings.Cut(s, "-")
	if !found {
		return PageKey{}, fmt.Errorf("invalid page key %q", s)
	}

	start, err := strconv.Atoi(startPart)
	if err != nil || start < 0 {
		return PageKey{}, fmt.Errorf("invalid page key %q", s)
	}

	end, err := strconv.Atoi(endPart)
	if err != nil || end < 0 {
		return PageKey{}, fmt.Errorf("invalid page key %q", s)
	}

	return PageKey{Start: start, End: end}, nil
}
