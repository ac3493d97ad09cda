package steam

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Entry is one leaderboard record: a player, their score, and their rank.
type Entry struct {
	Rank    int    `json:"rank"`
	SteamID string `json:"steamid"`
	Score   int    `json:"score"`
}

// Page is one unit of the paginated leaderboard response.
type Page struct {
	// RangeStart and RangeEnd bound the entry interval the page covers,
	// as reported by the document itself.
	RangeStart int
	RangeEnd   int

	// TotalEntries is the board-wide entry count reported by the page.
	TotalEntries int

	// ResultCount is the entry count the page claims to carry. It is
	// informational and not checked against len(Entries).
	ResultCount int

	// NextURL locates the next page, or is "" on the last page.
	NextURL string

	// Entries in document order.
	Entries []Entry

	// Raw is the verbatim response body the page was parsed from.
	Raw []byte
}

// Last reports whether the page terminates the pagination chain.
func (p *Page) Last() bool {
	return p.NextURL == ""
}

// pageDoc mirrors the XML layout of a leaderboard response. Numeric fields
// are decoded as strings so that absence, emptiness and stray whitespace can
// be told apart before conversion.
type pageDoc struct {
	XMLName        xml.Name   `xml:"response"`
	TotalEntries   string     `xml:"totalLeaderboardEntries"`
	EntryStart     string     `xml:"entryStart"`
	EntryEnd       string     `xml:"entryEnd"`
	ResultCount    string     `xml:"resultCount"`
	NextRequestURL string     `xml:"nextRequestURL"`
	Entries        []entryDoc `xml:"entries>entry"`
}

type entryDoc struct {
	SteamID string `xml:"steamid"`
	Score   string `xml:"score"`
	Rank    string `xml:"rank"`
}

var errMissingField = errors.New("missing or empty field")

// ParsePage decodes one leaderboard XML document. The document must carry
// entryStart and entryEnd, and every entry must carry a non-empty steamid, a
// positive rank and a non-negative score; anything less returns a
// *ParseError. totalLeaderboardEntries and resultCount are informational and
// default to zero when absent.
func ParsePage(raw []byte) (*Page, error) {
	var doc pageDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Field: "document", Err: err}
	}

	start, err := requiredInt("entryStart", doc.EntryStart)
	if err != nil {
		return nil, err
	}
	end, err := requiredInt("entryEnd", doc.EntryEnd)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, &ParseError{
			Field: "entryStart",
			Err:   fmt.Errorf("range start %d after range end %d", start, end),
		}
	}

	page := &Page{
		RangeStart:   start,
		RangeEnd:     end,
		TotalEntries: optionalInt(doc.TotalEntries),
		ResultCount:  optionalInt(doc.ResultCount),
		NextURL:      strings.TrimSpace(doc.NextRequestURL),
		Raw:          raw,
	}

	page.Entries = make([]Entry, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		entry, err := parseEntry(i, e)
		if err != nil {
			return nil, err
		}
		page.Entries = append(page.Entries, entry)
	}

	return page, nil
}

func parseEntry(i int, doc entryDoc) (Entry, error) {
	steamID := strings.TrimSpace(doc.SteamID)
	if steamID == "" {
		return Entry{}, &ParseError{
			Field: fmt.Sprintf("entry[%d].steamid", i),
			Err:   errMissingField,
		}
	}

	rank, err := requiredInt(fmt.Sprintf("entry[%d].rank", i), doc.Rank)
	if err != nil {
		return Entry{}, err
	}
	if rank < 1 {
		return Entry{}, &ParseError{
			Field: fmt.Sprintf("entry[%d].rank", i),
			Err:   fmt.Errorf("rank must be positive, got %d", rank),
		}
	}

	score, err := requiredInt(fmt.Sprintf("entry[%d].score", i), doc.Score)
	if err != nil {
		return Entry{}, err
	}
	if score < 0 {
		return Entry{}, &ParseError{
			Field: fmt.Sprintf("entry[%d].score", i),
			Err:   fmt.Errorf("score must be non-negative, got %d", score),
		}
	}

	return Entry{Rank: rank, SteamID: steamID, Score: score}, nil
}

func requiredInt(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, &ParseError{Field: field, Err: errMissingField}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ParseError{Field: field, Err: err}
	}
	return n, nil
}

func optionalInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
