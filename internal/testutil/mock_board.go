// Package testutil provides testing utilities for the leaderboard pipeline.
package testutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for one mocked page response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// BoardConfig describes the board a MockBoard serves.
type BoardConfig struct {
	// AppID and LeaderboardID name the board in its URLs.
	AppID         string
	LeaderboardID string

	// PageSize is the number of entries per page (default 5000).
	PageSize int

	// Scores holds one score per entry; entry i gets rank i+1 and a
	// synthetic steamid.
	Scores []int
}

// MockBoard is a configurable leaderboard XML server. By default it serves
// the configured board as a chain of pages linked via nextRequestURL, the
// way the Steam community endpoint does. Individual pages can be
// overridden to inject failures.
type MockBoard struct {
	server   *httptest.Server
	cfg      BoardConfig
	mu       sync.RWMutex
	handlers map[int]http.HandlerFunc

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockBoard creates a mock board server.
func NewMockBoard(cfg BoardConfig) *MockBoard {
	if cfg.AppID == "" {
		cfg.AppID = "2217000"
	}
	if cfg.LeaderboardID == "" {
		cfg.LeaderboardID = "14800950"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5000
	}

	mock := &MockBoard{
		cfg:      cfg,
		handlers: make(map[int]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, err := pageStart(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[start]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.servePage(w, start)
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockBoard) URL() string {
	return m.server.URL
}

// FirstPageURL returns the locator of the board's first page.
func (m *MockBoard) FirstPageURL() string {
	return fmt.Sprintf("%s/stats/%s/leaderboards/%s/?xml=1",
		m.server.URL, m.cfg.AppID, m.cfg.LeaderboardID)
}

// Close shuts down the mock server.
func (m *MockBoard) Close() {
	m.server.Close()
}

// ResetCounters clears all tracking counters.
func (m *MockBoard) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
}

// SetPageHandler installs a custom handler for the page starting at the
// given entry position.
func (m *MockBoard) SetPageHandler(start int, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[start] = handler
}

// SetPageResponse configures a canned response for the page starting at
// the given entry position.
func (m *MockBoard) SetPageResponse(start int, resp MockResponse) {
	m.SetPageHandler(start, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// ClearPageHandlers removes all custom page handlers.
func (m *MockBoard) ClearPageHandlers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = make(map[int]http.HandlerFunc)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockBoard) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// LastUserAgent returns the User-Agent header of the most recent request.
func (m *MockBoard) LastUserAgent() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LastRequestHeader == nil {
		return ""
	}
	return m.LastRequestHeader.Get("User-Agent")
}

// PageCount returns how many pages the configured board spans.
func (m *MockBoard) PageCount() int {
	if len(m.cfg.Scores) == 0 {
		return 1
	}
	return (len(m.cfg.Scores) + m.cfg.PageSize - 1) / m.cfg.PageSize
}

// pageStart extracts the 0-based entry position a request asks for.
func pageStart(r *http.Request) (int, error) {
	param := r.URL.Query().Get("start")
	if param == "" {
		return 0, nil
	}
	start, err := strconv.Atoi(param)
	if err != nil || start < 0 {
		return 0, fmt.Errorf("bad start parameter %q", param)
	}
	return start, nil
}

// servePage renders the default XML document for the page starting at the
// given entry position.
func (m *MockBoard) servePage(w http.ResponseWriter, start int) {
	scores := m.cfg.Scores
	if start > len(scores) {
		start = len(scores)
	}
	end := start + m.cfg.PageSize
	if end > len(scores) {
		end = len(scores)
	}
	pageScores := scores[start:end]

	entryEnd := start
	if len(pageScores) > 0 {
		entryEnd = start + len(pageScores) - 1
	}

	next := ""
	if end < len(scores) {
		next = fmt.Sprintf("%s/stats/%s/leaderboards/%s/?xml=1&start=%d",
			m.server.URL, m.cfg.AppID, m.cfg.LeaderboardID, end)
	}

	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<response>\n")
	fmt.Fprintf(&b, "  <appID>%s</appID>\n", m.cfg.AppID)
	fmt.Fprintf(&b, "  <leaderboardID>%s</leaderboardID>\n", m.cfg.LeaderboardID)
	fmt.Fprintf(&b, "  <totalLeaderboardEntries>%d</totalLeaderboardEntries>\n", len(scores))
	fmt.Fprintf(&b, "  <entryStart>%d</entryStart>\n", start)
	fmt.Fprintf(&b, "  <entryEnd>%d</entryEnd>\n", entryEnd)
	if next != "" {
		fmt.Fprintf(&b, "  <nextRequestURL>%s</nextRequestURL>\n", escapeXML(next))
	}
	fmt.Fprintf(&b, "  <resultCount>%d</resultCount>\n", len(pageScores))
	b.WriteString("  <entries>\n")
	for i, score := range pageScores {
		rank := start + i + 1
		fmt.Fprintf(&b, "    <entry>\n      <steamid>7656119%010d</steamid>\n      <score>%d</score>\n      <rank>%d</rank>\n      <ugcid>-1</ugcid>\n    </entry>\n",
			rank, score, rank)
	}
	b.WriteString("  </entries>\n</response>\n")

	w.Header().Set("Content-Type", "text/xml; charset=UTF-8")
	w.Write([]byte(b.String()))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal Server Error",
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       "Too Many Requests",
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}

// NewTruncatedResponse creates a 200 response whose body is cut off
// mid-document, the way a dropped connection leaves it.
func NewTruncatedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       "<response><entryStart>0</entryStart><entryEnd>",
		Headers:    map[string]string{"Content-Type": "text/xml; charset=UTF-8"},
	}
}
