// Package steam provides the HTTP client for the Steam community
// leaderboard XML API, including page parsing and error handling.
package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for leaderboard page requests.
var (
	pageRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_page_requests_total",
		Help: "Total leaderboard page requests by status",
	}, []string{"status"})

	pageRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leaderboard_page_request_duration_seconds",
		Help:    "Leaderboard page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	pageFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_page_fetch_errors_total",
		Help: "Total leaderboard page fetch failures by kind",
	}, []string{"kind"})
)

// DefaultBaseURL is the Steam community root serving the leaderboard XML API.
const DefaultBaseURL = "https://steamcommunity.com"

// Client fetches leaderboard pages from the Steam community API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the Steam community root. Override for tests.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per page request.
	Timeout time.Duration

	// HTTPClient overrides the default HTTP client when non-nil.
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new leaderboard client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	logger := log.With().Str("component", "steam-client").Logger()

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}, nil
}

// LeaderboardURL returns the locator of the first page of a board.
func (c *Client) LeaderboardURL(appID, leaderboardID string) string {
	return fmt.Sprintf("%s/stats/%s/leaderboards/%s/?xml=1", c.baseURL, appID, leaderboardID)
}

// FetchPage issues one GET for the page at the given locator and parses the
// response document. It performs no retries: a transport failure or a
// non-success status returns a *RequestError, a malformed document a
// *ParseError. The returned page carries the verbatim response body in Raw
// and the next-page locator in NextURL ("" on the last page).
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	pageRequestDuration.Observe(time.Since(startTime).Seconds())

	if err != nil {
		pageRequestsTotal.WithLabelValues("network_error").Inc()
		pageFetchErrorsTotal.WithLabelValues("network").Inc()
		c.logger.Error().Err(err).Str("url", pageURL).Msg("Page request failed")
		return nil, &RequestError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	pageRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		pageFetchErrorsTotal.WithLabelValues("status").Inc()
		c.logger.Warn().
			Str("url", pageURL).
			Int("status", resp.StatusCode).
			Msg("Page request returned unexpected status")
		return nil, &RequestError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		pageFetchErrorsTotal.WithLabelValues("network").Inc()
		return nil, &RequestError{URL: pageURL, Err: fmt.Errorf("read response body: %w", err)}
	}

	page, err := ParsePage(raw)
	if err != nil {
		pageFetchErrorsTotal.WithLabelValues("parse").Inc()
		c.logger.Error().Err(err).Str("url", pageURL).Msg("Page document malformed")
		return nil, err
	}

	c.logger.Debug().
		Str("url", pageURL).
		Int("range_start", page.RangeStart).
		Int("range_end", page.RangeEnd).
		Int("entries", len(page.Entries)).
		Bool("last_page", page.NextURL == "").
		Dur("duration", time.Since(startTime)).
		Msg("Fetched leaderboard page")

	return page, nil
}
