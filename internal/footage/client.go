// Package footage searches the Pexels stock-video API and picks playable
// clips for storyboard scenes.
package footage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.pexels.com"

	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"

	maxErrorBody = 4096
)

// SearchError represents a non-2xx answer from the search endpoint.
type SearchError struct {
	StatusCode int
	Body       string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("footage search failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and rate limiting (429).
// Other client errors are considered permanent.
func (e *SearchError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// VideoFile is one encoded variant of a video.
type VideoFile struct {
	ID       int64  `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// Video is a single search result. The original JSON is retained so it can
// be handed back to clients unchanged.
type Video struct {
	ID         int64       `json:"id"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Duration   int         `json:"duration"`
	URL        string      `json:"url"`
	Image      string      `json:"image"`
	VideoFiles []VideoFile `json:"video_files"`

	raw json.RawMessage
}

func (v *Video) UnmarshalJSON(data []byte) error {
	type plain Video
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = Video(p)
	v.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (v Video) MarshalJSON() ([]byte, error) {
	if len(v.raw) > 0 {
		return v.raw, nil
	}
	type plain Video
	return json.Marshal(plain(v))
}

// SearchResult is the body of GET /videos/search.
type SearchResult struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	Videos       []Video `json:"videos"`
}

// Searcher is the search backend used by the Resolver.
type Searcher interface {
	SearchVideos(ctx context.Context, query, orientation string, perPage int) (*SearchResult, error)
}

// Client talks to the Pexels API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "footage"),
	}
}

func (c *Client) SearchVideos(ctx context.Context, query, orientation string, perPage int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	if orientation != "" {
		params.Set("orientation", orientation)
	}
	params.Set("per_page", strconv.Itoa(perPage))

	endpoint := c.baseURL + "/videos/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &SearchError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	c.logger.Debug("footage search completed",
		"query", query,
		"orientation", orientation,
		"results", len(result.Videos),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &result, nil
}
