// Package imdb is the HTTP client for the external metadata provider
// (imdbapi.dev): title search, title details and media listings keyed by
// the stable imdb id.
package imdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrNotFound signals the provider has no record for the requested id.
// It is a definitive answer, never retried.
var ErrNotFound = errors.New("imdb: not found")

// ClientConfig holds configurable settings for the provider client.
type ClientConfig struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Config     ClientConfig
	CB         *gobreaker.CircuitBreaker
	Log        *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.CB = cb }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.Log = log }
}

func New(baseURL string, cfg ClientConfig, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = "https://api.imdbapi.dev"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "movie-catalog/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 300 * time.Millisecond
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Config:     cfg,
		Log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Year tolerates the provider's startYear quirks: usually a number, but
// series sometimes arrive as a range string such as "2010–2013", in which
// case the first year wins. Zero means unknown.
type Year int

func (y *Year) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*y = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	for _, sep := range []string{"–", "-"} {
		if i := strings.Index(s, sep); i > 0 {
			s = s[:i]
			break
		}
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		*y = 0
		return nil
	}
	*y = Year(n)
	return nil
}

// Image is a media descriptor as the provider reports it; the type tag is
// passed through untouched.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
}

type Person struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type Rating struct {
	AggregateRating float64 `json:"aggregateRating"`
	VoteCount       int     `json:"voteCount"`
}

// Title is the provider's title record, shared by search and detail
// responses (details additionally carry plot, genres and directors).
type Title struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	PrimaryTitle  string   `json:"primaryTitle"`
	OriginalTitle string   `json:"originalTitle"`
	StartYear     Year     `json:"startYear"`
	Genres        []string `json:"genres"`
	Directors     []Person `json:"directors"`
	Plot          string   `json:"plot"`
	PrimaryImage  *Image   `json:"primaryImage"`
	Rating        *Rating  `json:"rating"`
}

// BestTitle prefers the primary title and falls back to the original one.
func (t *Title) BestTitle() string {
	if t.PrimaryTitle != "" {
		return t.PrimaryTitle
	}
	return t.OriginalTitle
}

// DirectorNames joins director display names to a single text field.
func (t *Title) DirectorNames() string {
	names := make([]string, 0, len(t.Directors))
	for _, d := range t.Directors {
		if d.DisplayName != "" {
			names = append(names, d.DisplayName)
		}
	}
	return strings.Join(names, ", ")
}

type SearchResponse struct {
	Titles []Title `json:"titles"`
}

type ImagesResponse struct {
	Images        []Image `json:"images"`
	NextPageToken string  `json:"nextPageToken"`
}

type Video struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PrimaryImage   *Image `json:"primaryImage"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	RuntimeSeconds int    `json:"runtimeSeconds"`
}

type VideosResponse struct {
	Videos []Video `json:"videos"`
}

// Provider is the port the reconciler and resolver consume; tests swap in
// fakes behind it.
type Provider interface {
	SearchTitles(ctx context.Context, query string) (*SearchResponse, error)
	GetTitle(ctx context.Context, id string) (*Title, error)
	ListImages(ctx context.Context, id, pageToken string) (*ImagesResponse, error)
	ListVideos(ctx context.Context, id string) (*VideosResponse, error)
}

func (c *Client) SearchTitles(ctx context.Context, query string) (*SearchResponse, error) {
	endpoint := c.BaseURL + "/search/titles?query=" + url.QueryEscape(query)
	return doWithBreaker[SearchResponse](ctx, c, endpoint)
}

func (c *Client) GetTitle(ctx context.Context, id string) (*Title, error) {
	if id == "" {
		return nil, fmt.Errorf("imdb id required")
	}
	endpoint := c.BaseURL + "/titles/" + url.PathEscape(id)
	return doWithBreaker[Title](ctx, c, endpoint)
}

func (c *Client) ListImages(ctx context.Context, id, pageToken string) (*ImagesResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("imdb id required")
	}
	endpoint := c.BaseURL + "/titles/" + url.PathEscape(id) + "/images"
	if pageToken != "" {
		endpoint += "?pageToken=" + url.QueryEscape(pageToken)
	}
	return doWithBreaker[ImagesResponse](ctx, c, endpoint)
}

func (c *Client) ListVideos(ctx context.Context, id string) (*VideosResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("imdb id required")
	}
	endpoint := c.BaseURL + "/titles/" + url.PathEscape(id) + "/videos"
	return doWithBreaker[VideosResponse](ctx, c, endpoint)
}

func doWithBreaker[T any](ctx context.Context, c *Client, u string) (*T, error) {
	if c.CB == nil {
		return doJSONWithRetry[T](ctx, c, u)
	}
	result, err := c.CB.Execute(func() (interface{}, error) {
		return doJSONWithRetry[T](ctx, c, u)
	})
	if err != nil {
		return nil, err
	}
	return result.(*T), nil
}

func doJSONWithRetry[T any](ctx context.Context, c *Client, u string) (*T, error) {
	var lastErr error
	for attempt := 0; attempt <= c.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.Config.RetryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			c.Log.Debug("retrying request", zap.String("url", u), zap.Int("attempt", attempt), zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		result, err := doJSON[T](ctx, c, u)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		c.Log.Warn("request failed", zap.String("url", u), zap.Int("attempt", attempt), zap.Error(err))
	}
	return nil, lastErr
}

func doJSON[T any](ctx context.Context, c *Client, u string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imdb: status %d body=%q", resp.StatusCode, string(b[:min(len(b), 200)]))
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("imdb: decode error: %w body=%q", err, string(b[:min(len(b), 200)]))
	}
	return &out, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
