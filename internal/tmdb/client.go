package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/movie"
)

var (
	ErrTokenMissing  = errors.New("TMDB access token is not configured")
	ErrRequestFailed = errors.New("TMDB request failed")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// APIError is an application-level failure reported inside a successful
// HTTP response.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "TMDB API error"
	}
	return "TMDB API error: " + e.Message
}

// Client is a TMDB API client. All configuration is held by the instance.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the access token is set.
func (c *Client) IsConfigured() bool {
	return c.config.AccessToken != ""
}

// ImageBaseURL returns the base URL poster paths are resolved against.
func (c *Client) ImageBaseURL() string {
	return c.config.ImageBaseURL
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}
	return c.doRequest(ctx, "/configuration", nil, &result)
}

// Discover lists movies using the given discovery parameters.
func (c *Client) Discover(ctx context.Context, p DiscoverParams) ([]movie.Movie, error) {
	params := url.Values{}
	params.Set("include_adult", strconv.FormatBool(p.IncludeAdult))
	params.Set("include_video", strconv.FormatBool(p.IncludeVideo))
	if p.Language != "" {
		params.Set("language", p.Language)
	}
	if p.Page > 0 {
		params.Set("page", strconv.Itoa(p.Page))
	}
	if p.SortBy != "" {
		params.Set("sort_by", p.SortBy)
	}

	results, err := c.list(ctx, "/discover/movie", params)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("sortBy", p.SortBy).
		Int("page", p.Page).
		Int("results", len(results)).
		Msg("Discover completed")

	return results, nil
}

// Search searches movies by title.
func (c *Client) Search(ctx context.Context, query string) ([]movie.Movie, error) {
	params := url.Values{}
	params.Set("query", query)

	results, err := c.list(ctx, "/search/movie", params)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// Trending returns this week's trending movies.
func (c *Client) Trending(ctx context.Context) ([]movie.Movie, error) {
	results, err := c.list(ctx, "/trending/movie/week", nil)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("results", len(results)).
		Msg("Trending fetch completed")

	return results, nil
}

// list fetches a results envelope and unwraps it. A missing results array
// yields an empty, non-nil slice.
func (c *Client) list(ctx context.Context, path string, params url.Values) ([]movie.Movie, error) {
	var response ListResponse
	if err := c.doRequest(ctx, path, params, &response); err != nil {
		return nil, err
	}

	if response.Failed() {
		c.logger.Warn().
			Str("path", path).
			Str("error", response.Error).
			Msg("TMDB reported failure")
		return nil, &APIError{Message: response.Error}
	}

	if response.Results == nil {
		return []movie.Movie{}, nil
	}
	return response.Results, nil
}

// doRequest performs an authenticated HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	if !c.IsConfigured() {
		return ErrTokenMissing
	}

	endpoint := c.config.BaseURL + path
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid access token", ErrRequestFailed)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRequestFailed, ErrRateLimited)
		default:
			return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrRequestFailed, err)
	}

	return nil
}
