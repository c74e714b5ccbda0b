// Package radarr implements the movie request-manager surface over Radarr's
// v3 API.
package radarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/arr"
	"github.com/janitarr/janitarr/internal/retry"
)

const (
	defaultTimeout = 60 * time.Second
	//nolint:gosec // header name constant, not a credential
	apiKeyHeader = "X-Api-Key"
)

// Client provides HTTP communication with a Radarr server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryCfg   retry.Config
	logger     *zerolog.Logger
}

// ClientConfig contains configuration for creating a new Radarr client.
type ClientConfig struct {
	URL    string
	APIKey string
	Retry  retry.Config
	Logger *zerolog.Logger
}

// NewClient creates a new Radarr HTTP client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("radarr URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("radarr API key is required")
	}

	logger := cfg.Logger.With().
		Str("component", "radarr-client").
		Logger()

	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryCfg:   retryCfg,
		logger:     &logger,
	}, nil
}

// Name identifies the backend in logs and summaries.
func (c *Client) Name() string { return "radarr" }

// do executes an HTTP request with the API key header.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(apiKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("executing request")

	return c.httpClient.Do(req)
}

// doJSON executes an HTTP request with retry and decodes the JSON response.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, result interface{}) error {
	return retry.Do(ctx, method+" "+path, c.retryCfg, c.logger, func() error {
		resp, err := c.do(ctx, method, path, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return &retry.StatusError{Code: resp.StatusCode, Body: string(bodyBytes)}
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	})
}

type movieResource struct {
	ID        int64  `json:"id"`
	TmdbID    int64  `json:"tmdbId"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Monitored bool   `json:"monitored"`
}

// ListRecords returns every movie Radarr tracks.
func (c *Client) ListRecords(ctx context.Context) ([]arr.Record, error) {
	var movies []movieResource
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/movie", nil, &movies); err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	records := make([]arr.Record, 0, len(movies))
	for _, m := range movies {
		records = append(records, arr.Record{
			ID:         m.ID,
			ExternalID: m.TmdbID,
			Title:      m.Title,
			Year:       m.Year,
			Monitored:  m.Monitored,
		})
	}

	c.logger.Debug().Int("count", len(records)).Msg("fetched movies")
	return records, nil
}

// SetMonitored flips a movie's monitored flag. Radarr's update endpoint
// expects the full resource back, so the movie is fetched, patched and PUT
// as-is to avoid clobbering fields this client does not model.
func (c *Client) SetMonitored(ctx context.Context, recordID int64, monitored bool) error {
	path := fmt.Sprintf("/api/v3/movie/%d", recordID)

	var movie map[string]interface{}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &movie); err != nil {
		return fmt.Errorf("failed to fetch movie %d: %w", recordID, err)
	}

	if current, ok := movie["monitored"].(bool); ok && current == monitored {
		return nil
	}
	movie["monitored"] = monitored

	body, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("failed to encode movie %d: %w", recordID, err)
	}

	if err := c.doJSON(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("failed to update movie %d: %w", recordID, err)
	}

	c.logger.Info().Int64("movieId", recordID).Bool("monitored", monitored).Msg("updated monitored flag")
	return nil
}
