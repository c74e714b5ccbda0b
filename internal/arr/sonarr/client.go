// Package sonarr implements the series request-manager surface over Sonarr's
// v3 API, including episode and season monitored flags.
package sonarr

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

// Client provides HTTP communication with a Sonarr server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryCfg   retry.Config
	logger     *zerolog.Logger
}

// ClientConfig contains configuration for creating a new Sonarr client.
type ClientConfig struct {
	URL    string
	APIKey string
	Retry  retry.Config
	Logger *zerolog.Logger
}

// NewClient creates a new Sonarr HTTP client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("sonarr URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sonarr API key is required")
	}

	logger := cfg.Logger.With().
		Str("component", "sonarr-client").
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
func (c *Client) Name() string { return "sonarr" }

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

type seriesResource struct {
	ID        int64  `json:"id"`
	TvdbID    int64  `json:"tvdbId"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Monitored bool   `json:"monitored"`
	Seasons   []struct {
		SeasonNumber int  `json:"seasonNumber"`
		Monitored    bool `json:"monitored"`
	} `json:"seasons"`
}

type episodeResource struct {
	ID            int64  `json:"id"`
	SeriesID      int64  `json:"seriesId"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title"`
	Monitored     bool   `json:"monitored"`
	HasFile       bool   `json:"hasFile"`
}

// ListRecords returns every series Sonarr tracks, with season flags.
func (c *Client) ListRecords(ctx context.Context) ([]arr.Record, error) {
	var series []seriesResource
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/series", nil, &series); err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}

	records := make([]arr.Record, 0, len(series))
	for _, s := range series {
		rec := arr.Record{
			ID:         s.ID,
			ExternalID: s.TvdbID,
			Title:      s.Title,
			Year:       s.Year,
			Monitored:  s.Monitored,
		}
		for _, season := range s.Seasons {
			rec.Seasons = append(rec.Seasons, arr.Season{
				Number:    season.SeasonNumber,
				Monitored: season.Monitored,
			})
		}
		records = append(records, rec)
	}

	c.logger.Debug().Int("count", len(records)).Msg("fetched series")
	return records, nil
}

// SetMonitored flips a series' top-level monitored flag via fetch-patch-PUT.
func (c *Client) SetMonitored(ctx context.Context, recordID int64, monitored bool) error {
	path := fmt.Sprintf("/api/v3/series/%d", recordID)

	var series map[string]interface{}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &series); err != nil {
		return fmt.Errorf("failed to fetch series %d: %w", recordID, err)
	}

	if current, ok := series["monitored"].(bool); ok && current == monitored {
		return nil
	}
	series["monitored"] = monitored

	return c.putSeries(ctx, recordID, series)
}

// SetSeasonMonitored flips one season's monitored flag. Sonarr stores season
// flags inside the series resource, so this is also a fetch-patch-PUT.
func (c *Client) SetSeasonMonitored(ctx context.Context, seriesID int64, season int, monitored bool) error {
	path := fmt.Sprintf("/api/v3/series/%d", seriesID)

	var series map[string]interface{}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &series); err != nil {
		return fmt.Errorf("failed to fetch series %d: %w", seriesID, err)
	}

	seasons, ok := series["seasons"].([]interface{})
	if !ok {
		return fmt.Errorf("series %d has no seasons field", seriesID)
	}

	changed := false
	for _, raw := range seasons {
		s, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		num, ok := s["seasonNumber"].(float64)
		if !ok || int(num) != season {
			continue
		}
		if current, ok := s["monitored"].(bool); ok && current == monitored {
			return nil
		}
		s["monitored"] = monitored
		changed = true
	}
	if !changed {
		return fmt.Errorf("series %d has no season %d: %w", seriesID, season, arr.ErrNotFound)
	}

	if err := c.putSeries(ctx, seriesID, series); err != nil {
		return err
	}

	c.logger.Info().Int64("seriesId", seriesID).Int("season", season).
		Bool("monitored", monitored).Msg("updated season monitored flag")
	return nil
}

func (c *Client) putSeries(ctx context.Context, seriesID int64, series map[string]interface{}) error {
	body, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to encode series %d: %w", seriesID, err)
	}
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/v3/series/%d", seriesID), body, nil); err != nil {
		return fmt.Errorf("failed to update series %d: %w", seriesID, err)
	}
	return nil
}

// ListEpisodes returns every episode of a series.
func (c *Client) ListEpisodes(ctx context.Context, seriesID int64) ([]arr.Episode, error) {
	var episodes []episodeResource
	path := fmt.Sprintf("/api/v3/episode?seriesId=%d", seriesID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &episodes); err != nil {
		return nil, fmt.Errorf("failed to list episodes for series %d: %w", seriesID, err)
	}

	result := make([]arr.Episode, 0, len(episodes))
	for _, e := range episodes {
		result = append(result, arr.Episode{
			ID:        e.ID,
			SeriesID:  e.SeriesID,
			Season:    e.SeasonNumber,
			Episode:   e.EpisodeNumber,
			Title:     e.Title,
			Monitored: e.Monitored,
			HasFile:   e.HasFile,
		})
	}
	return result, nil
}

// SetEpisodesMonitored flips the monitored flag on a batch of episodes.
func (c *Client) SetEpisodesMonitored(ctx context.Context, episodeIDs []int64, monitored bool) error {
	if len(episodeIDs) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"episodeIds": episodeIDs,
		"monitored":  monitored,
	})
	if err != nil {
		return fmt.Errorf("failed to encode episode monitor request: %w", err)
	}

	if err := c.doJSON(ctx, http.MethodPut, "/api/v3/episode/monitor", body, nil); err != nil {
		return fmt.Errorf("failed to update episode monitored flags: %w", err)
	}

	c.logger.Info().Int("episodes", len(episodeIDs)).Bool("monitored", monitored).
		Msg("updated episode monitored flags")
	return nil
}
