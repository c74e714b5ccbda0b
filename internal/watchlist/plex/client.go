// Package plex implements the watchlist surface over the plex.tv discover
// API, which serves account-level watchlists independently of any one media
// server.
package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/retry"
	"github.com/janitarr/janitarr/internal/watchlist"
)

const (
	defaultBaseURL = "https://discover.provider.plex.tv"
	defaultTimeout = 60 * time.Second
	product        = "Janitarr"
)

// Client provides HTTP communication with the plex.tv discover API.
type Client struct {
	baseURL    string
	token      string
	clientID   string
	httpClient *http.Client
	retryCfg   retry.Config
	logger     *zerolog.Logger
}

// ClientConfig contains configuration for creating a new watchlist client.
type ClientConfig struct {
	BaseURL string // override for tests, defaults to plex.tv discover
	Token   string
	Retry   retry.Config
	Logger  *zerolog.Logger
}

// NewClient creates a new plex.tv watchlist client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("plex.tv token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	logger := cfg.Logger.With().
		Str("component", "watchlist-client").
		Logger()

	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      cfg.Token,
		clientID:   uuid.New().String(),
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryCfg:   retryCfg,
		logger:     &logger,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Product", product)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, result interface{}) error {
	return retry.Do(ctx, method+" "+path, c.retryCfg, c.logger, func() error {
		resp, err := c.do(ctx, method, path)
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

type watchlistResponse struct {
	MediaContainer struct {
		Metadata []struct {
			RatingKey string `json:"ratingKey"`
			Title     string `json:"title"`
			Year      int    `json:"year"`
			Type      string `json:"type"`
			Guid      []struct {
				ID string `json:"id"`
			} `json:"Guid"`
		} `json:"Metadata"`
	} `json:"MediaContainer"`
}

// List returns every watchlist entry of the given kind.
func (c *Client) List(ctx context.Context, kind watchlist.Kind) ([]watchlist.Entry, error) {
	itemType := 1
	if kind == watchlist.KindShow {
		itemType = 2
	}

	path := fmt.Sprintf("/library/sections/watchlist/all?type=%d&includeGuids=1", itemType)
	var resp watchlistResponse
	if err := c.doJSON(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}

	entries := make([]watchlist.Entry, 0, len(resp.MediaContainer.Metadata))
	for _, m := range resp.MediaContainer.Metadata {
		entries = append(entries, watchlist.Entry{
			Ref:        m.RatingKey,
			Kind:       kind,
			Title:      m.Title,
			Year:       m.Year,
			ExternalID: guidID(m.Guid, kind),
		})
	}

	c.logger.Debug().Str("kind", string(kind)).Int("count", len(entries)).Msg("listed watchlist")
	return entries, nil
}

// Remove deletes an entry from the watchlist.
func (c *Client) Remove(ctx context.Context, entry watchlist.Entry) error {
	path := "/actions/removeFromWatchlist?ratingKey=" + url.QueryEscape(entry.Ref)
	if err := c.doJSON(ctx, http.MethodPut, path, nil); err != nil {
		return fmt.Errorf("failed to remove %q from watchlist: %w", entry.Title, err)
	}
	c.logger.Info().Str("title", entry.Title).Msg("removed watchlist entry")
	return nil
}

func guidID(guids []struct {
	ID string `json:"id"`
}, kind watchlist.Kind) int64 {
	prefix := "tmdb://"
	if kind == watchlist.KindShow {
		prefix = "tvdb://"
	}
	for _, g := range guids {
		if strings.HasPrefix(g.ID, prefix) {
			if id, err := strconv.ParseInt(strings.TrimPrefix(g.ID, prefix), 10, 64); err == nil {
				return id
			}
		}
	}
	return 0
}
