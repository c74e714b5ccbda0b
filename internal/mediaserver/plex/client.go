// Package plex implements the library catalog over a Plex Media Server's
// HTTP API.
package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/mediaserver"
	"github.com/janitarr/janitarr/internal/retry"
)

const (
	defaultTimeout = 90 * time.Second
	product        = "Janitarr"

	// Plex metadata type codes used when filtering section listings.
	typeMovie   = 1
	typeEpisode = 4
)

// Client provides HTTP communication with a Plex Media Server.
type Client struct {
	baseURL    string
	token      string
	clientID   string
	httpClient *http.Client
	retryCfg   retry.Config
	logger     *zerolog.Logger
}

// ClientConfig contains configuration for creating a new Plex client.
type ClientConfig struct {
	URL    string
	Token  string
	Retry  retry.Config
	Logger *zerolog.Logger
}

// NewClient creates a new Plex catalog client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("plex URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("plex token is required")
	}

	logger := cfg.Logger.With().
		Str("component", "plex-client").
		Logger()

	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		token:      cfg.Token,
		clientID:   uuid.New().String(),
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryCfg:   retryCfg,
		logger:     &logger,
	}, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"X-Plex-Token":             c.token,
		"X-Plex-Client-Identifier": c.clientID,
		"X-Plex-Product":           product,
		"X-Plex-Platform":          runtime.GOOS,
		"X-Plex-Device":            runtime.GOOS,
		"X-Plex-Device-Name":       product,
		"Accept":                   "application/json",
	}
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers() {
		req.Header.Set(key, value)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("executing request")

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

type sectionsResponse struct {
	MediaContainer struct {
		Directory []struct {
			Key   string `json:"key"`
			Title string `json:"title"`
			Type  string `json:"type"`
		} `json:"Directory"`
	} `json:"MediaContainer"`
}

type metadataResponse struct {
	MediaContainer struct {
		Metadata []metadataEntry `json:"Metadata"`
	} `json:"MediaContainer"`
}

type metadataEntry struct {
	RatingKey            string `json:"ratingKey"`
	Title                string `json:"title"`
	Year                 int    `json:"year"`
	AddedAt              int64  `json:"addedAt"`
	Type                 string `json:"type"`
	GrandparentRatingKey string `json:"grandparentRatingKey"`
	GrandparentTitle     string `json:"grandparentTitle"`
	ParentIndex          int    `json:"parentIndex"`
	Index                int    `json:"index"`
	Guid                 []struct {
		ID string `json:"id"`
	} `json:"Guid"`
	Media []struct {
		ID              int64  `json:"id"`
		VideoResolution string `json:"videoResolution"`
		Part            []struct {
			File string `json:"file"`
			Size int64  `json:"size"`
		} `json:"Part"`
	} `json:"Media"`
}

// ListSections returns every library section.
func (c *Client) ListSections(ctx context.Context) ([]mediaserver.Section, error) {
	var resp sectionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/library/sections", &resp); err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}

	sections := make([]mediaserver.Section, 0, len(resp.MediaContainer.Directory))
	for _, d := range resp.MediaContainer.Directory {
		sections = append(sections, mediaserver.Section{
			Key:   d.Key,
			Title: d.Title,
			Type:  mediaserver.SectionType(d.Type),
		})
	}
	return sections, nil
}

// ListItems returns all items of a section. Movie sections list movies; show
// sections list at episode granularity so duplicate episode entries are
// visible directly.
func (c *Client) ListItems(ctx context.Context, sectionKey string) ([]mediaserver.Item, error) {
	sections, err := c.ListSections(ctx)
	if err != nil {
		return nil, err
	}

	itemType := typeMovie
	for _, s := range sections {
		if s.Key == sectionKey && s.Type == mediaserver.SectionShow {
			itemType = typeEpisode
		}
	}

	path := fmt.Sprintf("/library/sections/%s/all?type=%d&includeGuids=1", sectionKey, itemType)
	var resp metadataResponse
	if err := c.doJSON(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to list items of section %s: %w", sectionKey, err)
	}

	items := make([]mediaserver.Item, 0, len(resp.MediaContainer.Metadata))
	for _, m := range resp.MediaContainer.Metadata {
		items = append(items, entryToItem(m))
	}

	c.logger.Debug().Str("section", sectionKey).Int("count", len(items)).Msg("listed section items")
	return items, nil
}

// GetItemDetails returns full metadata including file versions.
func (c *Client) GetItemDetails(ctx context.Context, itemID string) (*mediaserver.ItemDetails, error) {
	var resp metadataResponse
	if err := c.doJSON(ctx, http.MethodGet, "/library/metadata/"+itemID, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for item %s: %w", itemID, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("item %s not found", itemID)
	}

	m := resp.MediaContainer.Metadata[0]
	details := &mediaserver.ItemDetails{Item: entryToItem(m)}
	for _, media := range m.Media {
		v := mediaserver.Version{
			ID:         media.ID,
			Resolution: media.VideoResolution,
		}
		if len(media.Part) > 0 {
			v.FilePath = media.Part[0].File
			v.Size = media.Part[0].Size
		}
		details.Versions = append(details.Versions, v)
	}
	return details, nil
}

// DeleteItem removes a catalog entry and its files.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/library/metadata/"+itemID, nil); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}
	c.logger.Info().Str("itemId", itemID).Msg("deleted library item")
	return nil
}

// DeleteVersion removes a single file version from a catalog entry.
func (c *Client) DeleteVersion(ctx context.Context, itemID string, versionID int64) error {
	path := fmt.Sprintf("/library/metadata/%s/media/%d", itemID, versionID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("failed to delete version %d of item %s: %w", versionID, itemID, err)
	}
	c.logger.Info().Str("itemId", itemID).Int64("versionId", versionID).Msg("deleted media version")
	return nil
}

func entryToItem(m metadataEntry) mediaserver.Item {
	item := mediaserver.Item{
		ID:         m.RatingKey,
		ExternalID: externalID(m),
		Title:      m.Title,
		Year:       m.Year,
		AddedAt:    time.Unix(m.AddedAt, 0).UTC(),
	}
	if m.Type == "episode" {
		item.Episodic = true
		item.SeriesID = m.GrandparentRatingKey
		item.SeriesTitle = m.GrandparentTitle
		item.Season = m.ParentIndex
		item.Episode = m.Index
	}
	return item
}

// externalID extracts a numeric cross-system id from the Guid entries,
// preferring tmdb for movies and tvdb for episodic content.
func externalID(m metadataEntry) int64 {
	preferred, fallback := "tmdb://", "tvdb://"
	if m.Type == "episode" || m.Type == "show" {
		preferred, fallback = "tvdb://", "tmdb://"
	}

	var fb int64
	for _, g := range m.Guid {
		if strings.HasPrefix(g.ID, preferred) {
			if id, err := strconv.ParseInt(strings.TrimPrefix(g.ID, preferred), 10, 64); err == nil {
				return id
			}
		}
		if strings.HasPrefix(g.ID, fallback) {
			if id, err := strconv.ParseInt(strings.TrimPrefix(g.ID, fallback), 10, 64); err == nil {
				fb = id
			}
		}
	}
	return fb
}
