package plex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/mediaserver"
	"github.com/janitarr/janitarr/internal/retry"
)

var _ mediaserver.Catalog = (*Client)(nil)

const sectionsBody = `{"MediaContainer":{"Directory":[
	{"key":"1","title":"Movies","type":"movie"},
	{"key":"2","title":"TV Shows","type":"show"}
]}}`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	client, err := NewClient(ClientConfig{
		URL:    srv.URL,
		Token:  "tok",
		Retry:  retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, Multiplier: 1},
		Logger: &logger,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestListSections(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Error("missing JSON accept header")
		}
		w.Write([]byte(sectionsBody))
	}))

	sections, err := client.ListSections(context.Background())
	if err != nil {
		t.Fatalf("ListSections() error = %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if sections[1].Type != mediaserver.SectionShow {
		t.Errorf("section type = %q", sections[1].Type)
	}
}

func TestListItems_MovieSection(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/library/sections":
			w.Write([]byte(sectionsBody))
		case "/library/sections/1/all":
			if got := r.URL.Query().Get("type"); got != "1" {
				t.Errorf("type = %q, want 1 for a movie section", got)
			}
			w.Write([]byte(`{"MediaContainer":{"Metadata":[
				{"ratingKey":"101","title":"Fight Club","year":1999,"addedAt":946684800,"type":"movie",
				 "Guid":[{"id":"imdb://tt0137523"},{"id":"tmdb://550"}]}
			]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	items, err := client.ListItems(context.Background(), "1")
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	it := items[0]
	if it.ID != "101" || it.ExternalID != 550 || it.Episodic {
		t.Errorf("item = %+v", it)
	}
	if it.AddedAt != time.Unix(946684800, 0).UTC() {
		t.Errorf("addedAt = %v", it.AddedAt)
	}
}

func TestListItems_ShowSectionListsEpisodes(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/library/sections":
			w.Write([]byte(sectionsBody))
		case "/library/sections/2/all":
			if got := r.URL.Query().Get("type"); got != "4" {
				t.Errorf("type = %q, want 4 for a show section", got)
			}
			w.Write([]byte(`{"MediaContainer":{"Metadata":[
				{"ratingKey":"201","title":"Good News About Hell","type":"episode",
				 "grandparentRatingKey":"200","grandparentTitle":"Severance",
				 "parentIndex":1,"index":1,"Guid":[{"id":"tvdb://8885164"}]}
			]}}`))
		}
	}))

	items, err := client.ListItems(context.Background(), "2")
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	it := items[0]
	if !it.Episodic || it.SeriesID != "200" || it.Season != 1 || it.Episode != 1 {
		t.Errorf("item = %+v", it)
	}
	if it.ExternalID != 8885164 {
		t.Errorf("external id = %d, want tvdb id", it.ExternalID)
	}
}

func TestGetItemDetails(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/library/metadata/101" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"MediaContainer":{"Metadata":[
			{"ratingKey":"101","title":"Fight Club","type":"movie","Guid":[{"id":"tmdb://550"}],
			 "Media":[
				{"id":11,"videoResolution":"1080","Part":[{"file":"/movies/fc.1080.mkv","size":2147483648}]},
				{"id":12,"videoResolution":"720","Part":[{"file":"/movies/fc.720.mkv","size":734003200}]}
			 ]}
		]}}`))
	}))

	details, err := client.GetItemDetails(context.Background(), "101")
	if err != nil {
		t.Fatalf("GetItemDetails() error = %v", err)
	}
	if len(details.Versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(details.Versions))
	}
	v := details.Versions[0]
	if v.ID != 11 || v.Resolution != "1080" || v.Size != 2147483648 {
		t.Errorf("version = %+v", v)
	}
}

func TestDeleteVersion(t *testing.T) {
	var deleted string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		deleted = r.URL.Path
	}))

	if err := client.DeleteVersion(context.Background(), "101", 12); err != nil {
		t.Fatalf("DeleteVersion() error = %v", err)
	}
	if deleted != "/library/metadata/101/media/12" {
		t.Errorf("deleted path = %q", deleted)
	}
}
