package plex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/retry"
	"github.com/janitarr/janitarr/internal/watchlist"
)

var _ watchlist.Watchlist = (*Client)(nil)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	client, err := NewClient(ClientConfig{
		BaseURL: srv.URL,
		Token:   "tok",
		Retry:   retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, Multiplier: 1},
		Logger:  &logger,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestList(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.URL.Query().Get("type"); got != "2" {
			t.Errorf("type = %q, want 2 for shows", got)
		}
		w.Write([]byte(`{"MediaContainer":{"Metadata":[
			{"ratingKey":"wl1","title":"Severance","year":2022,"type":"show","Guid":[{"id":"tvdb://361753"}]}
		]}}`))
	}))

	entries, err := client.List(context.Background(), watchlist.KindShow)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Ref != "wl1" || e.ExternalID != 361753 || e.Kind != watchlist.KindShow {
		t.Errorf("entry = %+v", e)
	}
}

func TestRemove(t *testing.T) {
	var method, ratingKey string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		ratingKey = r.URL.Query().Get("ratingKey")
	}))

	err := client.Remove(context.Background(), watchlist.Entry{Ref: "wl1", Title: "Severance"})
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if method != http.MethodPut || ratingKey != "wl1" {
		t.Errorf("request = %s ratingKey=%s", method, ratingKey)
	}
}
