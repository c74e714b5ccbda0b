package radarr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/arr"
	"github.com/janitarr/janitarr/internal/retry"
)

var _ arr.RequestManager = (*Client)(nil)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	client, err := NewClient(ClientConfig{
		URL:    srv.URL,
		APIKey: "test-key",
		Retry:  retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, Multiplier: 1},
		Logger: &logger,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, srv
}

func TestListRecords(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/api/v3/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": 1, "tmdbId": 550, "title": "Fight Club", "year": 1999, "monitored": true},
			{"id": 2, "tmdbId": 0, "title": "Untagged", "monitored": false},
		})
	}))

	records, err := client.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ExternalID != 550 || !records[0].Monitored {
		t.Errorf("record = %+v", records[0])
	}
}

func TestSetMonitored_FetchPatchPut(t *testing.T) {
	var putBody map[string]interface{}
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": 1, "title": "Fight Club", "monitored": true,
				"qualityProfileId": 4, "path": "/movies/Fight Club",
			})
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putBody)
			w.WriteHeader(http.StatusAccepted)
		}
	}))

	if err := client.SetMonitored(context.Background(), 1, false); err != nil {
		t.Fatalf("SetMonitored() error = %v", err)
	}
	if putBody == nil {
		t.Fatal("no PUT was issued")
	}
	if putBody["monitored"] != false {
		t.Error("monitored flag was not flipped in PUT body")
	}
	// Fields the client does not model must survive the round trip.
	if putBody["qualityProfileId"] != float64(4) {
		t.Errorf("unmodeled field dropped: %v", putBody["qualityProfileId"])
	}
}

func TestSetMonitored_AlreadyInDesiredState(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			t.Error("PUT issued for a no-op change")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1, "monitored": false})
	}))

	if err := client.SetMonitored(context.Background(), 1, false); err != nil {
		t.Fatalf("SetMonitored() error = %v", err)
	}
}

func TestListRecords_ErrorStatus(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))

	if _, err := client.ListRecords(context.Background()); err == nil {
		t.Fatal("ListRecords() error = nil, want failure on 403")
	}
}
