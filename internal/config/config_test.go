package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
plex:
  url: http://plex:32400
  token: abc123
`

func TestLoad_Minimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8484 {
		t.Errorf("server.port = %d, want default 8484", cfg.Server.Port)
	}
	if cfg.Sweep.DeletePreference != "newest" {
		t.Errorf("sweep.delete_preference = %q, want default newest", cfg.Sweep.DeletePreference)
	}
	if !cfg.Sweep.DryRun {
		t.Error("sweep.dry_run should default to true")
	}
	if cfg.Plex.URL != "http://plex:32400" {
		t.Errorf("plex.url = %q", cfg.Plex.URL)
	}
}

func TestLoad_WatchlistTokenFallsBackToPlex(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
watchlist:
  enabled: true
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Watchlist.Token != "abc123" {
		t.Errorf("watchlist.token = %q, want fallback to plex token", cfg.Watchlist.Token)
	}
}

func TestLoad_RejectsBadPreference(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
sweep:
  delete_preference: biggest
`))
	if err == nil {
		t.Fatal("Load() accepted an unknown delete_preference")
	}
}

func TestLoad_RejectsEnabledBackendWithoutCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
radarr:
  enabled: true
  url: http://radarr:7878
`))
	if err == nil {
		t.Fatal("Load() accepted an enabled radarr with no api key")
	}
}

func TestLoad_RejectsMissingPlex(t *testing.T) {
	_, err := Load(writeConfig(t, `
logging:
  level: debug
`))
	if err == nil {
		t.Fatal("Load() accepted a config with no plex url")
	}
}

func TestValidate_ThresholdRange(t *testing.T) {
	cfg := Default()
	cfg.Plex.URL = "http://plex:32400"
	cfg.Plex.Token = "tok"
	cfg.Sweep.FuzzyThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a fuzzy threshold above 1")
	}
}
