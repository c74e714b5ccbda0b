package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Plex      PlexConfig      `mapstructure:"plex"`
	Radarr    ArrConfig       `mapstructure:"radarr"`
	Sonarr    ArrConfig       `mapstructure:"sonarr"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Sweep     SweepConfig     `mapstructure:"sweep"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// PlexConfig holds media server connection settings.
type PlexConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// ArrConfig holds connection settings for one request manager.
type ArrConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
}

// WatchlistConfig holds watchlist reconciliation settings.
type WatchlistConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"` // plex.tv account token, defaults to plex.token
}

// SweepConfig holds the sweep engine's policy knobs.
type SweepConfig struct {
	DryRun           bool     `mapstructure:"dry_run"`
	DeletePreference string   `mapstructure:"delete_preference"`
	PreserveTerms    []string `mapstructure:"preserve_terms"`
	FuzzyThreshold   float64  `mapstructure:"fuzzy_threshold"`
	RequestDelay     string   `mapstructure:"request_delay"` // pause between external mutations, e.g. "250ms"
	Schedule         string   `mapstructure:"schedule"`      // cron expression for automatic sweeps

	MovieDedupe      bool `mapstructure:"movie_dedupe"`
	EpisodeDedupe    bool `mapstructure:"episode_dedupe"`
	MonitorConfirm   bool `mapstructure:"monitor_confirm"`
	WatchlistReclaim bool `mapstructure:"watchlist_reclaim"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8484,
		},
		Database: DatabaseConfig{
			Path: "./data/janitarr.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Sweep: SweepConfig{
			DryRun:           true,
			DeletePreference: "newest",
			FuzzyThreshold:   0.70,
			RequestDelay:     "250ms",
			Schedule:         "0 4 * * *",
			MovieDedupe:      true,
			EpisodeDedupe:    true,
			MonitorConfirm:   true,
			WatchlistReclaim: true,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.janitarr")
	}

	v.SetEnvPrefix("JANITARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults + env vars are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Watchlist.Token == "" {
		cfg.Watchlist.Token = cfg.Plex.Token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the sweep engine cannot run with. It fails
// fast so a misconfigured backend surfaces at startup, not mid-sweep.
func (c *Config) Validate() error {
	switch c.Sweep.DeletePreference {
	case "newest", "oldest", "largest_file", "smallest_file":
	default:
		return fmt.Errorf("invalid sweep.delete_preference %q (must be newest, oldest, largest_file or smallest_file)", c.Sweep.DeletePreference)
	}

	if c.Sweep.FuzzyThreshold < 0 || c.Sweep.FuzzyThreshold > 1 {
		return fmt.Errorf("sweep.fuzzy_threshold %v out of range [0,1]", c.Sweep.FuzzyThreshold)
	}

	if c.Plex.URL == "" {
		return fmt.Errorf("plex.url is required")
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("plex.token is required")
	}

	if c.Radarr.Enabled {
		if c.Radarr.URL == "" || c.Radarr.APIKey == "" {
			return fmt.Errorf("radarr is enabled but radarr.url or radarr.api_key is missing")
		}
	}
	if c.Sonarr.Enabled {
		if c.Sonarr.URL == "" || c.Sonarr.APIKey == "" {
			return fmt.Errorf("sonarr is enabled but sonarr.url or sonarr.api_key is missing")
		}
	}
	if c.Watchlist.Enabled && c.Watchlist.Token == "" {
		return fmt.Errorf("watchlist is enabled but no plex.tv token is configured")
	}

	return nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8484)

	v.SetDefault("database.path", "./data/janitarr.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("plex.url", "")
	v.SetDefault("plex.token", "")

	v.SetDefault("radarr.enabled", false)
	v.SetDefault("sonarr.enabled", false)
	v.SetDefault("watchlist.enabled", false)

	v.SetDefault("sweep.dry_run", true)
	v.SetDefault("sweep.delete_preference", "newest")
	v.SetDefault("sweep.preserve_terms", []string{})
	v.SetDefault("sweep.fuzzy_threshold", 0.70)
	v.SetDefault("sweep.request_delay", "250ms")
	v.SetDefault("sweep.schedule", "0 4 * * *")
	v.SetDefault("sweep.movie_dedupe", true)
	v.SetDefault("sweep.episode_dedupe", true)
	v.SetDefault("sweep.monitor_confirm", true)
	v.SetDefault("sweep.watchlist_reclaim", true)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
