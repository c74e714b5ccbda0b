package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/janitarr/janitarr/internal/arr"
	"github.com/janitarr/janitarr/internal/arr/radarr"
	"github.com/janitarr/janitarr/internal/arr/sonarr"
	"github.com/janitarr/janitarr/internal/config"
	"github.com/janitarr/janitarr/internal/database"
	"github.com/janitarr/janitarr/internal/dedupe"
	"github.com/janitarr/janitarr/internal/history"
	"github.com/janitarr/janitarr/internal/logger"
	"github.com/janitarr/janitarr/internal/mediaserver/plex"
	"github.com/janitarr/janitarr/internal/retry"
	"github.com/janitarr/janitarr/internal/scheduler"
	"github.com/janitarr/janitarr/internal/server"
	"github.com/janitarr/janitarr/internal/sweep"
	"github.com/janitarr/janitarr/internal/watchlist"
	wlplex "github.com/janitarr/janitarr/internal/watchlist/plex"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("logLevel", cfg.Logging.Level).
		Bool("dryRun", cfg.Sweep.DryRun).
		Msg("starting janitarr")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	retryCfg := retry.DefaultConfig()

	catalog, err := plex.NewClient(plex.ClientConfig{
		URL:    cfg.Plex.URL,
		Token:  cfg.Plex.Token,
		Retry:  retryCfg,
		Logger: &log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create plex client")
	}

	var movies arr.RequestManager
	if cfg.Radarr.Enabled {
		client, err := radarr.NewClient(radarr.ClientConfig{
			URL:    cfg.Radarr.URL,
			APIKey: cfg.Radarr.APIKey,
			Retry:  retryCfg,
			Logger: &log.Logger,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create radarr client")
		}
		movies = client
	}

	var series arr.SeriesManager
	if cfg.Sonarr.Enabled {
		client, err := sonarr.NewClient(sonarr.ClientConfig{
			URL:    cfg.Sonarr.URL,
			APIKey: cfg.Sonarr.APIKey,
			Retry:  retryCfg,
			Logger: &log.Logger,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create sonarr client")
		}
		series = client
	}

	var watch watchlist.Watchlist
	if cfg.Watchlist.Enabled {
		client, err := wlplex.NewClient(wlplex.ClientConfig{
			Token:  cfg.Watchlist.Token,
			Retry:  retryCfg,
			Logger: &log.Logger,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create watchlist client")
		}
		watch = client
	}

	requestDelay, err := time.ParseDuration(cfg.Sweep.RequestDelay)
	if err != nil {
		log.Warn().Str("requestDelay", cfg.Sweep.RequestDelay).Msg("invalid request delay, using 250ms")
		requestDelay = 250 * time.Millisecond
	}

	historyService := history.NewService(db.Conn(), log.Logger)

	sweeper := sweep.New(catalog, movies, series, watch, history.NewRecorder(historyService), sweep.Config{
		Preference:       dedupe.Preference(cfg.Sweep.DeletePreference),
		PreserveTerms:    cfg.Sweep.PreserveTerms,
		FuzzyThreshold:   cfg.Sweep.FuzzyThreshold,
		RequestDelay:     requestDelay,
		MovieDedupe:      cfg.Sweep.MovieDedupe,
		EpisodeDedupe:    cfg.Sweep.EpisodeDedupe,
		MonitorConfirm:   cfg.Sweep.MonitorConfirm,
		WatchlistReclaim: cfg.Sweep.WatchlistReclaim,
	}, &log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	err = sched.RegisterTask(scheduler.TaskConfig{
		ID:          "sweep",
		Name:        "Library Sweep",
		Description: "Deduplicates the library and reconciles monitored flags and the watchlist",
		Cron:        cfg.Sweep.Schedule,
		Func: func(ctx context.Context) error {
			_, err := sweeper.Run(ctx, sweep.TriggerScheduled, cfg.Sweep.DryRun)
			return err
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register sweep task")
	}

	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	srv := server.NewServer(sweeper, historyService, sched, cfg.Sweep.DryRun, log.Logger)

	go func() {
		if err := srv.Start(cfg.Server.Address()); err != nil {
			log.Info().Msg("server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shut down server cleanly")
	}
}
