package main

import (
	"fmt"
	"io"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/database"
	"github.com/moviefinder/moviefinder/internal/logger"
	"github.com/moviefinder/moviefinder/internal/popularity"
	"github.com/moviefinder/moviefinder/internal/search"
	"github.com/moviefinder/moviefinder/internal/tmdb"
	"github.com/moviefinder/moviefinder/internal/trending"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	tmdb    *tmdb.Client
	tracker popularity.Tracker
	closers []func() error
}

func newApp(configPath string, logOutput io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		Output:     logOutput,
	})

	a := &app{
		cfg:  cfg,
		log:  log,
		tmdb: tmdb.NewClient(cfg.TMDB, log.Logger),
	}
	a.closers = append(a.closers, log.Close)

	if !a.tmdb.IsConfigured() {
		log.Warn().Msg("no TMDB access token configured, upstream requests will fail")
	}

	if err := a.openTracker(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openTracker() error {
	switch a.cfg.Popularity.Backend {
	case config.PopularityBackendBolt:
		store, err := popularity.NewBoltStore(a.cfg.Popularity.BoltPath, a.cfg.TMDB.ImageBaseURL, a.log.Logger)
		if err != nil {
			return fmt.Errorf("failed to open popularity store: %w", err)
		}
		a.tracker = store
		a.closers = append(a.closers, store.Close)
	default:
		db, err := database.New(a.cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		a.log.Debug().Str("path", db.Path()).Msg("running database migrations")
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		a.tracker = popularity.NewSQLiteStore(db.Conn(), a.cfg.TMDB.ImageBaseURL, a.log.Logger)
	}

	a.log.Info().Str("backend", a.cfg.Popularity.Backend).Msg("popularity store ready")
	return nil
}

func (a *app) newPipeline() *search.Pipeline {
	return search.NewPipeline(a.tmdb, a.log.Logger,
		search.WithTracker(a.tracker),
		search.WithDiscardStale(a.cfg.Search.DiscardStale),
		search.WithDiscoverParams(tmdb.DefaultDiscoverParams(a.cfg.TMDB.Language)),
	)
}

func (a *app) newTrendingSource() trending.Source {
	if a.cfg.Trending.Source == config.TrendingSourceCounter {
		return trending.NewCounterSource(a.tracker, a.cfg.Trending.Limit)
	}
	return trending.NewTMDBSource(a.tmdb)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
