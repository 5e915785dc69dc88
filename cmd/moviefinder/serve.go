package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moviefinder/moviefinder/internal/api"
	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/health"
	"github.com/moviefinder/moviefinder/internal/scheduler"
	"github.com/moviefinder/moviefinder/internal/scheduler/tasks"
	"github.com/moviefinder/moviefinder/internal/session"
	"github.com/moviefinder/moviefinder/internal/trending"
	"github.com/moviefinder/moviefinder/internal/websocket"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	a, err := newApp(configPath, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log
	log.Info().
		Str("version", config.Version).
		Str("logLevel", a.cfg.Logging.Level).
		Str("trendingSource", a.cfg.Trending.Source).
		Msg("starting MovieFinder")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	panel := trending.NewPanel(a.newTrendingSource(), log.Logger)

	wait := time.Duration(a.cfg.Search.DebounceMS) * time.Millisecond
	hub := websocket.NewHub(func() *session.Session {
		return session.New(a.newPipeline(), wait, log.Logger)
	}, panel, log.Logger)
	go hub.Run(ctx)

	panel.OnChange(hub.BroadcastTrending)

	healthSvc := health.NewService(log.Logger)
	healthSvc.SetBroadcaster(hub)
	checker := health.NewChecker(healthSvc,
		health.Probe{Category: health.CategoryUpstream, ID: "tmdb", Name: "TMDB", Check: a.tmdb.Test},
		health.Probe{Category: health.CategoryStorage, ID: a.cfg.Popularity.Backend, Name: "Search counters", Check: func(ctx context.Context) error {
			_, err := a.tracker.TopSearches(ctx, 1)
			return err
		}},
	)
	source := a.cfg.Trending.Source
	healthSvc.RegisterItem(health.CategoryTrending, source, "Trending panel")
	panel.OnChange(func(state trending.State) {
		if state.Failed() {
			healthSvc.SetWarning(health.CategoryTrending, source, state.Error)
			return
		}
		healthSvc.ClearStatus(health.CategoryTrending, source)
	})

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		return err
	}
	if err := tasks.RegisterTrendingRefreshTask(sched, panel, a.cfg.Trending); err != nil {
		return err
	}
	if err := tasks.RegisterHealthCheckTask(sched, checker); err != nil {
		return err
	}
	sched.Start()

	server := api.NewServer(api.Services{
		NewPipeline: a.newPipeline,
		Panel:       panel,
		Tracker:     a.tracker,
		Hub:         hub,
		Scheduler:   sched,
		Health:      healthSvc,
	}, a.cfg, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(a.cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err = <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("server shutdown error")
	}
	if stopErr := sched.Stop(); stopErr != nil {
		log.Error().Err(stopErr).Msg("scheduler shutdown error")
	}

	log.Info().Msg("server stopped")
	return err
}
