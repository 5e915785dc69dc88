package tasks

import (
	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/scheduler"
	"github.com/moviefinder/moviefinder/internal/trending"
)

// TrendingRefreshID identifies the trending refresh task.
const TrendingRefreshID = "trending-refresh"

// RegisterTrendingRefreshTask reloads the trending panel on the configured
// cron. Panel observers receive each new state.
func RegisterTrendingRefreshTask(sched *scheduler.Scheduler, panel *trending.Panel, cfg config.TrendingConfig) error {
	cron := cfg.RefreshCron
	if cron == "" {
		cron = config.Default().Trending.RefreshCron
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          TrendingRefreshID,
		Name:        "Trending Refresh",
		Description: "Reloads the trending movies panel",
		Cron:        cron,
		RunOnStart:  true,
		Func:        panel.Refresh,
	})
}
