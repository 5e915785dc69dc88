package tasks

import (
	"github.com/moviefinder/moviefinder/internal/health"
	"github.com/moviefinder/moviefinder/internal/scheduler"
)

// HealthCheckID identifies the health check task.
const HealthCheckID = "health-check"

// RegisterHealthCheckTask probes the upstream API and the counter store
// every five minutes.
func RegisterHealthCheckTask(sched *scheduler.Scheduler, checker *health.Checker) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          HealthCheckID,
		Name:        "Health Check",
		Description: "Checks TMDB connectivity and the search counter store",
		Cron:        "*/5 * * * *",
		RunOnStart:  true,
		Func:        checker.Run,
	})
}
