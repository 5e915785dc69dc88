package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/scheduler"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

// searchMovies runs one fetch without debouncing. A failed fetch is still a
// valid FetchState and is returned with 200.
func (s *Server) searchMovies(c echo.Context) error {
	if s.svc.NewPipeline == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	pipeline := s.svc.NewPipeline()
	state := pipeline.FetchMovies(c.Request().Context(), c.QueryParam("query"))
	return c.JSON(http.StatusOK, state)
}

func (s *Server) getTrending(c echo.Context) error {
	if s.svc.Panel == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "trending is not configured")
	}
	return c.JSON(http.StatusOK, s.svc.Panel.State())
}

func (s *Server) refreshTrending(c echo.Context) error {
	if s.svc.Panel == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "trending is not configured")
	}
	return c.JSON(http.StatusOK, s.svc.Panel.Load(c.Request().Context()))
}

func (s *Server) topSearches(c echo.Context) error {
	if s.svc.Tracker == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search counters are not configured")
	}

	limit := s.cfg.Trending.Limit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	entries, err := s.svc.Tracker.TopSearches(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read search counters")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read search counters")
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) listTasks(c echo.Context) error {
	if s.svc.Scheduler == nil {
		return c.JSON(http.StatusOK, []scheduler.TaskInfo{})
	}
	return c.JSON(http.StatusOK, s.svc.Scheduler.ListTasks())
}

func (s *Server) getHealth(c echo.Context) error {
	if s.svc.Health == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "health tracking is not configured")
	}
	return c.JSON(http.StatusOK, s.svc.Health.GetAll())
}
