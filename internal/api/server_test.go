package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/health"
	"github.com/moviefinder/moviefinder/internal/movie"
	"github.com/moviefinder/moviefinder/internal/popularity"
	"github.com/moviefinder/moviefinder/internal/scheduler"
	"github.com/moviefinder/moviefinder/internal/search"
	"github.com/moviefinder/moviefinder/internal/testutil"
	"github.com/moviefinder/moviefinder/internal/tmdb"
	"github.com/moviefinder/moviefinder/internal/trending"
)

type testServer struct {
	*Server
	tracker *popularity.SQLiteStore
	health  *health.Service
}

func setupTestServer(t *testing.T, upstream http.HandlerFunc) *testServer {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	stub := httptest.NewServer(upstream)
	t.Cleanup(stub.Close)

	cfg := config.Default()
	cfg.TMDB.AccessToken = "test-token"
	cfg.TMDB.BaseURL = stub.URL

	client := tmdb.NewClient(cfg.TMDB, tdb.Logger)
	tracker := popularity.NewSQLiteStore(tdb.Conn, cfg.TMDB.ImageBaseURL, tdb.Logger)
	panel := trending.NewPanel(trending.NewCounterSource(tracker, cfg.Trending.Limit), tdb.Logger)

	sched, err := scheduler.New(tdb.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { sched.Stop() })
	require.NoError(t, sched.RegisterTask(scheduler.TaskConfig{
		ID:   "trending-refresh",
		Name: "Trending Refresh",
		Cron: cfg.Trending.RefreshCron,
		Func: panel.Refresh,
	}))

	healthSvc := health.NewService(tdb.Logger)
	healthSvc.RegisterItem(health.CategoryUpstream, "tmdb", "TMDB")

	var pipelines []*search.Pipeline
	t.Cleanup(func() {
		for _, p := range pipelines {
			p.Wait()
		}
	})

	server := NewServer(Services{
		NewPipeline: func() *search.Pipeline {
			p := search.NewPipeline(client, tdb.Logger, search.WithTracker(tracker))
			pipelines = append(pipelines, p)
			return p
		},
		Panel:     panel,
		Tracker:   tracker,
		Scheduler: sched,
		Health:    healthSvc,
	}, cfg, tdb.Logger)

	return &testServer{Server: server, tracker: tracker, health: healthSvc}
}

func (ts *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func batmanUpstream(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/search/movie":
		w.Write([]byte(`{"results":[{"id":1,"title":"Batman","poster_path":"/b.jpg"}]}`))
	default:
		w.Write([]byte(`{"results":[]}`))
	}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, batmanUpstream)

	rec := ts.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}

func TestSearchMovies_RecordsAndRanks(t *testing.T) {
	ts := setupTestServer(t, batmanUpstream)

	rec := ts.do(t, http.MethodGet, "/api/v1/movies?query=batman")
	require.Equal(t, http.StatusOK, rec.Code)

	var state search.FetchState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, search.StatusSuccess, state.Status)
	require.Len(t, state.Results, 1)
	assert.Equal(t, "Batman", state.Results[0].Title)

	// The counter is written off the request path.
	assert.Eventually(t, func() bool {
		n, err := ts.tracker.Count(context.Background(), "batman")
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec = ts.do(t, http.MethodGet, "/api/v1/searches/top?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var top []movie.TrendingEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	require.Len(t, top, 1)
	assert.Equal(t, 1, top[0].MovieID)
	assert.Equal(t, 1, top[0].Count)

	rec = ts.do(t, http.MethodPost, "/api/v1/trending/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	var panel trending.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &panel))
	assert.Equal(t, "counter", panel.Source)
	require.Len(t, panel.Entries, 1)
	assert.Equal(t, "Batman", panel.Entries[0].Title)

	rec = ts.do(t, http.MethodGet, "/api/v1/trending")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &panel))
	assert.Len(t, panel.Entries, 1)
}

func TestSearchMovies_FailureIsData(t *testing.T) {
	ts := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := ts.do(t, http.MethodGet, "/api/v1/movies?query=batman")
	require.Equal(t, http.StatusOK, rec.Code)

	var state search.FetchState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, search.StatusFailure, state.Status)
	assert.Equal(t, search.FetchErrorMessage, state.Error)
	assert.Empty(t, state.Results)
	assert.NotNil(t, state.Results)
}

func TestTopSearches_InvalidLimit(t *testing.T) {
	ts := setupTestServer(t, batmanUpstream)

	for _, target := range []string{"/api/v1/searches/top?limit=abc", "/api/v1/searches/top?limit=0"} {
		rec := ts.do(t, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestListTasks(t *testing.T) {
	ts := setupTestServer(t, batmanUpstream)

	rec := ts.do(t, http.MethodGet, "/api/v1/tasks")
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []scheduler.TaskInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "trending-refresh", tasks[0].ID)
}

func TestGetHealth(t *testing.T) {
	ts := setupTestServer(t, batmanUpstream)
	ts.health.SetError(health.CategoryUpstream, "tmdb", "unauthorized")

	rec := ts.do(t, http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp health.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, health.StatusError, resp.Status)
	require.Len(t, resp.Upstream, 1)
	assert.Equal(t, "unauthorized", resp.Upstream[0].Message)
}
