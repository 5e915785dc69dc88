// Package trending drives the ranked trending-movies panel.
package trending

import (
	"context"

	"github.com/moviefinder/moviefinder/internal/movie"
	"github.com/moviefinder/moviefinder/internal/popularity"
)

// Source supplies ranked trending entries. One source is active per deployment.
type Source interface {
	Name() string
	Trending(ctx context.Context) ([]movie.TrendingEntry, error)
}

// TrendingAPI is the part of the upstream client TMDBSource uses.
type TrendingAPI interface {
	Trending(ctx context.Context) ([]movie.Movie, error)
	ImageBaseURL() string
}

// TMDBSource reads this week's trending movies straight from TMDB.
type TMDBSource struct {
	api TrendingAPI
}

// NewTMDBSource creates a source backed by the upstream trending endpoint.
func NewTMDBSource(api TrendingAPI) *TMDBSource {
	return &TMDBSource{api: api}
}

func (s *TMDBSource) Name() string { return "tmdb" }

// Trending implements Source. Entries keep upstream order and carry no count.
func (s *TMDBSource) Trending(ctx context.Context) ([]movie.TrendingEntry, error) {
	movies, err := s.api.Trending(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]movie.TrendingEntry, len(movies))
	for i, m := range movies {
		entries[i] = m.ToTrendingEntry(s.api.ImageBaseURL())
	}
	return entries, nil
}

// CounterSource ranks movies by how often searches led to them.
type CounterSource struct {
	tracker popularity.Tracker
	limit   int
}

// NewCounterSource creates a source backed by the search counters.
func NewCounterSource(tracker popularity.Tracker, limit int) *CounterSource {
	if limit <= 0 {
		limit = popularity.DefaultLimit
	}
	return &CounterSource{tracker: tracker, limit: limit}
}

func (s *CounterSource) Name() string { return "counter" }

// Trending implements Source.
func (s *CounterSource) Trending(ctx context.Context) ([]movie.TrendingEntry, error) {
	return s.tracker.TopSearches(ctx, s.limit)
}
