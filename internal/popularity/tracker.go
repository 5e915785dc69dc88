// Package popularity counts how often a search term led to a movie and
// ranks the most searched movies.
package popularity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/moviefinder/moviefinder/internal/movie"
)

// DefaultLimit is the number of entries TopSearches returns when no limit is given.
const DefaultLimit = 5

var ErrEmptyQuery = errors.New("search term is empty")

// Tracker records searches and reads the resulting ranking.
type Tracker interface {
	// RecordSearch increments the counter for query, creating it with the
	// top result's details on first use.
	RecordSearch(ctx context.Context, query string, top movie.Movie) error
	// TopSearches returns up to limit entries ordered by count descending.
	TopSearches(ctx context.Context, limit int) ([]movie.TrendingEntry, error)
}

// Record is one stored counter.
type Record struct {
	SearchTerm string    `json:"search_term"`
	Count      int       `json:"count"`
	MovieID    int       `json:"movie_id"`
	Title      string    `json:"title"`
	PosterURL  string    `json:"poster_url"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r Record) entry() movie.TrendingEntry {
	return movie.TrendingEntry{
		MovieID:   r.MovieID,
		Title:     r.Title,
		PosterURL: r.PosterURL,
		Count:     r.Count,
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// rank orders records by count, then most recently updated, then term.
func rank(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Count != records[j].Count {
			return records[i].Count > records[j].Count
		}
		if !records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].UpdatedAt.After(records[j].UpdatedAt)
		}
		return records[i].SearchTerm < records[j].SearchTerm
	})
}
