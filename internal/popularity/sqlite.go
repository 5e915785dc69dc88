package popularity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/movie"
)

// SQLiteStore keeps counters in the search_counts table.
type SQLiteStore struct {
	db           *sql.DB
	imageBaseURL string
	logger       zerolog.Logger
}

// NewSQLiteStore creates a store on a migrated database connection.
func NewSQLiteStore(db *sql.DB, imageBaseURL string, logger zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:           db,
		imageBaseURL: imageBaseURL,
		logger:       logger.With().Str("component", "popularity").Str("backend", "sqlite").Logger(),
	}
}

const upsertSearchCount = `
INSERT INTO search_counts (search_term, count, movie_id, title, poster_url)
VALUES (?, 1, ?, ?, ?)
ON CONFLICT (search_term) DO UPDATE SET
    count = count + 1,
    updated_at = CURRENT_TIMESTAMP
RETURNING count`

// RecordSearch implements Tracker.
func (s *SQLiteStore) RecordSearch(ctx context.Context, query string, top movie.Movie) error {
	if err := validateQuery(query); err != nil {
		return err
	}

	var count int
	err := s.db.QueryRowContext(ctx, upsertSearchCount,
		query,
		top.ID,
		top.Title,
		movie.PosterURL(s.imageBaseURL, top.PosterPath),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to record search %q: %w", query, err)
	}

	s.logger.Debug().
		Str("query", query).
		Int("movieId", top.ID).
		Int("count", count).
		Msg("Recorded search")

	return nil
}

const listTopSearches = `
SELECT search_term, count, movie_id, title, poster_url
FROM search_counts
ORDER BY count DESC, updated_at DESC, search_term ASC
LIMIT ?`

// TopSearches implements Tracker.
func (s *SQLiteStore) TopSearches(ctx context.Context, limit int) ([]movie.TrendingEntry, error) {
	rows, err := s.db.QueryContext(ctx, listTopSearches, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list top searches: %w", err)
	}
	defer rows.Close()

	entries := make([]movie.TrendingEntry, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.SearchTerm, &r.Count, &r.MovieID, &r.Title, &r.PosterURL); err != nil {
			return nil, fmt.Errorf("failed to scan search count: %w", err)
		}
		entries = append(entries, r.entry())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list top searches: %w", err)
	}

	return entries, nil
}

// Count returns the stored counter for query, or 0 when absent.
func (s *SQLiteStore) Count(ctx context.Context, query string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count FROM search_counts WHERE search_term = ?`, query).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read count for %q: %w", query, err)
	}
	return count, nil
}
