package popularity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/moviefinder/moviefinder/internal/movie"
)

var searchCountsBucket = []byte("search_counts")

// BoltStore keeps counters in a single bbolt file, one JSON record per term.
type BoltStore struct {
	db           *bolt.DB
	imageBaseURL string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewBoltStore opens or creates the bbolt file at path.
func NewBoltStore(path, imageBaseURL string, logger zerolog.Logger) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating bolt directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(searchCountsBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{
		db:           db,
		imageBaseURL: imageBaseURL,
		logger:       logger.With().Str("component", "popularity").Str("backend", "bolt").Logger(),
		now:          time.Now,
	}, nil
}

// Close closes the bbolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// RecordSearch implements Tracker.
func (s *BoltStore) RecordSearch(_ context.Context, query string, top movie.Movie) error {
	if err := validateQuery(query); err != nil {
		return err
	}

	var count int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(searchCountsBucket)
		key := []byte(query)

		var r Record
		if data := b.Get(key); data != nil {
			if err := json.Unmarshal(data, &r); err != nil {
				return err
			}
			r.Count++
		} else {
			r = Record{
				SearchTerm: query,
				Count:      1,
				MovieID:    top.ID,
				Title:      top.Title,
				PosterURL:  movie.PosterURL(s.imageBaseURL, top.PosterPath),
			}
		}
		r.UpdatedAt = s.now().UTC()
		count = r.Count

		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("recording search %q: %w", query, err)
	}

	s.logger.Debug().
		Str("query", query).
		Int("movieId", top.ID).
		Int("count", count).
		Msg("Recorded search")

	return nil
}

// TopSearches implements Tracker.
func (s *BoltStore) TopSearches(_ context.Context, limit int) ([]movie.TrendingEntry, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(searchCountsBucket).ForEach(func(_ []byte, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing top searches: %w", err)
	}

	rank(records)

	limit = normalizeLimit(limit)
	if len(records) > limit {
		records = records[:limit]
	}

	entries := make([]movie.TrendingEntry, len(records))
	for i, r := range records {
		entries[i] = r.entry()
	}
	return entries, nil
}
