// Package movie defines the movie records passed between the upstream API,
// the search pipeline, the trending panel and the popularity backend.
package movie

import "fmt"

// PosterSize is the TMDB image size used for posters.
const PosterSize = "w500"

// Movie is a movie as returned by TMDB. Fields are passed through as-is.
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path,omitempty"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Adult            bool    `json:"adult"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
}

// HasPoster reports whether the movie carries a poster path.
func (m Movie) HasPoster() bool {
	return m.PosterPath != nil && *m.PosterPath != ""
}

// TrendingEntry is one ranked item of the trending panel.
// Count is only set when the entry comes from the search counter backend.
type TrendingEntry struct {
	MovieID   int    `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"poster_url"`
	Count     int    `json:"count,omitempty"`
}

// PosterURL returns the full poster URL for path, or "" when path is empty.
func PosterURL(imageBaseURL string, path *string) string {
	if path == nil || *path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", imageBaseURL, PosterSize, *path)
}

// ToTrendingEntry converts a movie into a trending entry without a count.
func (m Movie) ToTrendingEntry(imageBaseURL string) TrendingEntry {
	return TrendingEntry{
		MovieID:   m.ID,
		Title:     m.Title,
		PosterURL: PosterURL(imageBaseURL, m.PosterPath),
	}
}
