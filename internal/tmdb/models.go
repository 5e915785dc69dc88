package tmdb

import "github.com/moviefinder/moviefinder/internal/movie"

// ListResponse is the envelope shared by the discover, search and trending
// endpoints. Response and Error carry an application-level failure that can
// arrive with a 2xx status.
type ListResponse struct {
	Page         int           `json:"page"`
	Results      []movie.Movie `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Response     string        `json:"response,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Failed reports whether the payload signals an application-level failure.
func (r ListResponse) Failed() bool {
	return r.Response == "False"
}

// ErrorResponse is an error from the TMDB API.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}

// DiscoverParams are the query parameters of /discover/movie.
type DiscoverParams struct {
	IncludeAdult bool
	IncludeVideo bool
	Language     string
	Page         int
	SortBy       string
}

// DefaultDiscoverParams returns the listing shown for an empty query:
// adult content excluded, first page, most popular first.
func DefaultDiscoverParams(language string) DiscoverParams {
	if language == "" {
		language = "en-US"
	}
	return DiscoverParams{
		IncludeAdult: false,
		IncludeVideo: false,
		Language:     language,
		Page:         1,
		SortBy:       "popularity.desc",
	}
}
