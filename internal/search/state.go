package search

import "github.com/moviefinder/moviefinder/internal/movie"

// Status is the tag of a FetchState.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// FetchState is the observable lifecycle of one search request. Results is
// only populated for StatusSuccess and Error only for StatusFailure.
type FetchState struct {
	Status  Status        `json:"status"`
	Query   string        `json:"query"`
	Results []movie.Movie `json:"results"`
	Error   string        `json:"error,omitempty"`
}

// Idle is the state before the first fetch.
func Idle() FetchState {
	return FetchState{Status: StatusIdle, Results: []movie.Movie{}}
}

// Loading is the state while a fetch for query is in flight.
func Loading(query string) FetchState {
	return FetchState{Status: StatusLoading, Query: query, Results: []movie.Movie{}}
}

// Success holds the results of a completed fetch.
func Success(query string, results []movie.Movie) FetchState {
	if results == nil {
		results = []movie.Movie{}
	}
	return FetchState{Status: StatusSuccess, Query: query, Results: results}
}

// Failure holds a user-displayable message.
func Failure(query, message string) FetchState {
	return FetchState{Status: StatusFailure, Query: query, Results: []movie.Movie{}, Error: message}
}

// IsLoading reports whether a fetch is in flight.
func (s FetchState) IsLoading() bool { return s.Status == StatusLoading }

// Failed reports whether the last fetch failed.
func (s FetchState) Failed() bool { return s.Status == StatusFailure }
