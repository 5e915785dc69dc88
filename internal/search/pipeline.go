// Package search turns a settled query string into one upstream request and
// maps its outcome onto a FetchState.
package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/movie"
	"github.com/moviefinder/moviefinder/internal/popularity"
	"github.com/moviefinder/moviefinder/internal/tmdb"
)

const (
	// FetchErrorMessage is shown for transport and HTTP failures.
	FetchErrorMessage = "Error fetching movies. Try again later."
	// FallbackErrorMessage is shown when the payload flags a failure without a message.
	FallbackErrorMessage = "Failed to fetch movies"

	recordTimeout = 10 * time.Second
)

// MovieAPI is the part of the upstream client the pipeline uses.
type MovieAPI interface {
	Discover(ctx context.Context, params tmdb.DiscoverParams) ([]movie.Movie, error)
	Search(ctx context.Context, query string) ([]movie.Movie, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTracker reports successful searches to t.
func WithTracker(t popularity.Tracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

// WithDiscardStale makes only the most recently issued fetch commit its
// result. When false a slower, older fetch can overwrite a newer result.
func WithDiscardStale(discard bool) Option {
	return func(p *Pipeline) { p.discardStale = discard }
}

// WithDiscoverParams overrides the listing used for an empty query.
func WithDiscoverParams(params tmdb.DiscoverParams) Option {
	return func(p *Pipeline) { p.discover = params }
}

// Pipeline owns one FetchState and the fetches that drive it.
type Pipeline struct {
	api          MovieAPI
	tracker      popularity.Tracker
	discover     tmdb.DiscoverParams
	discardStale bool
	logger       zerolog.Logger

	// commitMu serializes state changes with their notifications so
	// observers see transitions in the order they were applied.
	commitMu   sync.Mutex
	mu         sync.RWMutex
	state      FetchState
	generation uint64
	observers  []func(FetchState)

	records sync.WaitGroup
}

// NewPipeline creates a pipeline in the Idle state.
func NewPipeline(api MovieAPI, logger zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		api:      api,
		discover: tmdb.DefaultDiscoverParams(""),
		logger:   logger.With().Str("component", "search").Logger(),
		state:    Idle(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnChange registers fn to receive every state transition. Observers run
// synchronously and must not call back into the pipeline's FetchMovies.
func (p *Pipeline) OnChange(fn func(FetchState)) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()
	p.observers = append(p.observers, fn)
}

// State returns the current state.
func (p *Pipeline) State() FetchState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// FetchMovies issues exactly one request for query and returns the state
// that request produced. A non-empty query searches by title; an empty one
// lists popular movies. No retries are made.
func (p *Pipeline) FetchMovies(ctx context.Context, query string) FetchState {
	gen := p.begin(query)

	var (
		results []movie.Movie
		err     error
	)
	if query != "" {
		results, err = p.api.Search(ctx, query)
	} else {
		results, err = p.api.Discover(ctx, p.discover)
	}

	next := p.outcome(query, results, err)
	p.commit(gen, next)

	if err == nil && query != "" && len(results) > 0 {
		p.record(ctx, query, results[0])
	}

	return next
}

// Wait blocks until outstanding popularity reports have finished.
func (p *Pipeline) Wait() {
	p.records.Wait()
}

func (p *Pipeline) begin(query string) uint64 {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.state = Loading(query)
	state := p.state
	p.mu.Unlock()

	p.notify(state)
	return gen
}

func (p *Pipeline) commit(gen uint64, next FetchState) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	p.mu.Lock()
	if p.discardStale && gen != p.generation {
		p.mu.Unlock()
		p.logger.Debug().
			Str("query", next.Query).
			Uint64("generation", gen).
			Msg("Discarding superseded fetch result")
		return
	}
	p.state = next
	p.mu.Unlock()

	p.notify(next)
}

// notify must be called with commitMu held.
func (p *Pipeline) notify(state FetchState) {
	for _, fn := range p.observers {
		fn(state)
	}
}

func (p *Pipeline) outcome(query string, results []movie.Movie, err error) FetchState {
	if err == nil {
		p.logger.Debug().
			Str("query", query).
			Int("results", len(results)).
			Msg("Fetched movies")
		return Success(query, results)
	}

	var apiErr *tmdb.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = FallbackErrorMessage
		}
		p.logger.Warn().Str("query", query).Str("error", msg).Msg("Upstream reported failure")
		return Failure(query, msg)
	}

	p.logger.Error().Err(err).Str("query", query).Msg("Error fetching movies")
	return Failure(query, FetchErrorMessage)
}

// record reports the search in the background. Its outcome never touches
// the pipeline state.
func (p *Pipeline) record(ctx context.Context, query string, top movie.Movie) {
	if p.tracker == nil {
		return
	}

	p.records.Add(1)
	go func() {
		defer p.records.Done()

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancel()

		if err := p.tracker.RecordSearch(rctx, query, top); err != nil {
			p.logger.Warn().
				Err(err).
				Str("query", query).
				Int("movieId", top.ID).
				Msg("Failed to record search")
		}
	}()
}
