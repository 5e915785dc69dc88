// Package session binds a search input to its debounce stage and fetch
// pipeline for one connected page.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/debounce"
	"github.com/moviefinder/moviefinder/internal/search"
)

// Session owns the raw query and the debounced query of one page.
type Session struct {
	id        uuid.UUID
	pipeline  *search.Pipeline
	debouncer *debounce.Debouncer[string]
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	query     string
	debounced string
	started   bool
	inflight  sync.WaitGroup
}

// New creates a session. wait is the debounce quiet period.
func New(pipeline *search.Pipeline, wait time.Duration, logger zerolog.Logger, opts ...debounce.Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New()

	s := &Session{
		id:       id,
		pipeline: pipeline,
		logger:   logger.With().Str("component", "session").Str("session", id.String()).Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.debouncer = debounce.New(wait, s.onDebounced, opts...)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Pipeline returns the session's fetch pipeline.
func (s *Session) Pipeline() *search.Pipeline { return s.pipeline }

// Query returns the raw, undebounced query.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Start runs the initial fetch for the empty debounced query and returns
// once it has completed.
// If a debounced fetch already ran, Start leaves its result in place.
func (s *Session) Start() search.FetchState {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return s.pipeline.State()
	}
	s.started = true
	s.debounced = ""
	s.mu.Unlock()

	s.logger.Debug().Msg("Session started")
	return s.fetch("")
}

// Input records a keystroke. The fetch happens once the input has been
// quiet for the debounce period.
func (s *Session) Input(text string) {
	s.mu.Lock()
	if text == s.query {
		s.mu.Unlock()
		return
	}
	s.query = text
	s.mu.Unlock()

	s.debouncer.Set(text)
}

// Submit skips the rest of the quiet period and fetches the pending input
// now. It reports whether there was pending input.
func (s *Session) Submit() bool {
	return s.debouncer.Flush()
}

// onDebounced fetches when the debounced value actually changed.
func (s *Session) onDebounced(value string) {
	s.mu.Lock()
	if s.started && value == s.debounced {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.debounced = value
	s.mu.Unlock()

	s.fetch(value)
}

func (s *Session) fetch(query string) search.FetchState {
	s.inflight.Add(1)
	defer s.inflight.Done()

	if s.ctx.Err() != nil {
		return s.pipeline.State()
	}
	return s.pipeline.FetchMovies(s.ctx, query)
}

// Close stops the debounce timer, cancels in-flight fetches and waits for
// them and any pending popularity reports to finish.
func (s *Session) Close() {
	s.debouncer.Stop()
	s.cancel()
	s.inflight.Wait()
	s.pipeline.Wait()
	s.logger.Debug().Msg("Session closed")
}
