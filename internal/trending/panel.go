package trending

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/movie"
	"github.com/moviefinder/moviefinder/internal/tmdb"
)

const (
	// FetchErrorMessage is shown for transport and backend failures.
	FetchErrorMessage = "Error fetching trending movies. Try again later."
	// FallbackErrorMessage is shown when the payload flags a failure without a message.
	FallbackErrorMessage = "Failed to fetch trending movies"
)

// State is what the panel displays: either entries or an error.
type State struct {
	Source  string                `json:"source"`
	Entries []movie.TrendingEntry `json:"entries"`
	Error   string                `json:"error,omitempty"`
}

// Failed reports whether the last load failed.
func (s State) Failed() bool { return s.Error != "" }

// Panel loads the trending list from its source. Loading is not tracked.
type Panel struct {
	source Source
	logger zerolog.Logger

	commitMu  sync.Mutex
	mu        sync.RWMutex
	state     State
	observers []func(State)
}

// NewPanel creates a panel with an empty list.
func NewPanel(source Source, logger zerolog.Logger) *Panel {
	return &Panel{
		source: source,
		logger: logger.With().Str("component", "trending").Str("source", source.Name()).Logger(),
		state:  State{Source: source.Name(), Entries: []movie.TrendingEntry{}},
	}
}

// OnChange registers fn to receive every new panel state.
func (p *Panel) OnChange(fn func(State)) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()
	p.observers = append(p.observers, fn)
}

// State returns the current panel state.
func (p *Panel) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Load fetches the list once and commits the outcome.
func (p *Panel) Load(ctx context.Context) State {
	entries, err := p.source.Trending(ctx)
	next := p.outcome(entries, err)

	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	p.mu.Lock()
	p.state = next
	p.mu.Unlock()

	for _, fn := range p.observers {
		fn(next)
	}
	return next
}

// Refresh adapts Load to a scheduled task. Failures are reflected in the
// panel state, not returned.
func (p *Panel) Refresh(ctx context.Context) error {
	p.Load(ctx)
	return nil
}

func (p *Panel) outcome(entries []movie.TrendingEntry, err error) State {
	name := p.source.Name()
	if err == nil {
		if entries == nil {
			entries = []movie.TrendingEntry{}
		}
		p.logger.Debug().Int("entries", len(entries)).Msg("Loaded trending movies")
		return State{Source: name, Entries: entries}
	}

	var apiErr *tmdb.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = FallbackErrorMessage
		}
		p.logger.Warn().Str("error", msg).Msg("Trending source reported failure")
		return State{Source: name, Entries: []movie.TrendingEntry{}, Error: msg}
	}

	p.logger.Error().Err(err).Msg("Error fetching trending movies")
	return State{Source: name, Entries: []movie.TrendingEntry{}, Error: FetchErrorMessage}
}
