package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/movie"
	"github.com/moviefinder/moviefinder/internal/search"
	"github.com/moviefinder/moviefinder/internal/tmdb"
	"github.com/moviefinder/moviefinder/internal/trending"
)

func TestConfigCmd_RedactsToken(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MOVIEFINDER_TMDB_ACCESS_TOKEN", "secret")

	path := filepath.Join(dir, "moviefinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trending:\n  source: counter\n"), 0o600))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--config", path})
	require.NoError(t, root.Execute())

	assert.NotContains(t, out.String(), "secret")

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &cfg))
	assert.Equal(t, redacted, cfg.TMDB.AccessToken)
	assert.Equal(t, config.TrendingSourceCounter, cfg.Trending.Source)
}

func TestPrintMovies(t *testing.T) {
	var buf bytes.Buffer
	printMovies(&buf, search.Success("batman", []movie.Movie{{ID: 1, Title: "Batman", VoteAverage: 7.2}}))
	assert.Contains(t, buf.String(), "Batman")
	assert.Contains(t, buf.String(), "7.2")

	buf.Reset()
	printMovies(&buf, search.Success("", nil))
	assert.Equal(t, "No movies found.\n", buf.String())
}

func TestPrintTrending(t *testing.T) {
	var buf bytes.Buffer
	printTrending(&buf, []movie.TrendingEntry{{MovieID: 7, Title: "Dune", Count: 4}})
	assert.Contains(t, buf.String(), "Dune")
	assert.Contains(t, buf.String(), "4")
}

type stubSource struct {
	entries []movie.TrendingEntry
	err     error
}

func (s stubSource) Name() string { return "tmdb" }
func (s stubSource) Trending(context.Context) ([]movie.TrendingEntry, error) {
	return s.entries, s.err
}

func TestRunTrending_Messages(t *testing.T) {
	tests := []struct {
		name    string
		source  stubSource
		wantErr string
	}{
		{"payload message", stubSource{err: &tmdb.APIError{Message: "rate limited"}}, "rate limited"},
		{"payload without message", stubSource{err: &tmdb.APIError{}}, trending.FallbackErrorMessage},
		{"transport failure", stubSource{err: errors.New("dial tcp: refused")}, trending.FetchErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := runTrending(context.Background(), &buf, tt.source, zerolog.Nop())
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Empty(t, buf.String())
		})
	}
}

func TestRunTrending_Success(t *testing.T) {
	var buf bytes.Buffer
	source := stubSource{entries: []movie.TrendingEntry{{MovieID: 7, Title: "Dune"}}}
	require.NoError(t, runTrending(context.Background(), &buf, source, zerolog.Nop()))
	assert.Contains(t, buf.String(), "Dune")
}
