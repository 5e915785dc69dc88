package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TMDB_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, 500, cfg.Search.DebounceMS)
	assert.False(t, cfg.Search.DiscardStale)
	assert.Equal(t, TrendingSourceTMDB, cfg.Trending.Source)
	assert.Equal(t, PopularityBackendSQLite, cfg.Popularity.Backend)
	assert.Equal(t, 5, cfg.Trending.Limit)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "moviefinder.yaml")
	content := []byte(`
server:
  port: 9191
trending:
  source: counter
search:
  debounce_ms: 250
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("MOVIEFINDER_TMDB_ACCESS_TOKEN", "env-token")
	t.Setenv("MOVIEFINDER_SEARCH_DISCARD_STALE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, TrendingSourceCounter, cfg.Trending.Source)
	assert.Equal(t, 250, cfg.Search.DebounceMS)
	assert.True(t, cfg.Search.DiscardStale)
	assert.Equal(t, "env-token", cfg.TMDB.AccessToken)
}

func TestLoad_DotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// godotenv never overrides a variable that is already set, even to "".
	t.Setenv("TMDB_API_KEY", "")
	require.NoError(t, os.Unsetenv("TMDB_API_KEY"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TMDB_API_KEY=from-dotenv\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.TMDB.AccessToken)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"counter source", func(c *Config) { c.Trending.Source = TrendingSourceCounter }, false},
		{"bolt backend", func(c *Config) { c.Popularity.Backend = PopularityBackendBolt }, false},
		{"unknown source", func(c *Config) { c.Trending.Source = "appwrite" }, true},
		{"unknown backend", func(c *Config) { c.Popularity.Backend = "redis" }, true},
		{"negative debounce", func(c *Config) { c.Search.DebounceMS = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	c := ServerConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", c.Address())
}
