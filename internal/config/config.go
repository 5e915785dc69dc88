package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	TMDB       TMDBConfig       `mapstructure:"tmdb" yaml:"tmdb"`
	Search     SearchConfig     `mapstructure:"search" yaml:"search"`
	Trending   TrendingConfig   `mapstructure:"trending" yaml:"trending"`
	Popularity PopularityConfig `mapstructure:"popularity" yaml:"popularity"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	AccessToken  string `mapstructure:"access_token" yaml:"access_token"`
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url" yaml:"image_base_url"`
	Language     string `mapstructure:"language" yaml:"language"`
	Timeout      int    `mapstructure:"timeout" yaml:"timeout"` // seconds
}

// SearchConfig holds search pipeline configuration.
type SearchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	// DiscardStale drops results of fetches superseded by a newer one.
	DiscardStale bool `mapstructure:"discard_stale" yaml:"discard_stale"`
}

// TrendingConfig holds trending panel configuration.
type TrendingConfig struct {
	Source      string `mapstructure:"source" yaml:"source"` // "tmdb" or "counter"
	Limit       int    `mapstructure:"limit" yaml:"limit"`
	RefreshCron string `mapstructure:"refresh_cron" yaml:"refresh_cron"`
}

// PopularityConfig holds search counter backend configuration.
type PopularityConfig struct {
	Backend  string `mapstructure:"backend" yaml:"backend"` // "sqlite" or "bolt"
	BoltPath string `mapstructure:"bolt_path" yaml:"bolt_path"`
}

const (
	TrendingSourceTMDB    = "tmdb"
	TrendingSourceCounter = "counter"

	PopularityBackendSQLite = "sqlite"
	PopularityBackendBolt   = "bolt"
)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "./data/moviefinder.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p",
			Language:     "en-US",
			Timeout:      10,
		},
		Search: SearchConfig{
			DebounceMS: 500,
		},
		Trending: TrendingConfig{
			Source:      TrendingSourceTMDB,
			Limit:       5,
			RefreshCron: "*/30 * * * *",
		},
		Popularity: PopularityConfig{
			Backend:  PopularityBackendSQLite,
			BoltPath: "./data/popularity.bolt",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.moviefinder")
	}

	v.SetEnvPrefix("MOVIEFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The bare TMDB_API_KEY variable is what most TMDB tooling documents.
	if cfg.TMDB.AccessToken == "" {
		cfg.TMDB.AccessToken = os.Getenv("TMDB_API_KEY")
	}
	if cfg.TMDB.AccessToken == "" {
		cfg.TMDB.AccessToken = EmbeddedTMDBToken
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Trending.Source {
	case TrendingSourceTMDB, TrendingSourceCounter:
	default:
		return fmt.Errorf("invalid trending.source %q: must be %q or %q",
			c.Trending.Source, TrendingSourceTMDB, TrendingSourceCounter)
	}

	switch c.Popularity.Backend {
	case PopularityBackendSQLite, PopularityBackendBolt:
	default:
		return fmt.Errorf("invalid popularity.backend %q: must be %q or %q",
			c.Popularity.Backend, PopularityBackendSQLite, PopularityBackendBolt)
	}

	if c.Search.DebounceMS < 0 {
		return fmt.Errorf("invalid search.debounce_ms %d: must not be negative", c.Search.DebounceMS)
	}

	return nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	// access_token needs a default so AutomaticEnv picks it up on Unmarshal
	v.SetDefault("tmdb.access_token", "")
	v.SetDefault("tmdb.base_url", d.TMDB.BaseURL)
	v.SetDefault("tmdb.image_base_url", d.TMDB.ImageBaseURL)
	v.SetDefault("tmdb.language", d.TMDB.Language)
	v.SetDefault("tmdb.timeout", d.TMDB.Timeout)

	v.SetDefault("search.debounce_ms", d.Search.DebounceMS)
	v.SetDefault("search.discard_stale", d.Search.DiscardStale)

	v.SetDefault("trending.source", d.Trending.Source)
	v.SetDefault("trending.limit", d.Trending.Limit)
	v.SetDefault("trending.refresh_cron", d.Trending.RefreshCron)

	v.SetDefault("popularity.backend", d.Popularity.Backend)
	v.SetDefault("popularity.bolt_path", d.Popularity.BoltPath)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
