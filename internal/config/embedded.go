package config

// Values injected at build time via ldflags. EmbeddedTMDBToken serves as a
// default and can be overridden by environment variables or config file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/moviefinder/moviefinder/internal/config.EmbeddedTMDBToken=xxx' \
//	                   -X 'github.com/moviefinder/moviefinder/internal/config.Version=v1.2.3'"
var (
	EmbeddedTMDBToken string
	Version           = "dev"
)
