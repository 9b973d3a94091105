package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/websearch/ddg-mcp/search"
)

const appVersion = "1.2.1"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := newLogger(cfg)

	searcher := search.NewClient(search.WithTimeout(cfg.SearchTimeout))
	server := NewServer(log, searcher, appVersion)

	log.Info().
		Str("addr", cfg.Addr()).
		Str("version", appVersion).
		Msg("Starting DuckDuckGo MCP SSE server")

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("HTTP server stopped")
	}
}

// newLogger builds the process logger from config. This is the only place
// logging is configured; handlers receive it by value.
func newLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
	if cfg.LogFormat == "console" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log
}
