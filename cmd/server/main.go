/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the revenue recognition engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Configure structured logging
  3. Initialize SQLite store
  4. Initialize the Gemini extractor (if an API key is available)
  5. Create API handler with dependencies
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port        HTTP server port (default: 8080)
  -db          SQLite database path (default: contracts.db)
               Use ":memory:" for an in-memory database
  -gemini-key  Gemini API key; falls back to GEMINI_API_KEY env var.
               When absent the analysis endpoints answer 503 and the
               rest of the API works normally.
  -log-level   zerolog level: debug, info, warn, error (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database and analysis enabled
  GEMINI_API_KEY=AIza... ./server -db="./data/contracts.db"

  # Run schedule-only (no LLM) with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/revenue-engine/analyzer"
	"github.com/warp/revenue-engine/api"
	"github.com/warp/revenue-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "contracts.db", "SQLite database path")
	geminiKey := flag.String("gemini-key", "", "Gemini API key (falls back to GEMINI_API_KEY)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	// Logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	// Store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Extractor (optional)
	var extractor analyzer.Extractor
	key := *geminiKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key != "" {
		gemini, err := analyzer.NewGemini(context.Background(), key, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize gemini extractor")
		}
		extractor = gemini
		log.Info().Msg("contract analysis enabled")
	} else {
		log.Warn().Msg("no Gemini API key; analysis endpoints disabled")
	}

	// Handler and router
	handler := api.NewHandler(store, extractor, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // analysis calls wait on the LLM
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", *port).Msgf("server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
