// Command backend starts the dealership admin HTTP server.
//
// Run with:
//
//	go run ./main.go
//
// Configuration is read from an optional app.env in the working directory and
// from the environment. The server listens on :8080 by default and keeps its
// collections in a BoltDB file (dealership.db). Set STORE_DRIVER=postgres to
// use PostgreSQL instead, and RABBITMQ_URL to publish every committed change.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arkantrust/dealership-admin/backend/config"
	"github.com/arkantrust/dealership-admin/backend/eventbus"
	"github.com/arkantrust/dealership-admin/backend/handlers"
	"github.com/arkantrust/dealership-admin/backend/reconciler"
	"github.com/arkantrust/dealership-admin/backend/seed"
	"github.com/arkantrust/dealership-admin/backend/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Str("appName", cfg.AppName).Str("store", cfg.StoreDriver).Msg("Application starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer s.Close()

	notifiers := eventbus.Multi{eventbus.NewLogger(nil)}
	if cfg.RabbitMQURL != "" {
		rmq, err := eventbus.NewRabbitMQ(cfg.RabbitMQURL, cfg.ChangesExchangeName, cfg.ChangesExchangeType)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize RabbitMQ publisher")
		}
		defer rmq.Close()
		notifiers = append(notifiers, rmq)
	}

	ds, err := seed.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load seed data")
	}

	rec := reconciler.New(s, reconciler.WithNotifier(notifiers))
	if err := rec.Load(ctx, ds); err != nil {
		log.Fatal().Err(err).Msg("Failed to load collections")
	}

	h := handlers.New(rec)

	// CORS wraps every route so the browser console (served on a different
	// port during development) can reach the API.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsMiddleware(handlers.RequestLogger(h.Routes())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Application shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverBolt:
		log.Info().Str("path", cfg.DBPath).Msg("Opening BoltDB store")
		return store.NewBolt(cfg.DBPath)
	case config.DriverPostgres:
		return store.NewPostgres(ctx, cfg.PostgresDSN())
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory store, changes are lost on exit")
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// setCORSHeaders adds CORS headers to a response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+handlers.RequestIDHeader)
	w.Header().Set("Access-Control-Expose-Headers", handlers.RequestIDHeader)
}

// corsMiddleware wraps an http.Handler with CORS support and answers
// pre-flight OPTIONS requests itself.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
