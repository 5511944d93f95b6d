package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"studiobook/internal/ai"
	"studiobook/internal/api"
	"studiobook/internal/config"
	"studiobook/internal/events"
	"studiobook/internal/kvstore"
	"studiobook/internal/logging"
	"studiobook/internal/metrics"
	"studiobook/internal/store"
	"studiobook/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	eventBus := events.NewEventBus()
	eventBus.Subscribe(events.EventBookingCreated, func(e *events.Event) error {
		logger.Info().RawJSON("payload", e.Payload).Msg("booking created")
		return nil
	})

	bookings, err := store.New(ctx, kv, eventBus, logger)
	if err != nil {
		return err
	}

	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	flusher := worker.NewFlushWorker(kv, retryPolicy, logger)
	flusher.Start(ctx)
	bookings.SetFlusher(flusher)

	var aiClient *ai.Client
	if cfg.AI.Enabled {
		aiClient = ai.NewClient(cfg.AI, logger)
	} else {
		logger.Info().Msg("ai assist disabled")
	}

	srv := api.NewServer(*cfg, bookings, aiClient, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	flusher.Stop()
	return nil
}

// buildStore assembles the persistence stack: the configured primary backed
// by an in-memory fallback so a storage outage never blocks mutations.
func buildStore(cfg *config.Config, logger *zerolog.Logger) (kvstore.Store, error) {
	var primary kvstore.Store

	switch cfg.Storage.Backend {
	case "redis":
		client := kvstore.NewRedisClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := kvstore.Ping(pingCtx, client); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable at startup")
		}
		primary = kvstore.NewRedisStore(client, cfg.Storage.Key)
	default:
		sqlite, err := kvstore.NewSQLiteStore(cfg.Storage.Path, cfg.Storage.Key)
		if err != nil {
			return nil, err
		}
		primary = sqlite
	}

	return kvstore.NewFailoverStore(primary, kvstore.NewMemoryStore(), logger), nil
}
