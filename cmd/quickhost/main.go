package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"quickhost/internal/app/images"
	"quickhost/internal/app/middleware"
	appoutbox "quickhost/internal/app/outbox"
	"quickhost/internal/app/uow"
	"quickhost/internal/app/wiring"
	"quickhost/internal/infra/broker/kafka"
	"quickhost/internal/infra/config"
	mongodb "quickhost/internal/infra/db/mongo"
	ginserver "quickhost/internal/infra/http/gin"
	"quickhost/internal/infra/obs"
	infraoutbox "quickhost/internal/infra/outbox"
	"quickhost/internal/infra/storage/fs"
	"quickhost/internal/infra/storage/memory"
	"quickhost/internal/infra/storage/s3"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod", "info").Error("invalid configuration", "error", err)
		return err
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	app, err := buildApplication(ctx, cfg, logger)
	defer app.close(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}

	worker := &infraoutbox.Worker{
		Store:       app.events,
		Producer:    app.producer,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      cfg.EventSource,
		Backoff:     cfg.RetryBackoff,
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	buses := wiring.Build(wiring.Deps{
		UoWFactory:  app.uow,
		Outbox:      app.outbox,
		Encoder:     appoutbox.JSONEventEncoder{},
		Idempotency: app.idempotency,
		Images:      &images.Manager{Store: app.blobs, Logger: logger},
		Commission:  cfg.Commission,
		Logger:      logger,
		Now:         time.Now,
		NewID:       uuid.NewString,
	})

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: app.checks}, ginserver.Handlers{
		Listing:  ginserver.ListingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Booking:  ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Review:   ginserver.ReviewHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Favorite: ginserver.FavoriteHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}

type eventOutbox interface {
	appoutbox.Outbox
	infraoutbox.Source
}

type application struct {
	uow         uow.UoWFactory
	outbox      appoutbox.Outbox
	events      infraoutbox.Source
	idempotency middleware.IdempotencyStore
	blobs       images.BlobStore
	producer    infraoutbox.Producer
	checks      map[string]obs.Check
	closers     []func(context.Context) error
}

// buildApplication returns the partially built application alongside any
// error so the caller can still release what was opened.
func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]obs.Check{}}

	var box eventOutbox
	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return app, fmt.Errorf("connect mongo: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		if err := client.Ping(ctx); err != nil {
			return app, fmt.Errorf("ping mongo: %w", err)
		}
		app.uow = mongodb.NewFactory(client.DB)
		app.idempotency = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		box = infraoutbox.NewStore(client.DB)
		app.checks["mongo"] = client.Ping
		logger.Info("mongo storage ready", "database", cfg.MongoDB)
	} else {
		store := memory.NewStore()
		app.uow = memory.Factory{Store: store}
		app.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		box = store.Outbox()
		logger.Warn("MONGO_URI not set, using in-memory storage")
	}
	app.outbox, app.events = box, box

	blobs, err := newBlobStore(cfg, logger)
	if err != nil {
		return app, err
	}
	app.blobs = blobs

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaClientID, nil)
		if err != nil {
			return app, fmt.Errorf("kafka producer: %w", err)
		}
		app.producer = producer
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		logger.Info("kafka producer ready", "brokers", cfg.KafkaBrokers)
	} else {
		app.producer = infraoutbox.LogProducer{Logger: logger}
		logger.Warn("KAFKA_BROKERS not set, events are logged only")
	}
	return app, nil
}

func newBlobStore(cfg config.Config, logger *slog.Logger) (images.BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BlobS3:
		client, err := s3.NewClient(s3.Options{
			Endpoint:      cfg.S3Endpoint,
			UseSSL:        cfg.S3UseSSL,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicEndpoint,
			PublicRead:    cfg.S3PublicRead,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("s3 blob store: %w", err)
		}
		logger.Info("s3 blob store ready", "bucket", cfg.S3Bucket)
		return client, nil
	case config.BlobMemory:
		logger.Warn("using in-memory blob store")
		return memory.NewBlobStore(), nil
	default:
		store, err := fs.New(cfg.MediaRoot)
		if err != nil {
			return nil, fmt.Errorf("fs blob store: %w", err)
		}
		logger.Info("filesystem blob store ready", "root", cfg.MediaRoot)
		return store, nil
	}
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}
}
