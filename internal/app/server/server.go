package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"payledger/internal/domain/notifications"
	"payledger/internal/platform/blob"
	"payledger/internal/platform/config"
	"payledger/internal/platform/db"
	"payledger/internal/platform/jobs"
	"payledger/internal/platform/logger"
	"payledger/internal/platform/memstore"
	"payledger/internal/platform/metrics"
)

const notifyWorkers = 2

// Run loads configuration, wires the stores and serves until SIGINT or SIGTERM.
func Run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		ServiceName: "payledger",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	sink, closeSink, err := openSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	collector := metrics.New()
	jobsCtx, cancelJobs := context.WithCancel(context.Background())
	jobsSvc := jobs.New(cfg.NotifyQueueSize, cfg.NotifyTimeout, log)
	jobsSvc.Start(jobsCtx, notifyWorkers)

	handler := NewRouter(Deps{
		Config:   cfg,
		Log:      log,
		Metrics:  collector,
		Stores:   stores,
		Notifier: notifications.NewDispatcher(jobsSvc, sink, collector),
		Signer:   blob.NewHMACSigner(cfg.BlobBaseURL, cfg.BlobSigningKey, cfg.BlobURLTTL),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr), zap.String("store", cfg.StoreDriver))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		cancelJobs()
		jobsSvc.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	cancelJobs()
	jobsSvc.Wait()
	return err
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (Stores, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return MemoryStores(memstore.New()), func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return Stores{}, nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return Stores{}, nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return Stores{}, nil, fmt.Errorf("seed: %w", err)
		}
	}
	return PostgresStores(pool), pool.Close, nil
}

func openSink(ctx context.Context, cfg config.Config, log *zap.Logger) (notifications.Sink, func(), error) {
	if cfg.RedisURL == "" {
		return notifications.LogSink{Log: log}, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable at startup", zap.Error(err))
	}
	return notifications.NewRedisSink(client, cfg.NotifyQueueKey), func() { _ = client.Close() }, nil
}
