// Package main 浏览计数消费者入口（view-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mirage-codex-api/internal/application/catalog"
	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/infrastructure/messaging"
	"mirage-codex-api/internal/infrastructure/persistence/postgres"
	"mirage-codex-api/internal/infrastructure/persistence/redis"
	"mirage-codex-api/pkg/logger"
	"mirage-codex-api/pkg/metrics"
	"mirage-codex-api/pkg/tracer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "view-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	txMgr := postgres.NewTxManager(pgClient)
	bookRepo := postgres.NewBookRepository(pgClient)

	counter := catalog.NewViewCounter(bookRepo, txMgr, 5*time.Second)
	counter.Start(ctx)

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamPageView,
		Group:        messaging.ConsumerGroupViewWriter,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
		Backoff:      messaging.DefaultBackoffConfig(),
	})

	consumer.RegisterHandler("page_view", func(_ context.Context, msg *messaging.Message) error {
		var payload messaging.PageViewMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			metrics.ViewEventsConsumed.WithLabelValues("malformed").Inc()
			return err
		}

		counter.Add(payload.BookID)
		metrics.ViewEventsConsumed.WithLabelValues("accepted").Inc()
		return nil
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := consumer.Start(runCtx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	logger.Info(ctx, "view-worker started",
		"stream", string(messaging.StreamPageView),
		"group", string(messaging.ConsumerGroupViewWriter),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down view-worker...")
	cancel()
	consumer.Stop()
	counter.Stop()
	logger.Info(ctx, "view-worker exited")
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
