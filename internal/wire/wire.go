//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"mirage-codex-api/internal/application/billing"
	"mirage-codex-api/internal/application/catalog"
	"mirage-codex-api/internal/application/generation"
	"mirage-codex-api/internal/application/illustration"
	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/infrastructure/imagegen"
	"mirage-codex-api/internal/infrastructure/llm"
	"mirage-codex-api/internal/infrastructure/messaging"
	"mirage-codex-api/internal/infrastructure/objectstore"
	"mirage-codex-api/internal/infrastructure/persistence/postgres"
	"mirage-codex-api/internal/infrastructure/persistence/redis"
	"mirage-codex-api/internal/interfaces/http/handler"
	"mirage-codex-api/internal/interfaces/http/middleware"
	"mirage-codex-api/internal/interfaces/http/router"
	"mirage-codex-api/internal/workflow/chain"
	workflowport "mirage-codex-api/internal/workflow/port"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		MessagingSet,
		StorageSet,
		GenerationSet,
		HandlerSet,
		wire.Struct(new(router.Handlers), "*"),
		router.New,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideBillingConfig,
	postgres.NewBookRepository,
	postgres.NewAuthorRepository,
	postgres.NewGenreRepository,
	postgres.NewEditionRepository,
	postgres.NewPageRepository,
	postgres.NewSectionRepository,
	postgres.NewSearchRepository,
	postgres.NewCreditRepository,
	postgres.NewPageImageRepository,
	postgres.NewReactionRepository,
	postgres.NewProviderKeyRepository,
	postgres.NewModelRepository,
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
)

// StorageSet 对象存储与图像生成提供者集合
var StorageSet = wire.NewSet(
	ProvideGCSStore,
	ProvideImageGenClient,
	wire.Bind(new(objectstore.Store), new(*objectstore.GCSStore)),
	wire.Bind(new(imagegen.Generator), new(*imagegen.Client)),
)

// GenerationSet 生成管线提供者集合
var GenerationSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	chain.NewPageChain,
	ProvideGenerationConfig,
	generation.NewAssembler,
	billing.NewGate,
	generation.NewPipeline,
	illustration.NewMemoizer,
	illustration.NewCovers,
	catalog.NewService,
)

// HandlerSet 处理器提供者集合
var HandlerSet = wire.NewSet(
	ProvideFeaturesConfig,
	handler.NewHealthHandler,
	handler.NewBookHandler,
	handler.NewGenerationHandler,
	handler.NewImageHandler,
	handler.NewCreditHandler,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideGCSStore 提供 GCS 对象存储
func ProvideGCSStore(ctx context.Context, cfg *config.Config) (*objectstore.GCSStore, func(), error) {
	store, err := objectstore.NewGCSStore(ctx, &cfg.Storage.GCS)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = store.Close()
	}
	return store, cleanup, nil
}

// ProvideImageGenClient 提供图像生成客户端
func ProvideImageGenClient(cfg *config.Config) *imagegen.Client {
	return imagegen.NewClient(&cfg.ImageGen)
}

// ProvideBillingConfig 提供计费配置
func ProvideBillingConfig(cfg *config.Config) *config.BillingConfig {
	return &cfg.Billing
}

// ProvideGenerationConfig 提供生成管线配置
func ProvideGenerationConfig(cfg *config.Config) *config.GenerationConfig {
	return &cfg.Generation
}

// ProvideFeaturesConfig 提供功能开关配置
func ProvideFeaturesConfig(cfg *config.Config) *config.FeaturesConfig {
	return &cfg.Features
}
