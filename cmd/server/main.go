package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genforge-core/internal/adapter/api"
	"genforge-core/internal/adapter/client"
	"genforge-core/internal/adapter/eventbus"
	"genforge-core/internal/adapter/metrics"
	"genforge-core/internal/adapter/store"
	"genforge-core/internal/config"
	"genforge-core/internal/domain/entity"
	"genforge-core/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/genai"
)

// embeddingDimension is the vector size of the result cache collection.
const embeddingDimension = 768

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		log.Println("Warning: .env.dev file not found, using system environment variables")
	}
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	credential := client.GeminiCredential{
		APIKey:   cfg.GeminiAPIKey,
		Project:  cfg.GoogleProject,
		Location: cfg.GoogleLocation,
	}
	genaiClient, err := genai.NewClient(ctx, credential.ClientConfig())
	if err != nil {
		logger.Fatal("failed to init genai client", zap.Error(err))
	}

	recorder := metrics.NewPrometheus()

	primaryModel := client.NewGeminiClientFromClient(genaiClient, cfg.PrimaryModel, credential)
	primary := usecase.NewStructuredTier(
		entity.NewProviderProfile("gemini", primaryModel.Model(), entity.TierPrimary),
		primaryModel,
		primaryModel,
	)
	secondary := secondaryTier(cfg, genaiClient, credential)

	chain := usecase.NewFallbackChain(primary, secondary,
		usecase.WithChainLogger(logger.Named("chain")),
		usecase.WithChainMetrics(recorder),
		usecase.WithRetryBaseDelay(cfg.RetryBaseDelay),
	)

	deps := usecase.Deps{
		Logger:         logger.Named("orchestrator"),
		Metrics:        recorder,
		CacheThreshold: float32(cfg.CacheSimilarity),
	}

	// Redis for per-user generation quotas
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		limiter := store.NewRedisLimiter(rdb, cfg.GenerationLimit, 24*time.Hour)
		if err := limiter.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, limiter will fail requests until it recovers", zap.Error(err))
		}
		deps.TokenLimiter = limiter
	}

	// Qdrant for the semantic result cache
	if cfg.QdrantHost != "" {
		qClient, err := qdrant.NewClient(&qdrant.Config{
			Host: cfg.QdrantHost,
			Port: cfg.QdrantPort,
		})
		if err != nil {
			logger.Fatal("failed to connect to qdrant", zap.Error(err))
		}
		defer qClient.Close()

		cache := store.NewQdrantCache(qClient, cfg.QdrantCollection, 24*time.Hour, logger.Named("cache"))
		if err := cache.InitCollection(ctx, embeddingDimension); err != nil {
			logger.Fatal("failed to init qdrant collection", zap.Error(err))
		}
		deps.ResultCache = cache
		deps.Embedder = client.NewPromptEmbedder(genaiClient, cfg.EmbeddingModel, embeddingDimension)
		if cfg.JudgeModel != "" {
			deps.Judge = client.NewGeminiJudge(genaiClient, cfg.JudgeModel)
		}
	}

	// NATS for generation events
	if cfg.NATSURL != "" {
		publisher, err := eventbus.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			logger.Error("failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			deps.Publisher = publisher
		}
	}

	orchestrator := usecase.NewOrchestrator(chain, deps)

	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, tier := range []usecase.Tier{primary, secondary} {
			if tier.Probe == nil {
				continue
			}
			logger.Info("provider warm-up",
				zap.String("tier", string(tier.Profile.Tier)),
				zap.String("provider", tier.Profile.Name),
				zap.String("model", tier.Profile.Model),
				zap.Bool("available", tier.Probe.Available(warmCtx)),
			)
		}
	}()

	app := fiber.New(fiber.Config{
		AppName: "GenForge Core",
	})

	handler := api.NewGenerateHandler(orchestrator, cfg.Generation, api.Limits{
		MaxRetries:     cfg.MaxRetriesLimit,
		MaxTimeoutMs:   cfg.MaxTimeoutMs,
		RequestTimeout: cfg.RequestTimeout,
	}, logger.Named("api"))
	api.SetupRouter(app, handler, api.RouterConfig{
		Version:  cfg.AppVersion,
		Env:      cfg.Environment,
		Registry: recorder.Registry(),
	})

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	orchestrator.Wait()
	logger.Info("server exited gracefully")
}

func secondaryTier(cfg *config.Config, genaiClient *genai.Client, credential client.GeminiCredential) usecase.Tier {
	switch cfg.SecondaryProvider {
	case "anthropic":
		c := client.NewAnthropicClient(client.AnthropicConfig{
			APIKey:   cfg.AnthropicAPIKey,
			Endpoint: cfg.AnthropicEndpoint,
			Model:    cfg.SecondaryModel,
		})
		return usecase.NewTextTier(entity.NewProviderProfile("anthropic", c.Model(), entity.TierSecondary), c, c, usecase.DefaultTextOptions)
	case "none":
		return usecase.Tier{}
	default:
		c := client.NewGeminiTextClient(genaiClient, cfg.SecondaryModel, credential)
		return usecase.NewTextTier(entity.NewProviderProfile("gemini", c.Model(), entity.TierSecondary), c, c, usecase.DefaultTextOptions)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zapConfig.Build()
}
