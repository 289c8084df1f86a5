package dependency_container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/25thblame/prompt-shield/pkg/app/policy"
	"github.com/25thblame/prompt-shield/pkg/app/shield"
	appTelemetry "github.com/25thblame/prompt-shield/pkg/app/telemetry"
	"github.com/25thblame/prompt-shield/pkg/config"
	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	handlers "github.com/25thblame/prompt-shield/pkg/handlers/http"
	"github.com/25thblame/prompt-shield/pkg/infra/auth/jwt"
	"github.com/25thblame/prompt-shield/pkg/infra/cache"
	"github.com/25thblame/prompt-shield/pkg/infra/database"
	"github.com/25thblame/prompt-shield/pkg/infra/httpx"
	_ "github.com/25thblame/prompt-shield/pkg/infra/migrations"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle/factory"
	"github.com/25thblame/prompt-shield/pkg/infra/repository"
	infraTelemetry "github.com/25thblame/prompt-shield/pkg/infra/telemetry"
	"github.com/25thblame/prompt-shield/pkg/infra/telemetry/kafka"
	"github.com/25thblame/prompt-shield/pkg/middleware"
	"github.com/25thblame/prompt-shield/pkg/server/router"
	"github.com/sirupsen/logrus"
)

const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"
)

type Container struct {
	Engine              shield.Engine
	VerdictCache        cache.VerdictCache
	RedisStore          *cache.RedisStore
	DB                  *database.DB
	AttackRepository    attack.Repository
	Classifier          oracle.Classifier
	Provider            string
	TelemetryWorker     *infraTelemetry.Worker
	JWTManager          jwt.Manager
	MiddlewareTransport *middleware.Transport
	HandlerTransport    *handlers.HandlerTransport
	Routers             []router.ServerRouter
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	// ProviderLocator overrides the credential based locator, mainly in tests.
	ProviderLocator factory.ProviderLocator
}

func NewContainer(ctx context.Context, di ContainerDI) (*Container, error) {
	cfg, logger := di.Cfg, di.Logger
	c := &Container{}

	thresholds := policy.Thresholds{
		Block: cfg.Shield.BlockThreshold,
		Flag:  cfg.Shield.FlagThreshold,
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	// cache
	var remote cache.Store
	if cfg.Redis.Enabled {
		c.RedisStore = cache.NewRedisStore(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, logger)
		remote = c.RedisStore
	}
	cacheTTL := time.Duration(cfg.Shield.CacheTTLSeconds) * time.Second
	local := cache.NewTTLMap(cacheTTL, cache.WithMaxEntries(cfg.Shield.CacheMaxEntries))
	c.VerdictCache = cache.NewVerdictCache(ctx, logger, local, remote)

	// ledger
	ledger := LedgerMemory
	if cfg.Database.Enabled {
		db, err := database.NewDB(ctx, logger, &database.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			DBName:       cfg.Database.DBName,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		c.AttackRepository = repository.NewAttackRepository(db.DB)
		ledger = LedgerPostgres
	} else {
		c.AttackRepository = repository.NewMemoryAttackRepository(cfg.Shield.LedgerRetention)
	}

	// oracle
	creds := factory.Credentials{
		OpenAI:     cfg.Oracle.OpenAIAPIKey,
		Anthropic:  cfg.Oracle.AnthropicAPIKey,
		OpenRouter: cfg.Oracle.OpenRouterAPIKey,
		Gemini:     cfg.Oracle.GeminiAPIKey,
		Azure:      cfg.Oracle.AzureAPIKey,
	}
	provider, err := factory.SelectProvider(cfg.Oracle.Provider, creds)
	if err != nil {
		c.close()
		return nil, err
	}
	if provider != cfg.Oracle.Provider {
		logger.WithFields(logrus.Fields{
			"preferred": cfg.Oracle.Provider,
			"selected":  provider,
		}).Warn("preferred oracle provider has no credentials, falling back")
	}
	locator := di.ProviderLocator
	if locator == nil {
		locator = factory.NewProviderLocator(logger, creds, cfg.Oracle.Options)
	}
	transport, err := locator.Get(ctx, provider)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("failed to initialize oracle provider %s: %w", provider, err)
	}
	breaker := httpx.NewCircuitBreaker(
		"oracle-"+provider,
		time.Duration(cfg.Oracle.BreakerTimeoutSeconds)*time.Second,
		uint32(cfg.Oracle.BreakerFailures),
		httpx.WithStateLogger(logger),
	)
	c.Provider = provider
	c.Classifier = oracle.NewClient(logger, oracle.WithCircuitBreaker(transport, breaker), thresholds, oracle.Config{
		Model:           cfg.Oracle.Model,
		MaxTokens:       cfg.Oracle.MaxTokens,
		MaxReasonLength: cfg.Oracle.MaxReasonLength,
		FailOpen:        cfg.Shield.FailOpenOnOracleError,
		Retry: oracle.RetryPolicy{
			MaxRetries:     cfg.Oracle.MaxRetries,
			AttemptTimeout: time.Duration(cfg.Oracle.TimeoutMs) * time.Millisecond,
			Backoff:        time.Duration(cfg.Oracle.RetryBackoffMs) * time.Millisecond,
			BackoffCeiling: time.Duration(cfg.Oracle.RetryBackoffCeilingMs) * time.Millisecond,
		},
	})

	// telemetry
	exporterLocator := infraTelemetry.NewExporterLocator(
		infraTelemetry.WithExporter(kafka.NewKafkaExporter()),
	)
	exporters, err := appTelemetry.NewTelemetryExportersBuilder(exporterLocator).Build(appTelemetry.ExporterConfigs(cfg))
	if err != nil {
		c.close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	c.TelemetryWorker = infraTelemetry.NewWorker(logger, exporters, cfg.Kafka.QueueSize)

	c.Engine = shield.NewEngine(
		logger,
		c.VerdictCache,
		c.Classifier,
		c.AttackRepository,
		shield.Config{CacheTTL: cacheTTL},
		shield.WithPublisher(c.TelemetryWorker),
	)

	if cfg.Server.SecretKey != "" {
		c.JWTManager = jwt.NewJwtManager(cfg.Server.SecretKey)
	} else {
		logger.Warn("server.secret_key is empty, analytics routes are not protected by admin tokens")
	}

	c.MiddlewareTransport = &middleware.Transport{
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
		RequestIDMiddleware:    middleware.NewRequestIDMiddleware(),
		CORSMiddleware:         middleware.NewCORSGlobalMiddleware(cfg.Server.CORSOrigins),
		MetricsMiddleware:      middleware.NewMetricsMiddleware(logger),
		AuthMiddleware:         middleware.NewAuthMiddleware(logger, cfg.Server.APIKey),
		AdminAuthMiddleware:    middleware.NewAdminAuthMiddleware(logger, c.JWTManager),
	}

	model := cfg.Oracle.Model
	if model == "" {
		model = "default"
	}
	c.HandlerTransport = &handlers.HandlerTransport{
		RootHandler: handlers.NewRootHandler(logger, handlers.ServiceInfo{
			Provider:     provider,
			Model:        model,
			Ledger:       ledger,
			CacheBackend: c.VerdictCache.Backend,
		}),
		HealthHandler:          handlers.NewHealthHandler(logger, c.healthProbes()),
		GetVersionHandler:      handlers.NewGetVersionHandler(logger),
		CheckHandler:           handlers.NewCheckHandler(logger, c.Engine, cfg.Shield.MaxPromptLength),
		GetStatsHandler:        handlers.NewGetStatsHandler(logger, c.Engine),
		ListAttacksHandler:     handlers.NewListAttacksHandler(logger, c.Engine),
		RepeatOffendersHandler: handlers.NewRepeatOffendersHandler(logger, c.Engine),
	}
	c.Routers = []router.ServerRouter{
		router.NewShieldRouter(c.MiddlewareTransport, c.HandlerTransport),
	}

	return c, nil
}

func (c *Container) healthProbes() map[string]handlers.HealthProbe {
	probes := map[string]handlers.HealthProbe{}
	if c.RedisStore != nil {
		probes["cache"] = c.RedisStore.Ping
	}
	if c.DB != nil {
		probes["database"] = c.DB.Ping
	}
	return probes
}

// StartWorkers launches the background exporters.
func (c *Container) StartWorkers(n int) {
	c.TelemetryWorker.StartWorkers(n)
}

// Shutdown stops the engine first so no new attacks reach the exporters,
// then drains telemetry and closes the stores.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error
	if c.Engine != nil {
		if err := c.Engine.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("engine: %w", err))
		}
	}
	if c.TelemetryWorker != nil {
		c.TelemetryWorker.Shutdown(ctx)
	}
	if err := c.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Container) close() error {
	var firstErr error
	if c.RedisStore != nil {
		if err := c.RedisStore.Close(); err != nil {
			firstErr = fmt.Errorf("redis: %w", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("database: %w", err)
		}
	}
	return firstErr
}
