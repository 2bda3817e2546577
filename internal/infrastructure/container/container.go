// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"fmt"

	"github.com/alchemorsel/nutriguide/internal/application/candidates"
	"github.com/alchemorsel/nutriguide/internal/application/criteria"
	"github.com/alchemorsel/nutriguide/internal/application/ranking"
	"github.com/alchemorsel/nutriguide/internal/application/recommendation"
	"github.com/alchemorsel/nutriguide/internal/application/safety"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/ai"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/config"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/graph"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/http/server"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/monitoring"
	gormstore "github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/postgres"
	redisstore "github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/nutriguide/internal/ports/inbound"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	"github.com/alchemorsel/nutriguide/pkg/healthcheck"
	"github.com/alchemorsel/nutriguide/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath is the configuration file to load. Empty searches the default
// locations.
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	GraphModule,
	SessionModule,
	AIModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		logCfg := logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			Service:     cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
		}
		if cfg.IsProduction() {
			logCfg.SampleInitial = 100
			logCfg.SampleThereafter = 100
		}
		return logger.New(logCfg)
	},
)

// MonitoringModule provides metrics, tracing and health checks
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tracing, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfigFrom(cfg), log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tracing.Shutdown})
		return tracing, nil
	},
	func(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		return healthcheck.New(cfg.App.Version, log)
	},
)

// DatabaseModule provides the document database
var DatabaseModule = fx.Provide(
	NewDatabase,
	fx.Annotate(
		gormstore.NewDocumentStore,
		fx.As(new(outbound.DocumentStore)),
		fx.As(fx.Self()),
	),
)

// NewDatabase opens the configured document database and closes it on stop
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) (*gorm.DB, error) {
	var db *gorm.DB
	switch cfg.Database.Driver {
	case "postgres":
		manager, err := postgres.NewConnectionManager(cfg, log)
		if err != nil {
			return nil, err
		}
		db = manager.GetDB()
	default:
		var err error
		db, err = sqlite.SetupDatabase(cfg.GetDSN(), sqlite.Options{
			LogLevel:      cfg.Database.LogLevel,
			SlowThreshold: cfg.Database.SlowQuery,
			AutoMigrate:   cfg.Database.AutoMigrate,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	metrics.RegisterDBStats(sqlDB, "documents")

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sqlDB.Close()
		},
	})

	log.Info("Connected to document database", zap.String("driver", cfg.Database.Driver))
	return db, nil
}

// GraphModule provides the knowledge graph
var GraphModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*graph.Client, error) {
		client, err := graph.NewClient(cfg.Neo4j, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: client.Close})
		return client, nil
	},
	func(client *graph.Client, cfg *config.Config, log *zap.Logger) outbound.GraphStore {
		return graph.NewStore(client, cfg.Neo4j.PopularLimit, log)
	},
)

// SessionModule provides the conversation session store
var SessionModule = fx.Provide(NewSessionStore)

// NewSessionStore creates the configured session store and registers its
// health check
func NewSessionStore(lc fx.Lifecycle, cfg *config.Config, health *healthcheck.HealthCheck, log *zap.Logger) (outbound.SessionStore, error) {
	if cfg.Session.Store == "redis" {
		client, err := redisstore.NewClient(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		store := redisstore.NewSessionStore(client, cfg.Session.TTL, cfg.Session.KeyPrefix, log)
		health.Register("sessions", healthcheck.NewPingChecker(store.Ping, true))
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return store, nil
	}

	store := memory.NewSessionStore(cfg.Session.TTL, cfg.Session.SweepInterval, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

// AIModule provides the text generation client
var AIModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (ai.Completer, error) {
		return ai.NewCompleter(cfg.AI, log)
	},
	func(completer ai.Completer, cfg *config.Config, log *zap.Logger) outbound.TextGenerationClient {
		return ai.NewClient(completer, cfg.AI, log)
	},
	ai.NewHealthChecker,
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(graphStore outbound.GraphStore, docs outbound.DocumentStore, cfg *config.Config, log *zap.Logger) *criteria.Resolver {
		return criteria.NewResolver(graphStore, docs, criteria.Config{
			CookingMethods: cfg.Recommendation.CookingMethods,
			Timeout:        cfg.Recommendation.CollaboratorTimeout,
		}, log)
	},
	func(graphStore outbound.GraphStore, cfg *config.Config, log *zap.Logger) *candidates.Aggregator {
		return candidates.NewAggregator(graphStore, candidates.Config{
			Concurrency: cfg.Recommendation.QueryConcurrency,
			Timeout:     cfg.Recommendation.CollaboratorTimeout,
		}, log)
	},
	func(llm outbound.TextGenerationClient, cfg *config.Config, log *zap.Logger) *safety.Filter {
		classifier := safety.NewFallbackClassifier(
			safety.NewLLMClassifier(llm, cfg.Recommendation.CollaboratorTimeout),
			safety.KeywordClassifier{},
			log,
		)
		return safety.NewFilter(classifier, log)
	},
	func(llm outbound.TextGenerationClient, cfg *config.Config, log *zap.Logger) *ranking.Reranker {
		return ranking.NewReranker(llm, cfg.Recommendation.CollaboratorTimeout, log)
	},
	NewRecommendationService,
)

// RecommendationParams groups the dependencies of the recommendation service
type RecommendationParams struct {
	fx.In

	Config     *config.Config
	Logger     *zap.Logger
	Sessions   outbound.SessionStore
	Docs       outbound.DocumentStore
	LLM        outbound.TextGenerationClient
	Resolver   *criteria.Resolver
	Aggregator *candidates.Aggregator
	Filter     *safety.Filter
	Reranker   *ranking.Reranker
	Metrics    *monitoring.MetricsCollector
}

// NewRecommendationService creates the recommendation use case
func NewRecommendationService(p RecommendationParams) inbound.RecommendationService {
	return recommendation.NewService(
		p.Sessions,
		p.Docs,
		p.LLM,
		p.Resolver,
		p.Aggregator,
		p.Filter,
		p.Reranker,
		p.Metrics,
		recommendation.Config{
			CollaboratorTimeout: p.Config.Recommendation.CollaboratorTimeout,
			MaxResults:          p.Config.Recommendation.MaxResults,
			NaturalResponse:     p.Config.Recommendation.NaturalResponse,
		},
		p.Logger,
	)
}

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterHealthChecks,
	RegisterLifecycleHooks,
)

// RegisterHealthChecks registers the dependency health checks
func RegisterHealthChecks(
	health *healthcheck.HealthCheck,
	docs *gormstore.DocumentStore,
	graphClient *graph.Client,
	aiHealth *ai.HealthChecker,
) {
	health.Register("database", healthcheck.NewPingChecker(docs.Ping, true))
	health.Register("neo4j", healthcheck.NewPingChecker(graphClient.Ping, true))
	health.Register("ai", healthcheck.NewCustomChecker("ai", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		status := aiHealth.CheckHealth(ctx)
		result := healthcheck.StatusHealthy
		if status.Status != ai.StatusHealthy {
			result = healthcheck.StatusDegraded
		}
		return result, status.Details, map[string]string{"provider": status.Provider}
	}))
}

// RegisterLifecycleHooks seeds the stores when configured and runs the
// HTTP server
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	graphClient *graph.Client,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting NutriGuide",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			if cfg.Database.Seed {
				if err := gormstore.Seed(ctx, db); err != nil {
					return fmt.Errorf("seed document database: %w", err)
				}
				log.Info("Document database seeded")
			}
			if cfg.Neo4j.Seed {
				if err := graph.Seed(ctx, graphClient); err != nil {
					return fmt.Errorf("seed knowledge graph: %w", err)
				}
				log.Info("Knowledge graph seeded")
			}

			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down NutriGuide")

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
