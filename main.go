package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/agent"
	"github.com/loyaltyiq/loyalty-engine/pkg/chat"
	"github.com/loyaltyiq/loyalty-engine/pkg/config"
	"github.com/loyaltyiq/loyalty-engine/pkg/handlers"
	"github.com/loyaltyiq/loyalty-engine/pkg/llm"
	"github.com/loyaltyiq/loyalty-engine/pkg/logging"
	"github.com/loyaltyiq/loyalty-engine/pkg/schema"
	"github.com/loyaltyiq/loyalty-engine/pkg/tools"
	"github.com/loyaltyiq/loyalty-engine/pkg/workflow"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("query_backend", cfg.Query.Backend),
		zap.Bool("use_planner", cfg.Workflow.UsePlanner),
		zap.Bool("redis_enabled", cfg.Redis.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Model clients: the planner model handles routing prompts when set,
	// the main model handles everything else.
	llmTimeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	client, err := llm.NewClient(llm.Provider(cfg.LLM.Provider), &llm.Config{
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  llmTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create LLM client", zap.Error(err))
	}

	plannerClient := client
	if cfg.LLM.PlannerModel != "" && cfg.LLM.PlannerModel != cfg.LLM.Model {
		plannerClient, err = llm.NewClient(llm.Provider(cfg.LLM.Provider), &llm.Config{
			Endpoint: cfg.LLM.Endpoint,
			Model:    cfg.LLM.PlannerModel,
			APIKey:   cfg.LLM.APIKey,
			Timeout:  llmTimeout,
		}, logger)
		if err != nil {
			logger.Fatal("failed to create planner LLM client", zap.Error(err))
		}
	}

	dbSchema, err := schema.Load(cfg.SchemaDir, logger)
	if err != nil {
		logger.Fatal("failed to load database schema", zap.Error(err))
	}

	var backend tools.QueryBackend
	switch cfg.Query.Backend {
	case "postgres":
		pg, err := tools.NewPostgresBackend(ctx, cfg.Query.Postgres.ConnectionString())
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pg.Close()
		backend = pg
	default:
		backend = tools.NewHTTPBackend(cfg.Query.BaseURL, time.Duration(cfg.Query.TimeoutSeconds)*time.Second)
	}

	var store chat.Store = chat.NewMemoryStore()
	if cfg.Redis.Enabled {
		redisStore, err := chat.NewRedisStore(ctx, redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), time.Duration(cfg.Redis.SessionTTLHours)*time.Hour)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		store = redisStore
	}

	registry := tools.NewRegistry(
		tools.NewSecurityValidator(logger),
		tools.NewTableSelector(plannerClient, dbSchema, logger),
		tools.NewSQLGenerator(client, dbSchema, logger),
		tools.NewQueryExecutor(backend, time.Duration(cfg.Query.TimeoutSeconds)*time.Second, logger),
		tools.NewResponseValidator(client, logger),
		tools.NewInsightsGenerator(client, logger),
	)

	supervisor := workflow.NewSupervisor(cfg.Workflow.MaxRetries, logger)
	executor := workflow.NewExecutor(supervisor, registry, logger)
	planner := workflow.NewPlanner(plannerClient, logger)

	loyaltyAgent := agent.New(agent.Config{
		DefaultClientID: cfg.DefaultClientID,
		UsePlanner:      cfg.Workflow.UsePlanner,
	}, client, planner, executor, store, dbSchema, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(loyaltyAgent, logger).RegisterRoutes(mux)
	handlers.NewSchemaHandler(loyaltyAgent, logger).RegisterRoutes(mux)
	handlers.NewChatHandler(loyaltyAgent, logger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler: handlers.RequestLogger(logger, mux),
	}

	go func() {
		logger.Info("starting loyalty-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
