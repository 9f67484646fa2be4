package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/agent"
	httptransport "github.com/spec-kit/glpi-bridge/internal/api/http"
	"github.com/spec-kit/glpi-bridge/internal/api/http/handlers"
	"github.com/spec-kit/glpi-bridge/internal/auth"
	"github.com/spec-kit/glpi-bridge/internal/config"
	"github.com/spec-kit/glpi-bridge/internal/events"
	"github.com/spec-kit/glpi-bridge/internal/glpi"
	"github.com/spec-kit/glpi-bridge/internal/observability"
	"github.com/spec-kit/glpi-bridge/internal/persistence"
	"github.com/spec-kit/glpi-bridge/internal/service"
	"github.com/spec-kit/glpi-bridge/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	var redis *persistence.Redis
	store := persistence.NewMemoryStore()
	if cfg.Redis.Enabled() {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		store = persistence.NewRedisStore(redis)
	}

	session := glpi.NewSessionManager(cfg.GLPI, logger, metrics)
	client := glpi.NewClient(cfg.GLPI, session, logger, metrics)
	gateway := glpi.NewTicketGateway(client, cfg.GLPI.DefaultEntityID, logger)
	directory := glpi.NewCategoryDirectory(client, store, cfg.GLPI.CategoryTTL(), logger)

	dispatcher := events.NewInMemoryDispatcher()
	session.SetDispatcher(dispatcher)

	classifier := agent.NewKeywordClassifier(directory, logger)
	relator := agent.NewRelator(gateway, logger)
	engine := agent.NewDecisionEngine(agent.EngineDependencies{
		Gateway:    gateway,
		Classifier: classifier,
		Relator:    relator,
		Dispatcher: dispatcher,
	}, logger)

	auditService := service.NewAuditService(dispatcher, logger, cfg.Notify)
	worker.StartAuditWorker(auditService)

	var tokens *auth.TokenManager
	if cfg.Auth.Enabled() {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	}
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, session, redis),
		Tickets:        handlers.NewTicketsHandler(gateway),
		Categories:     handlers.NewCategoriesHandler(directory),
		Agent:          handlers.NewAgentHandler(engine, classifier, relator, directory),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()

	// Best-effort upstream session teardown; never blocks shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session.Close(ctx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
