// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"membership-service/internal/config"
	"membership-service/internal/db"
	"membership-service/internal/docstore"
	membershipHandler "membership-service/internal/handlers/membership"
	orderHandler "membership-service/internal/handlers/order"
	subscriptionHandler "membership-service/internal/handlers/subscription"
	"membership-service/internal/middleware"
	"membership-service/internal/payment"
	"membership-service/internal/pkg/lock"
	"membership-service/internal/repository"
	"membership-service/internal/scheduler"
	archivalUsecase "membership-service/internal/service/archival"
	catalogUsecase "membership-service/internal/service/catalog"
	provisioningUsecase "membership-service/internal/service/provisioning"
	renewalUsecase "membership-service/internal/service/renewal"
	ledgerUsecase "membership-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg       config.AppConfig
	engine    *gin.Engine
	logger    *zap.Logger
	scheduler *scheduler.Scheduler
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB()
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] connected successfully")

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- Document store -----
	store := docstore.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	// ----- Repositories -----
	membershipRepo := repository.NewMembershipRepository(store)
	subscriptionRepo := repository.NewSubscriptionRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	productRepo := repository.NewProductRepository(store)

	// ----- Collaborators -----
	charger := payment.NewStripeCharger(s.cfg.StripeAPIKey, logger)
	locker := lock.NewRedisLocker(redisClient, "membership:")

	// ----- Services (Usecases) -----
	catalogService := catalogUsecase.NewCatalogService(membershipRepo, subscriptionRepo, logger)
	ledgerService := ledgerUsecase.NewLedgerService(subscriptionRepo, logger)
	provisioningService := provisioningUsecase.NewProvisioningService(
		productRepo,
		subscriptionRepo,
		orderRepo,
		catalogService,
		ledgerService,
		store,
		logger,
	)
	renewalService := renewalUsecase.NewRenewalService(
		subscriptionRepo,
		membershipRepo,
		store,
		charger,
		locker,
		s.cfg.RenewalLockTTL,
		logger,
	)
	archivalService := archivalUsecase.NewArchivalService(orderRepo, store, logger)

	// ----- Scheduler -----
	if s.cfg.SchedulerEnabled {
		s.scheduler = scheduler.NewScheduler(renewalService, archivalService, logger, s.cfg)
		s.scheduler.Start()
	}

	// ----- Handlers -----
	membershipHandlerInst := membershipHandler.NewMembershipHandler(catalogService, provisioningService)
	subscriptionHandlerInst := subscriptionHandler.NewSubscriptionHandler(ledgerService, renewalService)
	orderHandlerInst := orderHandler.NewOrderHandler(archivalService)

	// ----- Middlewares -----
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(s.cfg.AdminAPIKey)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		MembershipHandler:   membershipHandlerInst,
		SubscriptionHandler: subscriptionHandlerInst,
		OrderHandler:        orderHandlerInst,
		APIKeyMiddleware:    apiKeyMiddleware,
	}
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// Shutdown stops the cron scheduler and waits for running jobs.
func (s *Server) Shutdown(ctx context.Context) {
	if s.scheduler == nil {
		return
	}
	select {
	case <-s.scheduler.Stop().Done():
	case <-ctx.Done():
	}
}
