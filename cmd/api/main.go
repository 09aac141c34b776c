package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "invoicedesk/api/swagger" // swagger docs
	"invoicedesk/internal/auth"
	"invoicedesk/internal/billing"
	"invoicedesk/internal/config"
	"invoicedesk/internal/database"
	"invoicedesk/internal/document"
	"invoicedesk/internal/draftstore"
	"invoicedesk/internal/events"
	"invoicedesk/internal/handler"
	"invoicedesk/internal/logger"
	"invoicedesk/internal/middleware"
	"invoicedesk/internal/repository"
	"invoicedesk/internal/service"
	"invoicedesk/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Invoicedesk API
// @version         1.0
// @description     Inventory and invoicing API. Invoices are built from a per-user draft and decrement stock when committed.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	appLogger := logger.Must(logger.Config{
		Level:             cfg.Logger.Level,
		Encoding:          cfg.Logger.Encoding,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer func() { _ = appLogger.Sync() }()

	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		appLogger.Fatal("Database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		appLogger.Fatal("Database migration failed", zap.Error(err))
	}
	appLogger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(appLogger)
	go wsHub.Run(ctx)

	var publisher events.Publisher = events.NewHubPublisher(wsHub)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), appLogger)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				appLogger.Warn("Failed to close Kafka writer", zap.Error(err))
			}
		}()
		publisher = events.FanOut{publisher, kafkaPublisher}
		appLogger.Info("Publishing events to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	drafts := draftstore.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		drafts = draftstore.NewRedisStore(redisClient, time.Duration(cfg.Redis.DraftTTL)*time.Hour)
		appLogger.Info("Keeping drafts in Redis", zap.String("addr", cfg.Redis.Addr))
	}

	tokens := auth.NewTokens(cfg.JWT.SigningKey(), time.Duration(cfg.JWT.AccessTTLHours)*time.Hour)
	refreshTTL := time.Duration(cfg.JWT.RefreshTTLDays) * 24 * time.Hour

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)

	coordOpts := []billing.CoordinatorOption{billing.WithLogger(appLogger)}
	if cfg.Billing.Atomic() {
		coordOpts = append(coordOpts, billing.WithTransactions(txManager))
	}
	coordinator := billing.NewCoordinator(invoiceRepo, inventoryRepo, coordOpts...)
	appLogger.Info("Invoice commit mode", zap.String("mode", cfg.Billing.CommitMode))

	docOptions := document.Options{Currency: cfg.Billing.Currency}

	userService := service.NewUserService(userRepo, tokenRepo, profileRepo, auditRepo, txManager, tokens, refreshTTL, appLogger)
	inventoryService := service.NewInventoryService(inventoryRepo, auditRepo, txManager, publisher, appLogger)
	invoiceService := service.NewInvoiceService(invoiceRepo, profileRepo, auditRepo, txManager, publisher, docOptions, appLogger)
	draftService := service.NewDraftService(drafts, inventoryRepo, auditRepo, coordinator, publisher, appLogger)
	profileService := service.NewProfileService(profileRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statsRepo, inventoryService, invoiceService, profileService, cfg.Billing.LowStockThreshold)
	revenueService := service.NewRevenueService(revenueRepo)

	// Set up Gin Router
	router := gin.New()
	router.Use(middleware.Recovery(appLogger), middleware.RequestLogger(appLogger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, func(token string) (uuid.UUID, error) {
			claims, err := tokens.Verify(token)
			if err != nil {
				return uuid.Nil, err
			}
			return claims.UserID, nil
		})
	})

	// API Routing
	handler.NewUserHandler(userService, tokens, refreshTTL).RegisterRoutes(router.Group(""))

	api := router.Group("/api", middleware.RequireUser(tokens))
	handler.NewInventoryHandler(inventoryService).RegisterRoutes(api)
	handler.NewDraftHandler(draftService).RegisterRoutes(api)
	handler.NewInvoiceHandler(invoiceService).RegisterRoutes(api)
	handler.NewProfileHandler(profileService).RegisterRoutes(api)
	handler.NewStatisticsHandler(statisticsService, revenueService).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
}
