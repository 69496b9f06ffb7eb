package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ledgerdash/ledgerdash/api/audit"
	"github.com/ledgerdash/ledgerdash/api/chain"
	"github.com/ledgerdash/ledgerdash/api/config"
	"github.com/ledgerdash/ledgerdash/api/controller"
	"github.com/ledgerdash/ledgerdash/api/db"
	"github.com/ledgerdash/ledgerdash/api/gate"
	logger "github.com/ledgerdash/ledgerdash/api/logging"
	"github.com/ledgerdash/ledgerdash/api/router"
	"github.com/ledgerdash/ledgerdash/api/service"
	"github.com/ledgerdash/ledgerdash/api/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Redis (recent targets, rate limiting, cross-replica locks)
	if err := db.InitRedis(); err != nil {
		logger.Warn("Redis unavailable, continuing without it", zap.Error(err))
		db.RedisClient = nil
	} else {
		defer db.CloseRedis()
	}

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize the ledger boundary and authorization gate
	boundary := chain.NewClient(
		config.GetString("chain.gatewayURL"),
		config.GetDuration("chain.requestTimeout"),
	)
	authGate := gate.New(boundary)

	// Initialize services and utilities
	validationUtil := util.NewValidationUtil()
	notificationService := util.NewNotificationService()

	var auditRepository audit.Repository
	esRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Warn("Elasticsearch unavailable, keeping audit records in memory", zap.Error(err))
		auditRepository = audit.NewMemoryRepository()
	} else {
		auditRepository = esRepository
	}
	auditService := audit.NewService(auditRepository)

	services := service.InitializeServices(
		boundary,
		authGate,
		auditService,
		validationUtil,
		notificationService,
		eventBus,
		service.Config{
			Operations: service.OperationConfig{
				HistoryLimit:   config.GetInt("operations.historyLimit"),
				PollInterval:   config.GetDuration("operations.pollInterval"),
				ConfirmTimeout: config.GetDuration("operations.confirmTimeout"),
				RecentsCap:     config.GetInt("operations.recentsCap"),
			},
			MetricsTTL: config.GetDuration("cache.ttl"),
		},
	)

	// Initialize controllers and routes
	gin.SetMode(gin.ReleaseMode)
	controllers := controller.InitializeControllers(services)
	engine := router.SetupRouter(controllers, 100, time.Minute) // 100 requests per minute

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
