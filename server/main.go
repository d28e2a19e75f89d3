package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/config"
	"github.com/phambaophuc/image-generator/internal/db"
	"github.com/phambaophuc/image-generator/internal/http/handlers"
	"github.com/phambaophuc/image-generator/internal/http/routes"
	"github.com/phambaophuc/image-generator/internal/services/batch"
	"github.com/phambaophuc/image-generator/internal/services/credits"
	"github.com/phambaophuc/image-generator/internal/services/generation"
	"github.com/phambaophuc/image-generator/internal/services/history"
	"github.com/phambaophuc/image-generator/internal/services/jobs"
	"github.com/phambaophuc/image-generator/internal/services/processor"
	"github.com/phambaophuc/image-generator/internal/services/queue"
	"github.com/phambaophuc/image-generator/internal/services/storage"
	"github.com/phambaophuc/image-generator/internal/services/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	database, err := db.NewSQLite(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}

	store, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	if !store.ObjectStorageEnabled() {
		logger.Warn("Supabase storage not configured, generated images will not be uploaded")
	}

	ledger := credits.NewLedger(database, cfg.Credits.InitialBalance)
	historyService := history.NewService(history.NewRepository(database), store, store, logger)
	imageProcessor := processor.NewImageProcessor()
	runner := batch.NewRunner(cfg.Batch.InterItemDelay, logger)

	deps := generation.Deps{
		Client:    webhook.NewClient(cfg.Webhook, logger),
		Credits:   ledger,
		History:   historyService,
		Inspector: imageProcessor,
		Runner:    runner,
	}
	if store.ObjectStorageEnabled() {
		deps.Images = store
	}
	generator := generation.NewService(deps, cfg, logger)

	jobService := jobs.NewService(runner, generator, store, jobs.Limits{
		MaxItems:     cfg.Batch.MaxItems,
		MaxSyncItems: cfg.Batch.MaxSyncItems,
	}, logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, jobService, logger)
	if err != nil {
		// Continue without the queue; only async batches need it.
		logger.Warn("Failed to initialize queue service", zap.Error(err))
	} else {
		jobService.SetPublisher(queueService)
		for i := 1; i <= cfg.Batch.Workers; i++ {
			if err := queueService.StartWorker(workerCtx, i); err != nil {
				logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
	}

	router := routes.NewRouter(newHandlers(cfg, logger, database, store, queueService, ledger, historyService, imageProcessor, generator, jobService), cfg.Admin.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stopWorkers()
	if queueService != nil {
		// Workers nack their in-flight job before the channel goes away.
		queueService.Wait()
		queueService.Close()
	}
	if err := store.Close(); err != nil {
		logger.Warn("Failed to close storage", zap.Error(err))
	}
	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newHandlers(
	cfg *config.Config,
	logger *zap.Logger,
	database *gorm.DB,
	store *storage.StorageService,
	queueService *queue.QueueService,
	ledger *credits.Ledger,
	historyService *history.Service,
	imageProcessor *processor.ImageProcessor,
	generator *generation.Service,
	jobService *jobs.Service,
) routes.Handlers {
	var queueStats handlers.StatsFunc
	probes := []handlers.HealthProbe{
		func(context.Context) map[string]string {
			if err := db.Ping(database); err != nil {
				return map[string]string{"database": "unhealthy: " + err.Error()}
			}
			return map[string]string{"database": "healthy"}
		},
		store.HealthCheck,
	}

	if queueService != nil {
		queueStats = func(context.Context) (map[string]interface{}, error) {
			return queueService.GetQueueStats()
		}
		probes = append(probes, func(context.Context) map[string]string {
			return map[string]string{"rabbitmq": queueService.HealthCheck()}
		})
	} else {
		probes = append(probes, func(context.Context) map[string]string {
			return map[string]string{"rabbitmq": "unhealthy: not connected"}
		})
	}

	return routes.Handlers{
		Generation: handlers.NewGenerationHandler(generator, logger),
		Batch:      handlers.NewBatchHandler(jobService, logger),
		History:    handlers.NewHistoryHandler(historyService, imageProcessor, logger),
		Credits:    handlers.NewCreditsHandler(ledger, logger),
		Admin:      handlers.NewAdminHandler(ledger, historyService, queueStats, store.GetCacheStats, logger),
		Health:     handlers.NewHealthHandler(probes...),
	}
}
