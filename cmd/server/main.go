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

	"scm-analytics/config"
	"scm-analytics/internal/analytics"
	"scm-analytics/internal/api"
	"scm-analytics/internal/broker"
	"scm-analytics/internal/notify"
	"scm-analytics/internal/redisclient"
	"scm-analytics/internal/service"
	"scm-analytics/internal/store"
	"scm-analytics/internal/util"
	"scm-analytics/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, false); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting scm analytics service")

	tp, err := util.InitTracer("scm-analytics", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	migrateCancel()
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	alertProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts)
	defer alertProducer.Close()
	predictionProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPredictions)
	defer predictionProducer.Close()
	logger.Info("Kafka producers initialized",
		zap.String("alerts_topic", cfg.Kafka.TopicAlerts),
		zap.String("predictions_topic", cfg.Kafka.TopicPredictions))

	eventPublisher := broker.NewEventPublisher(alertProducer, predictionProducer)

	bands := analytics.Bands{
		Critical: cfg.Analytics.CriticalRatio,
		Moderate: cfg.Analytics.ModerateRatio,
	}
	generator := service.NewAlertGenerator(db, redisClient, eventPublisher, cfg.Analytics.SuppressionWindow)
	analyticsService := service.NewAnalyticsService(db, db, generator, bands)

	notifier := notify.New(notify.SMSConfig{
		AccountSID: cfg.Notifier.AccountSID,
		AuthToken:  cfg.Notifier.AuthToken,
		FromNumber: cfg.Notifier.FromNumber,
		Timeout:    cfg.Notifier.SendTimeout,
	})
	sweepService := service.NewSweepService(db, db, generator, notifier)

	sweepDefaults := service.SweepOptions{
		Threshold:    cfg.Analytics.SweepStockThreshold,
		Recipients:   cfg.Notifier.Recipients,
		Rules:        cfg.Automation,
		PurgeOrphans: true,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	predictionConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPredictions, cfg.Kafka.ConsumerGroup)
	refreshWorker := worker.NewRefreshWorker(predictionConsumer, analyticsService)
	go func() {
		if err := refreshWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("Refresh worker error", zap.Error(err))
		}
	}()

	if cfg.Analytics.SweepInterval > 0 {
		scheduler := worker.NewSweepScheduler(sweepService, sweepDefaults, cfg.Analytics.SweepInterval)
		go func() {
			if err := scheduler.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Sweep scheduler error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(analyticsService, sweepService, sweepDefaults, eventPublisher, map[string]api.Pinger{
		"postgres": db,
		"redis":    redisClient,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := refreshWorker.Stop(); err != nil {
		logger.Warn("Error stopping refresh worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
