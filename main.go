package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hall-booking/cmd"
	"hall-booking/internal/data/repository"
	"hall-booking/internal/usecase"
	"hall-booking/internal/wire"
	"hall-booking/internal/worker"
	"hall-booking/pkg/database"
	"hall-booking/pkg/fcm"
	"hall-booking/pkg/lock"
	"hall-booking/pkg/mq"
	"hall-booking/pkg/utils"

	"go.uber.org/zap"
)

const sweepLockKey = "hall-booking:expire-bookings"

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Schema applied")
	}

	repos := repository.NewRepository(db, logger)

	push := newPushSender(config, logger)

	var queue usecase.Publisher
	if config.Notify.Driver == usecase.DriverAMQP {
		publisher, err := mq.NewPublisher(config.Notify.RabbitURL, config.Notify.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
		queue = publisher
		logger.Info("Notifications routed through RabbitMQ", zap.String("exchange", config.Notify.Exchange))
	}

	service := usecase.NewService(repos, config, push, queue, logger)

	var locker worker.Locker
	if config.Redis.URL != "" {
		client, err := lock.NewClient(config.Redis.URL)
		if err != nil {
			logger.Fatal("Failed to configure Redis", zap.Error(err))
		}
		defer client.Close()
		locker = lock.NewRedisLock(client, sweepLockKey, config.Sweep.LockTTL)
	}

	sweeper := worker.NewSweeper(service.Settlement, locker, worker.SweeperConfig{
		Interval: config.Sweep.Interval,
		MaxAge:   config.Sweep.MaxAge,
	}, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start expiry sweeper", zap.Error(err))
	}

	if config.Payment.AllowSkip {
		logger.Warn("Payment bypass is enabled: POST /api/orders confirms bookings without payment")
	}

	app := wire.Wiring(service, sweeper, config, logger)

	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
	}

	if err := sweeper.Stop(); err != nil {
		logger.Warn("Failed to stop sweeper", zap.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), config.Notify.Timeout+5*time.Second)
	defer cancel()
	if err := service.Settlement.Drain(drainCtx); err != nil {
		logger.Warn("Notifications still in flight at shutdown", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// newPushSender returns nil when FCM credentials are absent; the service then
// reports a configuration error per send.
func newPushSender(config *utils.Config, logger *zap.Logger) usecase.PushSender {
	sa, err := fcm.ParseServiceAccount([]byte(config.Notify.ServiceAccountJSON))
	if err != nil {
		logger.Warn("FCM disabled", zap.Error(err))
		return nil
	}

	client, err := fcm.NewClient(sa, fcm.ClientConfig{
		BaseURL: config.Notify.FCMBaseURL,
		Timeout: config.Notify.Timeout,
	})
	if err != nil {
		logger.Warn("FCM disabled", zap.Error(err))
		return nil
	}
	return client
}
