package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/api"
	"github.com/Freeeeeet/trainer_scheduler/internal/app"
	"github.com/Freeeeeet/trainer_scheduler/internal/config"
	"github.com/Freeeeeet/trainer_scheduler/internal/controller"
	"github.com/Freeeeeet/trainer_scheduler/internal/events"
	"github.com/Freeeeeet/trainer_scheduler/internal/lock"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/base"
	"github.com/Freeeeeet/trainer_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}
	logger.Info("Service stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting trainer scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("bot_enabled", cfg.TelegramToken != ""),
		zap.Bool("redis_enabled", cfg.RedisAddr != ""),
		zap.Int("kafka_brokers", len(cfg.KafkaBrokers)),
	)

	shutdownTelemetry, err := app.SetupTelemetry(ctx, app.TelemetryConfig{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	pool, err := app.OpenDB(ctx, cfg.GetDBDSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		return err
	}

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	// Репозитории
	db := base.NewRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	cancellationRepo := repository.NewCancellationRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	// Сервисы
	policyService := service.NewPolicyService(policyRepo, locker, publisher, cfg.PolicyDefaults, logger)
	cancellationService := service.NewCancellationService(policyService, cancellationRepo, publisher, logger)
	statisticsService := service.NewStatisticsService(policyService, appointmentRepo, logger)
	alertService := service.NewAlertService(policyService, appointmentRepo, alertRepo, locker, publisher, logger)
	autoNoShowService := service.NewAutoNoShowService(policyService, appointmentRepo, logger)
	recurrenceService := service.NewRecurrenceService(logger)

	scheduler := app.NewScheduler(policyService, alertService, autoNoShowService, cfg.AlertRefreshInterval, cfg.AlertWindowDays, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}

		botController := controller.NewBotController(b, controller.Services{
			Policies:      policyService,
			Cancellations: cancellationService,
			Statistics:    statisticsService,
			Alerts:        alertService,
			Appointments:  appointmentRepo,
		}, cfg.AlertWindowDays, logger)

		if err := botController.RegisterHandlers(ctx); err != nil {
			// Меню команд не критично, бот работает и без него
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	server := api.NewServer(api.Deps{
		Policies:      policyService,
		Cancellations: cancellationService,
		Statistics:    statisticsService,
		Alerts:        alertService,
		Recurrence:    recurrenceService,
		Appointments:  appointmentRepo,
		WindowDays:    cfg.AlertWindowDays,
		Logger:        logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- server.Listen(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	return nil
}

// newLocker Redis при REDIS_ADDR, иначе блокировки внутри процесса
func newLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (lock.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("Using in-process locks")
		return lock.NewLocalLocker(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Using redis locks", zap.String("addr", cfg.RedisAddr))
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	return lock.NewRedisLocker(rdb, logger, "trainer-scheduler", 0), closeFn, nil
}
