package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"go-emptrack/internal/config"
	"go-emptrack/internal/messaging/kafka"
	"go-emptrack/internal/messaging/kafka/producer"
	"go-emptrack/internal/shared/connection"

	"go.uber.org/zap"
)

var ErrKafkaBrokerRequired = errors.New("KAFKA_BROKER is required")

// RunWorker relays outbox rows to Kafka until SIGINT or SIGTERM.
func RunWorker(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.worker")

	if cfg.KafkaBroker == "" {
		return ErrKafkaBrokerRequired
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, logger)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := Migrate(gormDB); err != nil {
		return err
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, 5, logger)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(gormDB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, 3*time.Second)

	log.Info("worker shut down")
	return nil
}
