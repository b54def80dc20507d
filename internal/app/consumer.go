package app

import (
	"context"
	"os/signal"
	"syscall"

	"go-emptrack/internal/config"
	"go-emptrack/internal/events"
	"go-emptrack/internal/messaging/kafka/consumer"
	"go-emptrack/internal/search"
	"go-emptrack/internal/shared/connection"
	"go-emptrack/internal/upload"

	"go.uber.org/zap"
)

const employeeSearchGroupID = "emptrack-employee-search"

// RunConsumer projects employee lifecycle events into the search index and
// removes photos of deleted employees, until SIGINT or SIGTERM.
func RunConsumer(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.consumer")

	if cfg.KafkaBroker == "" {
		return ErrKafkaBrokerRequired
	}

	es, err := connection.NewElasticsearchClient(cfg.ES, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	index := search.NewEmployeeIndex(es, cfg.ES.Index, logger)
	if err := index.EnsureIndex(ctx); err != nil {
		return err
	}

	reader := connection.NewKafkaReader(cfg.KafkaBroker, events.EmployeeLifecycleTopic, employeeSearchGroupID)
	defer reader.Close()

	photos := upload.NewLocalStore(cfg.UploadDir)
	consumer.ConsumeEmployeeLifecycle(ctx, reader, index, photos, logger)

	log.Info("consumer shut down")
	return nil
}
