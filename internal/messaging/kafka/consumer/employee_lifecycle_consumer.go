package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go-emptrack/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// EmployeeProjection is the read model fed by lifecycle events.
type EmployeeProjection interface {
	Upsert(ctx context.Context, snap events.EmployeeSnapshot) error
	Delete(ctx context.Context, id string) error
}

// PhotoRemover deletes the stored photo of a deleted employee.
type PhotoRemover interface {
	Delete(ctx context.Context, url string) error
}

// errSkipEvent marks events that can never be projected; they are committed
// and dropped.
var errSkipEvent = errors.New("unprojectable event")

func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	projection EmployeeProjection,
	photos PhotoRemover,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.EmployeeLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode employee lifecycle event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := HandleEmployeeLifecycle(ctx, event, projection, photos, log); err != nil {
			if errors.Is(err, errSkipEvent) {
				log.Warn("skipping employee lifecycle event",
					zap.String("event_type", event.EventType),
					zap.String("employee_id", event.EmployeeID),
					zap.Error(err),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			// Left uncommitted so the group redelivers it after a restart.
			log.Error("project employee lifecycle event failed",
				zap.String("event_type", event.EventType),
				zap.String("employee_id", event.EmployeeID),
				zap.String("request_id", event.RequestID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("employee lifecycle event projected",
			zap.String("event_type", event.EventType),
			zap.String("employee_id", event.EmployeeID),
		)
	}
}

// HandleEmployeeLifecycle applies one event to the projection. photos may be
// nil; a photo that cannot be removed is logged and otherwise ignored.
func HandleEmployeeLifecycle(
	ctx context.Context,
	event events.EmployeeLifecycleEvent,
	projection EmployeeProjection,
	photos PhotoRemover,
	logger *zap.Logger,
) error {
	switch event.EventType {
	case events.EmployeeCreated, events.EmployeeUpdated, events.EmployeeRegistered:
		if event.Employee == nil {
			return fmt.Errorf("%w: no employee snapshot", errSkipEvent)
		}
		return projection.Upsert(ctx, *event.Employee)

	case events.EmployeeDeleted:
		if err := projection.Delete(ctx, event.EmployeeID); err != nil {
			return err
		}
		if photos != nil && event.Employee != nil && event.Employee.Photo != "" {
			if err := photos.Delete(ctx, event.Employee.Photo); err != nil {
				logger.Warn("delete employee photo failed",
					zap.String("employee_id", event.EmployeeID),
					zap.String("photo", event.Employee.Photo),
					zap.Error(err),
				)
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown event type %q", errSkipEvent, event.EventType)
	}
}
