package kafka

import (
	"encoding/json"

	"go-emptrack/internal/events"

	"github.com/google/uuid"
)

// NewEmployeeOutboxEvent serialises a lifecycle event into a pending outbox row.
func NewEmployeeOutboxEvent(event events.EmployeeLifecycleEvent) (OutboxEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxEvent{}, err
	}

	return OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     event.RequestID,
		AggregateType: "employee",
		AggregateID:   event.EmployeeID,
		EventType:     event.EventType,
		Topic:         events.EmployeeLifecycleTopic,
		Payload:       payload,
		Status:        OutboxStatusPending,
	}, nil
}
