package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

const maxErrorMessageLen = 500

type OutboxEvent struct {
	ID            string     `gorm:"type:varchar(36);primaryKey"`
	RequestID     string     `gorm:"type:varchar(64)"`
	AggregateType string     `gorm:"type:varchar(50);not null"`
	AggregateID   string     `gorm:"type:varchar(36);not null;index"`
	EventType     string     `gorm:"type:varchar(50);not null"`
	Topic         string     `gorm:"type:varchar(120);not null"`
	Payload       []byte     `gorm:"not null"`
	Status        string     `gorm:"type:varchar(20);not null;index"`
	RetryCount    int        `gorm:"not null;default:0"`
	ErrorMessage  string     `gorm:"type:varchar(500)"`
	NextRetryAt   *time.Time `gorm:"index"`
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

type OutboxRepository interface {
	WithTx(tx *gorm.DB) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, event OutboxEvent, reason string) error
}

type outboxRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db, now: time.Now}
}

func (r *outboxRepository) WithTx(tx *gorm.DB) OutboxRepository {
	return &outboxRepository{db: tx, now: r.now}
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if err := ValidateOutboxEvent(event); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&event).Error
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	events := make([]OutboxEvent, 0, limit)
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{OutboxStatusPending, OutboxStatusFailed}).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", r.now().UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	now := r.now().UTC()
	return r.db.WithContext(ctx).Exec(
		"UPDATE outbox_events SET status = ?, processed_at = ?, error_message = NULL, updated_at = ? WHERE id = ?",
		OutboxStatusSent, now, now, id,
	).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, event OutboxEvent, reason string) error {
	now := r.now().UTC()
	if len(reason) > maxErrorMessageLen {
		reason = reason[:maxErrorMessageLen]
	}
	return r.db.WithContext(ctx).Exec(
		"UPDATE outbox_events SET status = ?, retry_count = retry_count + 1, error_message = ?, next_retry_at = ?, updated_at = ? WHERE id = ?",
		OutboxStatusFailed, reason, now.Add(RetryBackoff(event.RetryCount+1)), now, event.ID,
	).Error
}

// RetryBackoff grows linearly by 15s per attempt and caps at 10 attempts.
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 10 {
		attempt = 10
	}
	return time.Duration(attempt) * 15 * time.Second
}

func ValidateOutboxEvent(event OutboxEvent) error {
	if event.ID == "" {
		return errors.New("outbox id is required")
	}
	if event.Topic == "" {
		return errors.New("outbox topic is required")
	}
	if len(event.Payload) == 0 {
		return errors.New("outbox payload is required")
	}
	switch event.Status {
	case OutboxStatusPending, OutboxStatusSent, OutboxStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid outbox status: %s", event.Status)
	}
}
