package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/enums"
)

// OutboxEvent is a domain event row written inside the same transaction as
// the mutation it describes, drained by the outbox publisher.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:text;not null" json:"event_type"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:text;not null" json:"aggregate_type"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null;index" json:"aggregate_id"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0" json:"attempt_count"`
	LastError     *string                   `gorm:"column:last_error;type:text" json:"last_error,omitempty"`
	PublishedAt   *time.Time                `gorm:"column:published_at;index" json:"published_at,omitempty"`
	CreatedAt     time.Time                 `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
}

// TableName overrides the default pluralization.
func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// BeforeCreate assigns an id when the dialect cannot (sqlite in tests).
func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
