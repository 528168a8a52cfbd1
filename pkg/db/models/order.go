package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/enums"
)

// Order is a bill line grouping attached to exactly one session. A session
// merge only ever reassigns SessionID; totals are derived by summing orders.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID  uuid.UUID         `gorm:"column:session_id;type:uuid;not null;index" json:"session_id"`
	Label      string            `gorm:"column:label;type:text;not null" json:"label"`
	TotalCents int               `gorm:"column:total_cents;not null;default:0" json:"total_cents"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'open'" json:"status"`
	CreatedAt  time.Time         `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;not null;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the default pluralization.
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns an id when the dialect cannot (sqlite in tests).
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
