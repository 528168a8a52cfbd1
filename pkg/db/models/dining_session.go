package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/floorops/floorops-backend/pkg/db/types"
	"github.com/floorops/floorops-backend/pkg/enums"
)

// DiningSession is the live record of a party occupying one or more tables.
// Sessions are closed, never deleted; the row is the billing history.
type DiningSession struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VenueID      uuid.UUID           `gorm:"column:venue_id;type:uuid;not null;index" json:"venue_id"`
	TableIDs     dbtypes.UUIDArray   `gorm:"column:table_ids;not null" json:"table_ids"`
	Status       enums.SessionStatus `gorm:"column:status;type:text;not null;default:'active'" json:"status"`
	BalanceCents int                 `gorm:"column:balance_cents;not null;default:0" json:"balance_cents"`
	OpenedAt     time.Time           `gorm:"column:opened_at;not null" json:"opened_at"`
	ClosedAt     *time.Time          `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CreatedAt    time.Time           `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;not null;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the default pluralization.
func (DiningSession) TableName() string {
	return "dining_sessions"
}

// BeforeCreate assigns an id when the dialect cannot (sqlite in tests).
func (s *DiningSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.OpenedAt.IsZero() {
		s.OpenedAt = time.Now()
	}
	return nil
}
