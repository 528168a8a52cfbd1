package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/enums"
)

// Table is a physical seating unit. LinkedTo points at the primary table id
// while this table is a merged secondary; merge chains are always flattened
// so a linked table never acts as a primary itself.
type Table struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VenueID   uuid.UUID       `gorm:"column:venue_id;type:uuid;not null;index" json:"venue_id"`
	Label     string          `gorm:"column:label;type:text;not null" json:"label"`
	SeatCount int             `gorm:"column:seat_count;not null" json:"seat_count"`
	Mode      enums.TableMode `gorm:"column:mode;type:text;not null;default:'normal'" json:"mode"`
	LinkedTo  *uuid.UUID      `gorm:"column:linked_to;type:uuid" json:"linked_to,omitempty"`
	// Version backs the optimistic check the merge executor performs when
	// the store cannot hold row locks across the re-validation read.
	Version   int64     `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the default pluralization.
func (Table) TableName() string {
	return "venue_tables"
}

// IsLinked reports whether the table is currently a merged secondary.
func (t Table) IsLinked() bool {
	return t.LinkedTo != nil
}

// BeforeCreate assigns an id when the dialect cannot (sqlite in tests).
func (t *Table) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
