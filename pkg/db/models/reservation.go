package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/floorops/floorops-backend/pkg/db/types"
	"github.com/floorops/floorops-backend/pkg/enums"
)

// Reservation is a future or near-term booking holding one or more tables
// for a time slot. Two reservations may share a table only when their slots
// do not overlap.
type Reservation struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VenueID   uuid.UUID               `gorm:"column:venue_id;type:uuid;not null;index" json:"venue_id"`
	TableIDs  dbtypes.UUIDArray       `gorm:"column:table_ids;not null" json:"table_ids"`
	PartySize int                     `gorm:"column:party_size;not null" json:"party_size"`
	GuestName string                  `gorm:"column:guest_name;type:text;not null" json:"guest_name"`
	SlotStart time.Time               `gorm:"column:slot_start;not null;index" json:"slot_start"`
	SlotEnd   time.Time               `gorm:"column:slot_end;not null" json:"slot_end"`
	Status    enums.ReservationStatus `gorm:"column:status;type:text;not null;default:'booked'" json:"status"`
	CreatedAt time.Time               `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time               `gorm:"column:updated_at;not null;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the default pluralization.
func (Reservation) TableName() string {
	return "reservations"
}

// Overlaps reports whether the reservation's slot intersects [from, to).
func (r Reservation) Overlaps(from, to time.Time) bool {
	return r.SlotStart.Before(to) && r.SlotEnd.After(from)
}

// BeforeCreate assigns an id when the dialect cannot (sqlite in tests).
func (r *Reservation) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
