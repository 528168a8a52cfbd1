package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/enums"
)

// StaffUser is a venue operator. Role gates who may confirm merges.
type StaffUser struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VenueID      uuid.UUID       `gorm:"column:venue_id;type:uuid;not null;index" json:"venue_id"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	Name         string          `gorm:"column:name;type:text;not null" json:"name"`
	PasswordHash string          `gorm:"column:password_hash;type:text;not null" json:"-"`
	Role         enums.StaffRole `gorm:"column:role;type:text;not null" json:"role"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;not null;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the default pluralization.
func (StaffUser) TableName() string {
	return "staff_users"
}

// BeforeCreate assigns an id when the dialect cannot (sqlite in tests).
func (u *StaffUser) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
