package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/floorops/floorops-backend/pkg/db/types"
	"github.com/floorops/floorops-backend/pkg/enums"
)

// MergeGroup is the ledger record of a merge: which tables are linked under
// which primary, who confirmed it, and which scenario ran. Active rows back
// unmerge; released rows remain for audit.
type MergeGroup struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VenueID           uuid.UUID           `gorm:"column:venue_id;type:uuid;not null;index" json:"venue_id"`
	PrimaryTableID    uuid.UUID           `gorm:"column:primary_table_id;type:uuid;not null;index" json:"primary_table_id"`
	SecondaryTableIDs dbtypes.UUIDArray   `gorm:"column:secondary_table_ids;not null" json:"secondary_table_ids"`
	Scenario          enums.MergeScenario `gorm:"column:scenario;type:text;not null" json:"scenario"`
	CombinedLabel     string              `gorm:"column:combined_label;type:text;not null" json:"combined_label"`
	CombinedSeats     int                 `gorm:"column:combined_seats;not null" json:"combined_seats"`
	ConfirmedBy       uuid.UUID           `gorm:"column:confirmed_by;type:uuid;not null" json:"confirmed_by"`
	Active            bool                `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt         time.Time           `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
	ReleasedAt        *time.Time          `gorm:"column:released_at" json:"released_at,omitempty"`
}

// TableName overrides the default pluralization.
func (MergeGroup) TableName() string {
	return "merge_groups"
}

// BeforeCreate assigns an id when the dialect cannot (sqlite in tests).
func (g *MergeGroup) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
