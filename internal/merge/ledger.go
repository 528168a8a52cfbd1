package merge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/pagination"
)

// InsertGroup writes a new active ledger entry.
func (r *Repository) InsertGroup(ctx context.Context, group *models.MergeGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// ActiveGroupByPrimary loads the active entry whose primary is the given
// table, or nil when none exists.
func (r *Repository) ActiveGroupByPrimary(ctx context.Context, primaryTableID uuid.UUID) (*models.MergeGroup, error) {
	var group models.MergeGroup
	err := r.db.WithContext(ctx).
		Where("primary_table_id = ? AND active = ?", primaryTableID, true).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// ActiveGroupContaining finds the active entry that lists the table either
// as primary or as a secondary. Secondary membership is checked in Go so
// the query stays dialect-neutral.
func (r *Repository) ActiveGroupContaining(ctx context.Context, venueID, tableID uuid.UUID) (*models.MergeGroup, error) {
	var groups []models.MergeGroup
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND active = ?", venueID, true).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].PrimaryTableID == tableID || groups[i].SecondaryTableIDs.Contains(tableID) {
			return &groups[i], nil
		}
	}
	return nil, nil
}

// UpdateGroup persists changes to an existing ledger entry.
func (r *Repository) UpdateGroup(ctx context.Context, group *models.MergeGroup) error {
	return r.db.WithContext(ctx).
		Model(&models.MergeGroup{}).
		Where("id = ?", group.ID).
		Updates(map[string]any{
			"secondary_table_ids": group.SecondaryTableIDs,
			"combined_label":      group.CombinedLabel,
			"combined_seats":      group.CombinedSeats,
			"active":              group.Active,
			"released_at":         group.ReleasedAt,
		}).Error
}

// ReleaseGroup marks an entry inactive. The row stays for audit.
func (r *Repository) ReleaseGroup(ctx context.Context, groupID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.MergeGroup{}).
		Where("id = ?", groupID).
		Updates(map[string]any{
			"active":      false,
			"released_at": at,
		}).Error
}

// ListGroups returns the venue's ledger entries, newest first. Released
// entries are included; the ledger is the audit trail of every merge.
func (r *Repository) ListGroups(ctx context.Context, venueID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.MergeGroup, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	query := r.db.WithContext(ctx).
		Where("venue_id = ?", venueID)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var groups []models.MergeGroup
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&groups).Error
	return groups, err
}

// CountGroups returns the number of ledger entries for the venue.
func (r *Repository) CountGroups(ctx context.Context, venueID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MergeGroup{}).
		Where("venue_id = ?", venueID).
		Count(&count).Error
	return count, err
}
