package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/floorops/floorops-backend/pkg/db/models"
)

// Repository owns the mutations only the merge executor may perform:
// table linkage and the optimistic version bumps that detect concurrent
// merges. Ledger persistence lives in ledger.go.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindTable loads a single table row.
func (r *Repository) FindTable(ctx context.Context, id uuid.UUID) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).First(&table, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// FindTablesLocked loads the given tables ordered by id ascending, taking
// row locks on dialects that support them. The deterministic ordering
// avoids lock-ordering deadlocks when two merges race on overlapping
// tables.
func (r *Repository) FindTablesLocked(ctx context.Context, ids []uuid.UUID) ([]models.Table, error) {
	query := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC")
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var tables []models.Table
	if err := query.Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// SetLockTimeout bounds how long the current transaction waits on row
// locks so a contended merge fails fast instead of hanging. No-op on
// dialects without lock timeouts.
func (r *Repository) SetLockTimeout(ctx context.Context, timeout time.Duration) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).
		Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())).Error
}

// LinkTable points a secondary at its primary. The update only lands when
// the row still carries the version the caller snapshotted; zero rows
// affected means another merge got there first.
func (r *Repository) LinkTable(ctx context.Context, tableID, primaryID uuid.UUID, expectedVersion int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Table{}).
		Where("id = ? AND version = ?", tableID, expectedVersion).
		Updates(map[string]any{
			"linked_to": primaryID,
			"version":   gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UnlinkTable clears a secondary's back-reference.
func (r *Repository) UnlinkTable(ctx context.Context, tableID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Table{}).
		Where("id = ?", tableID).
		Updates(map[string]any{
			"linked_to": nil,
			"version":   gorm.Expr("version + 1"),
		}).Error
}

// BumpTableVersion advances a table's version under the same optimistic
// check as LinkTable. Used on the primary so a racing merge touching the
// same primary observes the change.
func (r *Repository) BumpTableVersion(ctx context.Context, tableID uuid.UUID, expectedVersion int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Table{}).
		Where("id = ? AND version = ?", tableID, expectedVersion).
		Update("version", gorm.Expr("version + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
