package floor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/enums"
)

// Repository loads the facts the state deriver projects from: tables,
// active sessions, open orders and holding reservations. It never mutates.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction so the
// merge executor can re-derive state inside its own unit of work.
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

// ListTables loads every table for the venue, ordered by label for stable
// floor views.
func (r *Repository) ListTables(ctx context.Context, venueID uuid.UUID) ([]models.Table, error) {
	var tables []models.Table
	err := r.db.WithContext(ctx).
		Where("venue_id = ?", venueID).
		Order("label ASC").
		Find(&tables).Error
	return tables, err
}

// ActiveSessions loads every open session for the venue. Membership checks
// against the uuid[] column happen in Go so the same query serves both the
// postgres and sqlite dialects.
func (r *Repository) ActiveSessions(ctx context.Context, venueID uuid.UUID) ([]models.DiningSession, error) {
	var sessions []models.DiningSession
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND status = ?", venueID, enums.SessionStatusActive).
		Find(&sessions).Error
	return sessions, err
}

// OpenOrderSessionIDs returns the subset of the given session ids that have
// at least one open order attached.
func (r *Repository) OpenOrderSessionIDs(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("session_id IN ? AND status = ?", sessionIDs, enums.OrderStatusOpen).
		Distinct().
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// HoldingReservations loads reservations that still claim their tables and
// whose slot intersects [from, to).
func (r *Repository) HoldingReservations(ctx context.Context, venueID uuid.UUID, from, to time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("venue_id = ?", venueID).
		Where("status IN ?", []enums.ReservationStatus{enums.ReservationStatusBooked, enums.ReservationStatusCheckedIn}).
		Where("slot_start < ? AND slot_end > ?", to, from).
		Order("slot_start ASC").
		Find(&reservations).Error
	return reservations, err
}
