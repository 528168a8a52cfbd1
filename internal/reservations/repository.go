package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
)

// Repository persists reservations. AddReservationTables is the mutation
// the merge executor drives.
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

// FindByID loads a single reservation.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Create inserts a new reservation row.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Create(reservation).Error
}

// HoldingInWindow loads reservations that still claim tables and whose slot
// intersects [from, to).
func (r *Repository) HoldingInWindow(ctx context.Context, venueID uuid.UUID, from, to time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("venue_id = ?", venueID).
		Where("status IN ?", []enums.ReservationStatus{enums.ReservationStatusBooked, enums.ReservationStatusCheckedIn}).
		Where("slot_start < ? AND slot_end > ?", to, from).
		Order("slot_start ASC").
		Find(&reservations).Error
	return reservations, err
}

// ListUpcoming loads the venue's holding reservations from now on.
func (r *Repository) ListUpcoming(ctx context.Context, venueID uuid.UUID, now time.Time, limit int) ([]models.Reservation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("venue_id = ?", venueID).
		Where("status IN ?", []enums.ReservationStatus{enums.ReservationStatusBooked, enums.ReservationStatusCheckedIn}).
		Where("slot_end > ?", now).
		Order("slot_start ASC").
		Limit(limit).
		Find(&reservations).Error
	return reservations, err
}

// AddReservationTables grows a holding reservation's table set. Used by the
// merge executor for the join and group scenarios.
func (r *Repository) AddReservationTables(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID, tableIDs ...uuid.UUID) error {
	var reservation models.Reservation
	if err := tx.WithContext(ctx).First(&reservation, "id = ?", reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return err
	}
	if !reservation.Status.Holding() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation no longer holds its tables")
	}
	for _, id := range tableIDs {
		reservation.TableIDs = reservation.TableIDs.Append(id)
	}
	return tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", reservationID).
		Update("table_ids", reservation.TableIDs).Error
}

// UpdateStatus transitions a reservation's status.
func (r *Repository) UpdateStatus(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID, status enums.ReservationStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", reservationID).
		Update("status", status).Error
}
