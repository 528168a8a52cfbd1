package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/db/models"
	dbtypes "github.com/floorops/floorops-backend/pkg/db/types"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service books and transitions reservations. Slot scheduling and waitlist
// logic live upstream; a candidate reservation record arrives here already
// sized and timed.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Reservation, error)
	CheckIn(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	ListUpcoming(ctx context.Context, venueID uuid.UUID, limit int) ([]models.Reservation, error)
}

// CreateInput books tables for a time slot.
type CreateInput struct {
	VenueID   uuid.UUID
	TableIDs  []uuid.UUID
	PartySize int
	GuestName string
	SlotStart time.Time
	SlotEnd   time.Time
}

type service struct {
	repo  *Repository
	tx    txRunner
	clock func() time.Time
}

// NewService builds the reservation service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, clock: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Reservation, error) {
	if input.VenueID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "venue id required")
	}
	if len(input.TableIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one table id required")
	}
	if input.PartySize <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party size must be positive")
	}
	if input.GuestName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest name required")
	}
	if !input.SlotStart.Before(input.SlotEnd) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot start must precede slot end")
	}

	// Two reservations may share a table only when their slots do not
	// overlap.
	holding, err := s.repo.HoldingInWindow(ctx, input.VenueID, input.SlotStart, input.SlotEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking reservation overlap")
	}
	for _, existing := range holding {
		for _, tableID := range input.TableIDs {
			if existing.TableIDs.Contains(tableID) {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "table already reserved for an overlapping slot")
			}
		}
	}

	reservation := &models.Reservation{
		VenueID:   input.VenueID,
		TableIDs:  dbtypes.UUIDArray(input.TableIDs),
		PartySize: input.PartySize,
		GuestName: input.GuestName,
		SlotStart: input.SlotStart,
		SlotEnd:   input.SlotEnd,
		Status:    enums.ReservationStatusBooked,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.Create(ctx, tx, reservation)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating reservation")
	}
	return reservation, nil
}

func (s *service) CheckIn(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	return s.transition(ctx, reservationID, enums.ReservationStatusBooked, enums.ReservationStatusCheckedIn)
}

// Cancel releases a booking. Checked-in parties are seated and can only
// be wound down through their session.
func (s *service) Cancel(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	return s.transition(ctx, reservationID, enums.ReservationStatusBooked, enums.ReservationStatusCancelled)
}

func (s *service) ListUpcoming(ctx context.Context, venueID uuid.UUID, limit int) ([]models.Reservation, error) {
	if venueID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "venue id required")
	}
	reservations, err := s.repo.ListUpcoming(ctx, venueID, s.clock(), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing reservations")
	}
	return reservations, nil
}

func (s *service) transition(ctx context.Context, reservationID uuid.UUID, from, to enums.ReservationStatus) (*models.Reservation, error) {
	reservation, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status != from {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("reservation is %s, expected %s", reservation.Status, from))
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.UpdateStatus(ctx, tx, reservationID, to)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating reservation")
	}
	reservation.Status = to
	return reservation, nil
}

func (s *service) load(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	if reservationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id required")
	}
	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading reservation")
	}
	return reservation, nil
}
