package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
)

const reservationsTestSchema = `
CREATE TABLE IF NOT EXISTS reservations (
  id TEXT PRIMARY KEY,
  venue_id TEXT NOT NULL,
  table_ids TEXT NOT NULL,
  party_size INTEGER NOT NULL,
  guest_name TEXT NOT NULL,
  slot_start DATETIME NOT NULL,
  slot_end DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'booked',
  created_at DATETIME,
  updated_at DATETIME
);`

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newReservationService(t *testing.T) (Service, *Repository) {
	t.Helper()
	dsn := "file:reservations_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(reservationsTestSchema).Error)

	repo := NewRepository(db)
	svc, err := NewService(repo, testTxRunner{db: db})
	require.NoError(t, err)
	return svc, repo
}

func slot(offset, length time.Duration) (time.Time, time.Time) {
	start := time.Now().Add(offset).Truncate(time.Minute)
	return start, start.Add(length)
}

func TestCreateReservation(t *testing.T) {
	svc, _ := newReservationService(t)
	venueID := uuid.New()
	start, end := slot(time.Hour, 2*time.Hour)

	reservation, err := svc.Create(context.Background(), CreateInput{
		VenueID:   venueID,
		TableIDs:  []uuid.UUID{uuid.New()},
		PartySize: 4,
		GuestName: "Okafor",
		SlotStart: start,
		SlotEnd:   end,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusBooked, reservation.Status)
}

func TestCreateReservationRejectsOverlap(t *testing.T) {
	svc, _ := newReservationService(t)
	ctx := context.Background()
	venueID := uuid.New()
	tableID := uuid.New()
	start, end := slot(time.Hour, 2*time.Hour)

	_, err := svc.Create(ctx, CreateInput{
		VenueID: venueID, TableIDs: []uuid.UUID{tableID},
		PartySize: 2, GuestName: "Marsh", SlotStart: start, SlotEnd: end,
	})
	require.NoError(t, err)

	// Same table, slot overlaps the tail of the first booking.
	_, err = svc.Create(ctx, CreateInput{
		VenueID: venueID, TableIDs: []uuid.UUID{tableID},
		PartySize: 2, GuestName: "Reyes", SlotStart: start.Add(time.Hour), SlotEnd: end.Add(time.Hour),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// Back-to-back slots on the same table are fine.
	_, err = svc.Create(ctx, CreateInput{
		VenueID: venueID, TableIDs: []uuid.UUID{tableID},
		PartySize: 2, GuestName: "Reyes", SlotStart: end, SlotEnd: end.Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestCreateReservationIgnoresCancelledOverlap(t *testing.T) {
	svc, _ := newReservationService(t)
	ctx := context.Background()
	venueID := uuid.New()
	tableID := uuid.New()
	start, end := slot(time.Hour, 2*time.Hour)

	first, err := svc.Create(ctx, CreateInput{
		VenueID: venueID, TableIDs: []uuid.UUID{tableID},
		PartySize: 2, GuestName: "Marsh", SlotStart: start, SlotEnd: end,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, first.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{
		VenueID: venueID, TableIDs: []uuid.UUID{tableID},
		PartySize: 2, GuestName: "Reyes", SlotStart: start, SlotEnd: end,
	})
	require.NoError(t, err)
}

func TestCreateReservationValidatesSlot(t *testing.T) {
	svc, _ := newReservationService(t)
	start, _ := slot(time.Hour, 2*time.Hour)

	_, err := svc.Create(context.Background(), CreateInput{
		VenueID:   uuid.New(),
		TableIDs:  []uuid.UUID{uuid.New()},
		PartySize: 2,
		GuestName: "Marsh",
		SlotStart: start,
		SlotEnd:   start,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCheckInAndCancelTransitions(t *testing.T) {
	svc, _ := newReservationService(t)
	ctx := context.Background()
	start, end := slot(30*time.Minute, time.Hour)

	reservation, err := svc.Create(ctx, CreateInput{
		VenueID: uuid.New(), TableIDs: []uuid.UUID{uuid.New()},
		PartySize: 3, GuestName: "Ito", SlotStart: start, SlotEnd: end,
	})
	require.NoError(t, err)

	checkedIn, err := svc.CheckIn(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusCheckedIn, checkedIn.Status)

	// A seated reservation can no longer be cancelled.
	_, err = svc.Cancel(ctx, reservation.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestAddReservationTablesDedupes(t *testing.T) {
	svc, repo := newReservationService(t)
	ctx := context.Background()
	tableID := uuid.New()
	extraID := uuid.New()
	start, end := slot(time.Hour, time.Hour)

	reservation, err := svc.Create(ctx, CreateInput{
		VenueID: uuid.New(), TableIDs: []uuid.UUID{tableID},
		PartySize: 6, GuestName: "Varga", SlotStart: start, SlotEnd: end,
	})
	require.NoError(t, err)

	require.NoError(t, repo.AddReservationTables(ctx, repo.db, reservation.ID, extraID, tableID))

	fresh, err := repo.FindByID(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Len(t, fresh.TableIDs, 2)
	assert.True(t, fresh.TableIDs.Contains(extraID))
}
