package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/internal/floor"
	"github.com/floorops/floorops-backend/internal/orders"
	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
	"github.com/floorops/floorops-backend/pkg/outbox"
)

const sessionsTestSchema = `
CREATE TABLE IF NOT EXISTS venue_tables (
  id TEXT PRIMARY KEY,
  venue_id TEXT NOT NULL,
  label TEXT NOT NULL,
  seat_count INTEGER NOT NULL,
  mode TEXT NOT NULL DEFAULT 'normal',
  linked_to TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS dining_sessions (
  id TEXT PRIMARY KEY,
  venue_id TEXT NOT NULL,
  table_ids TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  balance_cents INTEGER NOT NULL DEFAULT 0,
  opened_at DATETIME NOT NULL,
  closed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  label TEXT NOT NULL,
  total_cents INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'open',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  published_at DATETIME,
  created_at DATETIME
);`

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type sessionHarness struct {
	db      *gorm.DB
	svc     Service
	repo    *Repository
	venueID uuid.UUID
}

func newSessionHarness(t *testing.T) *sessionHarness {
	t.Helper()
	dsn := "file:sessions_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(sessionsTestSchema).Error)

	repo := NewRepository(db)
	svc, err := NewService(
		repo,
		floor.NewRepository(db),
		orders.NewRepository(db),
		testTxRunner{db: db},
		outbox.NewService(outbox.NewRepository(db), nil),
	)
	require.NoError(t, err)
	return &sessionHarness{db: db, svc: svc, repo: repo, venueID: uuid.New()}
}

func (h *sessionHarness) createTable(t *testing.T, label string) *models.Table {
	t.Helper()
	table := &models.Table{VenueID: h.venueID, Label: label, SeatCount: 4, Mode: enums.TableModeNormal}
	require.NoError(t, h.db.Create(table).Error)
	return table
}

func TestOpenSession(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()
	table := h.createTable(t, "S1")

	session, err := h.svc.Open(ctx, OpenInput{
		VenueID:   h.venueID,
		TableIDs:  []uuid.UUID{table.ID},
		ActorID:   uuid.New(),
		ActorRole: enums.StaffRoleWaiter,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.SessionStatusActive, session.Status)
	assert.True(t, session.TableIDs.Contains(table.ID))

	var events []models.OutboxEvent
	require.NoError(t, h.db.Where("event_type = ?", enums.EventSessionOpened).Find(&events).Error)
	assert.Len(t, events, 1)
}

func TestOpenSessionRejectsOccupiedTable(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()
	table := h.createTable(t, "S2")

	_, err := h.svc.Open(ctx, OpenInput{VenueID: h.venueID, TableIDs: []uuid.UUID{table.ID}, ActorID: uuid.New(), ActorRole: enums.StaffRoleWaiter})
	require.NoError(t, err)

	_, err = h.svc.Open(ctx, OpenInput{VenueID: h.venueID, TableIDs: []uuid.UUID{table.ID}, ActorID: uuid.New(), ActorRole: enums.StaffRoleWaiter})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestOpenSessionRejectsUnknownTable(t *testing.T) {
	h := newSessionHarness(t)

	_, err := h.svc.Open(context.Background(), OpenInput{
		VenueID:   h.venueID,
		TableIDs:  []uuid.UUID{uuid.New()},
		ActorID:   uuid.New(),
		ActorRole: enums.StaffRoleWaiter,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCloseSessionRequiresSettledOrders(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()
	table := h.createTable(t, "S3")

	session, err := h.svc.Open(ctx, OpenInput{VenueID: h.venueID, TableIDs: []uuid.UUID{table.ID}, ActorID: uuid.New(), ActorRole: enums.StaffRoleWaiter})
	require.NoError(t, err)

	order := &models.Order{SessionID: session.ID, Label: "mains", TotalCents: 1200, Status: enums.OrderStatusOpen}
	require.NoError(t, h.db.Create(order).Error)

	_, err = h.svc.Close(ctx, CloseInput{SessionID: session.ID, ActorID: uuid.New(), ActorRole: enums.StaffRoleWaiter})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	require.NoError(t, h.db.Model(order).Update("status", enums.OrderStatusPaid).Error)

	closed, err := h.svc.Close(ctx, CloseInput{SessionID: session.ID, ActorID: uuid.New(), ActorRole: enums.StaffRoleWaiter})
	require.NoError(t, err)
	assert.Equal(t, enums.SessionStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	var events []models.OutboxEvent
	require.NoError(t, h.db.Where("event_type = ?", enums.EventSessionClosed).Find(&events).Error)
	assert.Len(t, events, 1)
}

func TestAbsorbSessionTransfersBalance(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()
	a := h.createTable(t, "S4")
	b := h.createTable(t, "S5")

	from, err := h.svc.Open(ctx, OpenInput{VenueID: h.venueID, TableIDs: []uuid.UUID{a.ID}, ActorID: uuid.New(), ActorRole: enums.StaffRoleWaiter})
	require.NoError(t, err)
	to, err := h.svc.Open(ctx, OpenInput{VenueID: h.venueID, TableIDs: []uuid.UUID{b.ID}, ActorID: uuid.New(), ActorRole: enums.StaffRoleWaiter})
	require.NoError(t, err)
	require.NoError(t, h.db.Model(&models.DiningSession{}).Where("id = ?", from.ID).Update("balance_cents", 1000).Error)

	transferred, err := h.repo.AbsorbSession(ctx, h.db, from.ID, to.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1000, transferred)

	var absorbed, survivor models.DiningSession
	require.NoError(t, h.db.First(&absorbed, "id = ?", from.ID).Error)
	require.NoError(t, h.db.First(&survivor, "id = ?", to.ID).Error)
	assert.Equal(t, enums.SessionStatusClosed, absorbed.Status)
	assert.Zero(t, absorbed.BalanceCents)
	assert.Equal(t, 1000, survivor.BalanceCents)
	assert.True(t, survivor.TableIDs.Contains(a.ID))
}
