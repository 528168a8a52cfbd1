package merge

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
	"github.com/floorops/floorops-backend/internal/reservations"
	"github.com/floorops/floorops-backend/internal/sessions"
	"github.com/floorops/floorops-backend/pkg/db/models"
	dbtypes "github.com/floorops/floorops-backend/pkg/db/types"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
	"github.com/floorops/floorops-backend/pkg/outbox"
	"github.com/floorops/floorops-backend/pkg/pagination"
)

const mergeTestSchema = `
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
);
CREATE TABLE IF NOT EXISTS merge_groups (
  id TEXT PRIMARY KEY,
  venue_id TEXT NOT NULL,
  primary_table_id TEXT NOT NULL,
  secondary_table_ids TEXT NOT NULL,
  scenario TEXT NOT NULL,
  combined_label TEXT NOT NULL,
  combined_seats INTEGER NOT NULL,
  confirmed_by TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  released_at DATETIME
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

type mergeHarness struct {
	db           *gorm.DB
	svc          Service
	repo         *Repository
	deriver      *floor.Deriver
	sessionsRepo *sessions.Repository
	ordersRepo   *orders.Repository
	venueID      uuid.UUID
	manager      uuid.UUID
}

func newMergeHarness(t *testing.T) *mergeHarness {
	t.Helper()
	dsn := "file:merge_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(mergeTestSchema).Error)

	repo := NewRepository(db)
	floorRepo := floor.NewRepository(db)
	deriver, err := floor.NewDeriver(floorRepo, 90*time.Minute)
	require.NoError(t, err)

	sessionsRepo := sessions.NewRepository(db)
	ordersRepo := orders.NewRepository(db)
	reservationsRepo := reservations.NewRepository(db)
	outboxSvc := outbox.NewService(outbox.NewRepository(db), nil)

	svc, err := NewService(
		repo,
		deriver,
		testTxRunner{db: db},
		outboxSvc,
		sessionsRepo,
		ordersRepo,
		reservationsRepo,
		3*time.Second,
	)
	require.NoError(t, err)

	return &mergeHarness{
		db:           db,
		svc:          svc,
		repo:         repo,
		deriver:      deriver,
		sessionsRepo: sessionsRepo,
		ordersRepo:   ordersRepo,
		venueID:      uuid.New(),
		manager:      uuid.New(),
	}
}

func (h *mergeHarness) createTable(t *testing.T, label string, seats int, mode enums.TableMode) *models.Table {
	t.Helper()
	table := &models.Table{VenueID: h.venueID, Label: label, SeatCount: seats, Mode: mode}
	require.NoError(t, h.db.Create(table).Error)
	return table
}

func (h *mergeHarness) openSession(t *testing.T, balanceCents int, tableIDs ...uuid.UUID) *models.DiningSession {
	t.Helper()
	session := &models.DiningSession{
		VenueID:      h.venueID,
		TableIDs:     dbtypes.UUIDArray(tableIDs),
		Status:       enums.SessionStatusActive,
		BalanceCents: balanceCents,
		OpenedAt:     time.Now().Add(-time.Hour),
	}
	require.NoError(t, h.db.Create(session).Error)
	return session
}

func (h *mergeHarness) addOrder(t *testing.T, sessionID uuid.UUID, label string, totalCents int) *models.Order {
	t.Helper()
	order := &models.Order{SessionID: sessionID, Label: label, TotalCents: totalCents, Status: enums.OrderStatusOpen}
	require.NoError(t, h.db.Create(order).Error)
	return order
}

func (h *mergeHarness) bookReservation(t *testing.T, startIn time.Duration, tableIDs ...uuid.UUID) *models.Reservation {
	t.Helper()
	now := time.Now()
	reservation := &models.Reservation{
		VenueID:   h.venueID,
		TableIDs:  dbtypes.UUIDArray(tableIDs),
		PartySize: 4,
		GuestName: "Moreau",
		SlotStart: now.Add(startIn),
		SlotEnd:   now.Add(startIn + 2*time.Hour),
		Status:    enums.ReservationStatusBooked,
	}
	require.NoError(t, h.db.Create(reservation).Error)
	return reservation
}

func (h *mergeHarness) reloadTable(t *testing.T, id uuid.UUID) *models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, h.db.First(&table, "id = ?", id).Error)
	return &table
}

func (h *mergeHarness) execute(source, target uuid.UUID, confirmation string) (*MergeResult, error) {
	return h.svc.Execute(context.Background(), ExecuteInput{
		SourceTableID:    source,
		TargetTableID:    target,
		ConfirmationText: confirmation,
		ActorID:          h.manager,
		ActorRole:        enums.StaffRoleManager,
	})
}

func requireErrCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestExecuteCombineFree(t *testing.T) {
	h := newMergeHarness(t)
	t10 := h.createTable(t, "T10", 4, enums.TableModeNormal)
	t11 := h.createTable(t, "T11", 2, enums.TableModeNormal)

	result, err := h.execute(t10.ID, t11.ID, "")
	require.NoError(t, err)

	assert.Equal(t, enums.MergeScenarioCombineFree, result.Scenario)
	assert.Equal(t, "T10+T11", result.CombinedLabel)
	assert.Equal(t, 6, result.CombinedSeats)
	assert.Equal(t, t10.ID, result.PrimaryTableID)
	assert.Equal(t, []uuid.UUID{t11.ID}, []uuid.UUID(result.SecondaryTableIDs))

	// No session is opened until a party is explicitly seated.
	var sessionCount int64
	require.NoError(t, h.db.Model(&models.DiningSession{}).Count(&sessionCount).Error)
	assert.Zero(t, sessionCount)

	linked := h.reloadTable(t, t11.ID)
	require.NotNil(t, linked.LinkedTo)
	assert.Equal(t, t10.ID, *linked.LinkedTo)
}

func TestExecuteJoinSessionLeavesBillingUntouched(t *testing.T) {
	h := newMergeHarness(t)
	t12 := h.createTable(t, "T12", 2, enums.TableModeNormal)
	t13 := h.createTable(t, "T13", 4, enums.TableModeNormal)
	s1 := h.openSession(t, 2500, t13.ID)
	o1 := h.addOrder(t, s1.ID, "O1", 2500)

	result, err := h.execute(t12.ID, t13.ID, "")
	require.NoError(t, err)
	assert.Equal(t, enums.MergeScenarioJoinSession, result.Scenario)
	assert.Equal(t, t13.ID, result.PrimaryTableID)
	require.NotNil(t, result.SessionID)
	assert.Equal(t, s1.ID, *result.SessionID)

	// The order stays on its session, total unchanged.
	var order models.Order
	require.NoError(t, h.db.First(&order, "id = ?", o1.ID).Error)
	assert.Equal(t, s1.ID, order.SessionID)
	assert.Equal(t, 2500, order.TotalCents)

	var session models.DiningSession
	require.NoError(t, h.db.First(&session, "id = ?", s1.ID).Error)
	assert.Equal(t, 2500, session.BalanceCents)
	assert.True(t, session.TableIDs.Contains(t12.ID))

	linked := h.reloadTable(t, t12.ID)
	require.NotNil(t, linked.LinkedTo)
	assert.Equal(t, t13.ID, *linked.LinkedTo)
}

func TestExecuteCombineSessionsRequiresPhrase(t *testing.T) {
	h := newMergeHarness(t)
	t14 := h.createTable(t, "T14", 4, enums.TableModeNormal)
	t15 := h.createTable(t, "T15", 4, enums.TableModeNormal)
	s2 := h.openSession(t, 1000, t14.ID)
	h.addOrder(t, s2.ID, "burgers", 1000)
	s3 := h.openSession(t, 1500, t15.ID)
	h.addOrder(t, s3.ID, "pasta", 1500)

	// No phrase, then a wrong phrase: both rejected, nothing mutated.
	_, err := h.execute(t14.ID, t15.ID, "")
	requireErrCode(t, err, pkgerrors.CodeConfirmationRejected)
	_, err = h.execute(t14.ID, t15.ID, "merge active bills")
	requireErrCode(t, err, pkgerrors.CodeConfirmationRejected)

	var untouched models.DiningSession
	require.NoError(t, h.db.First(&untouched, "id = ?", s2.ID).Error)
	assert.Equal(t, enums.SessionStatusActive, untouched.Status)

	result, err := h.execute(t14.ID, t15.ID, ConfirmationPhrase)
	require.NoError(t, err)
	assert.Equal(t, enums.MergeScenarioCombineSessions, result.Scenario)
	assert.Equal(t, int64(1), result.OrdersMoved)

	var source, target models.DiningSession
	require.NoError(t, h.db.First(&source, "id = ?", s2.ID).Error)
	require.NoError(t, h.db.First(&target, "id = ?", s3.ID).Error)
	assert.Equal(t, enums.SessionStatusClosed, source.Status)
	require.NotNil(t, source.ClosedAt)
	assert.Equal(t, 2500, target.BalanceCents)
	assert.True(t, target.TableIDs.Contains(t14.ID))

	var moved []models.Order
	require.NoError(t, h.db.Where("session_id = ?", s3.ID).Find(&moved).Error)
	assert.Len(t, moved, 2)
}

func TestExecuteReservedPlusOccupiedBlocked(t *testing.T) {
	h := newMergeHarness(t)
	t16 := h.createTable(t, "T16", 4, enums.TableModeNormal)
	t17 := h.createTable(t, "T17", 4, enums.TableModeNormal)
	h.bookReservation(t, 30*time.Minute, t16.ID)
	h.openSession(t, 0, t17.ID)

	// Blocked regardless of operator role and regardless of direction.
	_, err := h.execute(t16.ID, t17.ID, "")
	requireErrCode(t, err, pkgerrors.CodeValidation)
	_, err = h.execute(t17.ID, t16.ID, "")
	requireErrCode(t, err, pkgerrors.CodeValidation)

	classified, err := h.svc.Classify(context.Background(), t16.ID, t17.ID)
	require.NoError(t, err)
	assert.Equal(t, VerdictBlocked, classified.Verdict.Kind)
	assert.NotEmpty(t, classified.Verdict.Reason)
}

func TestExecuteReservedTables(t *testing.T) {
	h := newMergeHarness(t)
	a := h.createTable(t, "R1", 2, enums.TableModeNormal)
	b := h.createTable(t, "R2", 2, enums.TableModeNormal)
	c := h.createTable(t, "R3", 2, enums.TableModeNormal)
	shared := h.bookReservation(t, 30*time.Minute, a.ID, b.ID)
	h.bookReservation(t, 30*time.Minute, c.ID)

	// Different reservations never merge.
	_, err := h.execute(a.ID, c.ID, "")
	requireErrCode(t, err, pkgerrors.CodeValidation)

	// Same reservation groups without confirmation.
	result, err := h.execute(a.ID, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, enums.MergeScenarioGroupReservation, result.Scenario)
	require.NotNil(t, result.ReservationID)
	assert.Equal(t, shared.ID, *result.ReservationID)

	var reservation models.Reservation
	require.NoError(t, h.db.First(&reservation, "id = ?", shared.ID).Error)
	assert.True(t, reservation.TableIDs.Contains(a.ID))
	assert.True(t, reservation.TableIDs.Contains(b.ID))
}

func TestExecuteConflictOnStateDrift(t *testing.T) {
	h := newMergeHarness(t)
	source := h.createTable(t, "C1", 2, enums.TableModeNormal)
	target := h.createTable(t, "C2", 2, enums.TableModeNormal)

	classified, err := h.svc.Classify(context.Background(), source.ID, target.ID)
	require.NoError(t, err)
	require.Equal(t, enums.MergeScenarioCombineFree, classified.Verdict.Strategy)

	// Another operator seats a party on the target after classification.
	h.openSession(t, 0, target.ID)

	_, err = h.svc.Execute(context.Background(), ExecuteInput{
		SourceTableID:    source.ID,
		TargetTableID:    target.ID,
		ApprovedStrategy: classified.Verdict.Strategy,
		ActorID:          h.manager,
		ActorRole:        enums.StaffRoleManager,
	})
	requireErrCode(t, err, pkgerrors.CodeMergeConflict)

	// Conflict is retryable: no partial mutation happened.
	unchanged := h.reloadTable(t, source.ID)
	assert.Nil(t, unchanged.LinkedTo)
	count, err := h.repo.CountGroups(context.Background(), h.venueID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestExecuteRacingMergesProduceOneLedgerEntry(t *testing.T) {
	h := newMergeHarness(t)
	source := h.createTable(t, "D1", 2, enums.TableModeNormal)
	target := h.createTable(t, "D2", 2, enums.TableModeNormal)

	// Both operators classify the same pair before either executes.
	first, err := h.svc.Classify(context.Background(), source.ID, target.ID)
	require.NoError(t, err)
	second, err := h.svc.Classify(context.Background(), source.ID, target.ID)
	require.NoError(t, err)

	_, err = h.svc.Execute(context.Background(), ExecuteInput{
		SourceTableID:    source.ID,
		TargetTableID:    target.ID,
		ApprovedStrategy: first.Verdict.Strategy,
		ActorID:          h.manager,
		ActorRole:        enums.StaffRoleManager,
	})
	require.NoError(t, err)

	_, err = h.svc.Execute(context.Background(), ExecuteInput{
		SourceTableID:    source.ID,
		TargetTableID:    target.ID,
		ApprovedStrategy: second.Verdict.Strategy,
		ActorID:          h.manager,
		ActorRole:        enums.StaffRoleManager,
	})
	requireErrCode(t, err, pkgerrors.CodeMergeConflict)
	assert.True(t, pkgerrors.IsRetryable(err))

	count, err := h.repo.CountGroups(context.Background(), h.venueID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestExecuteValidation(t *testing.T) {
	h := newMergeHarness(t)
	table := h.createTable(t, "V1", 2, enums.TableModeNormal)

	_, err := h.execute(table.ID, table.ID, "")
	requireErrCode(t, err, pkgerrors.CodeValidation)

	_, err = h.execute(table.ID, uuid.New(), "")
	requireErrCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.Execute(context.Background(), ExecuteInput{
		SourceTableID: table.ID,
		TargetTableID: uuid.New(),
		ActorID:       h.manager,
		ActorRole:     enums.StaffRoleWaiter,
	})
	requireErrCode(t, err, pkgerrors.CodeForbidden)
}

func TestExecuteFlattensFollowOnJoin(t *testing.T) {
	h := newMergeHarness(t)
	occupied := h.createTable(t, "F1", 4, enums.TableModeNormal)
	first := h.createTable(t, "F2", 2, enums.TableModeNormal)
	second := h.createTable(t, "F3", 2, enums.TableModeNormal)
	h.openSession(t, 0, occupied.ID)

	_, err := h.execute(first.ID, occupied.ID, "")
	require.NoError(t, err)

	// Joining the already-merged secondary resolves to the primary.
	result, err := h.execute(second.ID, first.ID, "")
	require.NoError(t, err)
	assert.Equal(t, occupied.ID, result.PrimaryTableID)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, []uuid.UUID(result.SecondaryTableIDs))
	assert.Equal(t, "F1+F2+F3", result.CombinedLabel)
	assert.Equal(t, 8, result.CombinedSeats)

	linked := h.reloadTable(t, second.ID)
	require.NotNil(t, linked.LinkedTo)
	assert.Equal(t, occupied.ID, *linked.LinkedTo)

	count, err := h.repo.CountGroups(context.Background(), h.venueID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUnmergeAfterExpansionReleasesOnSessionClose(t *testing.T) {
	h := newMergeHarness(t)
	ctx := context.Background()
	secondary := h.createTable(t, "U1", 2, enums.TableModeNormal)
	primary := h.createTable(t, "U2", 4, enums.TableModeNormal)
	session := h.openSession(t, 0, primary.ID)

	_, err := h.execute(secondary.ID, primary.ID, "")
	require.NoError(t, err)

	result, err := h.svc.Unmerge(ctx, UnmergeInput{TableID: secondary.ID, ActorID: h.manager, ActorRole: enums.StaffRoleManager})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{secondary.ID}, result.ReleasedTableIDs)
	assert.True(t, result.GroupReleased)

	unlinked := h.reloadTable(t, secondary.ID)
	assert.Nil(t, unlinked.LinkedTo)

	// The party is still seated across both tables: the secondary stays
	// occupied until the parent session closes, never before.
	states, err := h.deriver.VenueStates(ctx, h.venueID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, enums.TableStateOccupied, states[secondary.ID].State)

	require.NoError(t, h.sessionsRepo.Close(ctx, h.db, session.ID, time.Now()))

	states, err = h.deriver.VenueStates(ctx, h.venueID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, enums.TableStateFree, states[secondary.ID].State)
}

func TestUnmergeDoesNotSplitReassignedOrders(t *testing.T) {
	h := newMergeHarness(t)
	ctx := context.Background()
	t14 := h.createTable(t, "W1", 4, enums.TableModeNormal)
	t15 := h.createTable(t, "W2", 4, enums.TableModeNormal)
	s2 := h.openSession(t, 1000, t14.ID)
	h.addOrder(t, s2.ID, "starters", 1000)
	s3 := h.openSession(t, 1500, t15.ID)
	h.addOrder(t, s3.ID, "mains", 1500)

	_, err := h.execute(t14.ID, t15.ID, ConfirmationPhrase)
	require.NoError(t, err)

	_, err = h.svc.Unmerge(ctx, UnmergeInput{TableID: t14.ID, ActorID: h.manager, ActorRole: enums.StaffRoleManager})
	require.NoError(t, err)

	// Historical billing stays with the session it was moved into.
	var moved []models.Order
	require.NoError(t, h.db.Where("session_id = ?", s3.ID).Find(&moved).Error)
	assert.Len(t, moved, 2)
	var remaining []models.Order
	require.NoError(t, h.db.Where("session_id = ?", s2.ID).Find(&remaining).Error)
	assert.Empty(t, remaining)
}

func TestUnmergePrimaryDissolvesGroup(t *testing.T) {
	h := newMergeHarness(t)
	ctx := context.Background()
	primary := h.createTable(t, "P1", 4, enums.TableModeNormal)
	a := h.createTable(t, "P2", 2, enums.TableModeNormal)
	b := h.createTable(t, "P3", 2, enums.TableModeNormal)
	h.openSession(t, 0, primary.ID)

	_, err := h.execute(a.ID, primary.ID, "")
	require.NoError(t, err)
	_, err = h.execute(b.ID, primary.ID, "")
	require.NoError(t, err)

	result, err := h.svc.Unmerge(ctx, UnmergeInput{TableID: primary.ID, ActorID: h.manager, ActorRole: enums.StaffRoleManager})
	require.NoError(t, err)
	assert.True(t, result.GroupReleased)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, result.ReleasedTableIDs)

	assert.Nil(t, h.reloadTable(t, a.ID).LinkedTo)
	assert.Nil(t, h.reloadTable(t, b.ID).LinkedTo)

	group, err := h.repo.ActiveGroupContaining(ctx, h.venueID, primary.ID)
	require.NoError(t, err)
	assert.Nil(t, group)
}

func TestUnmergeUnlinkedTableIsValidationError(t *testing.T) {
	h := newMergeHarness(t)
	table := h.createTable(t, "X1", 2, enums.TableModeNormal)

	_, err := h.svc.Unmerge(context.Background(), UnmergeInput{TableID: table.ID, ActorID: h.manager, ActorRole: enums.StaffRoleManager})
	requireErrCode(t, err, pkgerrors.CodeValidation)
}

func TestCandidatesDefaultShowsFreeOnly(t *testing.T) {
	h := newMergeHarness(t)
	ctx := context.Background()
	anchor := h.createTable(t, "A1", 4, enums.TableModeNormal)
	free := h.createTable(t, "A2", 2, enums.TableModeNormal)
	occupied := h.createTable(t, "A3", 2, enums.TableModeNormal)
	blocked := h.createTable(t, "A4", 2, enums.TableModeCleaning)
	h.openSession(t, 0, occupied.ID)

	candidates, err := h.svc.Candidates(ctx, anchor.ID, false)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, free.ID, candidates[0].ID)
	assert.True(t, candidates[0].Eligible)

	all, err := h.svc.Candidates(ctx, anchor.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	byID := make(map[uuid.UUID]Candidate, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	assert.True(t, byID[free.ID].Eligible)
	assert.True(t, byID[occupied.ID].Eligible) // free anchor can join the session
	assert.False(t, byID[blocked.ID].Eligible)
	assert.NotEmpty(t, byID[blocked.ID].Reason)
	assert.Equal(t, enums.TableStateBlocked, byID[blocked.ID].State)
}

func TestExecuteEmitsOutboxEvent(t *testing.T) {
	h := newMergeHarness(t)
	a := h.createTable(t, "E1", 2, enums.TableModeNormal)
	b := h.createTable(t, "E2", 2, enums.TableModeNormal)

	result, err := h.execute(a.ID, b.ID, "")
	require.NoError(t, err)

	var events []models.OutboxEvent
	require.NoError(t, h.db.Where("event_type = ?", enums.EventTablesMerged).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, result.GroupID, events[0].AggregateID)
	assert.Equal(t, enums.AggregateMergeGroup, events[0].AggregateType)
	assert.Nil(t, events[0].PublishedAt)
}

func TestHistoryPaginatesWithCursor(t *testing.T) {
	h := newMergeHarness(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		group := &models.MergeGroup{
			VenueID:           h.venueID,
			PrimaryTableID:    uuid.New(),
			SecondaryTableIDs: dbtypes.UUIDArray{uuid.New()},
			Scenario:          enums.MergeScenarioCombineFree,
			CombinedLabel:     "H" + uuid.NewString()[:4],
			CombinedSeats:     4,
			ConfirmedBy:       h.manager,
			Active:            false,
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, h.repo.InsertGroup(ctx, group))
	}

	first, err := h.svc.History(ctx, h.venueID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Groups, 2)
	require.NotEmpty(t, first.NextCursor)
	// Newest first.
	assert.True(t, first.Groups[0].CreatedAt.After(first.Groups[1].CreatedAt))

	second, err := h.svc.History(ctx, h.venueID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Groups, 1)
	assert.Empty(t, second.NextCursor)
	assert.True(t, second.Groups[0].CreatedAt.Before(first.Groups[1].CreatedAt))
}

func TestHistoryRejectsGarbageCursor(t *testing.T) {
	h := newMergeHarness(t)

	_, err := h.svc.History(context.Background(), h.venueID, pagination.Params{Cursor: "not-base64!!"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
