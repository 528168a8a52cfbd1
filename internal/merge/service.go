package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/internal/floor"
	"github.com/floorops/floorops-backend/pkg/db"
	"github.com/floorops/floorops-backend/pkg/db/models"
	dbtypes "github.com/floorops/floorops-backend/pkg/db/types"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
	"github.com/floorops/floorops-backend/pkg/outbox"
	"github.com/floorops/floorops-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SessionMerger is the slice of the session subsystem the executor uses:
// expanding a session's table set and folding one session into another.
type SessionMerger interface {
	ExpandSessionTables(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, tableIDs ...uuid.UUID) error
	AbsorbSession(ctx context.Context, tx *gorm.DB, fromSessionID, toSessionID uuid.UUID, closedAt time.Time) (int, error)
}

// OrderMover reassigns a closed-out session's orders to the surviving
// session. The only order mutation a merge performs.
type OrderMover interface {
	ReassignSessionOrders(ctx context.Context, tx *gorm.DB, fromSessionID, toSessionID uuid.UUID) (int64, error)
}

// ReservationExpander grows a reservation's table set.
type ReservationExpander interface {
	AddReservationTables(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID, tableIDs ...uuid.UUID) error
}

// Service exposes merge classification, execution, unmerge and the ledger
// history.
type Service interface {
	Classify(ctx context.Context, sourceTableID, targetTableID uuid.UUID) (*ClassifyResult, error)
	Candidates(ctx context.Context, tableID uuid.UUID, includeAll bool) ([]Candidate, error)
	Execute(ctx context.Context, input ExecuteInput) (*MergeResult, error)
	Unmerge(ctx context.Context, input UnmergeInput) (*UnmergeResult, error)
	History(ctx context.Context, venueID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

// ClassifyResult annotates the verdict with the derived states it was
// computed from.
type ClassifyResult struct {
	SourceTableID uuid.UUID        `json:"source_table_id"`
	TargetTableID uuid.UUID        `json:"target_table_id"`
	SourceState   enums.TableState `json:"source_state"`
	TargetState   enums.TableState `json:"target_state"`
	Verdict       Verdict          `json:"verdict"`
}

// Candidate is one table in a merge-candidate listing.
type Candidate struct {
	ID                   uuid.UUID        `json:"id"`
	Label                string           `json:"label"`
	SeatCount            int              `json:"seat_count"`
	State                enums.TableState `json:"state"`
	Eligible             bool             `json:"eligible"`
	RequiresConfirmation bool             `json:"requires_confirmation"`
	Reason               string           `json:"reason,omitempty"`
}

// ExecuteInput carries an approved merge to the executor. ApprovedStrategy
// echoes the strategy the operator saw at classification time; when set,
// the executor treats any drift from it as a conflict.
type ExecuteInput struct {
	SourceTableID    uuid.UUID
	TargetTableID    uuid.UUID
	ConfirmationText string
	ApprovedStrategy enums.MergeScenario
	ActorID          uuid.UUID
	ActorRole        enums.StaffRole
}

// MergeResult describes the committed merge.
type MergeResult struct {
	GroupID           uuid.UUID           `json:"group_id"`
	Scenario          enums.MergeScenario `json:"scenario"`
	PrimaryTableID    uuid.UUID           `json:"primary_table_id"`
	SecondaryTableIDs []uuid.UUID         `json:"secondary_table_ids"`
	CombinedLabel     string              `json:"combined_label"`
	CombinedSeats     int                 `json:"combined_seats"`
	SessionID         *uuid.UUID          `json:"session_id,omitempty"`
	ReservationID     *uuid.UUID          `json:"reservation_id,omitempty"`
	OrdersMoved       int64               `json:"orders_moved"`
}

// UnmergeInput identifies the table to release and the acting operator.
type UnmergeInput struct {
	TableID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.StaffRole
}

// UnmergeResult describes the released linkage.
type UnmergeResult struct {
	GroupID          uuid.UUID   `json:"group_id"`
	ReleasedTableIDs []uuid.UUID `json:"released_table_ids"`
	GroupReleased    bool        `json:"group_released"`
}

// HistoryPage is one cursor page of the venue's merge ledger.
type HistoryPage struct {
	Groups     []models.MergeGroup `json:"groups"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// TablesMergedEvent is emitted when a merge commits.
type TablesMergedEvent struct {
	GroupID           uuid.UUID           `json:"group_id"`
	VenueID           uuid.UUID           `json:"venue_id"`
	PrimaryTableID    uuid.UUID           `json:"primary_table_id"`
	SecondaryTableIDs []uuid.UUID         `json:"secondary_table_ids"`
	Scenario          enums.MergeScenario `json:"scenario"`
	SessionID         *uuid.UUID          `json:"session_id,omitempty"`
	ReservationID     *uuid.UUID          `json:"reservation_id,omitempty"`
	OrdersMoved       int64               `json:"orders_moved"`
}

// ReservationJoinedEvent is emitted when a merge expands a reservation's
// table set.
type ReservationJoinedEvent struct {
	ReservationID uuid.UUID   `json:"reservation_id"`
	VenueID       uuid.UUID   `json:"venue_id"`
	TableIDs      []uuid.UUID `json:"table_ids"`
}

// TableUnmergedEvent is emitted when linkage is released.
type TableUnmergedEvent struct {
	GroupID          uuid.UUID   `json:"group_id"`
	VenueID          uuid.UUID   `json:"venue_id"`
	ReleasedTableIDs []uuid.UUID `json:"released_table_ids"`
	GroupReleased    bool        `json:"group_released"`
}

type service struct {
	repo         *Repository
	deriver      *floor.Deriver
	tx           txRunner
	outbox       outboxPublisher
	sessions     SessionMerger
	orders       OrderMover
	reservations ReservationExpander
	lockTimeout  time.Duration
	clock        func() time.Time
}

// NewService builds the merge service with the required dependencies.
func NewService(
	repo *Repository,
	deriver *floor.Deriver,
	tx txRunner,
	outboxSvc outboxPublisher,
	sessions SessionMerger,
	orders OrderMover,
	reservations ReservationExpander,
	lockTimeout time.Duration,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("merge repository required")
	}
	if deriver == nil {
		return nil, fmt.Errorf("state deriver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session merger required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order mover required")
	}
	if reservations == nil {
		return nil, fmt.Errorf("reservation expander required")
	}
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &service{
		repo:         repo,
		deriver:      deriver,
		tx:           tx,
		outbox:       outboxSvc,
		sessions:     sessions,
		orders:       orders,
		reservations: reservations,
		lockTimeout:  lockTimeout,
		clock:        time.Now,
	}, nil
}

func (s *service) Classify(ctx context.Context, sourceTableID, targetTableID uuid.UUID) (*ClassifyResult, error) {
	source, target, err := s.loadPair(ctx, sourceTableID, targetTableID)
	if err != nil {
		return nil, err
	}

	result := &ClassifyResult{SourceTableID: source.ID, TargetTableID: target.ID}

	// A linked secondary never classifies: the operator has to unmerge it
	// first. A linked target resolves to its primary so follow-on joins
	// stay flattened.
	if source.IsLinked() {
		result.Verdict = Verdict{Kind: VerdictBlocked, Reason: "table is already part of a merge group"}
		return result, nil
	}
	if target.IsLinked() {
		target, err = s.repo.FindTable(ctx, *target.LinkedTo)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving merge primary")
		}
		result.TargetTableID = target.ID
		if target.ID == source.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tables are already merged together")
		}
	}

	states, err := s.deriver.VenueStates(ctx, source.VenueID, s.clock())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deriving table states")
	}
	sourceDeriv, targetDeriv := states[source.ID], states[target.ID]
	result.SourceState = sourceDeriv.State
	result.TargetState = targetDeriv.State
	result.Verdict = Classify(ClassifyInput{
		SourceState:         sourceDeriv.State,
		TargetState:         targetDeriv.State,
		SourceReservationID: sourceDeriv.ReservationID,
		TargetReservationID: targetDeriv.ReservationID,
	})
	return result, nil
}

func (s *service) Candidates(ctx context.Context, tableID uuid.UUID, includeAll bool) ([]Candidate, error) {
	if tableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	anchor, err := s.repo.FindTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading table")
	}

	derivations, err := s.deriver.VenueDerivations(ctx, anchor.VenueID, s.clock())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deriving table states")
	}

	var anchorDeriv floor.Derivation
	for _, d := range derivations {
		if d.Table.ID == anchor.ID {
			anchorDeriv = d
			break
		}
	}

	candidates := make([]Candidate, 0, len(derivations))
	for _, d := range derivations {
		if d.Table.ID == anchor.ID {
			continue
		}
		candidate := Candidate{
			ID:        d.Table.ID,
			Label:     d.Table.Label,
			SeatCount: d.Table.SeatCount,
			State:     d.State,
		}
		switch {
		case d.Table.IsLinked():
			candidate.Reason = "already part of a merge group"
		default:
			verdict := Classify(ClassifyInput{
				SourceState:         anchorDeriv.State,
				TargetState:         d.State,
				SourceReservationID: anchorDeriv.ReservationID,
				TargetReservationID: d.ReservationID,
			})
			candidate.Eligible = verdict.Allowed()
			candidate.RequiresConfirmation = verdict.Kind == VerdictAllowedWithConfirmation
			candidate.Reason = verdict.Reason
		}
		// The default picker view is safety-first: free, unlinked tables
		// only.
		if !includeAll && (d.State != enums.TableStateFree || !candidate.Eligible) {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (s *service) Execute(ctx context.Context, input ExecuteInput) (*MergeResult, error) {
	if !input.ActorRole.CanMergeTables() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot merge tables")
	}
	source, target, err := s.loadPair(ctx, input.SourceTableID, input.TargetTableID)
	if err != nil {
		return nil, err
	}
	if source.IsLinked() {
		return nil, pkgerrors.New(pkgerrors.CodeMergeConflict, "source table is already part of a merge group")
	}
	if target.IsLinked() {
		target, err = s.repo.FindTable(ctx, *target.LinkedTo)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving merge primary")
		}
		if target.ID == source.ID {
			return nil, pkgerrors.New(pkgerrors.CodeMergeConflict, "tables are already merged together")
		}
	}

	now := s.clock()
	states, err := s.deriver.VenueStates(ctx, source.VenueID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deriving table states")
	}
	approved := Classify(ClassifyInput{
		SourceState:         states[source.ID].State,
		TargetState:         states[target.ID].State,
		SourceReservationID: states[source.ID].ReservationID,
		TargetReservationID: states[target.ID].ReservationID,
	})
	if input.ApprovedStrategy != "" && approved.Strategy != input.ApprovedStrategy {
		return nil, pkgerrors.New(pkgerrors.CodeMergeConflict, "table state changed since classification")
	}
	if approved.Kind == VerdictBlocked {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, approved.Reason)
	}
	if err := Confirm(approved, input.ConfirmationText); err != nil {
		return nil, err
	}

	var result *MergeResult
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetLockTimeout(ctx, s.lockTimeout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "setting lock timeout")
		}

		locked, err := repo.FindTablesLocked(ctx, []uuid.UUID{source.ID, target.ID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locking tables")
		}
		if len(locked) != 2 {
			return pkgerrors.New(pkgerrors.CodeMergeConflict, "table disappeared during merge")
		}
		var freshSource, freshTarget models.Table
		for _, row := range locked {
			switch row.ID {
			case source.ID:
				freshSource = row
			case target.ID:
				freshTarget = row
			}
		}
		// Another merge committed between classification and now.
		if freshSource.Version != source.Version || freshTarget.Version != target.Version {
			return pkgerrors.New(pkgerrors.CodeMergeConflict, "table state changed, try again")
		}
		if freshSource.IsLinked() || (freshTarget.IsLinked() && *freshTarget.LinkedTo != freshSource.ID) {
			return pkgerrors.New(pkgerrors.CodeMergeConflict, "table state changed, try again")
		}

		txDeriver := s.deriver.WithTx(tx)
		freshStates, err := txDeriver.VenueStates(ctx, source.VenueID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-deriving table states")
		}
		fresh := Classify(ClassifyInput{
			SourceState:         freshStates[source.ID].State,
			TargetState:         freshStates[target.ID].State,
			SourceReservationID: freshStates[source.ID].ReservationID,
			TargetReservationID: freshStates[target.ID].ReservationID,
		})
		if !fresh.Equal(approved) {
			return pkgerrors.New(pkgerrors.CodeMergeConflict, "table state changed, try again")
		}

		result, err = s.applyStrategy(ctx, tx, repo, fresh, freshSource, freshTarget, freshStates, input.ActorID, now)
		if err != nil {
			return err
		}

		actor := &outbox.ActorRef{StaffID: input.ActorID, VenueID: source.VenueID, Role: input.ActorRole.String()}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTablesMerged,
			AggregateType: enums.AggregateMergeGroup,
			AggregateID:   result.GroupID,
			Actor:         actor,
			Data: TablesMergedEvent{
				GroupID:           result.GroupID,
				VenueID:           source.VenueID,
				PrimaryTableID:    result.PrimaryTableID,
				SecondaryTableIDs: result.SecondaryTableIDs,
				Scenario:          result.Scenario,
				SessionID:         result.SessionID,
				ReservationID:     result.ReservationID,
				OrdersMoved:       result.OrdersMoved,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if txErr != nil {
		if db.IsLockContention(txErr) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeMergeConflict, txErr, "could not lock tables, try again")
		}
		if typed := pkgerrors.As(txErr); typed != nil {
			return nil, txErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "merge transaction failed")
	}
	return result, nil
}

// applyStrategy performs the scenario's mutations and writes the ledger
// entry. Runs inside the executor's transaction.
func (s *service) applyStrategy(
	ctx context.Context,
	tx *gorm.DB,
	repo *Repository,
	verdict Verdict,
	source, target models.Table,
	states map[uuid.UUID]floor.Derivation,
	actorID uuid.UUID,
	now time.Time,
) (*MergeResult, error) {
	result := &MergeResult{Scenario: verdict.Strategy}
	var primary, secondary models.Table

	switch verdict.Strategy {
	case enums.MergeScenarioCombineFree:
		// No billing identity exists yet; the first-picked table anchors
		// the combined unit.
		primary, secondary = source, target

	case enums.MergeScenarioJoinSession:
		primary, secondary = target, source
		if states[source.ID].State == enums.TableStateOccupied {
			primary, secondary = source, target
		}
		sessionID := states[primary.ID].SessionID
		if sessionID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeMergeConflict, "occupied table has no active session")
		}
		if err := s.sessions.ExpandSessionTables(ctx, tx, *sessionID, secondary.ID); err != nil {
			return nil, err
		}
		result.SessionID = sessionID

	case enums.MergeScenarioJoinReservation:
		primary, secondary = target, source
		if states[source.ID].State == enums.TableStateReserved {
			primary, secondary = source, target
		}
		reservationID := states[primary.ID].ReservationID
		if reservationID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeMergeConflict, "reserved table has no holding reservation")
		}
		if err := s.reservations.AddReservationTables(ctx, tx, *reservationID, secondary.ID); err != nil {
			return nil, err
		}
		if err := s.emitReservationJoined(ctx, tx, *reservationID, primary.VenueID, actorID, now, secondary.ID); err != nil {
			return nil, err
		}
		result.ReservationID = reservationID

	case enums.MergeScenarioCombineSessions:
		// The operator merges the source's bill into the target's.
		primary, secondary = target, source
		fromSession := states[secondary.ID].SessionID
		toSession := states[primary.ID].SessionID
		if fromSession == nil || toSession == nil {
			return nil, pkgerrors.New(pkgerrors.CodeMergeConflict, "occupied table has no active session")
		}
		moved, err := s.orders.ReassignSessionOrders(ctx, tx, *fromSession, *toSession)
		if err != nil {
			return nil, err
		}
		if _, err := s.sessions.AbsorbSession(ctx, tx, *fromSession, *toSession, now); err != nil {
			return nil, err
		}
		result.SessionID = toSession
		result.OrdersMoved = moved

	case enums.MergeScenarioGroupReservation:
		primary, secondary = target, source
		reservationID := states[primary.ID].ReservationID
		if reservationID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeMergeConflict, "reserved table has no holding reservation")
		}
		if err := s.reservations.AddReservationTables(ctx, tx, *reservationID, primary.ID, secondary.ID); err != nil {
			return nil, err
		}
		if err := s.emitReservationJoined(ctx, tx, *reservationID, primary.VenueID, actorID, now, primary.ID, secondary.ID); err != nil {
			return nil, err
		}
		result.ReservationID = reservationID

	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown merge strategy")
	}

	ok, err := repo.LinkTable(ctx, secondary.ID, primary.ID, secondary.Version)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "linking table")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeMergeConflict, "table state changed, try again")
	}
	ok, err = repo.BumpTableVersion(ctx, primary.ID, primary.Version)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating primary table")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeMergeConflict, "table state changed, try again")
	}

	group, err := s.upsertGroup(ctx, repo, verdict.Strategy, primary, secondary, actorID)
	if err != nil {
		return nil, err
	}

	result.GroupID = group.ID
	result.PrimaryTableID = group.PrimaryTableID
	result.SecondaryTableIDs = group.SecondaryTableIDs
	result.CombinedLabel = group.CombinedLabel
	result.CombinedSeats = group.CombinedSeats
	return result, nil
}

func (s *service) emitReservationJoined(ctx context.Context, tx *gorm.DB, reservationID, venueID, actorID uuid.UUID, now time.Time, tableIDs ...uuid.UUID) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReservationJoined,
		AggregateType: enums.AggregateReservation,
		AggregateID:   reservationID,
		Actor:         &outbox.ActorRef{StaffID: actorID, VenueID: venueID},
		Data: ReservationJoinedEvent{
			ReservationID: reservationID,
			VenueID:       venueID,
			TableIDs:      tableIDs,
		},
		Version:    1,
		OccurredAt: now,
	})
}

// upsertGroup appends to the primary's active ledger entry when one
// exists (a follow-on join into an already-merged group) and creates a
// fresh entry otherwise.
func (s *service) upsertGroup(ctx context.Context, repo *Repository, scenario enums.MergeScenario, primary, secondary models.Table, actorID uuid.UUID) (*models.MergeGroup, error) {
	existing, err := repo.ActiveGroupByPrimary(ctx, primary.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading merge group")
	}
	if existing != nil {
		existing.SecondaryTableIDs = existing.SecondaryTableIDs.Append(secondary.ID)
		existing.CombinedLabel = existing.CombinedLabel + "+" + secondary.Label
		existing.CombinedSeats += secondary.SeatCount
		if err := repo.UpdateGroup(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating merge group")
		}
		return existing, nil
	}

	group := &models.MergeGroup{
		VenueID:           primary.VenueID,
		PrimaryTableID:    primary.ID,
		SecondaryTableIDs: dbtypes.UUIDArray{secondary.ID},
		Scenario:          scenario,
		CombinedLabel:     primary.Label + "+" + secondary.Label,
		CombinedSeats:     primary.SeatCount + secondary.SeatCount,
		ConfirmedBy:       actorID,
		Active:            true,
	}
	if err := repo.InsertGroup(ctx, group); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording merge group")
	}
	return group, nil
}

func (s *service) Unmerge(ctx context.Context, input UnmergeInput) (*UnmergeResult, error) {
	if !input.ActorRole.CanMergeTables() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot unmerge tables")
	}
	if input.TableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	table, err := s.repo.FindTable(ctx, input.TableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown table id")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading table")
	}

	now := s.clock()
	var result *UnmergeResult
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetLockTimeout(ctx, s.lockTimeout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "setting lock timeout")
		}
		group, err := repo.ActiveGroupContaining(ctx, table.VenueID, table.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading merge group")
		}
		if group == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "table is not part of an active merge group")
		}

		if group.PrimaryTableID == table.ID {
			// Unmerging the primary dissolves the whole group.
			released := make([]uuid.UUID, 0, len(group.SecondaryTableIDs))
			for _, id := range group.SecondaryTableIDs {
				if err := repo.UnlinkTable(ctx, id); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlinking table")
				}
				released = append(released, id)
			}
			if err := repo.ReleaseGroup(ctx, group.ID, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "releasing merge group")
			}
			result = &UnmergeResult{GroupID: group.ID, ReleasedTableIDs: released, GroupReleased: true}
		} else {
			if err := repo.UnlinkTable(ctx, table.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlinking table")
			}
			group.SecondaryTableIDs = group.SecondaryTableIDs.Remove(table.ID)
			group.CombinedSeats -= table.SeatCount
			if len(group.SecondaryTableIDs) == 0 {
				group.Active = false
				group.ReleasedAt = &now
			}
			if err := s.rebuildGroupLabel(ctx, repo, group); err != nil {
				return err
			}
			if err := repo.UpdateGroup(ctx, group); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating merge group")
			}
			result = &UnmergeResult{GroupID: group.ID, ReleasedTableIDs: []uuid.UUID{table.ID}, GroupReleased: !group.Active}
		}

		actor := &outbox.ActorRef{StaffID: input.ActorID, VenueID: table.VenueID, Role: input.ActorRole.String()}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTableUnmerged,
			AggregateType: enums.AggregateMergeGroup,
			AggregateID:   result.GroupID,
			Actor:         actor,
			Data: TableUnmergedEvent{
				GroupID:          result.GroupID,
				VenueID:          table.VenueID,
				ReleasedTableIDs: result.ReleasedTableIDs,
				GroupReleased:    result.GroupReleased,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if txErr != nil {
		if typed := pkgerrors.As(txErr); typed != nil {
			return nil, txErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "unmerge transaction failed")
	}
	return result, nil
}

func (s *service) rebuildGroupLabel(ctx context.Context, repo *Repository, group *models.MergeGroup) error {
	primary, err := repo.FindTable(ctx, group.PrimaryTableID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading primary table")
	}
	labels := []string{primary.Label}
	for _, id := range group.SecondaryTableIDs {
		secondary, err := repo.FindTable(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading secondary table")
		}
		labels = append(labels, secondary.Label)
	}
	group.CombinedLabel = strings.Join(labels, "+")
	return nil
}

func (s *service) History(ctx context.Context, venueID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if venueID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "venue id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	groups, err := s.repo.ListGroups(ctx, venueID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing merge history")
	}

	page := &HistoryPage{Groups: groups}
	if len(groups) > limit {
		page.Groups = groups[:limit]
		last := page.Groups[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// loadPair loads and validates the source and target tables shared by
// Classify and Execute.
func (s *service) loadPair(ctx context.Context, sourceTableID, targetTableID uuid.UUID) (*models.Table, *models.Table, error) {
	if sourceTableID == uuid.Nil || targetTableID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "source and target table ids required")
	}
	if sourceTableID == targetTableID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "a table cannot merge with itself")
	}
	source, err := s.repo.FindTable(ctx, sourceTableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown source table id")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading source table")
	}
	target, err := s.repo.FindTable(ctx, targetTableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown target table id")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading target table")
	}
	if source.VenueID != target.VenueID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tables belong to different venues")
	}
	return source, target, nil
}
