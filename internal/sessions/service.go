package sessions

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
	"github.com/floorops/floorops-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type openOrderCounter interface {
	CountOpenForSession(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

// Service seats and closes parties. Table linkage is never touched here;
// that belongs to the merge executor.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.DiningSession, error)
	Close(ctx context.Context, input CloseInput) (*models.DiningSession, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*models.DiningSession, error)
	ListActive(ctx context.Context, venueID uuid.UUID) ([]models.DiningSession, error)
}

// OpenInput seats a party on one or more tables.
type OpenInput struct {
	VenueID   uuid.UUID
	TableIDs  []uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.StaffRole
}

// CloseInput closes a fully paid session.
type CloseInput struct {
	SessionID uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.StaffRole
}

// SessionOpenedEvent is emitted when a party is seated.
type SessionOpenedEvent struct {
	SessionID uuid.UUID   `json:"session_id"`
	VenueID   uuid.UUID   `json:"venue_id"`
	TableIDs  []uuid.UUID `json:"table_ids"`
}

// SessionClosedEvent is emitted when a session closes.
type SessionClosedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	VenueID   uuid.UUID `json:"venue_id"`
}

type tableReader interface {
	FindTable(ctx context.Context, id uuid.UUID) (*models.Table, error)
}

type service struct {
	repo   *Repository
	tables tableReader
	orders openOrderCounter
	tx     txRunner
	outbox outboxPublisher
	clock  func() time.Time
}

// NewService builds the session service.
func NewService(repo *Repository, tables tableReader, orders openOrderCounter, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if tables == nil {
		return nil, fmt.Errorf("table reader required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order counter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   repo,
		tables: tables,
		orders: orders,
		tx:     tx,
		outbox: outboxSvc,
		clock:  time.Now,
	}, nil
}

func (s *service) Open(ctx context.Context, input OpenInput) (*models.DiningSession, error) {
	if input.VenueID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "venue id required")
	}
	if len(input.TableIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one table id required")
	}

	seen := make(map[uuid.UUID]bool, len(input.TableIDs))
	for _, tableID := range input.TableIDs {
		if seen[tableID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate table id")
		}
		seen[tableID] = true

		table, err := s.tables.FindTable(ctx, tableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown table id")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading table")
		}
		if table.VenueID != input.VenueID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "table belongs to a different venue")
		}
		occupied, err := s.repo.ActiveForTable(ctx, input.VenueID, tableID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking table occupancy")
		}
		if occupied != nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "table already has an active session")
		}
	}

	now := s.clock()
	session := &models.DiningSession{
		VenueID:  input.VenueID,
		TableIDs: dbtypes.UUIDArray(input.TableIDs),
		Status:   enums.SessionStatusActive,
		OpenedAt: now,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, session); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSessionOpened,
			AggregateType: enums.AggregateSession,
			AggregateID:   session.ID,
			Actor:         &outbox.ActorRef{StaffID: input.ActorID, VenueID: input.VenueID, Role: input.ActorRole.String()},
			Data: SessionOpenedEvent{
				SessionID: session.ID,
				VenueID:   input.VenueID,
				TableIDs:  input.TableIDs,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "opening session")
	}
	return session, nil
}

func (s *service) Close(ctx context.Context, input CloseInput) (*models.DiningSession, error) {
	if input.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	session, err := s.repo.FindByID(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading session")
	}
	if session.Status != enums.SessionStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is already closed")
	}
	open, err := s.orders.CountOpenForSession(ctx, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting open orders")
	}
	if open > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session still has open orders")
	}

	now := s.clock()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Close(ctx, tx, session.ID, now); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSessionClosed,
			AggregateType: enums.AggregateSession,
			AggregateID:   session.ID,
			Actor:         &outbox.ActorRef{StaffID: input.ActorID, VenueID: session.VenueID, Role: input.ActorRole.String()},
			Data: SessionClosedEvent{
				SessionID: session.ID,
				VenueID:   session.VenueID,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "closing session")
	}
	session.Status = enums.SessionStatusClosed
	session.ClosedAt = &now
	return session, nil
}

func (s *service) Get(ctx context.Context, sessionID uuid.UUID) (*models.DiningSession, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading session")
	}
	return session, nil
}

func (s *service) ListActive(ctx context.Context, venueID uuid.UUID) ([]models.DiningSession, error) {
	if venueID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "venue id required")
	}
	sessions, err := s.repo.ListActive(ctx, venueID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing sessions")
	}
	return sessions, nil
}
