package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiningSession, error)
	AddBalance(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, deltaCents int) error
}

// Service is the order intake surface. Ordering proper (menu items, kitchen
// routing) lives elsewhere; this covers what billing and the merge engine
// need: attach a bill line to a session, settle it, list it.
type Service interface {
	Add(ctx context.Context, input AddInput) (*models.Order, error)
	Settle(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error)
}

// AddInput attaches a new bill line to an active session.
type AddInput struct {
	SessionID  uuid.UUID
	Label      string
	TotalCents int
}

type service struct {
	repo     *Repository
	sessions sessionReader
	tx       txRunner
}

// NewService builds the order service.
func NewService(repo *Repository, sessions sessionReader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, sessions: sessions, tx: tx}, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*models.Order, error) {
	if input.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if input.Label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order label required")
	}
	if input.TotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative")
	}
	session, err := s.sessions.FindByID(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown session id")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading session")
	}
	if session.Status != enums.SessionStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is closed")
	}

	order := &models.Order{
		SessionID:  input.SessionID,
		Label:      input.Label,
		TotalCents: input.TotalCents,
		Status:     enums.OrderStatusOpen,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, order); err != nil {
			return err
		}
		return s.sessions.AddBalance(ctx, tx, input.SessionID, input.TotalCents)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
	}
	return order, nil
}

func (s *service) Settle(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order.Status != enums.OrderStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not open")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatus(ctx, tx, orderID, enums.OrderStatusPaid); err != nil {
			return err
		}
		return s.sessions.AddBalance(ctx, tx, order.SessionID, -order.TotalCents)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settling order")
	}
	order.Status = enums.OrderStatusPaid
	return order, nil
}

func (s *service) ListForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	orders, err := s.repo.ListForSession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return orders, nil
}
