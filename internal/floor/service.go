package floor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
)

// Service exposes the read-side floor view: every table annotated with its
// derived state. Nothing here mutates; the endpoints backed by it are safe
// to poll at display refresh rates.
type Service interface {
	ListTables(ctx context.Context, venueID uuid.UUID) ([]TableView, error)
	GetTable(ctx context.Context, tableID uuid.UUID) (*TableView, error)
}

// TableView is a table row annotated with its derived state.
type TableView struct {
	ID            uuid.UUID        `json:"id"`
	Label         string           `json:"label"`
	SeatCount     int              `json:"seat_count"`
	Mode          enums.TableMode  `json:"mode"`
	State         enums.TableState `json:"state"`
	LinkedTo      *uuid.UUID       `json:"linked_to,omitempty"`
	SessionID     *uuid.UUID       `json:"session_id,omitempty"`
	ReservationID *uuid.UUID       `json:"reservation_id,omitempty"`
}

type service struct {
	repo    *Repository
	deriver *Deriver
	clock   func() time.Time
}

// NewService builds the floor read service.
func NewService(repo *Repository, deriver *Deriver) (Service, error) {
	if repo == nil {
		return nil, errors.New("floor repository required")
	}
	if deriver == nil {
		return nil, errors.New("state deriver required")
	}
	return &service{repo: repo, deriver: deriver, clock: time.Now}, nil
}

func (s *service) ListTables(ctx context.Context, venueID uuid.UUID) ([]TableView, error) {
	if venueID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "venue id required")
	}
	tables, err := s.repo.ListTables(ctx, venueID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing tables")
	}
	derived, err := s.deriver.deriveAll(ctx, venueID, tables, s.clock())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deriving table states")
	}
	views := make([]TableView, 0, len(tables))
	for _, table := range tables {
		views = append(views, viewFrom(derived[table.ID]))
	}
	return views, nil
}

func (s *service) GetTable(ctx context.Context, tableID uuid.UUID) (*TableView, error) {
	if tableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	table, err := s.repo.FindTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading table")
	}
	derivation, err := s.deriver.TableState(ctx, *table, s.clock())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deriving table state")
	}
	view := viewFrom(derivation)
	return &view, nil
}

func viewFrom(d Derivation) TableView {
	return TableView{
		ID:            d.Table.ID,
		Label:         d.Table.Label,
		SeatCount:     d.Table.SeatCount,
		Mode:          d.Table.Mode,
		State:         d.State,
		LinkedTo:      d.Table.LinkedTo,
		SessionID:     d.SessionID,
		ReservationID: d.ReservationID,
	}
}
