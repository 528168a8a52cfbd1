package floor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/enums"
)

// Facts are the independent inputs a table's logical state is computed
// from. They carry no identity so Compute stays a pure function.
type Facts struct {
	Mode               enums.TableMode
	InActiveSession    bool
	HasOpenOrder       bool
	HoldingReservation bool
}

// Compute projects facts onto a single table state. Precedence is strict
// and first match wins: an operator-set blocking mode beats a live session,
// and a live session beats an upcoming reservation.
func Compute(f Facts) enums.TableState {
	switch {
	case f.Mode == enums.TableModeCleaning || f.Mode == enums.TableModeOutOfService:
		return enums.TableStateBlocked
	case f.InActiveSession || f.HasOpenOrder:
		return enums.TableStateOccupied
	case f.HoldingReservation:
		return enums.TableStateReserved
	default:
		return enums.TableStateFree
	}
}

// Derivation is one table's computed state plus the facts that produced it,
// kept so callers (merge classification, floor views) can see which session
// or reservation claims the table.
type Derivation struct {
	Table         models.Table
	State         enums.TableState
	SessionID     *uuid.UUID
	ReservationID *uuid.UUID
}

// Deriver computes table states for a venue. It holds no mutable state and
// is safe for concurrent use; WithTx rebinds it to a transaction when the
// caller needs a consistent in-transaction read.
type Deriver struct {
	repo      *Repository
	lookahead time.Duration
}

// NewDeriver builds a deriver with the venue's reservation look-ahead
// window.
func NewDeriver(repo *Repository, lookahead time.Duration) (*Deriver, error) {
	if repo == nil {
		return nil, fmt.Errorf("floor repository required")
	}
	if lookahead <= 0 {
		return nil, fmt.Errorf("reservation lookahead must be positive")
	}
	return &Deriver{repo: repo, lookahead: lookahead}, nil
}

// WithTx returns a deriver whose reads go through the provided transaction.
func (d *Deriver) WithTx(tx *gorm.DB) *Deriver {
	return &Deriver{repo: d.repo.WithTx(tx), lookahead: d.lookahead}
}

// VenueStates derives the state of every table in the venue as of now,
// keyed by table id. The facts are loaded once per call, so deriving a
// whole floor costs a fixed number of queries regardless of table count.
func (d *Deriver) VenueStates(ctx context.Context, venueID uuid.UUID, now time.Time) (map[uuid.UUID]Derivation, error) {
	tables, err := d.repo.ListTables(ctx, venueID)
	if err != nil {
		return nil, err
	}
	return d.deriveAll(ctx, venueID, tables, now)
}

// VenueDerivations is VenueStates with a stable label ordering, for views
// and candidate lists.
func (d *Deriver) VenueDerivations(ctx context.Context, venueID uuid.UUID, now time.Time) ([]Derivation, error) {
	tables, err := d.repo.ListTables(ctx, venueID)
	if err != nil {
		return nil, err
	}
	derived, err := d.deriveAll(ctx, venueID, tables, now)
	if err != nil {
		return nil, err
	}
	out := make([]Derivation, 0, len(tables))
	for _, table := range tables {
		out = append(out, derived[table.ID])
	}
	return out, nil
}

// TableState derives one table's state as of now.
func (d *Deriver) TableState(ctx context.Context, table models.Table, now time.Time) (Derivation, error) {
	derived, err := d.deriveAll(ctx, table.VenueID, []models.Table{table}, now)
	if err != nil {
		return Derivation{}, err
	}
	return derived[table.ID], nil
}

func (d *Deriver) deriveAll(ctx context.Context, venueID uuid.UUID, tables []models.Table, now time.Time) (map[uuid.UUID]Derivation, error) {
	sessions, err := d.repo.ActiveSessions(ctx, venueID)
	if err != nil {
		return nil, err
	}
	sessionIDs := make([]uuid.UUID, 0, len(sessions))
	for _, s := range sessions {
		sessionIDs = append(sessionIDs, s.ID)
	}
	withOpenOrders, err := d.repo.OpenOrderSessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}
	reservations, err := d.repo.HoldingReservations(ctx, venueID, now, now.Add(d.lookahead))
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]Derivation, len(tables))
	for _, table := range tables {
		derivation := Derivation{Table: table}
		facts := Facts{Mode: table.Mode}
		for i := range sessions {
			if sessions[i].TableIDs.Contains(table.ID) {
				facts.InActiveSession = true
				facts.HasOpenOrder = withOpenOrders[sessions[i].ID]
				id := sessions[i].ID
				derivation.SessionID = &id
				break
			}
		}
		// Reservations are slot-start ordered, so the first hit is the
		// one that makes the table RESERVED.
		for i := range reservations {
			if reservations[i].TableIDs.Contains(table.ID) {
				facts.HoldingReservation = true
				id := reservations[i].ID
				derivation.ReservationID = &id
				break
			}
		}
		derivation.State = Compute(facts)
		result[table.ID] = derivation
	}
	return result, nil
}
