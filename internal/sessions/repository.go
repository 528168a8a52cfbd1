package sessions

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

// Repository persists dining sessions. The tx-taking methods are the
// surface the merge executor drives inside its own transaction.
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

// FindByID loads a single session.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiningSession, error) {
	var session models.DiningSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a new session row.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, session *models.DiningSession) error {
	return tx.WithContext(ctx).Create(session).Error
}

// ActiveForTable returns the active session occupying the table, or nil.
// The table id appears in at most one active session at a time.
func (r *Repository) ActiveForTable(ctx context.Context, venueID, tableID uuid.UUID) (*models.DiningSession, error) {
	sessions, err := r.ListActive(ctx, venueID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].TableIDs.Contains(tableID) {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// ListActive loads every open session for the venue.
func (r *Repository) ListActive(ctx context.Context, venueID uuid.UUID) ([]models.DiningSession, error) {
	var sessions []models.DiningSession
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND status = ?", venueID, enums.SessionStatusActive).
		Order("opened_at ASC").
		Find(&sessions).Error
	return sessions, err
}

// AddBalance bumps the session's outstanding-balance accumulator. Delta
// may be negative when an order settles.
func (r *Repository) AddBalance(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, deltaCents int) error {
	return tx.WithContext(ctx).
		Model(&models.DiningSession{}).
		Where("id = ?", sessionID).
		Update("balance_cents", gorm.Expr("balance_cents + ?", deltaCents)).Error
}

// ExpandSessionTables grows an active session's table set. Used by the
// merge executor when a free table joins an occupied one.
func (r *Repository) ExpandSessionTables(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, tableIDs ...uuid.UUID) error {
	session, err := r.lockedActiveSession(ctx, tx, sessionID)
	if err != nil {
		return err
	}
	for _, id := range tableIDs {
		session.TableIDs = session.TableIDs.Append(id)
	}
	return tx.WithContext(ctx).
		Model(&models.DiningSession{}).
		Where("id = ?", sessionID).
		Update("table_ids", session.TableIDs).Error
}

// AbsorbSession folds one active session into another: the surviving
// session takes over the table set and the outstanding balance, and the
// absorbed session closes. Orders must already have been reassigned by
// the caller. Returns the transferred balance in cents.
func (r *Repository) AbsorbSession(ctx context.Context, tx *gorm.DB, fromSessionID, toSessionID uuid.UUID, closedAt time.Time) (int, error) {
	from, err := r.lockedActiveSession(ctx, tx, fromSessionID)
	if err != nil {
		return 0, err
	}
	to, err := r.lockedActiveSession(ctx, tx, toSessionID)
	if err != nil {
		return 0, err
	}

	transferred := from.BalanceCents
	for _, id := range from.TableIDs {
		to.TableIDs = to.TableIDs.Append(id)
	}

	err = tx.WithContext(ctx).
		Model(&models.DiningSession{}).
		Where("id = ?", toSessionID).
		Updates(map[string]any{
			"table_ids":     to.TableIDs,
			"balance_cents": gorm.Expr("balance_cents + ?", transferred),
		}).Error
	if err != nil {
		return 0, err
	}

	err = tx.WithContext(ctx).
		Model(&models.DiningSession{}).
		Where("id = ?", fromSessionID).
		Updates(map[string]any{
			"status":        enums.SessionStatusClosed,
			"closed_at":     closedAt,
			"balance_cents": 0,
		}).Error
	if err != nil {
		return 0, err
	}
	return transferred, nil
}

// Close marks a session closed.
func (r *Repository) Close(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, closedAt time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.DiningSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"status":    enums.SessionStatusClosed,
			"closed_at": closedAt,
		}).Error
}

func (r *Repository) lockedActiveSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*models.DiningSession, error) {
	var session models.DiningSession
	if err := tx.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, err
	}
	if session.Status != enums.SessionStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is not active")
	}
	return &session, nil
}
