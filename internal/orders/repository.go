package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/enums"
)

// Repository persists orders. ReassignSessionOrders is the one mutation
// the merge executor performs here.
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

// FindByID loads a single order.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts a new order row.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

// ListForSession loads the session's orders in creation order.
func (r *Repository) ListForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// CountOpenForSession counts orders still awaiting payment.
func (r *Repository) CountOpenForSession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("session_id = ? AND status = ?", sessionID, enums.OrderStatusOpen).
		Count(&count).Error
	return count, err
}

// SumForSession totals the session's non-void orders in cents.
func (r *Repository) SumForSession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("session_id = ? AND status <> ?", sessionID, enums.OrderStatusVoid).
		Select("SUM(total_cents)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// ReassignSessionOrders moves every order from one session to another.
// Order ids and totals are untouched; reassignment is the only mutation a
// session merge performs on orders.
func (r *Repository) ReassignSessionOrders(ctx context.Context, tx *gorm.DB, fromSessionID, toSessionID uuid.UUID) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&models.Order{}).
		Where("session_id = ?", fromSessionID).
		Update("session_id", toSessionID)
	return result.RowsAffected, result.Error
}

// UpdateStatus transitions an order's status.
func (r *Repository) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.OrderStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}
