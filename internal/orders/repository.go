package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	"github.com/freshkart-labs/freshkart-backend/pkg/pagination"
)

// Repository owns order persistence. Order items are written once at
// creation and never updated.
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

// CreateTx inserts the order with its item snapshot inside the caller's
// transaction.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order) (*models.Order, error) {
	if err := tx.Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads one order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns one page of a user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where("user_id = ?", userID)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListAll returns one page across all customers for the fulfillment console.
func (r *Repository) ListAll(ctx context.Context, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListBySeller returns one page of orders that contain at least one of the
// seller's products, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.seller_id = ?", sellerID).
		Distinct("orders.*")
	if status != nil {
		q = q.Where("orders.status = ?", *status)
	}
	if cursor != nil {
		q = q.Where("(orders.created_at < ?) OR (orders.created_at = ? AND orders.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := q.Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// HasSellerItem reports whether the order carries at least one product
// belonging to the seller.
func (r *Repository) HasSellerItem(ctx context.Context, orderID, sellerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ? AND products.seller_id = ?", orderID, sellerID).
		Count(&count).Error
	return count > 0, err
}

// MarkCancelledTx flips the order to cancelled only while it is still in a
// cancellable state. Returns the number of rows changed so the caller can
// detect a lost race.
func (r *Repository) MarkCancelledTx(tx *gorm.DB, orderID uuid.UUID, at time.Time) (int64, error) {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", orderID, []enums.OrderStatus{
			enums.OrderStatusDelivered,
			enums.OrderStatusCancelled,
		}).
		Updates(map[string]interface{}{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": at,
		})
	return res.RowsAffected, res.Error
}

// AdvanceStatusTx moves the order from one fulfillment state to the next,
// guarded on the current state so concurrent advances cannot skip a step.
func (r *Repository) AdvanceStatusTx(tx *gorm.DB, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time) (int64, error) {
	updates := map[string]interface{}{"status": to}
	if to == enums.OrderStatusDelivered {
		updates["delivered_at"] = at
	}
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}
