package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
)

// Repository owns cart and cart item persistence.
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

// FindByUserID loads the user's cart with item lines and their products,
// ordered by insertion.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the user's cart, creating an empty one on first access.
// Concurrent first accesses collapse onto the same row through the unique
// user_id index.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.Cart{UserID: userID}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserID(ctx, userID)
}

// UpsertItem adds a product line or bumps its quantity when the (cart,
// product) pair already exists. The conflict clause keeps concurrent adds
// from losing increments.
func (r *Repository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	item := &models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  qty,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("quantity + ?", qty),
			}),
		}).
		Create(item).Error
}

// FindItem loads one cart line by its ID.
func (r *Repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// AdjustItemQuantity applies a relative quantity change as a single column
// update so concurrent adjustments are not lost.
func (r *Repository) AdjustItemQuantity(ctx context.Context, itemID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta)).Error
}

// DecreaseOrDeleteItem applies a decrease as two guarded statements so
// concurrent decreases can never leave a line at zero: a line already at
// quantity one is deleted, anything higher is decremented only while it is
// still above one.
func (r *Repository) DecreaseOrDeleteItem(ctx context.Context, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND quantity <= 1", itemID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND quantity > 1", itemID).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", 1)).Error
}

// DeleteItem removes one cart line.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// ConsumeItemsTx deletes the given cart lines inside the caller's
// transaction and reports how many were still present. The cart row itself
// stays. A shortfall means another transaction already consumed part of the
// cart; callers treat that as a lost race.
func (r *Repository) ConsumeItemsTx(tx *gorm.DB, cartID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := tx.Where("cart_id = ? AND id IN ?", cartID, itemIDs).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
