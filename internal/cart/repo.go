package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
)

// Repository exposes persistence operations for the pending-order cart.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindPendingByClient loads the buyer's open cart with its lines and product
// snapshots.
func (r *Repository) FindPendingByClient(ctx context.Context, clientID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Images").
		Where("client_id = ? AND status = ?", clientID, enums.OrderStatusPending).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreatePending inserts a fresh empty cart for the buyer. The partial unique
// index on (client_id) WHERE status='pending' rejects a second open cart.
func (r *Repository) CreatePending(ctx context.Context, clientID uuid.UUID) (*models.Order, error) {
	order := models.Order{
		ID:       uuid.New(),
		ClientID: clientID,
		Status:   enums.OrderStatusPending,
		Total:    decimal.Zero,
	}
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindItem returns the line for a product in the given order, if present.
func (r *Repository) FindItem(ctx context.Context, orderID, productID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItemQuantity sets the quantity on one line. The order must still be
// pending; a line in a checked-out order matches zero rows.
func (r *Repository) UpdateItemQuantity(ctx context.Context, orderID, productID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where(
			"order_id = ? AND product_id = ? AND order_id IN (SELECT id FROM orders WHERE status = ?)",
			orderID, productID, enums.OrderStatusPending,
		).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}

// StillPending reports whether the order has not been checked out yet.
func (r *Repository) StillPending(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Count(&count).Error
	return count > 0, err
}

// UpdateOwnedItemQuantity sets a line's quantity with ownership folded into
// the predicate: the line must sit in the buyer's own pending order. A
// cross-buyer item id matches zero rows.
func (r *Repository) UpdateOwnedItemQuantity(ctx context.Context, itemID, clientID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where(
			"id = ? AND order_id IN (SELECT id FROM orders WHERE client_id = ? AND status = ?)",
			itemID, clientID, enums.OrderStatusPending,
		).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}

// DeleteOwnedItem removes a line under the same ownership predicate.
func (r *Repository) DeleteOwnedItem(ctx context.Context, itemID, clientID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where(
			"id = ? AND order_id IN (SELECT id FROM orders WHERE client_id = ? AND status = ?)",
			itemID, clientID, enums.OrderStatusPending,
		).
		Delete(&models.OrderItem{})
	return res.RowsAffected, res.Error
}

// RecalculateTotal sums the line totals into orders.total.
func (r *Repository) RecalculateTotal(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE orders
		    SET total = COALESCE((
		        SELECT SUM(quantity * price_at_purchase)
		          FROM order_items
		         WHERE order_id = ?
		    ), 0),
		        updated_at = CURRENT_TIMESTAMP
		  WHERE id = ?`,
		orderID, orderID,
	).Error
}
