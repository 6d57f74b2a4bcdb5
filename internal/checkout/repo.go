package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
)

// Repository exposes the persistence operations checkout needs.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a checkout repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CheckoutRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindPendingOrder loads the order scoped to its owner and pending status,
// with lines and their products.
func (r *Repository) FindPendingOrder(ctx context.Context, orderID, clientID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("id = ? AND client_id = ? AND status = ?", orderID, clientID, enums.OrderStatusPending).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// DecrementStock is the atomic check-and-decrement: stock comes off only when
// the product is active and holds at least the requested quantity, in one
// statement. The affected-row count tells the caller whether it took.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE products
		    SET quantity = quantity - ?,
		        updated_at = CURRENT_TIMESTAMP
		  WHERE id = ?
		    AND is_active = ?
		    AND deleted_at IS NULL
		    AND quantity >= ?`,
		quantity, productID, true, quantity,
	)
	return res.RowsAffected, res.Error
}

// GetProduct re-reads a product inside the transaction, used to classify a
// failed decrement.
func (r *Repository) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// MarkPaid finalizes the order, re-checking ownership and pending status in
// the predicate so a double submit matches zero rows.
func (r *Repository) MarkPaid(ctx context.Context, orderID, clientID uuid.UUID, total decimal.Decimal, placedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND client_id = ? AND status = ?", orderID, clientID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":    enums.OrderStatusPaid,
			"total":     total,
			"placed_at": placedAt,
		})
	return res.RowsAffected, res.Error
}
