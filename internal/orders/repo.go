package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	"github.com/handcrafted-haven/marketplace-backend/pkg/pagination"
)

// Repository exposes read operations over placed orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListPlacedByClient returns the buyer's non-pending orders, newest first,
// keyset-paged.
func (r *Repository) ListPlacedByClient(ctx context.Context, clientID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("client_id = ? AND status <> ?", clientID, enums.OrderStatusPending)

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var items []models.Order
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindPlacedByIDAndClient loads one non-pending order scoped to its owner,
// for the confirmation and detail views.
func (r *Repository) FindPlacedByIDAndClient(ctx context.Context, orderID, clientID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Images").
		Where("id = ? AND client_id = ? AND status <> ?", orderID, clientID, enums.OrderStatusPending).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
