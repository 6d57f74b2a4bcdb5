package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
)

// CartRepository abstracts cart persistence so services can rebind to a
// transaction.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindPendingByClient(ctx context.Context, clientID uuid.UUID) (*models.Order, error)
	CreatePending(ctx context.Context, clientID uuid.UUID) (*models.Order, error)
	FindItem(ctx context.Context, orderID, productID uuid.UUID) (*models.OrderItem, error)
	CreateItem(ctx context.Context, item *models.OrderItem) error
	UpdateItemQuantity(ctx context.Context, orderID, productID uuid.UUID, quantity int) (int64, error)
	StillPending(ctx context.Context, orderID uuid.UUID) (bool, error)
	UpdateOwnedItemQuantity(ctx context.Context, itemID, clientID uuid.UUID, quantity int) (int64, error)
	DeleteOwnedItem(ctx context.Context, itemID, clientID uuid.UUID) (int64, error)
	RecalculateTotal(ctx context.Context, orderID uuid.UUID) error
}
