package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
)

// CheckoutRepository abstracts checkout persistence so the service can rebind
// to a transaction.
type CheckoutRepository interface {
	WithTx(tx *gorm.DB) CheckoutRepository
	FindPendingOrder(ctx context.Context, orderID, clientID uuid.UUID) (*models.Order, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int64, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	MarkPaid(ctx context.Context, orderID, clientID uuid.UUID, total decimal.Decimal, placedAt time.Time) (int64, error)
}
