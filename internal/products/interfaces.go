package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/pagination"
)

// ProductRepository abstracts catalog persistence so services can rebind to
// a transaction.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	GetForPurchase(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error)
	FindVisibleByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	FindOwnedByID(ctx context.Context, productID, sellerID uuid.UUID) (*models.Product, error)
	ListVisible(ctx context.Context, filter CatalogFilter) ([]models.Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	UpdateOwned(ctx context.Context, productID, sellerID uuid.UUID, updates map[string]any) (int64, error)
	SoftDeleteOwned(ctx context.Context, productID, sellerID uuid.UUID) (int64, error)
	AddImages(ctx context.Context, images []models.ProductImage) error
	ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error)
	DeleteImages(ctx context.Context, productID uuid.UUID, imageIDs []uuid.UUID) (int64, error)
}
