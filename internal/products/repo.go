package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	"github.com/handcrafted-haven/marketplace-backend/pkg/pagination"
)

// Repository exposes persistence operations for the product catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetForPurchase loads a product for cart validation, optionally inside the
// caller's transaction.
func (r *Repository) GetForPurchase(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var product models.Product
	err := db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVisibleByID loads an active, non-deleted product with its gallery.
func (r *Repository) FindVisibleByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.position ASC")
		}).
		Where("id = ? AND is_active = ? AND deleted_at IS NULL", productID, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindOwnedByID loads a seller's own product regardless of active state.
func (r *Repository) FindOwnedByID(ctx context.Context, productID, sellerID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.position ASC")
		}).
		Where("id = ? AND seller_id = ? AND deleted_at IS NULL", productID, sellerID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CatalogFilter narrows the public product listing.
type CatalogFilter struct {
	Search   string
	Category enums.ProductCategory
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Cursor   *pagination.Cursor
	Limit    int
}

// ListVisible returns active in-stock products, newest first, keyset-paged.
// It fetches one row past the limit so the caller can detect a next page.
func (r *Repository) ListVisible(ctx context.Context, filter CatalogFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.position ASC")
		}).
		Where("is_active = ? AND deleted_at IS NULL AND quantity > 0", true)

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(description) LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	var items []models.Product
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListBySeller returns a seller's own listings, newest first, keyset-paged.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.position ASC")
		}).
		Where("seller_id = ? AND deleted_at IS NULL", sellerID)

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var items []models.Product
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateOwned applies field updates scoped to the owning seller, returning
// the affected-row count so a foreign product id reads as missing.
func (r *Repository) UpdateOwned(ctx context.Context, productID, sellerID uuid.UUID, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND seller_id = ? AND deleted_at IS NULL", productID, sellerID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// SoftDeleteOwned retires a listing: deactivated and tombstoned, never
// removed, so order history keeps its product references.
func (r *Repository) SoftDeleteOwned(ctx context.Context, productID, sellerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND seller_id = ? AND deleted_at IS NULL", productID, sellerID).
		Updates(map[string]any{
			"is_active":  false,
			"deleted_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	return res.RowsAffected, res.Error
}

// AddImages inserts gallery rows for a product.
func (r *Repository) AddImages(ctx context.Context, images []models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

// ListImages returns the gallery for a product in display order.
func (r *Repository) ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteImages removes gallery rows by id for the given product.
func (r *Repository) DeleteImages(ctx context.Context, productID uuid.UUID, imageIDs []uuid.UUID) (int64, error) {
	if len(imageIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("product_id = ? AND id IN ?", productID, imageIDs).
		Delete(&models.ProductImage{})
	return res.RowsAffected, res.Error
}
