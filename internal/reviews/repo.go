package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/pagination"
)

// Repository exposes persistence operations for product reviews.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a review repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a review.
func (r *Repository) Create(ctx context.Context, review *models.ProductReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ListByProduct returns reviews for a product, newest first, keyset-paged,
// with the reviewer loaded for display.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ProductReview, error) {
	query := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID)

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var items []models.ProductReview
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Summary aggregates a product's rating.
type Summary struct {
	Count         int64   `json:"count"`
	AverageRating float64 `json:"average_rating"`
}

// Summarize computes count and mean rating for a product.
func (r *Repository) Summarize(ctx context.Context, productID uuid.UUID) (*Summary, error) {
	var summary Summary
	err := r.db.WithContext(ctx).
		Model(&models.ProductReview{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average_rating").
		Where("product_id = ?", productID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
