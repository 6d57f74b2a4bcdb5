package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/pagination"
)

const maxCommentLen = 2000

type productChecker interface {
	FindVisibleByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

type reviewStore interface {
	Create(ctx context.Context, review *models.ProductReview) error
	ListByProduct(ctx context.Context, productID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ProductReview, error)
	Summarize(ctx context.Context, productID uuid.UUID) (*Summary, error)
}

// Service exposes review submission and listing. A reviewer may post more
// than once per product; no uniqueness is enforced.
type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*SubmitResult, error)
	List(ctx context.Context, productID uuid.UUID, cursorValue string, limit int) (*Page, error)
}

type service struct {
	repo     reviewStore
	products productChecker
}

// NewService builds a review service backed by the provided stack.
func NewService(repo reviewStore, products productChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// SubmitInput captures a new review.
type SubmitInput struct {
	ProductID uuid.UUID
	Rating    int
	Comment   string
}

// SubmitResult pairs the stored review with the paths it made stale.
type SubmitResult struct {
	Review     *models.ProductReview
	Revalidate []string
}

// Page is one keyset page of reviews with the product's aggregate rating.
type Page struct {
	Items      []models.ProductReview `json:"items"`
	Summary    *Summary               `json:"summary"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// Submit stores a rating and comment against a visible product.
func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*SubmitResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(input.Comment)
	if len(comment) > maxCommentLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment is too long").
			WithDetails(map[string]any{"max": maxCommentLen})
	}

	if _, err := s.products.FindVisibleByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	review := &models.ProductReview{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}

	return &SubmitResult{
		Review:     review,
		Revalidate: []string{"/products/" + input.ProductID.String()},
	}, nil
}

// List returns reviews for a product along with its rating summary.
func (s *service) List(ctx context.Context, productID uuid.UUID, cursorValue string, limit int) (*Page, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	cursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return nil, err
	}
	limit = pagination.NormalizeLimit(limit)

	items, err := s.repo.ListByProduct(ctx, productID, cursor, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}

	summary, err := s.repo.Summarize(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize reviews")
	}

	page := &Page{Items: items, Summary: summary}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = pagination.Encode(last.CreatedAt, last.ID)
	}
	if page.Items == nil {
		page.Items = []models.ProductReview{}
	}
	return page, nil
}
