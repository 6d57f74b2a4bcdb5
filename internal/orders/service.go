package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/pagination"
)

type orderReader interface {
	ListPlacedByClient(ctx context.Context, clientID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	FindPlacedByIDAndClient(ctx context.Context, orderID, clientID uuid.UUID) (*models.Order, error)
}

// Service exposes a buyer's order history.
type Service interface {
	History(ctx context.Context, buyerID uuid.UUID, cursorValue string, limit int) (*Page, error)
	GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo orderReader
}

// NewService builds an order history service.
func NewService(repo orderReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

// Page is one keyset page of placed orders.
type Page struct {
	Items      []models.Order `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// History lists the buyer's placed orders, newest first.
func (s *service) History(ctx context.Context, buyerID uuid.UUID, cursorValue string, limit int) (*Page, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	cursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return nil, err
	}
	limit = pagination.NormalizeLimit(limit)

	items, err := s.repo.ListPlacedByClient(ctx, buyerID, cursor, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := &Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = pagination.Encode(last.CreatedAt, last.ID)
	}
	if page.Items == nil {
		page.Items = []models.Order{}
	}
	return page, nil
}

// GetOrder loads one placed order for its owner, used by the confirmation
// view after checkout.
func (s *service) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	if buyerID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and order id are required")
	}

	order, err := s.repo.FindPlacedByIDAndClient(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
