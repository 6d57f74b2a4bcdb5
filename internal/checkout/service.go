package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
)

// Checkout outcome labels, used for metrics.
const (
	OutcomePlaced      = "placed"
	OutcomeEmptyCart   = "empty_cart"
	OutcomeUnavailable = "unavailable"
	OutcomeOutOfStock  = "out_of_stock"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
)

const msgEmptyCart = "cart is empty"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service finalizes carts into paid orders.
type Service interface {
	PlaceOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*Result, error)
}

type service struct {
	repo CheckoutRepository
	tx   txRunner
	now  func() time.Time
}

// NewService builds a checkout service backed by the provided stack.
func NewService(repo CheckoutRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// Result reports a placed order and the public paths the purchase made stale.
type Result struct {
	OrderID    uuid.UUID       `json:"order_id"`
	Total      decimal.Decimal `json:"total"`
	PlacedAt   time.Time       `json:"placed_at"`
	ItemCount  int             `json:"item_count"`
	Revalidate []string        `json:"-"`
}

// PlaceOrder converts the buyer's pending order into a paid one. Every line's
// stock comes off via a single conditional update; any line that cannot be
// satisfied rolls the whole transaction back, so a partial decrement is never
// visible. Two concurrent checkouts racing on the same product cannot both
// win more stock than exists.
func (s *service) PlaceOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*Result, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindPendingOrder(ctx, orderID, buyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if len(order.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCart)
		}

		total := decimal.Zero
		itemCount := 0
		for _, item := range order.Items {
			rows, err := repo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if rows == 0 {
				return s.classifyDecrementFailure(ctx, repo, item)
			}

			total = total.Add(item.LineTotal())
			itemCount += item.Quantity
		}

		placedAt := s.now().UTC()
		rows, err := repo.MarkPaid(ctx, order.ID, buyerID, total, placedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize order")
		}
		if rows == 0 {
			// The order flipped out of pending between the load and here.
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		result = &Result{
			OrderID:   order.ID,
			Total:     total,
			PlacedAt:  placedAt,
			ItemCount: itemCount,
			Revalidate: []string{
				"/",
				"/cart",
				"/products",
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// classifyDecrementFailure re-reads the product in the same transaction to
// report precisely why the conditional update matched nothing.
func (s *service) classifyDecrementFailure(ctx context.Context, repo CheckoutRepository, item models.OrderItem) error {
	product, err := repo.GetProduct(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is unavailable").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "classify stock failure")
	}

	if !product.IsActive || product.DeletedAt != nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product is unavailable").
			WithDetails(map[string]any{
				"product_id": product.ID,
				"product":    product.Name,
			})
	}

	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
		WithDetails(map[string]any{
			"product_id": product.ID,
			"product":    product.Name,
			"available":  product.Quantity,
			"requested":  item.Quantity,
		})
}

// OutcomeForError maps a checkout error to its metrics label.
func OutcomeForError(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return OutcomeError
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation:
		// Only the empty-cart rejection counts as a checkout attempt;
		// malformed input is an error like any other.
		if typed.Message() == msgEmptyCart {
			return OutcomeEmptyCart
		}
		return OutcomeError
	case pkgerrors.CodeStateConflict:
		return OutcomeUnavailable
	case pkgerrors.CodeConflict:
		return OutcomeOutOfStock
	case pkgerrors.CodeNotFound:
		return OutcomeNotFound
	}
	return OutcomeError
}
