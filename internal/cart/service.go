package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgdb "github.com/handcrafted-haven/marketplace-backend/pkg/db"
	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
)

// Public paths invalidated by cart writes.
const (
	CartPath     = "/cart"
	HomePath     = "/"
	ProductsPath = "/products"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetForPurchase(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations. The buyer is always an explicit argument;
// handlers resolve it from the authenticated request before calling in.
type Service interface {
	GetCart(ctx context.Context, buyerID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*Result, error)
	SetItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*Result, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*Result, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// AddItemInput captures the payload for adding a product to the cart.
// Quantity defaults to 1 when zero.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// Result pairs the refreshed cart with the public paths the write made stale.
type Result struct {
	Cart       *View
	Revalidate []string
}

func cartWritePaths() []string {
	return []string{HomePath, CartPath, ProductsPath}
}

// GetCart returns the buyer's open cart. A buyer without one gets an empty
// view; no row is created until the first item is added.
func (s *service) GetCart(ctx context.Context, buyerID uuid.UUID) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	order, err := s.repo.FindPendingByClient(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyView(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	return buildView(order), nil
}

// AddItem puts a product in the cart, creating the pending order on first
// use. An existing line for the product has its quantity increased; the price
// snapshot taken when the line was first created is kept. The stock check
// here is advisory only — checkout re-validates authoritatively.
func (s *service) AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*Result, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}

	// Created outside the transaction so a lost race on the one-pending-cart
	// index can be recovered with a plain re-read.
	order, err := s.loadOrCreatePending(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	var view *View
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := s.products.GetForPurchase(ctx, tx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive || product.DeletedAt != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is unavailable").
				WithDetails(map[string]any{"product_id": product.ID})
		}
		if product.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "out of stock").
				WithDetails(map[string]any{"product_id": product.ID, "available": 0})
		}

		existing, err := repo.FindItem(ctx, order.ID, input.ProductID)
		switch {
		case err == nil:
			// The update predicate re-checks the pending status inside the
			// transaction; a checkout that won the race matches zero rows.
			rows, err := repo.UpdateItemQuantity(ctx, order.ID, input.ProductID, existing.Quantity+quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart was already checked out")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			open, err := repo.StillPending(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
			}
			if !open {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart was already checked out")
			}
			item := &models.OrderItem{
				ID:              uuid.New(),
				OrderID:         order.ID,
				ProductID:       product.ID,
				Quantity:        quantity,
				PriceAtPurchase: product.Price,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		return s.refresh(ctx, repo, buyerID, order.ID, &view)
	})
	if err != nil {
		return nil, err
	}

	return &Result{Cart: view, Revalidate: cartWritePaths()}, nil
}

// SetItemQuantity overwrites a line's quantity. A quantity below 1 removes
// the line. Ownership sits inside the update predicate, so an item belonging
// to another buyer matches zero rows and reports not found.
func (s *service) SetItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*Result, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity < 1 {
		return s.RemoveItem(ctx, buyerID, itemID)
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.UpdateOwnedItemQuantity(ctx, itemID, buyerID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}

		return s.refreshByClient(ctx, repo, buyerID, &view)
	})
	if err != nil {
		return nil, err
	}

	return &Result{Cart: view, Revalidate: cartWritePaths()}, nil
}

// RemoveItem drops a line from the cart under the same ownership predicate.
func (s *service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*Result, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.DeleteOwnedItem(ctx, itemID, buyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}

		return s.refreshByClient(ctx, repo, buyerID, &view)
	})
	if err != nil {
		return nil, err
	}

	return &Result{Cart: view, Revalidate: cartWritePaths()}, nil
}

func (s *service) loadOrCreatePending(ctx context.Context, buyerID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindPendingByClient(ctx, buyerID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	order, err = s.repo.CreatePending(ctx, buyerID)
	if err != nil {
		// A concurrent request may have created the cart first.
		if pkgdb.IsUniqueViolation(err, "idx_orders_one_pending_per_client") {
			existing, rerr := s.repo.FindPendingByClient(ctx, buyerID)
			if rerr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, rerr, "load cart")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return order, nil
}

func (s *service) refresh(ctx context.Context, repo CartRepository, buyerID, orderID uuid.UUID, out **View) error {
	if err := repo.RecalculateTotal(ctx, orderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate total")
	}

	order, err := repo.FindPendingByClient(ctx, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	*out = buildView(order)
	return nil
}

func (s *service) refreshByClient(ctx context.Context, repo CartRepository, buyerID uuid.UUID, out **View) error {
	order, err := repo.FindPendingByClient(ctx, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return s.refresh(ctx, repo, buyerID, order.ID, out)
}

// View is the serialized cart.
type View struct {
	OrderID   *uuid.UUID      `json:"order_id,omitempty"`
	Items     []LineView      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// LineView is one cart line with enough product context to render it.
type LineView struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Available int             `json:"available"`
	IsActive  bool            `json:"is_active"`
}

func emptyView() *View {
	return &View{Items: []LineView{}, Total: decimal.Zero}
}

func buildView(order *models.Order) *View {
	view := &View{
		OrderID: &order.ID,
		Items:   make([]LineView, 0, len(order.Items)),
		Total:   order.Total,
	}

	for _, item := range order.Items {
		line := LineView{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.PriceAtPurchase,
			LineTotal: item.LineTotal(),
		}
		if item.Product != nil {
			line.Name = item.Product.Name
			line.ImageURL = item.Product.PrimaryImageURL()
			line.Available = item.Product.Quantity
			line.IsActive = item.Product.IsActive && item.Product.DeletedAt == nil
		}
		view.Items = append(view.Items, line)
		view.ItemCount += item.Quantity
	}

	return view
}
