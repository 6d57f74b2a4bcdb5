package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{},
		&models.ProductImage{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedOrder(t *testing.T, conn *gorm.DB, buyerID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	placedAt := createdAt
	order := &models.Order{
		ID:        uuid.New(),
		ClientID:  buyerID,
		Status:    status,
		Total:     decimal.NewFromInt(40),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if status != enums.OrderStatusPending {
		order.PlacedAt = &placedAt
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func seedLine(t *testing.T, conn *gorm.DB, orderID uuid.UUID) *models.OrderItem {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		SellerID: uuid.New(),
		Name:     "Stoneware Teapot",
		Price:    decimal.NewFromInt(40),
		Quantity: 3,
		IsActive: true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	item := &models.OrderItem{
		ID:              uuid.New(),
		OrderID:         orderID,
		ProductID:       product.ID,
		Quantity:        1,
		PriceAtPurchase: product.Price,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed order item: %v", err)
	}
	return item
}

func TestHistoryExcludesPendingCart(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	buyerID := uuid.New()

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	seedOrder(t, conn, buyerID, enums.OrderStatusPending, base.Add(2*time.Minute))
	placed := seedOrder(t, conn, buyerID, enums.OrderStatusPaid, base)
	seedLine(t, conn, placed.ID)

	page, err := svc.History(ctx, buyerID, "", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected only the placed order, got %d", len(page.Items))
	}
	if page.Items[0].ID != placed.ID {
		t.Fatal("expected the paid order in history")
	}
	if len(page.Items[0].Items) != 1 || page.Items[0].Items[0].Product == nil {
		t.Fatal("expected line items preloaded with products")
	}
}

func TestHistoryPaginatesNewestFirst(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	buyerID := uuid.New()

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	var seeded []uuid.UUID
	for i := 0; i < 5; i++ {
		order := seedOrder(t, conn, buyerID, enums.OrderStatusPaid, base.Add(time.Duration(i)*time.Minute))
		seeded = append(seeded, order.ID)
	}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	pages := 0
	var previous *time.Time
	for {
		page, err := svc.History(ctx, buyerID, cursor, 2)
		if err != nil {
			t.Fatalf("history page %d: %v", pages, err)
		}
		for _, order := range page.Items {
			if seen[order.ID] {
				t.Fatalf("order %s repeated across pages", order.ID)
			}
			seen[order.ID] = true
			if previous != nil && order.CreatedAt.After(*previous) {
				t.Fatal("expected newest-first ordering across pages")
			}
			created := order.CreatedAt
			previous = &created
		}
		pages++
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if len(seen) != len(seeded) {
		t.Fatalf("expected %d orders across pages, saw %d", len(seeded), len(seen))
	}
	if pages != 3 {
		t.Fatalf("expected 3 pages of 2, got %d", pages)
	}
}

func TestHistoryScopedToBuyer(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seedOrder(t, conn, uuid.New(), enums.OrderStatusPaid, time.Now().UTC())

	page, err := svc.History(ctx, uuid.New(), "", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected empty history for another buyer, got %d", len(page.Items))
	}
}

func TestGetOrderLoadsOwnPlacedOrder(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	buyerID := uuid.New()

	placed := seedOrder(t, conn, buyerID, enums.OrderStatusPaid, time.Now().UTC())
	seedLine(t, conn, placed.ID)

	order, err := svc.GetOrder(ctx, buyerID, placed.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.ID != placed.ID || order.PlacedAt == nil {
		t.Fatalf("unexpected order %+v", order)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(order.Items))
	}
}

func TestGetOrderHidesPendingAndForeignOrders(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	buyerID := uuid.New()

	pending := seedOrder(t, conn, buyerID, enums.OrderStatusPending, time.Now().UTC())
	_, err := svc.GetOrder(ctx, buyerID, pending.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for the open cart, got %v", err)
	}

	placed := seedOrder(t, conn, buyerID, enums.OrderStatusPaid, time.Now().UTC())
	_, err = svc.GetOrder(ctx, uuid.New(), placed.ID)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for a foreign buyer, got %v", err)
	}
}
