package reviews

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/internal/products"
	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductImage{},
		&models.ProductReview{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), products.NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, conn *gorm.DB, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		SellerID: uuid.New(),
		Name:     "Indigo Scarf",
		Price:    decimal.NewFromInt(35),
		Quantity: 5,
		IsActive: active,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if !active {
		// The column default swallows a zero-value IsActive on insert.
		if err := conn.Model(product).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate product: %v", err)
		}
	}
	return product
}

func seedReviewer(t *testing.T, conn *gorm.DB, firstName string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(firstName) + "@example.com",
		PasswordHash: "x",
		FirstName:    firstName,
		LastName:     "Buyer",
		Role:         enums.UserRoleBuyer,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedReview(t *testing.T, conn *gorm.DB, productID, userID uuid.UUID, rating int, createdAt time.Time) *models.ProductReview {
	t.Helper()
	review := &models.ProductReview{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := conn.Create(review).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}
	return review
}

func TestSubmitStoresReviewAndRevalidatesProductPage(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	product := seedProduct(t, conn, true)
	reviewer := seedReviewer(t, conn, "Ada")

	result, err := svc.Submit(ctx, reviewer.ID, SubmitInput{
		ProductID: product.ID,
		Rating:    4,
		Comment:   "  Lovely weave.  ",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Review.Comment != "Lovely weave." {
		t.Fatalf("expected trimmed comment, got %q", result.Review.Comment)
	}
	if len(result.Revalidate) != 1 || result.Revalidate[0] != "/products/"+product.ID.String() {
		t.Fatalf("unexpected revalidate paths %v", result.Revalidate)
	}

	var stored models.ProductReview
	if err := conn.First(&stored, "id = ?", result.Review.ID).Error; err != nil {
		t.Fatalf("reload review: %v", err)
	}
	if stored.Rating != 4 {
		t.Fatalf("expected rating 4, got %d", stored.Rating)
	}
}

func TestSubmitAllowsRepeatReviewsFromSameBuyer(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	product := seedProduct(t, conn, true)
	reviewer := seedReviewer(t, conn, "Ada")

	for _, rating := range []int{2, 5} {
		if _, err := svc.Submit(ctx, reviewer.ID, SubmitInput{ProductID: product.ID, Rating: rating}); err != nil {
			t.Fatalf("submit rating %d: %v", rating, err)
		}
	}

	var count int64
	if err := conn.Model(&models.ProductReview{}).
		Where("product_id = ? AND user_id = ?", product.ID, reviewer.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 reviews, got %d", count)
	}
}

func TestSubmitRejectsOutOfRangeRating(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	product := seedProduct(t, conn, true)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(ctx, uuid.New(), SubmitInput{ProductID: product.ID, Rating: rating})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}
}

func TestSubmitRejectsHiddenProduct(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	hidden := seedProduct(t, conn, false)

	_, err := svc.Submit(ctx, uuid.New(), SubmitInput{ProductID: hidden.ID, Rating: 5})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for hidden product, got %v", err)
	}

	_, err = svc.Submit(ctx, uuid.New(), SubmitInput{ProductID: uuid.New(), Rating: 5})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestListSummarizesAndPaginates(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	product := seedProduct(t, conn, true)
	reviewer := seedReviewer(t, conn, "Ada")

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	ratings := []int{5, 3, 4}
	for i, rating := range ratings {
		seedReview(t, conn, product.ID, reviewer.ID, rating, base.Add(time.Duration(i)*time.Minute))
	}

	page, err := svc.List(ctx, product.ID, "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	// Newest first: the rating-4 review was seeded last.
	if page.Items[0].Rating != 4 {
		t.Fatalf("expected newest review first, got rating %d", page.Items[0].Rating)
	}
	if page.Items[0].User == nil || page.Items[0].User.FirstName != "Ada" {
		t.Fatal("expected reviewer preloaded for display")
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor on a full page")
	}
	if page.Summary == nil || page.Summary.Count != 3 {
		t.Fatalf("expected summary over 3 reviews, got %+v", page.Summary)
	}
	if page.Summary.AverageRating != 4 {
		t.Fatalf("expected average 4, got %v", page.Summary.AverageRating)
	}

	rest, err := svc.List(ctx, product.ID, page.NextCursor, 2)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest.Items) != 1 || rest.Items[0].Rating != 5 {
		t.Fatalf("expected the oldest review on the last page, got %+v", rest.Items)
	}
	if rest.NextCursor != "" {
		t.Fatalf("expected no cursor past the end, got %q", rest.NextCursor)
	}
}

func TestListEmptyProductReturnsZeroSummary(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, true)

	page, err := svc.List(context.Background(), product.ID, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(page.Items))
	}
	if page.Summary == nil || page.Summary.Count != 0 || page.Summary.AverageRating != 0 {
		t.Fatalf("expected zero summary, got %+v", page.Summary)
	}
}

func TestListRejectsGarbageCursor(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.List(context.Background(), uuid.New(), "not-a-cursor", 10)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad cursor, got %v", err)
	}
}
