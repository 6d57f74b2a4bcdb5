package products

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
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

type gormTx struct {
	db *gorm.DB
}

func (t gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

type fakeBlobStore struct {
	uploads  []string
	deleted  []string
	failFrom int
}

func (f *fakeBlobStore) Upload(_ context.Context, objectName, _ string, body io.Reader) (string, error) {
	if f.failFrom > 0 && len(f.uploads)+1 >= f.failFrom {
		return "", fmt.Errorf("storage unavailable")
	}
	io.Copy(io.Discard, body)
	f.uploads = append(f.uploads, objectName)
	return "https://storage.googleapis.com/test-bucket/" + objectName, nil
}

func (f *fakeBlobStore) DeleteMany(_ context.Context, objectNames []string) error {
	f.deleted = append(f.deleted, objectNames...)
	return nil
}

func (f *fakeBlobStore) ObjectNameFromURL(publicURL string) (string, bool) {
	const prefix = "https://storage.googleapis.com/test-bucket/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.ProductImage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, blobs *fakeBlobStore) Service {
	t.Helper()
	var store blobStore
	if blobs != nil {
		store = blobs
	}
	svc, err := NewService(NewRepository(conn), gormTx{db: conn}, store, nil, 4)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func seedCatalogProduct(t *testing.T, conn *gorm.DB, name, price string, quantity int, category enums.ProductCategory, createdAt time.Time) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		SellerID:  uuid.New(),
		Name:      name,
		Category:  category,
		Price:     mustDecimal(t, price),
		Quantity:  quantity,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestCatalogFiltersAndPaginates(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	seedCatalogProduct(t, conn, "Walnut Bowl", "30.00", 4, enums.ProductCategoryWoodwork, base)
	seedCatalogProduct(t, conn, "Ceramic Vase", "55.00", 2, enums.ProductCategoryCeramics, base.Add(time.Minute))
	seedCatalogProduct(t, conn, "Ceramic Mug", "18.00", 0, enums.ProductCategoryCeramics, base.Add(2*time.Minute))
	seedCatalogProduct(t, conn, "Wool Scarf", "45.00", 7, enums.ProductCategoryTextiles, base.Add(3*time.Minute))

	// Out-of-stock listings never reach the public catalog.
	page, err := svc.Catalog(ctx, CatalogInput{})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 visible products, got %d", len(page.Items))
	}
	if page.Items[0].Name != "Wool Scarf" {
		t.Fatalf("expected newest first, got %s", page.Items[0].Name)
	}

	page, err = svc.Catalog(ctx, CatalogInput{Search: "ceramic"})
	if err != nil {
		t.Fatalf("catalog search: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "Ceramic Vase" {
		t.Fatalf("expected only the in-stock ceramic, got %v", page.Items)
	}

	minPrice := mustDecimal(t, "40.00")
	page, err = svc.Catalog(ctx, CatalogInput{MinPrice: &minPrice})
	if err != nil {
		t.Fatalf("catalog price filter: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 products at or above 40.00, got %d", len(page.Items))
	}

	// Keyset pagination: page size one walks newest to oldest without repeats.
	page, err = svc.Catalog(ctx, CatalogInput{Limit: 1})
	if err != nil {
		t.Fatalf("catalog first page: %v", err)
	}
	if len(page.Items) != 1 || page.NextCursor == "" {
		t.Fatalf("expected one item and a next cursor, got %d items", len(page.Items))
	}
	first := page.Items[0].ID

	page, err = svc.Catalog(ctx, CatalogInput{Limit: 1, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("catalog second page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID == first {
		t.Fatal("expected a different item on the second page")
	}
}

func TestCatalogRejectsInvalidFilters(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	_, err := svc.Catalog(ctx, CatalogInput{Category: "weapons"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad category, got %v", err)
	}

	minPrice := mustDecimal(t, "50.00")
	maxPrice := mustDecimal(t, "10.00")
	_, err = svc.Catalog(ctx, CatalogInput{MinPrice: &minPrice, MaxPrice: &maxPrice})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inverted price range, got %v", err)
	}

	_, err = svc.Catalog(ctx, CatalogInput{Cursor: "not-a-cursor"})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad cursor, got %v", err)
	}
}

func TestCreateStoresProductWithGallery(t *testing.T) {
	conn := newTestDB(t)
	blobs := &fakeBlobStore{}
	svc := newTestService(t, conn, blobs)
	ctx := context.Background()
	sellerID := uuid.New()

	result, err := svc.Create(ctx, sellerID, CreateInput{
		Name:      "Hand-Thrown Teapot",
		Category:  enums.ProductCategoryCeramics,
		Materials: []string{"stoneware", "glaze"},
		Price:     mustDecimal(t, "68.00"),
		Quantity:  3,
		Images: []ImageUpload{
			{FileName: "teapot front.jpg", ContentType: "image/jpeg", AltText: "front view", Body: bytes.NewBufferString("jpeg-bytes")},
			{FileName: "teapot-side.jpg", ContentType: "image/jpeg", Body: bytes.NewBufferString("jpeg-bytes")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(blobs.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(blobs.uploads))
	}
	if len(result.Product.Images) != 2 {
		t.Fatalf("expected 2 gallery rows, got %d", len(result.Product.Images))
	}
	if !result.Product.Images[0].IsPrimary {
		t.Fatal("expected first image flagged primary")
	}

	detail, err := svc.GetDetail(ctx, result.Product.ID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if !detail.IsActive || detail.Quantity != 3 {
		t.Fatalf("unexpected stored product: active=%v qty=%d", detail.IsActive, detail.Quantity)
	}
	if len(detail.Images) != 2 {
		t.Fatalf("expected gallery persisted, got %d rows", len(detail.Images))
	}
}

func TestCreateCleansUpBlobsWhenUploadFails(t *testing.T) {
	conn := newTestDB(t)
	blobs := &fakeBlobStore{failFrom: 2}
	svc := newTestService(t, conn, blobs)

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Name:     "Teapot",
		Category: enums.ProductCategoryCeramics,
		Price:    mustDecimal(t, "68.00"),
		Quantity: 3,
		Images: []ImageUpload{
			{FileName: "a.jpg", ContentType: "image/jpeg", Body: bytes.NewBufferString("x")},
			{FileName: "b.jpg", ContentType: "image/jpeg", Body: bytes.NewBufferString("x")},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(blobs.deleted) != 1 {
		t.Fatalf("expected the first upload cleaned up, got %v", blobs.deleted)
	}

	var count int64
	if err := conn.Model(&models.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count products: %v", err)
	}
	if count != 0 {
		t.Fatal("expected no product row after failed upload")
	}
}

func TestCreateAndUpdateRejectNonPositivePrice(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()
	sellerID := uuid.New()

	_, err := svc.Create(ctx, sellerID, CreateInput{
		Name:     "Free Teapot",
		Category: enums.ProductCategoryCeramics,
		Price:    decimal.Zero,
		Quantity: 3,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero price, got %v", err)
	}

	var count int64
	if err := conn.Model(&models.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count products: %v", err)
	}
	if count != 0 {
		t.Fatal("expected no product row for a zero-price listing")
	}

	product := seedCatalogProduct(t, conn, "Bowl", "30.00", 4, enums.ProductCategoryWoodwork, time.Now().UTC())
	if err := conn.Model(product).Update("seller_id", sellerID).Error; err != nil {
		t.Fatalf("reassign seller: %v", err)
	}

	zero := decimal.Zero
	_, err = svc.Update(ctx, sellerID, product.ID, UpdateInput{Price: &zero})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero-price update, got %v", err)
	}
}

func TestUpdateScopedToOwner(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()
	sellerID := uuid.New()
	product := seedCatalogProduct(t, conn, "Bowl", "30.00", 4, enums.ProductCategoryWoodwork, time.Now().UTC())
	if err := conn.Model(product).Update("seller_id", sellerID).Error; err != nil {
		t.Fatalf("reassign seller: %v", err)
	}

	newName := "Figured Walnut Bowl"
	newQty := 9
	result, err := svc.Update(ctx, sellerID, product.ID, UpdateInput{Name: &newName, Quantity: &newQty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.Product.Name != newName || result.Product.Quantity != 9 {
		t.Fatalf("unexpected updated product: %s qty=%d", result.Product.Name, result.Product.Quantity)
	}

	// A foreign seller matches zero rows and reads as missing.
	_, err = svc.Update(ctx, uuid.New(), product.ID, UpdateInput{Name: &newName})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign seller, got %v", err)
	}
}

func TestDeleteSoftDeletesAndHidesFromCatalog(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()
	sellerID := uuid.New()
	product := seedCatalogProduct(t, conn, "Bowl", "30.00", 4, enums.ProductCategoryWoodwork, time.Now().UTC())
	if err := conn.Model(product).Update("seller_id", sellerID).Error; err != nil {
		t.Fatalf("reassign seller: %v", err)
	}

	if _, err := svc.Delete(ctx, sellerID, product.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var stored models.Product
	if err := conn.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("expected row kept after soft delete: %v", err)
	}
	if stored.IsActive || stored.DeletedAt == nil {
		t.Fatalf("expected deactivated tombstoned row, got active=%v deleted=%v", stored.IsActive, stored.DeletedAt)
	}

	_, err := svc.GetDetail(ctx, product.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected deleted product hidden, got %v", err)
	}

	// Deleting twice reads as missing.
	_, err = svc.Delete(ctx, sellerID, product.ID)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestRemoveImageDeletesRowAndBlob(t *testing.T) {
	conn := newTestDB(t)
	blobs := &fakeBlobStore{}
	svc := newTestService(t, conn, blobs)
	ctx := context.Background()
	sellerID := uuid.New()

	result, err := svc.Create(ctx, sellerID, CreateInput{
		Name:     "Teapot",
		Category: enums.ProductCategoryCeramics,
		Price:    mustDecimal(t, "68.00"),
		Quantity: 3,
		Images: []ImageUpload{
			{FileName: "a.jpg", ContentType: "image/jpeg", Body: bytes.NewBufferString("x")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	imageID := result.Product.Images[0].ID

	if _, err := svc.RemoveImage(ctx, sellerID, result.Product.ID, imageID); err != nil {
		t.Fatalf("remove image: %v", err)
	}
	if len(blobs.deleted) != 1 {
		t.Fatalf("expected blob deleted, got %v", blobs.deleted)
	}

	var count int64
	if err := conn.Model(&models.ProductImage{}).Where("id = ?", imageID).Count(&count).Error; err != nil {
		t.Fatalf("count images: %v", err)
	}
	if count != 0 {
		t.Fatal("expected gallery row deleted")
	}
}
