package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
	"github.com/handcrafted-haven/marketplace-backend/pkg/pagination"
)

// Public paths invalidated by catalog writes.
const (
	HomePath      = "/"
	ProductsPath  = "/products"
	DashboardPath = "/dashboard/products"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type blobStore interface {
	Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error)
	DeleteMany(ctx context.Context, objectNames []string) error
	ObjectNameFromURL(publicURL string) (string, bool)
}

// Service exposes catalog reads and seller-side listing management.
type Service interface {
	Catalog(ctx context.Context, input CatalogInput) (*Page, error)
	GetDetail(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListMine(ctx context.Context, sellerID uuid.UUID, cursor string, limit int) (*Page, error)
	Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*WriteResult, error)
	Update(ctx context.Context, sellerID, productID uuid.UUID, input UpdateInput) (*WriteResult, error)
	Delete(ctx context.Context, sellerID, productID uuid.UUID) (*WriteResult, error)
	AddImages(ctx context.Context, sellerID, productID uuid.UUID, uploads []ImageUpload) (*WriteResult, error)
	RemoveImage(ctx context.Context, sellerID, productID, imageID uuid.UUID) (*WriteResult, error)
}

type service struct {
	repo      ProductRepository
	tx        txRunner
	blobs     blobStore
	log       *logger.Logger
	maxImages int
}

// NewService builds a product service backed by the provided stack.
func NewService(repo ProductRepository, tx txRunner, blobs blobStore, log *logger.Logger, maxImages int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if maxImages <= 0 {
		maxImages = 8
	}
	return &service{repo: repo, tx: tx, blobs: blobs, log: log, maxImages: maxImages}, nil
}

// CatalogInput carries the public listing filters.
type CatalogInput struct {
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Cursor   string
	Limit    int
}

// CreateInput captures a new listing.
type CreateInput struct {
	Name        string
	Description string
	Category    enums.ProductCategory
	Materials   []string
	Price       decimal.Decimal
	Quantity    int
	Images      []ImageUpload
}

// UpdateInput carries partial listing edits; nil fields are untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Category    *enums.ProductCategory
	Materials   *[]string
	Price       *decimal.Decimal
	Quantity    *int
	IsActive    *bool
}

// ImageUpload is one gallery file to store.
type ImageUpload struct {
	FileName    string
	ContentType string
	AltText     string
	Body        io.Reader
}

// Page is one keyset page of listings.
type Page struct {
	Items      []models.Product `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// WriteResult pairs the written product with the paths made stale.
type WriteResult struct {
	Product    *models.Product
	Revalidate []string
}

// Catalog serves the public, filtered product listing.
func (s *service) Catalog(ctx context.Context, input CatalogInput) (*Page, error) {
	filter := CatalogFilter{
		Search:   input.Search,
		MinPrice: input.MinPrice,
		MaxPrice: input.MaxPrice,
		Limit:    pagination.NormalizeLimit(input.Limit),
	}

	if input.Category != "" {
		category, err := enums.ParseProductCategory(input.Category)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category").
				WithDetails(map[string]any{"category": input.Category})
		}
		filter.Category = category
	}
	if input.MinPrice != nil && input.MaxPrice != nil && input.MinPrice.GreaterThan(*input.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min price exceeds max price")
	}

	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, err
	}
	filter.Cursor = cursor

	items, err := s.repo.ListVisible(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	return buildPage(items, filter.Limit), nil
}

// GetDetail returns one visible product with its gallery.
func (s *service) GetDetail(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindVisibleByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// ListMine returns a seller's own listings, active or not.
func (s *service) ListMine(ctx context.Context, sellerID uuid.UUID, cursorValue string, limit int) (*Page, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}

	cursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return nil, err
	}
	limit = pagination.NormalizeLimit(limit)

	items, err := s.repo.ListBySeller(ctx, sellerID, cursor, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	return buildPage(items, limit), nil
}

// Create stores a new listing. Gallery files go to the blob store first; if
// any upload or the database write fails, already-stored blobs are removed
// and nothing is committed.
func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*WriteResult, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if len(input.Images) > s.maxImages {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many images").
			WithDetails(map[string]any{"max": s.maxImages})
	}

	productID := uuid.New()

	urls, objectNames, err := s.uploadGallery(ctx, productID, input.Images)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          productID,
		SellerID:    sellerID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Materials:   pq.StringArray(input.Materials),
		Price:       input.Price,
		Quantity:    input.Quantity,
		IsActive:    true,
	}

	images := make([]models.ProductImage, 0, len(urls))
	for i, url := range urls {
		images = append(images, models.ProductImage{
			ID:        uuid.New(),
			ProductID: productID,
			URL:       url,
			AltText:   input.Images[i].AltText,
			Position:  i,
			IsPrimary: i == 0,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		if err := repo.AddImages(ctx, images); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store product images")
		}
		return nil
	})
	if err != nil {
		s.cleanupBlobs(ctx, objectNames)
		return nil, err
	}

	product.Images = images
	return &WriteResult{
		Product:    product,
		Revalidate: []string{HomePath, ProductsPath, DashboardPath},
	}, nil
}

// Update applies partial edits scoped to the owning seller. A foreign or
// missing product id reports not found.
func (s *service) Update(ctx context.Context, sellerID, productID uuid.UUID, input UpdateInput) (*WriteResult, error) {
	if sellerID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id and product id are required")
	}

	updates, err := buildUpdates(input)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	rows, err := s.repo.UpdateOwned(ctx, productID, sellerID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	product, err := s.repo.FindOwnedByID(ctx, productID, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}

	return &WriteResult{
		Product:    product,
		Revalidate: writePathsFor(productID),
	}, nil
}

// Delete retires a listing. The row and its blobs are kept so placed orders
// retain their product references.
func (s *service) Delete(ctx context.Context, sellerID, productID uuid.UUID) (*WriteResult, error) {
	if sellerID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id and product id are required")
	}

	rows, err := s.repo.SoftDeleteOwned(ctx, productID, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	return &WriteResult{Revalidate: writePathsFor(productID)}, nil
}

// AddImages appends gallery files to an existing listing.
func (s *service) AddImages(ctx context.Context, sellerID, productID uuid.UUID, uploads []ImageUpload) (*WriteResult, error) {
	if sellerID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id and product id are required")
	}
	if len(uploads) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}

	product, err := s.repo.FindOwnedByID(ctx, productID, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if len(product.Images)+len(uploads) > s.maxImages {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many images").
			WithDetails(map[string]any{"max": s.maxImages, "current": len(product.Images)})
	}

	urls, objectNames, err := s.uploadGallery(ctx, productID, uploads)
	if err != nil {
		return nil, err
	}

	base := len(product.Images)
	images := make([]models.ProductImage, 0, len(urls))
	for i, url := range urls {
		images = append(images, models.ProductImage{
			ID:        uuid.New(),
			ProductID: productID,
			URL:       url,
			AltText:   uploads[i].AltText,
			Position:  base + i,
			IsPrimary: base == 0 && i == 0,
		})
	}

	if err := s.repo.AddImages(ctx, images); err != nil {
		s.cleanupBlobs(ctx, objectNames)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store product images")
	}

	product.Images = append(product.Images, images...)
	return &WriteResult{
		Product:    product,
		Revalidate: writePathsFor(productID),
	}, nil
}

// RemoveImage drops one gallery row and its blob.
func (s *service) RemoveImage(ctx context.Context, sellerID, productID, imageID uuid.UUID) (*WriteResult, error) {
	if sellerID == uuid.Nil || productID == uuid.Nil || imageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id, product id and image id are required")
	}

	product, err := s.repo.FindOwnedByID(ctx, productID, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	var removed *models.ProductImage
	for i := range product.Images {
		if product.Images[i].ID == imageID {
			removed = &product.Images[i]
			break
		}
	}
	if removed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
	}

	if _, err := s.repo.DeleteImages(ctx, productID, []uuid.UUID{imageID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}

	if s.blobs != nil {
		if name, ok := s.blobs.ObjectNameFromURL(removed.URL); ok {
			s.cleanupBlobs(ctx, []string{name})
		}
	}

	return &WriteResult{Revalidate: writePathsFor(productID)}, nil
}

func (s *service) uploadGallery(ctx context.Context, productID uuid.UUID, uploads []ImageUpload) ([]string, []string, error) {
	if len(uploads) == 0 {
		return nil, nil, nil
	}
	if s.blobs == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeDependency, "image storage is not configured")
	}

	urls := make([]string, 0, len(uploads))
	objectNames := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		objectName := galleryObjectName(productID, upload.FileName)
		url, err := s.blobs.Upload(ctx, objectName, upload.ContentType, upload.Body)
		if err != nil {
			// Product-image upload failure aborts the whole write.
			s.cleanupBlobs(ctx, objectNames)
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload product image")
		}
		urls = append(urls, url)
		objectNames = append(objectNames, objectName)
	}
	return urls, objectNames, nil
}

func (s *service) cleanupBlobs(ctx context.Context, objectNames []string) {
	if s.blobs == nil || len(objectNames) == 0 {
		return
	}
	if err := s.blobs.DeleteMany(ctx, objectNames); err != nil && s.log != nil {
		logCtx := s.log.WithFields(ctx, map[string]any{
			"objects": objectNames,
			"error":   err.Error(),
		})
		s.log.Warn(logCtx, "product.blob_cleanup_failed")
	}
}

func galleryObjectName(productID uuid.UUID, fileName string) string {
	base := strings.ToLower(path.Base(strings.TrimSpace(fileName)))
	base = strings.ReplaceAll(base, " ", "-")
	if base == "" || base == "." {
		base = "image"
	}
	return fmt.Sprintf("products/%s/%s-%s", productID, uuid.NewString(), base)
}

func validateCreate(input CreateInput) error {
	details := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "is required"
	}
	if !input.Category.IsValid() {
		details["category"] = "is invalid"
	}
	if !input.Price.IsPositive() {
		details["price"] = "must be greater than zero"
	}
	if input.Quantity < 0 {
		details["quantity"] = "must not be negative"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func buildUpdates(input UpdateInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
		}
		updates["category"] = *input.Category
	}
	if input.Materials != nil {
		updates["materials"] = pq.StringArray(*input.Materials)
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
		}
		updates["price"] = *input.Price
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
		}
		updates["quantity"] = *input.Quantity
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return updates, nil
}

func writePathsFor(productID uuid.UUID) []string {
	return []string{
		HomePath,
		ProductsPath,
		DashboardPath,
		ProductsPath + "/" + productID.String(),
	}
}

func buildPage(items []models.Product, limit int) *Page {
	page := &Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = pagination.Encode(last.CreatedAt, last.ID)
	}
	if page.Items == nil {
		page.Items = []models.Product{}
	}
	return page
}
