package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/handcrafted-haven/marketplace-backend/api/responses"
	"github.com/handcrafted-haven/marketplace-backend/api/validators"
	productssvc "github.com/handcrafted-haven/marketplace-backend/internal/products"
	pkgcache "github.com/handcrafted-haven/marketplace-backend/pkg/cache"
	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
	"github.com/handcrafted-haven/marketplace-backend/pkg/pagination"
)

// SellerProductList returns the caller's own listings, active or not.
func SellerProductList(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListMine(r.Context(), sellerID, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

type createProductPayload struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"omitempty,max=5000"`
	Category    string   `json:"category" validate:"required"`
	Materials   []string `json:"materials" validate:"omitempty,dive,max=80"`
	Price       string   `json:"price" validate:"required"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	AltTexts    []string `json:"alt_texts" validate:"omitempty,dive,max=300"`
}

// SellerProductCreate accepts a multipart form: a JSON "payload" part plus
// zero or more "images" files.
func SellerProductCreate(svc productssvc.Service, purger *pkgcache.Purger, mediaCfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes(mediaCfg)); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		var payload createProductPayload
		if err := validators.DecodeJSONPart(r.FormValue("payload"), &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseProductCategory(payload.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid category"))
			return
		}
		price, err := decimal.NewFromString(payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid price"))
			return
		}

		uploads, closeFiles, err := openImageUploads(r.MultipartForm.File["images"], payload.AltTexts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeFiles()

		result, err := svc.Create(r.Context(), sellerID, productssvc.CreateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Category:    category,
			Materials:   payload.Materials,
			Price:       price,
			Quantity:    payload.Quantity,
			Images:      uploads,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeRevalidated(r.Context(), w, purger, http.StatusCreated, result.Product, result.Revalidate)
	}
}

type updateProductRequest struct {
	Name        *string   `json:"name" validate:"omitempty,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Category    *string   `json:"category"`
	Materials   *[]string `json:"materials" validate:"omitempty,dive,max=80"`
	Price       *string   `json:"price"`
	Quantity    *int      `json:"quantity" validate:"omitempty,gte=0"`
	IsActive    *bool     `json:"is_active"`
}

// SellerProductUpdate applies partial edits to an owned listing.
func SellerProductUpdate(svc productssvc.Service, purger *pkgcache.Purger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseURLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productssvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Materials:   payload.Materials,
			Quantity:    payload.Quantity,
			IsActive:    payload.IsActive,
		}
		if payload.Category != nil {
			category, err := enums.ParseProductCategory(*payload.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid category"))
				return
			}
			input.Category = &category
		}
		if payload.Price != nil {
			price, err := decimal.NewFromString(*payload.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid price"))
				return
			}
			input.Price = &price
		}

		result, err := svc.Update(r.Context(), sellerID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeRevalidated(r.Context(), w, purger, http.StatusOK, result.Product, result.Revalidate)
	}
}

// SellerProductDelete retires a listing from the storefront.
func SellerProductDelete(svc productssvc.Service, purger *pkgcache.Purger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseURLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), sellerID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeRevalidated(r.Context(), w, purger, http.StatusOK, map[string]string{"status": "deleted"}, result.Revalidate)
	}
}

// SellerProductAddImages appends gallery files to an owned listing.
func SellerProductAddImages(svc productssvc.Service, purger *pkgcache.Purger, mediaCfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseURLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes(mediaCfg)); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		uploads, closeFiles, err := openImageUploads(r.MultipartForm.File["images"], r.MultipartForm.Value["alt_texts"])
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeFiles()

		result, err := svc.AddImages(r.Context(), sellerID, productID, uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeRevalidated(r.Context(), w, purger, http.StatusOK, result.Product, result.Revalidate)
	}
}

// SellerProductRemoveImage drops one gallery image and its stored blob.
func SellerProductRemoveImage(svc productssvc.Service, purger *pkgcache.Purger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseURLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		imageID, err := validators.ParseURLParamUUID(r, "imageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RemoveImage(r.Context(), sellerID, productID, imageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeRevalidated(r.Context(), w, purger, http.StatusOK, map[string]string{"status": "removed"}, result.Revalidate)
	}
}

func maxUploadBytes(mediaCfg config.MediaConfig) int64 {
	maxMB := mediaCfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	return int64(maxMB) << 20
}

// openImageUploads opens each multipart file and pairs it with its alt text.
// The returned closer must run after the service call consumed the readers.
func openImageUploads(headers []*multipart.FileHeader, altTexts []string) ([]productssvc.ImageUpload, func(), error) {
	uploads := make([]productssvc.ImageUpload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	closeFiles := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for i, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeFiles()
			return nil, func() {}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded image")
		}
		files = append(files, file)

		altText := ""
		if i < len(altTexts) {
			altText = validators.SanitizeString(altTexts[i], 300)
		}
		uploads = append(uploads, productssvc.ImageUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			AltText:     altText,
			Body:        file,
		})
	}

	return uploads, closeFiles, nil
}
