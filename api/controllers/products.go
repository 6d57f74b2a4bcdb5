package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/handcrafted-haven/marketplace-backend/api/responses"
	"github.com/handcrafted-haven/marketplace-backend/api/validators"
	productssvc "github.com/handcrafted-haven/marketplace-backend/internal/products"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
	"github.com/handcrafted-haven/marketplace-backend/pkg/pagination"
)

// CatalogList serves the public product listing with search, category and
// price filters plus cursor pagination.
func CatalogList(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		query := r.URL.Query()
		input := productssvc.CatalogInput{
			Search:   validators.SanitizeString(query.Get("search"), 200),
			Category: strings.TrimSpace(query.Get("category")),
			Cursor:   query.Get("cursor"),
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Limit = limit

		if input.MinPrice, err = parseQueryPrice(query.Get("min_price"), "min_price"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.MaxPrice, err = parseQueryPrice(query.Get("max_price"), "max_price"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Catalog(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// ProductDetail serves one visible product with its gallery.
func ProductDetail(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseURLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetDetail(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func parseQueryPrice(raw, name string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid price filter").
			WithDetails(map[string]string{name: "must be a decimal number"})
	}
	if value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid price filter").
			WithDetails(map[string]string{name: "must not be negative"})
	}
	return &value, nil
}
