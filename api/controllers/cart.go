package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/handcrafted-haven/marketplace-backend/api/responses"
	"github.com/handcrafted-haven/marketplace-backend/api/validators"
	cartsvc "github.com/handcrafted-haven/marketplace-backend/internal/cart"
	pkgcache "github.com/handcrafted-haven/marketplace-backend/pkg/cache"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
	"github.com/handcrafted-haven/marketplace-backend/pkg/metrics"
)

// CartGet returns the buyer's open cart.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetCart(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1"`
}

// CartAddItem puts a product in the buyer's cart.
func CartAddItem(svc cartsvc.Service, purger *pkgcache.Purger, m *metrics.Metrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddItem(r.Context(), buyerID, cartsvc.AddItemInput{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if m != nil {
			m.CountCartMutation("add")
		}
		writeRevalidated(r.Context(), w, purger, http.StatusOK, result.Cart, result.Revalidate)
	}
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// CartSetItemQuantity overwrites a line's quantity; zero removes the line.
func CartSetItemQuantity(svc cartsvc.Service, purger *pkgcache.Purger, m *metrics.Metrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParseURLParamUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SetItemQuantity(r.Context(), buyerID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if m != nil {
			m.CountCartMutation("set_quantity")
		}
		writeRevalidated(r.Context(), w, purger, http.StatusOK, result.Cart, result.Revalidate)
	}
}

// CartRemoveItem drops a line from the buyer's cart.
func CartRemoveItem(svc cartsvc.Service, purger *pkgcache.Purger, m *metrics.Metrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParseURLParamUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RemoveItem(r.Context(), buyerID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if m != nil {
			m.CountCartMutation("remove")
		}
		writeRevalidated(r.Context(), w, purger, http.StatusOK, result.Cart, result.Revalidate)
	}
}
