package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/handcrafted-haven/marketplace-backend/api/responses"
	"github.com/handcrafted-haven/marketplace-backend/api/validators"
	checkoutsvc "github.com/handcrafted-haven/marketplace-backend/internal/checkout"
	pkgcache "github.com/handcrafted-haven/marketplace-backend/pkg/cache"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
	"github.com/handcrafted-haven/marketplace-backend/pkg/metrics"
)

type placeOrderRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// CheckoutPlaceOrder finalizes the buyer's pending order against live stock.
func CheckoutPlaceOrder(svc checkoutsvc.Service, purger *pkgcache.Purger, m *metrics.Metrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), buyerID, payload.OrderID)
		if err != nil {
			if m != nil {
				m.CountCheckoutAttempt(checkoutsvc.OutcomeForError(err))
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if m != nil {
			m.CountCheckoutAttempt(checkoutsvc.OutcomePlaced)
		}
		writeRevalidated(r.Context(), w, purger, http.StatusOK, result, result.Revalidate)
	}
}
