package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/handcrafted-haven/marketplace-backend/api/responses"
	"github.com/handcrafted-haven/marketplace-backend/api/validators"
	productssvc "github.com/handcrafted-haven/marketplace-backend/internal/products"
	userssvc "github.com/handcrafted-haven/marketplace-backend/internal/users"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
)

type sellerProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	ShopName  string    `json:"shop_name"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// SellerProfile serves a seller's public storefront identity with a first
// page of their active listings.
func SellerProfile(users userssvc.Service, products productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	type response struct {
		Seller   sellerProfileResponse `json:"seller"`
		Listings *productssvc.Page     `json:"listings,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if users == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		sellerID, err := validators.ParseURLParamUUID(r, "sellerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		seller, err := users.GetSellerProfile(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := response{
			Seller: sellerProfileResponse{
				ID:        seller.ID,
				ShopName:  seller.ShopName,
				Bio:       seller.Bio,
				AvatarURL: seller.AvatarURL,
			},
		}

		if products != nil {
			listings, err := products.ListMine(r.Context(), sellerID, "", 0)
			if err == nil {
				resp.Listings = filterActive(listings)
			}
		}

		responses.WriteSuccess(w, resp)
	}
}

// filterActive keeps only storefront-visible listings in a seller page.
func filterActive(page *productssvc.Page) *productssvc.Page {
	if page == nil {
		return nil
	}
	filtered := page.Items[:0:0]
	for _, product := range page.Items {
		if product.IsActive && product.DeletedAt == nil {
			filtered = append(filtered, product)
		}
	}
	page.Items = filtered
	return page
}
