package controllers

import (
	"net/http"

	"github.com/handcrafted-haven/marketplace-backend/api/responses"
	"github.com/handcrafted-haven/marketplace-backend/api/validators"
	userssvc "github.com/handcrafted-haven/marketplace-backend/internal/users"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
)

type registerRequest struct {
	Email     string                  `json:"email" validate:"required,email"`
	Password  string                  `json:"password" validate:"required,min=8"`
	FirstName string                  `json:"first_name" validate:"required,max=100"`
	LastName  string                  `json:"last_name" validate:"required,max=100"`
	Phone     string                  `json:"phone" validate:"omitempty,max=30"`
	Role      string                  `json:"role" validate:"required,oneof=buyer seller"`
	ShopName  string                  `json:"shop_name" validate:"omitempty,max=120"`
	Address   *registerAddressPayload `json:"address" validate:"omitempty"`
}

type registerAddressPayload struct {
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	Region     string `json:"region" validate:"omitempty,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2"`
}

// Register creates a buyer or seller account.
func Register(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid role"))
			return
		}

		input := userssvc.RegisterInput{
			Email:     payload.Email,
			Password:  payload.Password,
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Phone:     payload.Phone,
			Role:      role,
			ShopName:  payload.ShopName,
		}
		if payload.Address != nil {
			input.Address = &userssvc.AddressInput{
				Line1:      payload.Address.Line1,
				Line2:      payload.Address.Line2,
				City:       payload.Address.City,
				Region:     payload.Address.Region,
				PostalCode: payload.Address.PostalCode,
				Country:    payload.Address.Country,
			}
		}

		user, err := svc.Register(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAccountView(user))
	}
}
