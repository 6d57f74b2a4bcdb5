package controllers

import (
	"net/http"
	"strings"

	"github.com/handcrafted-haven/marketplace-backend/api/responses"
	"github.com/handcrafted-haven/marketplace-backend/api/validators"
	userssvc "github.com/handcrafted-haven/marketplace-backend/internal/users"
	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
)

// ProfileGet returns the caller's own account.
func ProfileGet(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAccountView(user))
	}
}

type updateProfilePayload struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
	ShopName  *string `json:"shop_name" validate:"omitempty,max=120"`
	Bio       *string `json:"bio" validate:"omitempty,max=2000"`
}

type profileUpdateResponse struct {
	User          accountView `json:"user"`
	AvatarSkipped bool        `json:"avatar_skipped,omitempty"`
}

// ProfileUpdate applies partial edits. The request is a multipart form: a
// JSON "payload" part plus an optional "avatar" file.
func ProfileUpdate(svc userssvc.Service, mediaCfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := userssvc.UpdateProfileInput{}

		contentType := r.Header.Get("Content-Type")
		if strings.HasPrefix(contentType, "multipart/form-data") {
			if err := r.ParseMultipartForm(maxUploadBytes(mediaCfg)); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
				return
			}
			defer r.MultipartForm.RemoveAll()

			if raw := r.FormValue("payload"); raw != "" {
				var payload updateProfilePayload
				if err := validators.DecodeJSONPart(raw, &payload); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				input.FirstName = payload.FirstName
				input.LastName = payload.LastName
				input.Phone = payload.Phone
				input.ShopName = payload.ShopName
				input.Bio = payload.Bio
			}

			if files := r.MultipartForm.File["avatar"]; len(files) > 0 {
				file, err := files[0].Open()
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded avatar"))
					return
				}
				defer file.Close()
				input.Avatar = &userssvc.AvatarUpload{
					FileName:    files[0].Filename,
					ContentType: files[0].Header.Get("Content-Type"),
					Body:        file,
				}
			}
		} else {
			var payload updateProfilePayload
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.FirstName = payload.FirstName
			input.LastName = payload.LastName
			input.Phone = payload.Phone
			input.ShopName = payload.ShopName
			input.Bio = payload.Bio
		}

		result, err := svc.UpdateProfile(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profileUpdateResponse{
			User:          newAccountView(result.User),
			AvatarSkipped: result.AvatarSkipped,
		})
	}
}

type addAddressRequest struct {
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	Region     string `json:"region" validate:"omitempty,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2"`
	IsDefault  bool   `json:"is_default"`
}

// AddressList returns the caller's shipping addresses.
func AddressList(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := svc.ListAddresses(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, addresses)
	}
}

// AddressAdd stores a shipping destination for the caller.
func AddressAdd(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.AddAddress(r.Context(), userID, userssvc.AddressInput{
			Line1:      payload.Line1,
			Line2:      payload.Line2,
			City:       payload.City,
			Region:     payload.Region,
			PostalCode: payload.PostalCode,
			Country:    payload.Country,
			IsDefault:  payload.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, address)
	}
}

// AddressRemove deletes an address owned by the caller.
func AddressRemove(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := validators.ParseURLParamUUID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveAddress(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
