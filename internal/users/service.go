package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	pkgdb "github.com/handcrafted-haven/marketplace-backend/pkg/db"
	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
	"github.com/handcrafted-haven/marketplace-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type blobStore interface {
	Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error)
}

// Service exposes account registration and profile management.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileResult, error)
	GetSellerProfile(ctx context.Context, sellerID uuid.UUID) (*models.User, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	AddAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error)
	RemoveAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo        UserRepository
	tx          txRunner
	blobs       blobStore
	log         *logger.Logger
	passwordCfg config.PasswordConfig
}

// NewService builds a user service backed by the provided stack.
func NewService(repo UserRepository, tx txRunner, blobs blobStore, log *logger.Logger, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, blobs: blobs, log: log, passwordCfg: passwordCfg}, nil
}

// RegisterInput captures a new account. The optional address lands in the
// same transaction as the user row.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      enums.UserRole
	ShopName  string
	Address   *AddressInput
}

// UpdateProfileInput carries partial profile edits; nil fields are untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	ShopName  *string
	Bio       *string
	Avatar    *AvatarUpload
}

// AvatarUpload is an optional profile image.
type AvatarUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// AddressInput captures a shipping destination.
type AddressInput struct {
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
	IsDefault  bool
}

// ProfileResult reports the updated profile and whether the optional avatar
// upload was skipped.
type ProfileResult struct {
	User          *models.User
	AvatarSkipped bool
}

// Register creates an account. A duplicate email is classified distinctly
// from other storage failures.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if input.Role == enums.UserRoleSeller && strings.TrimSpace(input.ShopName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name is required for sellers")
	}
	if input.Address != nil {
		if err := validateAddress(*input.Address); err != nil {
			return nil, err
		}
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         input.Role,
		ShopName:     strings.TrimSpace(input.ShopName),
	}

	// User and address commit or roll back together.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, user); err != nil {
			if pkgdb.IsUniqueViolation(err, "idx_users_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
		}
		if input.Address != nil {
			// The first address is always the default one.
			address := newAddress(user.ID, *input.Address)
			address.IsDefault = true
			if err := repo.CreateAddress(ctx, address); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetProfile returns the caller's own account.
func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return user, nil
}

// UpdateProfile applies partial edits. An avatar upload that fails is logged
// and skipped; the profile write still goes through.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name must not be empty")
		}
		updates["first_name"] = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name must not be empty")
		}
		updates["last_name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.ShopName != nil {
		updates["shop_name"] = strings.TrimSpace(*input.ShopName)
	}
	if input.Bio != nil {
		updates["bio"] = strings.TrimSpace(*input.Bio)
	}

	avatarSkipped := false
	if input.Avatar != nil {
		url, err := s.uploadAvatar(ctx, userID, input.Avatar)
		if err != nil {
			// Non-fatal: the profile write must still land.
			avatarSkipped = true
			if s.log != nil {
				logCtx := s.log.WithFields(ctx, map[string]any{"error": err.Error()})
				s.log.Warn(logCtx, "profile.avatar_upload_failed")
			}
		} else {
			updates["avatar_url"] = url
		}
	}

	if len(updates) == 0 && !avatarSkipped {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if len(updates) > 0 {
		rows, err := s.repo.UpdateProfile(ctx, userID, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
		}
		if rows == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload account")
	}

	return &ProfileResult{User: user, AvatarSkipped: avatarSkipped}, nil
}

// GetSellerProfile returns a seller's public storefront identity.
func (s *service) GetSellerProfile(ctx context.Context, sellerID uuid.UUID) (*models.User, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	seller, err := s.repo.FindSellerByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}
	return seller, nil
}

// ListAddresses returns the caller's shipping addresses.
func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	addresses, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return addresses, nil
}

// AddAddress stores a shipping destination. Flagging it default clears the
// previous default in the same transaction.
func (s *service) AddAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateAddress(input); err != nil {
		return nil, err
	}

	address := newAddress(userID, input)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := repo.ClearDefaultAddress(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		if err := repo.CreateAddress(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}

// RemoveAddress deletes an address owned by the caller.
func (s *service) RemoveAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and address id are required")
	}
	rows, err := s.repo.DeleteAddress(ctx, addressID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) uploadAvatar(ctx context.Context, userID uuid.UUID, avatar *AvatarUpload) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	objectName := fmt.Sprintf("avatars/%s/%s", userID, uuid.NewString())
	return s.blobs.Upload(ctx, objectName, avatar.ContentType, avatar.Body)
}

func newAddress(userID uuid.UUID, input AddressInput) *models.Address {
	return &models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      strings.TrimSpace(input.Line2),
		City:       strings.TrimSpace(input.City),
		Region:     strings.TrimSpace(input.Region),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(input.Country)),
		IsDefault:  input.IsDefault,
	}
}

func validateAddress(input AddressInput) error {
	details := map[string]string{}
	if strings.TrimSpace(input.Line1) == "" {
		details["line1"] = "is required"
	}
	if strings.TrimSpace(input.City) == "" {
		details["city"] = "is required"
	}
	if strings.TrimSpace(input.PostalCode) == "" {
		details["postal_code"] = "is required"
	}
	if len(strings.TrimSpace(input.Country)) != 2 {
		details["country"] = "must be a 2-letter code"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}
