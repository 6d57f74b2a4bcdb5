package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
)

// UserRepository abstracts account persistence so services can rebind to a
// transaction.
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindSellerByID(ctx context.Context, sellerID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, updates map[string]any) (int64, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	CreateAddress(ctx context.Context, address *models.Address) error
	ClearDefaultAddress(ctx context.Context, userID uuid.UUID) error
	DeleteAddress(ctx context.Context, addressID, userID uuid.UUID) (int64, error)
}
