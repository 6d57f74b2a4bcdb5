package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
)

// User is a marketplace account. Buyers place orders; sellers additionally
// maintain a public profile and a product catalog.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string         `gorm:"size:255;not null;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	FirstName    string         `gorm:"size:100;not null" json:"first_name"`
	LastName     string         `gorm:"size:100;not null" json:"last_name"`
	Phone        string         `gorm:"size:30" json:"phone,omitempty"`
	Role         enums.UserRole `gorm:"size:20;not null;default:buyer" json:"role"`

	// Seller profile fields. Empty for buyers.
	ShopName  string `gorm:"size:120" json:"shop_name,omitempty"`
	Bio       string `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL string `gorm:"size:512" json:"avatar_url,omitempty"`

	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	Addresses []Address `gorm:"foreignKey:UserID" json:"addresses,omitempty"`
}

// FullName returns the display name for the account.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsSeller reports whether the account can manage a catalog.
func (u *User) IsSeller() bool {
	return u.Role == enums.UserRoleSeller
}

// TableName overrides the default GORM naming.
func (User) TableName() string { return "users" }
