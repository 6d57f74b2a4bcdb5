package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
)

// Product is a handcrafted listing owned by a seller. Quantity is the live
// stock counter decremented at checkout; a CHECK constraint keeps it from
// ever going negative.
type Product struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID    uuid.UUID             `gorm:"type:uuid;not null;index" json:"seller_id"`
	Name        string                `gorm:"size:200;not null" json:"name"`
	Description string                `gorm:"type:text" json:"description,omitempty"`
	Category    enums.ProductCategory `gorm:"size:30;not null;default:other;index" json:"category"`
	Materials   pq.StringArray        `gorm:"type:text[]" json:"materials,omitempty"`
	Price       decimal.Decimal       `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity    int                   `gorm:"not null;default:0" json:"quantity"`
	IsActive    bool                  `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	Images []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
}

// Purchasable reports whether the listing can be added to a cart.
func (p *Product) Purchasable() bool {
	return p.IsActive && p.DeletedAt == nil && p.Quantity > 0
}

// PrimaryImageURL returns the cover image URL, or "" when none is set.
func (p *Product) PrimaryImageURL() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// TableName overrides the default GORM naming.
func (Product) TableName() string { return "products" }
