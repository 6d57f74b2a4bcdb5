package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductImage is one stored photo for a listing. Position orders the
// gallery; exactly one image per product should carry IsPrimary.
type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text,omitempty"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName overrides the default GORM naming.
func (ProductImage) TableName() string { return "product_images" }
