package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a shipping destination owned by a user. A user may keep several;
// at most one is flagged as the default used to prefill checkout.
type Address struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Line1      string    `gorm:"size:255;not null" json:"line1"`
	Line2      string    `gorm:"size:255" json:"line2,omitempty"`
	City       string    `gorm:"size:120;not null" json:"city"`
	Region     string    `gorm:"size:120" json:"region,omitempty"`
	PostalCode string    `gorm:"size:20;not null" json:"postal_code"`
	Country    string    `gorm:"size:2;not null" json:"country"`
	IsDefault  bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

// TableName overrides the default GORM naming.
func (Address) TableName() string { return "addresses" }
