package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
)

// Order doubles as the cart: each buyer has at most one pending order (a
// partial unique index enforces this), and checkout flips it to paid with a
// frozen total. Items carry their own price snapshots.
type Order struct {
	ID       uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID uuid.UUID         `gorm:"type:uuid;not null;index" json:"client_id"`
	Status   enums.OrderStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	Total    decimal.Decimal   `gorm:"type:numeric(10,2);not null;default:0" json:"total"`

	ShippingAddressID *uuid.UUID `gorm:"type:uuid" json:"shipping_address_id,omitempty"`
	PlacedAt          *time.Time `json:"placed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// IsCart reports whether the order is still the buyer's open cart.
func (o *Order) IsCart() bool {
	return o.Status == enums.OrderStatusPending
}

// ItemCount returns the summed quantity across line items.
func (o *Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// TableName overrides the default GORM naming.
func (Order) TableName() string { return "orders" }
