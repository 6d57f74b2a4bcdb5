package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
)

// Claims is the access-token payload. Subject carries the user ID.
type Claims struct {
	Role      enums.UserRole `json:"role"`
	SessionID uuid.UUID      `json:"sid"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
