// Package pagination implements keyset cursors over (created_at, id). The
// cursor encodes both columns so rows sharing a timestamp page in a stable
// order.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Cursor points just past the last row of the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Encode serializes the cursor as base64("<RFC3339Nano>|<uuid>").
func Encode(createdAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%s|%s", createdAt.UTC().Format(time.RFC3339Nano), id.String())
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes a client-supplied cursor. An empty string returns a nil
// cursor (first page).
func ParseCursor(value string) (*Cursor, error) {
	if value == "" {
		return nil, nil
	}

	raw, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid cursor")
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid cursor")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid cursor")
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid cursor")
	}

	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}

// NormalizeLimit clamps a requested page size to [1, MaxLimit], defaulting
// when unset.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer over-fetches one row so callers can tell whether a next
// page exists without a count query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}
