package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 6, 14, 9, 30, 0, 123456789, time.UTC)
	id := uuid.New()

	cursor, err := ParseCursor(Encode(createdAt, id))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if cursor == nil {
		t.Fatal("expected a cursor")
	}
	if !cursor.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected %s, got %s", createdAt, cursor.CreatedAt)
	}
	if cursor.ID != id {
		t.Fatalf("expected id %s, got %s", id, cursor.ID)
	}
}

func TestParseCursorEmptyMeansFirstPage(t *testing.T) {
	cursor, err := ParseCursor("")
	if err != nil {
		t.Fatalf("parse empty cursor: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor, got %+v", cursor)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	cases := []string{
		"!!!not-base64!!!",
		"bm8tcGlwZQ==",                     // decodes without a separator
		"bm90LWEtdGltZXxub3QtYS11dWlk",     // bad timestamp
		Encode(time.Now(), uuid.New())[:8], // truncated
	}
	for _, value := range cases {
		_, err := ParseCursor(value)
		typed := apperrors.As(err)
		if typed == nil || typed.Code() != apperrors.CodeValidation {
			t.Fatalf("cursor %q: expected validation error, got %v", value, err)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{1, 1},
		{MaxLimit, MaxLimit},
		{MaxLimit + 50, MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestLimitWithBufferOverFetchesOne(t *testing.T) {
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
	if got := LimitWithBuffer(0); got != DefaultLimit+1 {
		t.Fatalf("expected %d, got %d", DefaultLimit+1, got)
	}
}
