package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
)

type samplePayload struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=10"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"maker@example.com","name":"Ada"}`))

	var payload samplePayload
	if err := DecodeJSONBody(r, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Email != "maker@example.com" || payload.Name != "Ada" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"maker@example.com","surprise":true}`))

	var payload samplePayload
	err := DecodeJSONBody(r, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))

	var payload samplePayload
	err := DecodeJSONBody(r, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for malformed body, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldDetailsByJSONName(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"a name that is too long"}`))

	var payload samplePayload
	err := DecodeJSONBody(r, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["email"] != "is required" {
		t.Fatalf("expected email marked required, got %v", details)
	}
	if details["name"] != "must be at most 10" {
		t.Fatalf("expected name length message, got %v", details)
	}
}

func TestDecodeJSONPart(t *testing.T) {
	var payload samplePayload
	if err := DecodeJSONPart(`{"email":"maker@example.com"}`, &payload); err != nil {
		t.Fatalf("decode part: %v", err)
	}
	if payload.Email != "maker@example.com" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	err := DecodeJSONPart(`{"email":"not-an-email"}`, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad email, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  ", 0); got != "hello" {
		t.Fatalf("expected trimmed string, got %q", got)
	}
	if got := SanitizeString("  a long search phrase  ", 6); got != "a long" {
		t.Fatalf("expected truncation, got %q", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Maker@Example.COM "); got != "maker@example.com" {
		t.Fatalf("expected canonical email, got %q", got)
	}
}
