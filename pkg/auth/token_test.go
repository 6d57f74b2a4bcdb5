package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	apperrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-please-rotate",
		Issuer:            "marketplace-backend",
		ExpirationMinutes: 15,
	}
}

func TestMintParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	sessionID := uuid.New()

	token, err := MintAccessToken(cfg, userID, enums.UserRoleSeller, sessionID, time.Now())
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject %s, got %s", userID, claims.Subject)
	}
	if claims.Role != enums.UserRoleSeller {
		t.Fatalf("expected seller role, got %s", claims.Role)
	}
	if claims.SessionID != sessionID {
		t.Fatalf("expected session %s, got %s", sessionID, claims.SessionID)
	}
}

func TestMintRequiresSecret(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Secret = ""

	if _, err := MintAccessToken(cfg, uuid.New(), enums.UserRoleBuyer, uuid.New(), time.Now()); err == nil {
		t.Fatal("expected error without a secret")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, uuid.New(), enums.UserRoleBuyer, uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	other := cfg
	other.Secret = "a-different-secret"
	_, err = ParseAccessToken(other, token)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for wrong secret, got %v", err)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, uuid.New(), enums.UserRoleBuyer, uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for wrong issuer, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	issuedAt := time.Now().Add(-time.Duration(cfg.ExpirationMinutes+5) * time.Minute)
	token, err := MintAccessToken(cfg, uuid.New(), enums.UserRoleBuyer, uuid.New(), issuedAt)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseAccessToken(testJWTConfig(), "not.a.jwt")
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for garbage token, got %v", err)
	}
}
