// Package auth implements credential login backed by redis sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/handcrafted-haven/marketplace-backend/pkg/auth"
	"github.com/handcrafted-haven/marketplace-backend/pkg/auth/session"
	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/security"
)

type userLoader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service signs buyers and sellers in and out.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

type service struct {
	users    userLoader
	sessions *session.Manager
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

// NewService builds the auth service.
func NewService(users userLoader, sessions *session.Manager, jwtCfg config.JWTConfig) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{users: users, sessions: sessions, jwtCfg: jwtCfg, now: time.Now}, nil
}

// LoginResult carries the minted token and the signed-in account.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login verifies credentials and opens a session. A wrong email and a wrong
// password are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	sessionID, err := s.sessions.Create(ctx, user.ID, user.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, user.ID, user.Role, sessionID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	return &LoginResult{Token: token, User: user}, nil
}

// Logout revokes the session behind the presented token.
func (s *service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// SessionChecker adapts the session manager to the middleware's validator.
type SessionChecker struct {
	Manager *session.Manager
}

// IsLive reports whether the session exists and belongs to the user.
func (c SessionChecker) IsLive(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	record, err := c.Manager.Validate(ctx, sessionID, userID)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}
