package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
)

type fakeStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestCreateAndValidateSession(t *testing.T) {
	store := newFakeStore()
	manager := NewManager(store, 30*time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	sessionID, err := manager.Create(ctx, userID, enums.UserRoleSeller)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sessionID == uuid.Nil {
		t.Fatal("expected a session id")
	}
	for _, ttl := range store.ttls {
		if ttl != 30*time.Minute {
			t.Fatalf("expected 30m ttl, got %s", ttl)
		}
	}

	record, err := manager.Validate(ctx, sessionID, userID)
	if err != nil {
		t.Fatalf("validate session: %v", err)
	}
	if record == nil {
		t.Fatal("expected a live session")
	}
	if record.UserID != userID || record.Role != enums.UserRoleSeller {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestValidateUnknownSessionReturnsNil(t *testing.T) {
	manager := NewManager(newFakeStore(), time.Minute)

	record, err := manager.Validate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record for unknown session, got %+v", record)
	}
}

func TestValidateRejectsMismatchedUser(t *testing.T) {
	store := newFakeStore()
	manager := NewManager(store, time.Minute)
	ctx := context.Background()

	sessionID, err := manager.Create(ctx, uuid.New(), enums.UserRoleBuyer)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	record, err := manager.Validate(ctx, sessionID, uuid.New())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if record != nil {
		t.Fatal("expected nil record when the subject does not match")
	}
}

func TestRevokeEndsSession(t *testing.T) {
	store := newFakeStore()
	manager := NewManager(store, time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	sessionID, err := manager.Create(ctx, userID, enums.UserRoleBuyer)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := manager.Revoke(ctx, sessionID); err != nil {
		t.Fatalf("revoke session: %v", err)
	}

	record, err := manager.Validate(ctx, sessionID, userID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if record != nil {
		t.Fatal("expected revoked session to be gone")
	}
}
