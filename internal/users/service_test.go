package users

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	"github.com/handcrafted-haven/marketplace-backend/pkg/db/models"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/security"
)

type gormTx struct {
	db *gorm.DB
}

func (t gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

type fakeBlobStore struct {
	uploads []string
	fail    bool
}

func (f *fakeBlobStore) Upload(_ context.Context, objectName, _ string, body io.Reader) (string, error) {
	if f.fail {
		return "", fmt.Errorf("storage unavailable")
	}
	io.Copy(io.Discard, body)
	f.uploads = append(f.uploads, objectName)
	return "https://storage.googleapis.com/test-bucket/" + objectName, nil
}

func testPasswordConfig() config.PasswordConfig {
	// Deliberately cheap parameters to keep the hash fast under test.
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Address{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, blobs *fakeBlobStore) Service {
	t.Helper()
	var store blobStore
	if blobs != nil {
		store = blobs
	}
	svc, err := NewService(NewRepository(conn), gormTx{db: conn}, store, nil, testPasswordConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegisterHashesPasswordAndNormalizesEmail(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "  Maker@Example.COM ",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Craft",
		Role:      enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "maker@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "correct horse" || !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", user.PasswordHash)
	}

	ok, err := security.VerifyPassword("correct horse", user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestRegisterStoresAddressWithAccount(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "maker@example.com",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Craft",
		Phone:     " 828-555-0101 ",
		Role:      enums.UserRoleBuyer,
		Address: &AddressInput{
			Line1:      "1 Forge Lane",
			City:       "Asheville",
			PostalCode: "28801",
			Country:    "us",
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Phone != "828-555-0101" {
		t.Fatalf("expected trimmed phone, got %q", user.Phone)
	}

	addresses, err := svc.ListAddresses(ctx, user.ID)
	if err != nil {
		t.Fatalf("list addresses: %v", err)
	}
	if len(addresses) != 1 {
		t.Fatalf("expected one address, got %d", len(addresses))
	}
	if !addresses[0].IsDefault {
		t.Fatal("expected the registration address to be the default")
	}
	if addresses[0].Country != "US" {
		t.Fatalf("expected country uppercased, got %q", addresses[0].Country)
	}
}

func TestRegisterInvalidAddressCreatesNothing(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "maker@example.com",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Craft",
		Role:      enums.UserRoleBuyer,
		Address:   &AddressInput{Line1: "1 Forge Lane"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for partial address, got %v", err)
	}

	var users int64
	if err := conn.Model(&models.User{}).Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	var addresses int64
	if err := conn.Model(&models.Address{}).Count(&addresses).Error; err != nil {
		t.Fatalf("count addresses: %v", err)
	}
	if users != 0 || addresses != 0 {
		t.Fatalf("expected no rows, got %d users and %d addresses", users, addresses)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	input := RegisterInput{
		Email:     "maker@example.com",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Craft",
		Role:      enums.UserRoleBuyer,
		Address: &AddressInput{
			Line1:      "1 Forge Lane",
			City:       "Asheville",
			PostalCode: "28801",
			Country:    "US",
		},
	}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}

	// The rejected attempt must not leave its address behind.
	var addresses int64
	if err := conn.Model(&models.Address{}).Count(&addresses).Error; err != nil {
		t.Fatalf("count addresses: %v", err)
	}
	if addresses != 1 {
		t.Fatalf("expected only the first registration's address, got %d", addresses)
	}
}

func TestUpdateProfileChangesPhone(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "maker@example.com",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Craft",
		Role:      enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	phone := "828-555-0199"
	result, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Phone: &phone})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if result.User.Phone != phone {
		t.Fatalf("expected phone %q persisted, got %q", phone, result.User.Phone)
	}
}

func TestRegisterSellerRequiresShopName(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "seller@example.com",
		Password:  "correct horse",
		FirstName: "Bea",
		LastName:  "Potter",
		Role:      enums.UserRoleSeller,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error without shop name, got %v", err)
	}
}

func TestUpdateProfileAvatarFailureIsNonFatal(t *testing.T) {
	conn := newTestDB(t)
	blobs := &fakeBlobStore{fail: true}
	svc := newTestService(t, conn, blobs)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "maker@example.com",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Craft",
		Role:      enums.UserRoleSeller,
		ShopName:  "Ada Makes",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	bio := "Thrown pots since 2015."
	result, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		Bio:    &bio,
		Avatar: &AvatarUpload{FileName: "me.png", ContentType: "image/png", Body: strings.NewReader("png")},
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if !result.AvatarSkipped {
		t.Fatal("expected avatar marked skipped")
	}
	if result.User.Bio != bio {
		t.Fatalf("expected bio persisted despite avatar failure, got %q", result.User.Bio)
	}
	if result.User.AvatarURL != "" {
		t.Fatalf("expected no avatar url, got %q", result.User.AvatarURL)
	}
}

func TestUpdateProfileStoresAvatar(t *testing.T) {
	conn := newTestDB(t)
	blobs := &fakeBlobStore{}
	svc := newTestService(t, conn, blobs)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "maker@example.com",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Craft",
		Role:      enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		Avatar: &AvatarUpload{FileName: "me.png", ContentType: "image/png", Body: strings.NewReader("png")},
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if result.AvatarSkipped {
		t.Fatal("expected avatar stored")
	}
	if result.User.AvatarURL == "" {
		t.Fatal("expected avatar url persisted")
	}
	if len(blobs.uploads) != 1 || !strings.HasPrefix(blobs.uploads[0], "avatars/"+user.ID.String()+"/") {
		t.Fatalf("unexpected upload path %v", blobs.uploads)
	}
}

func TestGetSellerProfileRejectsBuyers(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	buyer, err := svc.Register(ctx, RegisterInput{
		Email:     "buyer@example.com",
		Password:  "correct horse",
		FirstName: "Cal",
		LastName:  "Shopper",
		Role:      enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = svc.GetSellerProfile(ctx, buyer.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for buyer account, got %v", err)
	}
}

func TestAddAddressDefaultSwap(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.AddAddress(ctx, userID, AddressInput{
		Line1:      "1 Forge Lane",
		City:       "Asheville",
		PostalCode: "28801",
		Country:    "us",
		IsDefault:  true,
	})
	if err != nil {
		t.Fatalf("add first address: %v", err)
	}
	if first.Country != "US" {
		t.Fatalf("expected country uppercased, got %q", first.Country)
	}

	second, err := svc.AddAddress(ctx, userID, AddressInput{
		Line1:      "2 Kiln Road",
		City:       "Asheville",
		PostalCode: "28801",
		Country:    "US",
		IsDefault:  true,
	})
	if err != nil {
		t.Fatalf("add second address: %v", err)
	}

	addresses, err := svc.ListAddresses(ctx, userID)
	if err != nil {
		t.Fatalf("list addresses: %v", err)
	}
	if len(addresses) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addresses))
	}
	for _, address := range addresses {
		if address.ID == second.ID && !address.IsDefault {
			t.Fatal("expected newest address to be the default")
		}
		if address.ID == first.ID && address.IsDefault {
			t.Fatal("expected previous default to be cleared")
		}
	}
}

func TestRemoveAddressScopedToOwner(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()
	userID := uuid.New()

	address, err := svc.AddAddress(ctx, userID, AddressInput{
		Line1:      "1 Forge Lane",
		City:       "Asheville",
		PostalCode: "28801",
		Country:    "US",
	})
	if err != nil {
		t.Fatalf("add address: %v", err)
	}

	err = svc.RemoveAddress(ctx, uuid.New(), address.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}

	if err := svc.RemoveAddress(ctx, userID, address.ID); err != nil {
		t.Fatalf("remove address: %v", err)
	}
}
