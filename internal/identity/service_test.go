package identity_test

import (
	"context"
	"testing"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/identity"
	"go-pos-gst/internal/license"
	"go-pos-gst/internal/models"
	"go-pos-gst/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	svc    *identity.Service
	gate   *license.Gate
	tokens *auth.Tokens
}

func newFixture(t *testing.T) fixture {
	db := testutil.NewDB(t)
	tokens := auth.NewTokens([]byte("identity-test-secret-0001"), 24*time.Hour)
	gate := license.NewGate(db, auth.NewLicenseCodec("identity-test"))
	return fixture{db: db, svc: identity.NewService(db, tokens, gate), gate: gate, tokens: tokens}
}

func (f fixture) registerLicensed(t *testing.T, shop, user, pw, email string) (uint, string) {
	t.Helper()
	ctx := context.Background()
	shopID, err := f.svc.Register(ctx, shop, user, pw, email)
	require.NoError(t, err)
	key, _, err := f.gate.Issue(ctx, shopID, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	return shopID, key
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	shopID, key := f.registerLicensed(t, "Shop1", "alice", "pw1", "alice@shop1.test")

	session, err := f.svc.Authenticate(context.Background(), "alice", "pw1", key)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.Role)
	assert.Equal(t, shopID, session.ShopID)

	p, err := f.svc.Principal(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, shopID, p.ShopID)
	assert.Equal(t, models.RoleAdmin, p.Role)
}

func TestRegisterDuplicateUsernameAcrossShops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Shop1", "alice", "pw1", "alice@shop1.test")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "Shop2", "alice", "other", "alice@shop2.test")
	assert.True(t, apperr.Is(err, apperr.Conflict), "got %v", err)

	var shops int64
	f.db.Model(&models.Shop{}).Count(&shops)
	assert.Equal(t, int64(1), shops, "second shop must not be created")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Shop1", "alice", "pw1", "same@mail.test")
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, "Shop2", "bob", "pw2", "SAME@mail.test")
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestRegisterRequiresFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), "", "alice", "pw", "a@b.c")
	assert.True(t, apperr.Is(err, apperr.InvalidInput))
}

func TestAuthenticateFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, key := f.registerLicensed(t, "Shop1", "alice", "pw1", "alice@shop1.test")
	_, otherKey := f.registerLicensed(t, "Shop2", "bob", "pw2", "bob@shop2.test")

	tests := []struct {
		name     string
		user, pw string
		key      string
		want     apperr.Kind
	}{
		{"wrong password", "alice", "nope", key, apperr.Unauthorized},
		{"unknown user", "mallory", "pw1", key, apperr.Unauthorized},
		{"user of another shop", "bob", "pw2", key, apperr.Unauthorized},
		{"garbage key", "alice", "pw1", "garbage", apperr.Unauthorized},
		{"other shop key", "alice", "pw1", otherKey, apperr.Unauthorized},
		{"missing key", "alice", "pw1", "", apperr.InvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Authenticate(ctx, tt.user, tt.pw, tt.key)
			assert.True(t, apperr.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestAuthenticateExpiredLicenseIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shopID, key := f.registerLicensed(t, "Shop1", "alice", "pw1", "alice@shop1.test")

	// valid_until = yesterday, is_active still true
	require.NoError(t, f.db.Model(&models.License{}).Where("shop_id = ?", shopID).
		Update("valid_until", time.Now().AddDate(0, 0, -1)).Error)

	_, err := f.svc.Authenticate(ctx, "alice", "pw1", key)
	assert.True(t, apperr.Is(err, apperr.Forbidden), "got %v", err)
	assert.Contains(t, apperr.Message(err), "expired")

	var lic models.License
	require.NoError(t, f.db.Where("shop_id = ?", shopID).First(&lic).Error)
	assert.False(t, lic.IsActive)
}

func TestPrincipalRejectsBadToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Principal(context.Background(), "not.a.token")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestStaffLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shopID, key := f.registerLicensed(t, "Shop1", "alice", "pw1", "alice@shop1.test")
	admin := auth.Principal{ShopID: shopID, UserID: 1, Role: models.RoleAdmin}

	staff, err := f.svc.AddStaff(ctx, admin, identity.StaffInput{
		Username: "sam", Password: "pw", Email: "sam@shop1.test", Designation: "cashier",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, staff.Role)
	assert.Equal(t, shopID, staff.ShopID)

	session, err := f.svc.Authenticate(ctx, "sam", "pw", key)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, session.Role)

	list, err := f.svc.ListStaff(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].StaffDetail)
	assert.Equal(t, "cashier", list[0].StaffDetail.Designation)

	designation, password := "manager", "newpw"
	updated, err := f.svc.UpdateStaff(ctx, admin, staff.ID, identity.StaffUpdate{
		Designation: &designation, Password: &password,
	})
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.StaffDetail.Designation)

	_, err = f.svc.Authenticate(ctx, "sam", "newpw", key)
	require.NoError(t, err)

	staffToken := session.Token
	_, err = f.svc.Principal(ctx, staffToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteStaff(ctx, admin, staff.ID))

	_, err = f.svc.Principal(ctx, staffToken)
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "a deleted user's token stops working")

	var details int64
	f.db.Model(&models.StaffDetail{}).Where("user_id = ?", staff.ID).Count(&details)
	assert.Zero(t, details)

	err = f.svc.DeleteStaff(ctx, admin, staff.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestPrincipalUsesStoredRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shopID, _ := f.registerLicensed(t, "Shop1", "alice", "pw1", "alice@shop1.test")

	var alice models.User
	require.NoError(t, f.db.Where("username = ?", "alice").First(&alice).Error)

	// A token minted with a role the user does not hold.
	token, err := f.tokens.GenerateToken(auth.Principal{ShopID: shopID, UserID: alice.ID, Role: models.RoleStaff})
	require.NoError(t, err)
	p, err := f.svc.Principal(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)

	// Same user id claimed under another shop.
	token, err = f.tokens.GenerateToken(auth.Principal{ShopID: shopID + 1, UserID: alice.ID, Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = f.svc.Principal(ctx, token)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestStaffManagementIsAdminOnlyAndScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shop1, _ := f.registerLicensed(t, "Shop1", "alice", "pw1", "alice@shop1.test")
	shop2, _ := f.registerLicensed(t, "Shop2", "bob", "pw2", "bob@shop2.test")
	admin1 := auth.Principal{ShopID: shop1, UserID: 1, Role: models.RoleAdmin}
	admin2 := auth.Principal{ShopID: shop2, UserID: 2, Role: models.RoleAdmin}

	staff, err := f.svc.AddStaff(ctx, admin1, identity.StaffInput{Username: "sam", Password: "pw", Email: "sam@x.test"})
	require.NoError(t, err)

	// Another shop's admin cannot see or touch it.
	err = f.svc.DeleteStaff(ctx, admin2, staff.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	list, err := f.svc.ListStaff(ctx, admin2)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Staff cannot manage staff.
	staffP := auth.Principal{ShopID: shop1, UserID: staff.ID, Role: models.RoleStaff}
	_, err = f.svc.AddStaff(ctx, staffP, identity.StaffInput{Username: "x", Password: "y", Email: "x@y.z"})
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	// The admin is not a staff target.
	err = f.svc.DeleteStaff(ctx, admin1, admin1.UserID)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	// Duplicate username anywhere is a conflict.
	_, err = f.svc.AddStaff(ctx, admin2, identity.StaffInput{Username: "sam", Password: "pw", Email: "other@x.test"})
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shopID, _ := f.registerLicensed(t, "Shop1", "alice", "pw1", "alice@shop1.test")
	admin := auth.Principal{ShopID: shopID, UserID: 1, Role: models.RoleAdmin}

	shop, err := f.svc.UpdateSettings(ctx, admin, identity.SettingsInput{
		Name: "Shop One", Address: "Main St", GSTIN: "29abcde1234f1z5",
	})
	require.NoError(t, err)
	assert.Equal(t, "Shop One", shop.Name)
	assert.Equal(t, "29ABCDE1234F1Z5", shop.GSTIN)

	_, err = f.svc.UpdateSettings(ctx, admin, identity.SettingsInput{Name: "X", GSTIN: "short"})
	assert.True(t, apperr.Is(err, apperr.InvalidInput))

	staff := auth.Principal{ShopID: shopID, UserID: 9, Role: models.RoleStaff}
	_, err = f.svc.UpdateSettings(ctx, staff, identity.SettingsInput{Name: "Hijack"})
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	got, err := f.svc.GetSettings(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, "Shop One", got.Name)
}
