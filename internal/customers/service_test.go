package customers_test

import (
	"context"
	"testing"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/customers"
	"go-pos-gst/internal/models"
	"go-pos-gst/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertOverwritesByPhone(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.SeedShop(t, db, "Shop1")
	staff := testutil.StaffOf(t, db, admin)
	svc := customers.NewService(db)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, staff, customers.Input{Phone: "98450-12345", Name: "Ravi", Address: "Old road"})
	require.NoError(t, err)
	assert.Equal(t, "9845012345", first.Phone)

	second, err := svc.Upsert(ctx, admin, customers.Input{
		Phone: "9845012345", Name: "Ravi K", Address: "New road", GSTIN: "29abcde1234f1z5",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ravi K", second.Name)
	assert.Equal(t, "New road", second.Address)
	assert.Equal(t, "29ABCDE1234F1Z5", second.GSTIN)

	var n int64
	db.Model(&models.Customer{}).Where("shop_id = ?", admin.ShopID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestSamePhoneInTwoShops(t *testing.T) {
	db := testutil.NewDB(t)
	shopA := testutil.SeedShop(t, db, "A")
	shopB := testutil.SeedShop(t, db, "B")
	svc := customers.NewService(db)
	ctx := context.Background()

	a, err := svc.Upsert(ctx, shopA, customers.Input{Phone: "111", Name: "Asha"})
	require.NoError(t, err)
	b, err := svc.Upsert(ctx, shopB, customers.Input{Phone: "111", Name: "Bala"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	_, err = svc.Get(ctx, shopA, b.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	list, err := svc.List(ctx, shopA, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Asha", list[0].Name)
}

func TestUpsertValidation(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.SeedShop(t, db, "Shop1")
	svc := customers.NewService(db)

	_, err := svc.Upsert(context.Background(), admin, customers.Input{Name: "No phone"})
	assert.True(t, apperr.Is(err, apperr.InvalidInput))

	_, err = svc.Upsert(context.Background(), admin, customers.Input{Phone: "1", GSTIN: "123"})
	assert.True(t, apperr.Is(err, apperr.InvalidInput))
}

func TestListSearch(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.SeedShop(t, db, "Shop1")
	svc := customers.NewService(db)
	ctx := context.Background()

	for _, in := range []customers.Input{{Phone: "900", Name: "Meena"}, {Phone: "800", Name: "Mohan"}, {Phone: "700", Name: "Zoya"}} {
		_, err := svc.Upsert(ctx, admin, in)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, admin, "M")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.List(ctx, admin, "70")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Zoya", list[0].Name)
}
