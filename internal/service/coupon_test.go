package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/funday-app/funday-server/internal/models"
)

func TestIssueCouponValidates(t *testing.T) {
	db := initTestDB(t)
	svc := &CouponService{DB: db}
	ctx := context.Background()

	_, err := svc.Issue(ctx, IssueCouponInput{Name: "", Discount: 100, ExpiresAt: time.Now().Add(time.Hour)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Issue(ctx, IssueCouponInput{Name: "x", Discount: 0, ExpiresAt: time.Now().Add(time.Hour)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Issue(ctx, IssueCouponInput{Name: "x", Discount: 100, ExpiresAt: time.Now().Add(-time.Hour)})
	require.ErrorIs(t, err, ErrValidation)

	coupon, err := svc.Issue(ctx, IssueCouponInput{Name: "welcome", Discount: 1000, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	require.NotEmpty(t, coupon.Code)
	require.False(t, coupon.IsUsed)
}

func TestListCouponsByState(t *testing.T) {
	db := initTestDB(t)
	svc := &CouponService{DB: db}
	ctx := context.Background()

	uid := uint(7)
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	require.NoError(t, db.Create(&models.Coupon{Code: "a", Name: "active", Discount: 1, ExpiresAt: future, UserID: &uid}).Error)
	require.NoError(t, db.Create(&models.Coupon{Code: "u", Name: "used", Discount: 1, ExpiresAt: future, IsUsed: true, UserID: &uid}).Error)
	require.NoError(t, db.Create(&models.Coupon{Code: "e", Name: "expired", Discount: 1, ExpiresAt: past, UserID: &uid}).Error)
	require.NoError(t, db.Create(&models.Coupon{Code: "o", Name: "other user", Discount: 1, ExpiresAt: future, UserID: nil}).Error)

	total, items, err := svc.List(ctx, CouponFilter{State: CouponStateActive, UserID: uid}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "active", items[0].Name)

	total, items, err = svc.List(ctx, CouponFilter{State: CouponStateUsed, UserID: uid}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "used", items[0].Name)

	total, items, err = svc.List(ctx, CouponFilter{State: CouponStateExpired, UserID: uid}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "expired", items[0].Name)

	_, _, err = svc.List(ctx, CouponFilter{State: "whatever"}, 0, 20)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCouponStateFollowsUsedFlag(t *testing.T) {
	db := initTestDB(t)
	svc := &CouponService{DB: db}
	ctx := context.Background()

	uid := uint(7)
	coupon := models.Coupon{Code: "flip", Name: "flip", Discount: 1, ExpiresAt: time.Now().Add(time.Hour), UserID: &uid}
	require.NoError(t, db.Create(&coupon).Error)

	total, _, err := svc.List(ctx, CouponFilter{State: CouponStateActive, UserID: uid}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	used := true
	_, err = svc.Patch(ctx, coupon.ID, PatchCouponInput{IsUsed: &used})
	require.NoError(t, err)

	total, _, err = svc.List(ctx, CouponFilter{State: CouponStateActive, UserID: uid}, 0, 20)
	require.NoError(t, err)
	require.Zero(t, total)

	total, _, err = svc.List(ctx, CouponFilter{State: CouponStateUsed, UserID: uid}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestPatchCouponNullClearsAssignment(t *testing.T) {
	db := initTestDB(t)
	svc := &CouponService{DB: db}
	ctx := context.Background()

	uid := uint(7)
	coupon := models.Coupon{Code: "assign", Name: "assign", Discount: 1, ExpiresAt: time.Now().Add(time.Hour), UserID: &uid}
	require.NoError(t, db.Create(&coupon).Error)

	// A body without the key leaves the assignment alone.
	var keep PatchCouponInput
	require.NoError(t, json.Unmarshal([]byte(`{"name": "renamed"}`), &keep))
	got, err := svc.Patch(ctx, coupon.ID, keep)
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Name)
	require.NotNil(t, got.UserID)
	require.Equal(t, uid, *got.UserID)

	// An explicit null clears it.
	var clear PatchCouponInput
	require.NoError(t, json.Unmarshal([]byte(`{"user_id": null}`), &clear))
	got, err = svc.Patch(ctx, coupon.ID, clear)
	require.NoError(t, err)
	require.Nil(t, got.UserID)

	var stored models.Coupon
	require.NoError(t, db.First(&stored, coupon.ID).Error)
	require.Nil(t, stored.UserID)

	// And a concrete value reassigns.
	var assign PatchCouponInput
	require.NoError(t, json.Unmarshal([]byte(`{"user_id": 9}`), &assign))
	got, err = svc.Patch(ctx, coupon.ID, assign)
	require.NoError(t, err)
	require.NotNil(t, got.UserID)
	require.EqualValues(t, 9, *got.UserID)
}

func TestCouponUsable(t *testing.T) {
	now := time.Now()

	fresh := models.Coupon{ExpiresAt: now.Add(time.Hour)}
	require.True(t, fresh.Usable(now))

	used := models.Coupon{ExpiresAt: now.Add(time.Hour), IsUsed: true}
	require.False(t, used.Usable(now))

	expired := models.Coupon{ExpiresAt: now.Add(-time.Minute)}
	require.False(t, expired.Usable(now))
}
