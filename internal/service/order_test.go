package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/funday-app/funday-server/internal/apperr"
	"github.com/funday-app/funday-server/internal/eventbus"
	"github.com/funday-app/funday-server/internal/models"
)

func seedBookable(t *testing.T, svc *ProductService) (*ProductDetail, models.ProductOption) {
	t.Helper()
	detail, err := svc.Create(context.Background(), CreateProductInput{
		Title: "Surf lesson", Description: "x", Price: 30000, HostID: 1,
		Options: []OptionInput{{Name: "Morning", Price: 30000, Date: time.Now().Add(48 * time.Hour), MaxCount: 6}},
	})
	require.NoError(t, err)
	require.Len(t, detail.Options, 1)
	return detail, detail.Options[0]
}

func TestCreateOrderComputesTotal(t *testing.T) {
	db := initTestDB(t)
	products := &ProductService{DB: db}
	svc := &OrderService{DB: db}
	ctx := context.Background()

	detail, opt := seedBookable(t, products)

	uid := uint(5)
	order, err := svc.Create(ctx, CreateOrderInput{
		UserID:    &uid,
		ProductID: detail.ID,
		Items:     []OrderItemInput{{OptionID: opt.ID, Count: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.EqualValues(t, 60000, order.TotalPrice)
	require.Len(t, order.Items, 1)

	var itemCount int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount).Error)
	require.EqualValues(t, 1, itemCount)
}

func TestCreateOrderGuestNeedsContact(t *testing.T) {
	db := initTestDB(t)
	products := &ProductService{DB: db}
	svc := &OrderService{DB: db}
	ctx := context.Background()

	detail, opt := seedBookable(t, products)

	_, err := svc.Create(ctx, CreateOrderInput{
		ProductID: detail.ID,
		Items:     []OrderItemInput{{OptionID: opt.ID, Count: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)

	order, err := svc.Create(ctx, CreateOrderInput{
		OrdererName:  "Walk In",
		OrdererPhone: "010-1234-5678",
		ProductID:    detail.ID,
		Items:        []OrderItemInput{{OptionID: opt.ID, Count: 1}},
	})
	require.NoError(t, err)
	require.Nil(t, order.UserID)
}

func TestCreateOrderAppliesCoupon(t *testing.T) {
	db := initTestDB(t)
	products := &ProductService{DB: db}
	svc := &OrderService{DB: db}
	ctx := context.Background()

	detail, opt := seedBookable(t, products)

	uid := uint(5)
	coupon := models.Coupon{Code: "c1", Name: "welcome", Discount: 10000, ExpiresAt: time.Now().Add(24 * time.Hour), UserID: &uid}
	require.NoError(t, db.Create(&coupon).Error)

	order, err := svc.Create(ctx, CreateOrderInput{
		UserID:    &uid,
		ProductID: detail.ID,
		CouponID:  &coupon.ID,
		Items:     []OrderItemInput{{OptionID: opt.ID, Count: 1}},
	})
	require.NoError(t, err)
	require.EqualValues(t, 20000, order.TotalPrice)

	var used models.Coupon
	require.NoError(t, db.First(&used, coupon.ID).Error)
	require.True(t, used.IsUsed)

	// second use must fail and must not create an order
	_, err = svc.Create(ctx, CreateOrderInput{
		UserID:    &uid,
		ProductID: detail.ID,
		CouponID:  &coupon.ID,
		Items:     []OrderItemInput{{OptionID: opt.ID, Count: 1}},
	})
	require.True(t, apperr.IsBadRequest(err))

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.EqualValues(t, 1, orders)
}

func TestCreateOrderRejectsExpiredCoupon(t *testing.T) {
	db := initTestDB(t)
	products := &ProductService{DB: db}
	svc := &OrderService{DB: db}
	ctx := context.Background()

	detail, opt := seedBookable(t, products)

	coupon := models.Coupon{Code: "c2", Name: "stale", Discount: 5000, ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&coupon).Error)

	uid := uint(5)
	_, err := svc.Create(ctx, CreateOrderInput{
		UserID:    &uid,
		ProductID: detail.ID,
		CouponID:  &coupon.ID,
		Items:     []OrderItemInput{{OptionID: opt.ID, Count: 1}},
	})
	require.True(t, apperr.IsBadRequest(err))

	var kept models.Coupon
	require.NoError(t, db.First(&kept, coupon.ID).Error)
	require.False(t, kept.IsUsed)
}

func TestCreateOrderRejectsForeignOption(t *testing.T) {
	db := initTestDB(t)
	products := &ProductService{DB: db}
	svc := &OrderService{DB: db}
	ctx := context.Background()

	_, optA := seedBookable(t, products)
	other, err := products.Create(ctx, CreateProductInput{Title: "Other", Description: "x", Price: 100, HostID: 2})
	require.NoError(t, err)

	uid := uint(5)
	_, err = svc.Create(ctx, CreateOrderInput{
		UserID:    &uid,
		ProductID: other.ID,
		Items:     []OrderItemInput{{OptionID: optA.ID, Count: 1}},
	})
	require.True(t, apperr.IsBadRequest(err))
}

func TestCreateOrderPublishesEvent(t *testing.T) {
	db := initTestDB(t)
	bus := eventbus.NewBus()
	products := &ProductService{DB: db}
	svc := &OrderService{DB: db, Bus: bus}
	ctx := context.Background()

	var got []eventbus.Event
	bus.Subscribe(eventbus.TypeOrderCreated, func(ctx context.Context, ev eventbus.Event) {
		got = append(got, ev)
	})

	detail, opt := seedBookable(t, products)
	uid := uint(5)
	order, err := svc.Create(ctx, CreateOrderInput{
		UserID:    &uid,
		ProductID: detail.ID,
		Items:     []OrderItemInput{{OptionID: opt.ID, Count: 1}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, order.ID, got[0].AggregateID)
}

func TestPatchOrderStatusValidates(t *testing.T) {
	db := initTestDB(t)
	products := &ProductService{DB: db}
	svc := &OrderService{DB: db}
	ctx := context.Background()

	detail, opt := seedBookable(t, products)
	uid := uint(5)
	order, err := svc.Create(ctx, CreateOrderInput{
		UserID:    &uid,
		ProductID: detail.ID,
		Items:     []OrderItemInput{{OptionID: opt.ID, Count: 1}},
	})
	require.NoError(t, err)

	_, err = svc.PatchStatus(ctx, order.ID, "shipped")
	require.ErrorIs(t, err, ErrValidation)

	got, err := svc.PatchStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, got.Status)
}
