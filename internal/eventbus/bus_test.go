package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishFansOutByType(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var payments, reviews, all []Event
	bus.Subscribe(TypePaymentCompleted, func(ctx context.Context, ev Event) {
		payments = append(payments, ev)
	})
	bus.Subscribe(TypeReviewCreated, func(ctx context.Context, ev Event) {
		reviews = append(reviews, ev)
	})
	bus.SubscribeAll(func(ctx context.Context, ev Event) {
		all = append(all, ev)
	})

	bus.Publish(ctx, New(TypePaymentCompleted, 1, map[string]any{"amount": 100.0}))
	bus.Publish(ctx, New(TypeReviewCreated, 2, nil))

	require.Len(t, payments, 1)
	require.Len(t, reviews, 1)
	require.Len(t, all, 2)
	require.Equal(t, uint(1), payments[0].AggregateID)
	require.Equal(t, 100.0, payments[0].Payload["amount"])
	require.NotEmpty(t, payments[0].ID)
	require.False(t, payments[0].OccurredAt.IsZero())
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus()
	bus.Publish(context.Background(), New(TypeOrderCreated, 9, nil))
}

func TestMultipleSubscribersSameType(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	calls := 0
	bus.Subscribe(TypeOrderCreated, func(ctx context.Context, ev Event) { calls++ })
	bus.Subscribe(TypeOrderCreated, func(ctx context.Context, ev Event) { calls++ })

	bus.Publish(ctx, New(TypeOrderCreated, 1, nil))
	require.Equal(t, 2, calls)
}
