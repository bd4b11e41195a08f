package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Domain event types. Services publish these after their transaction commits;
// subscribers must tolerate delivery failure without touching committed data.
const (
	TypePaymentCompleted = "payment.completed"
	TypeReviewCreated    = "review.created"
	TypeReviewReplied    = "review.replied"
	TypeOrderCreated     = "order.created"
)

type Event struct {
	ID          string         `json:"event_id"`
	Type        string         `json:"type"`
	AggregateID uint           `json:"aggregate_id"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Payload     map[string]any `json:"payload"`
}

func New(eventType string, aggregateID uint, payload map[string]any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

// HandlerFunc receives an event. Handlers own their failures; Publish never
// returns an error and never unwinds into the publishing request.
type HandlerFunc func(ctx context.Context, ev Event)

// Bus is a synchronous in-process fan-out. Delivery runs on the publishing
// goroutine so tests see side effects immediately.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]HandlerFunc
	all  []HandlerFunc
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]HandlerFunc)}
}

func (b *Bus) Subscribe(eventType string, fn HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventType] = append(b.subs[eventType], fn)
}

// SubscribeAll registers a handler for every event type (e.g. a broker
// forwarder).
func (b *Bus) SubscribeAll(fn HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, fn)
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := make([]HandlerFunc, 0, len(b.subs[ev.Type])+len(b.all))
	handlers = append(handlers, b.subs[ev.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ctx, ev)
	}
}
