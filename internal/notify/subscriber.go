package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/funday-app/funday-server/internal/eventbus"
)

// Notifier subscribes to domain events and fans each one out to the outbound
// channels. Delivery is best-effort: a failed adapter is reported to the ops
// channel and logged, the committed transaction is never affected.
type Notifier struct {
	Slack    *SlackNotifier
	Alimtalk *AlimtalkClient
	Mailer   *Mailer
	Log      *slog.Logger
}

func (n *Notifier) Register(bus *eventbus.Bus) {
	bus.Subscribe(eventbus.TypePaymentCompleted, n.onPaymentCompleted)
	bus.Subscribe(eventbus.TypeReviewCreated, n.onReviewCreated)
	bus.Subscribe(eventbus.TypeReviewReplied, n.onReviewReplied)
}

func (n *Notifier) report(ctx context.Context, scope string, err error) {
	n.Log.Error("notification delivery failed", "scope", scope, "error", err)
	if n.Slack != nil {
		n.Slack.ReportError(ctx, scope, err)
	}
}

func str(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

func num(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case uint:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (n *Notifier) onPaymentCompleted(ctx context.Context, ev eventbus.Event) {
	orderID := uint(num(ev.Payload, "order_id"))
	amount := num(ev.Payload, "amount")
	name := str(ev.Payload, "orderer_name")
	phone := str(ev.Payload, "orderer_phone")
	email := str(ev.Payload, "orderer_email")

	if n.Slack != nil {
		if err := n.Slack.PaymentCompleted(ctx, orderID, amount, name); err != nil {
			n.report(ctx, "slack.payment_completed", err)
		}
	}
	if n.Alimtalk != nil && phone != "" {
		vars := map[string]string{
			"order_id": fmt.Sprint(orderID),
			"amount":   fmt.Sprintf("%.0f", amount),
			"name":     name,
		}
		if err := n.Alimtalk.Send(ctx, phone, TemplateOrderComplete, vars); err != nil {
			n.report(ctx, "alimtalk.payment_completed", err)
		}
	}
	if n.Mailer != nil && email != "" {
		if err := n.Mailer.OrderConfirmation(email, orderID, amount); err != nil {
			n.report(ctx, "mail.payment_completed", err)
		}
	}
}

func (n *Notifier) onReviewCreated(ctx context.Context, ev eventbus.Event) {
	if n.Slack == nil {
		return
	}
	score := uint(num(ev.Payload, "score"))
	if err := n.Slack.ReviewCreated(ctx, ev.AggregateID, score, str(ev.Payload, "text")); err != nil {
		n.report(ctx, "slack.review_created", err)
	}
}

func (n *Notifier) onReviewReplied(ctx context.Context, ev eventbus.Event) {
	parentID := uint(num(ev.Payload, "parent_id"))

	if n.Slack != nil {
		if err := n.Slack.ReviewReplied(ctx, parentID, ev.AggregateID, str(ev.Payload, "text")); err != nil {
			n.report(ctx, "slack.review_replied", err)
		}
	}
	if n.Alimtalk != nil {
		if phone := str(ev.Payload, "author_phone"); phone != "" {
			vars := map[string]string{"review_id": fmt.Sprint(parentID)}
			if err := n.Alimtalk.Send(ctx, phone, TemplateReviewReply, vars); err != nil {
				n.report(ctx, "alimtalk.review_replied", err)
			}
		}
	}
}
