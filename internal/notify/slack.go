package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackNotifier posts block messages to an incoming webhook and error reports
// to a separate ops webhook.
type SlackNotifier struct {
	WebhookURL    string
	OpsWebhookURL string
}

func (s *SlackNotifier) post(ctx context.Context, url, header string, lines []string) error {
	if url == "" {
		return nil
	}
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, header, false, false)),
	}
	for _, line := range lines {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, line, false, false), nil, nil,
		))
	}
	msg := &slack.WebhookMessage{Blocks: &slack.Blocks{BlockSet: blocks}}
	return slack.PostWebhookContext(ctx, url, msg)
}

func (s *SlackNotifier) PaymentCompleted(ctx context.Context, orderID uint, amount float64, ordererName string) error {
	return s.post(ctx, s.WebhookURL, "New payment", []string{
		fmt.Sprintf("*Order* #%d", orderID),
		fmt.Sprintf("*Amount* %.0f", amount),
		fmt.Sprintf("*Orderer* %s", ordererName),
	})
}

func (s *SlackNotifier) ReviewCreated(ctx context.Context, reviewID uint, score uint, text string) error {
	return s.post(ctx, s.WebhookURL, "New review", []string{
		fmt.Sprintf("*Review* #%d (score %d)", reviewID, score),
		text,
	})
}

func (s *SlackNotifier) ReviewReplied(ctx context.Context, parentID, replyID uint, text string) error {
	return s.post(ctx, s.WebhookURL, "New review reply", []string{
		fmt.Sprintf("*Reply* #%d to review #%d", replyID, parentID),
		text,
	})
}

// ReportError pushes an adapter failure to the ops channel. Failing to report
// is itself swallowed; there is nowhere further to escalate.
func (s *SlackNotifier) ReportError(ctx context.Context, scope string, err error) {
	_ = s.post(ctx, s.OpsWebhookURL, "Notification failure", []string{
		fmt.Sprintf("*Scope* %s", scope),
		fmt.Sprintf("```%v```", err),
	})
}
