package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// PostWebhookFunc matches slack.PostWebhookContext.
type PostWebhookFunc func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// Slack posts notifications to an incoming webhook. The recipient is ignored.
type Slack struct {
	url  string
	post PostWebhookFunc
}

// NewSlack builds a webhook notifier.
func NewSlack(webhookURL string) *Slack {
	return &Slack{url: webhookURL, post: slack.PostWebhookContext}
}

// WithPoster replaces the transport, mainly for tests.
func (s *Slack) WithPoster(fn PostWebhookFunc) *Slack {
	s.post = fn
	return s
}

// Notify implements Notifier.
func (s *Slack) Notify(ctx context.Context, msg Message) error {
	text := msg.Body
	if msg.Subject != "" {
		text = fmt.Sprintf("*%s*\n%s", msg.Subject, msg.Body)
	}
	if err := s.post(ctx, s.url, &slack.WebhookMessage{Text: text}); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}
