package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assigner/internal/events"
	"github.com/spec-kit/ticket-assigner/internal/notify"
)

// NotificationService turns domain events into emails and chat messages.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	mail       notify.Notifier
	chat       notify.Notifier
}

// NotificationDependencies bundles delivery channels. Nil channels are skipped.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Mail       notify.Notifier
	Chat       notify.Notifier
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		logger:     logger,
		mail:       deps.Mail,
		chat:       deps.Chat,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserSignup, n.handleUserSignup)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
}

func (n *NotificationService) handleUserSignup(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserSignupPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("UserSignup", zap.String("user_id", payload.UserID))
	return n.send(ctx, n.mail, notify.Message{
		To:      payload.Email,
		Subject: "Welcome to the ticket desk",
		Body:    "Hi,\n\nThanks for signing up. You can now open tickets and we will route them to the right moderator.",
	})
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("TicketAssigned",
		zap.String("ticket_id", event.TicketID),
		zap.String("moderator_id", payload.ModeratorID))

	skillsLine := "none"
	if len(payload.MatchingSkills) > 0 {
		skillsLine = strings.Join(payload.MatchingSkills, ", ")
	}
	msg := notify.Message{
		To:      payload.ModeratorEmail,
		Subject: fmt.Sprintf("Ticket assigned: %s", payload.Title),
		Body: fmt.Sprintf("Ticket %s was assigned to you.\nMatching skills: %s\nScore: %.2f",
			event.TicketID, skillsLine, payload.Score),
	}
	return errors.Join(
		n.send(ctx, n.mail, msg),
		n.send(ctx, n.chat, notify.Message{
			Subject: msg.Subject,
			Body:    fmt.Sprintf("Assigned to %s (skills: %s, score %.2f)", payload.ModeratorEmail, skillsLine, payload.Score),
		}),
	)
}

func (n *NotificationService) send(ctx context.Context, channel notify.Notifier, msg notify.Message) error {
	if channel == nil {
		return nil
	}
	return channel.Notify(ctx, msg)
}
