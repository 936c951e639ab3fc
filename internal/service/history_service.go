package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assigner/internal/domain"
	"github.com/spec-kit/ticket-assigner/internal/events"
	"github.com/spec-kit/ticket-assigner/internal/repository"
	apperrors "github.com/spec-kit/ticket-assigner/pkg/util/errorutil"
)

// TicketViewer resolves a ticket for a viewer, enforcing visibility.
type TicketViewer interface {
	GetTicket(ctx context.Context, viewer *domain.User, ticketID string) (*domain.Ticket, error)
}

// HistoryService records ticket events as an audit trail and serves it back.
type HistoryService struct {
	history    repository.TicketHistoryRepository
	tickets    TicketViewer
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// HistoryDependencies bundles collaborators for the history service.
type HistoryDependencies struct {
	HistoryRepo repository.TicketHistoryRepository
	Tickets     TicketViewer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewHistoryService creates the service.
func NewHistoryService(deps HistoryDependencies) *HistoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		history:    deps.HistoryRepo,
		tickets:    deps.Tickets,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to ticket events.
func (s *HistoryService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventTicketCreated, s.record)
	s.dispatcher.Subscribe(events.EventTicketAssigned, s.record)
	s.dispatcher.Subscribe(events.EventTicketStatusChanged, s.record)
}

// TicketHistory returns the audit trail of a ticket the viewer may see.
func (s *HistoryService) TicketHistory(ctx context.Context, viewer *domain.User, ticketID string) ([]domain.TicketHistory, error) {
	if viewer == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if _, err := s.tickets.GetTicket(ctx, viewer, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewStoreFailure("list ticket history", err)
	}
	if entries == nil {
		entries = []domain.TicketHistory{}
	}
	return entries, nil
}

func (s *HistoryService) record(ctx context.Context, event events.Event) error {
	entry, err := historyEntry(event)
	if err != nil {
		return err
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return fmt.Errorf("record %s for ticket %s: %w", event.Type, event.TicketID, err)
	}
	s.logger.Debug("ticket history recorded",
		zap.String("ticket_id", entry.TicketID),
		zap.String("change_type", string(entry.ChangeType)))
	return nil
}

func historyEntry(event events.Event) (*domain.TicketHistory, error) {
	entry := &domain.TicketHistory{
		TicketID:      event.TicketID,
		ChangedByType: domain.ChangeActorType(event.Actor.Type),
		ChangedByID:   event.Actor.UserID,
	}
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		entry.ChangeType = domain.ChangeTypeCreated
		entry.NewValue = map[string]any{
			"title":          payload.Title,
			"related_skills": payload.RelatedSkills,
		}
	case events.TicketAssignedPayload:
		entry.ChangeType = domain.ChangeTypeAssignee
		var previous any
		if payload.PreviousAssignee != nil {
			previous = *payload.PreviousAssignee
		}
		entry.OldValue = map[string]any{
			"assigned_to": previous,
			"status":      payload.PreviousStatus,
		}
		entry.NewValue = map[string]any{
			"assigned_to":     payload.ModeratorID,
			"status":          payload.Status,
			"matching_skills": payload.MatchingSkills,
			"score":           payload.Score,
		}
	case events.TicketStatusChangedPayload:
		entry.ChangeType = domain.ChangeTypeStatus
		entry.OldValue = map[string]any{"status": payload.OldStatus}
		entry.NewValue = map[string]any{"status": payload.NewStatus}
	default:
		return nil, fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return entry, nil
}
