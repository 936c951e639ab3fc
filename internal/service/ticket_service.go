package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assigner/internal/domain"
	"github.com/spec-kit/ticket-assigner/internal/events"
	"github.com/spec-kit/ticket-assigner/internal/repository"
	"github.com/spec-kit/ticket-assigner/internal/skills"
	apperrors "github.com/spec-kit/ticket-assigner/pkg/util/errorutil"
)

const (
	maxTitleLength  = 200
	defaultPriority = "medium"
)

// MaxTicketPageSize caps how many tickets one listing returns.
const MaxTicketPageSize = 100

var validPriorities = map[string]struct{}{"low": {}, "medium": {}, "high": {}}

// TicketAssigner runs auto-assignment for a single ticket.
type TicketAssigner interface {
	AutoAssign(ctx context.Context, ticketID string) (*AssignmentResult, error)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	extractor  *skills.Extractor
	assigner   TicketAssigner
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service. Assigner may be nil, in
// which case new tickets wait for a bulk run.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Extractor  *skills.Extractor
	Assigner   TicketAssigner
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	Priority     string
	Deadline     *time.Time
	HelpfulNotes string
}

// TicketCreateResult is the stored ticket and, when one was made, its assignment.
type TicketCreateResult struct {
	Ticket     *domain.Ticket
	Assignment *AssignmentResult
}

// TicketListFilter describes listing filters; visibility is applied on top.
type TicketListFilter struct {
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		extractor:  deps.Extractor,
		assigner:   deps.Assigner,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket stores a ticket with its detected skills and tries to assign it straight
// away. A failed assignment is logged and leaves the ticket unassigned.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*TicketCreateResult, error) {
	if creator == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if len(title) > maxTitleLength {
		return nil, apperrors.NewValidationError("title too long", map[string]any{"max_length": maxTitleLength})
	}
	if strings.ContainsAny(title, "\r\n") {
		return nil, apperrors.NewValidationError("title must be a single line", nil)
	}
	priority := strings.ToLower(strings.TrimSpace(input.Priority))
	if priority == "" {
		priority = defaultPriority
	}
	if _, ok := validPriorities[priority]; !ok {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	ticket := &domain.Ticket{
		Title:        title,
		Description:  description,
		Status:       domain.TicketStatusTodo,
		Priority:     priority,
		Deadline:     input.Deadline,
		HelpfulNotes: strings.TrimSpace(input.HelpfulNotes),
		CreatedBy:    creator.ID,
	}
	if s.extractor != nil {
		ticket.RelatedSkills = s.extractor.Extract(title, description)
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStoreFailure("create ticket", err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(creator.ID),
		Payload: events.TicketCreatedPayload{
			Title:         ticket.Title,
			RelatedSkills: ticket.RelatedSkills,
		},
	})

	result := &TicketCreateResult{Ticket: ticket}
	if s.assigner == nil || len(ticket.RelatedSkills) == 0 {
		return result, nil
	}
	assignment, err := s.assigner.AutoAssign(ctx, ticket.ID)
	if err != nil {
		s.logger.Warn("auto-assign after create failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return result, nil
	}
	if assignment != nil {
		result.Assignment = assignment
		if assignment.Ticket != nil {
			result.Ticket = assignment.Ticket
		}
	}
	return result, nil
}

// ListTickets returns the tickets visible to viewer: admins see all, moderators the ones
// assigned to them and users their own.
func (s *TicketService) ListTickets(ctx context.Context, viewer *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	if viewer == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	repoFilter := repository.TicketFilter{
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if repoFilter.Limit > MaxTicketPageSize {
		repoFilter.Limit = MaxTicketPageSize
	}
	switch viewer.Role {
	case domain.UserRoleAdmin:
	case domain.UserRoleModerator:
		repoFilter.AssignedTo = &viewer.ID
	default:
		repoFilter.CreatedBy = &viewer.ID
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewStoreFailure("list tickets", err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// GetTicket fetches a ticket the viewer may see. Invisible tickets read as not found.
func (s *TicketService) GetTicket(ctx context.Context, viewer *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canView(viewer, ticket) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// UpdateStatus moves a ticket through its lifecycle. Moderators may only touch tickets
// assigned to them.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.UserRoleAdmin:
	case domain.UserRoleModerator:
		if ticket.AssignedTo == nil || *ticket.AssignedTo != actor.ID {
			return nil, apperrors.NewForbidden("ticket is not assigned to you")
		}
	default:
		return nil, apperrors.NewForbidden("insufficient role")
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	oldStatus := ticket.Status
	updated, err := s.tickets.UpdateStatus(ctx, ticket.ID, newStatus)
	if err != nil {
		return nil, apperrors.NewStoreFailure("update ticket status", err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    userActor(actor.ID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return updated, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if apperrors.IsCode(apperrors.MapError(err), apperrors.CodeNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreFailure("load ticket", err)
	}
	return ticket, nil
}

func canView(viewer *domain.User, ticket *domain.Ticket) bool {
	if viewer == nil {
		return false
	}
	switch {
	case viewer.Role == domain.UserRoleAdmin:
		return true
	case ticket.CreatedBy == viewer.ID:
		return true
	case viewer.Role == domain.UserRoleModerator:
		return ticket.AssignedTo != nil && *ticket.AssignedTo == viewer.ID
	}
	return false
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusTodo:       {domain.TicketStatusInProgress, domain.TicketStatusCompleted},
	domain.TicketStatusInProgress: {domain.TicketStatusTodo, domain.TicketStatusCompleted},
	domain.TicketStatusCompleted:  {domain.TicketStatusReopened},
	domain.TicketStatusReopened:   {domain.TicketStatusInProgress, domain.TicketStatusCompleted},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   events.ActorUser,
		UserID: &userID,
	}
}
