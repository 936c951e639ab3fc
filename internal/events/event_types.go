package events

import (
	"time"

	"github.com/spec-kit/ticket-assigner/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserSignup          EventType = "user_signup"
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// ActorType identifies who caused an event.
type ActorType string

const (
	ActorUser   ActorType = "USER"
	ActorSystem ActorType = "SYSTEM"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type   ActorType `json:"type"`
	UserID *string   `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserSignupPayload payload.
type UserSignupPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title         string   `json:"title"`
	RelatedSkills []string `json:"related_skills"`
}

// TicketAssignedPayload payload. Previous* describe the ticket before the assignment write.
type TicketAssignedPayload struct {
	ModeratorID      string              `json:"moderator_id"`
	ModeratorEmail   string              `json:"moderator_email"`
	Title            string              `json:"title"`
	MatchingSkills   []string            `json:"matching_skills"`
	Score            float64             `json:"score"`
	PreviousAssignee *string             `json:"previous_assignee"`
	PreviousStatus   domain.TicketStatus `json:"previous_status"`
	Status           domain.TicketStatus `json:"status"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}
