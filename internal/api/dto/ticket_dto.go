package dto

import (
	"time"

	"github.com/spec-kit/ticket-assigner/internal/domain"
)

// CreateTicketRequest payload. Skills are detected from the text, never supplied.
type CreateTicketRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	Deadline     *time.Time `json:"deadline"`
	HelpfulNotes string     `json:"helpful_notes"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        domain.TicketStatus `json:"status"`
	Priority      string              `json:"priority"`
	Deadline      *time.Time          `json:"deadline,omitempty"`
	HelpfulNotes  string              `json:"helpful_notes,omitempty"`
	RelatedSkills []string            `json:"related_skills"`
	CreatedBy     string              `json:"created_by"`
	AssignedTo    *string             `json:"assigned_to"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	ReopenedAt    *time.Time          `json:"reopened_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	skills := t.RelatedSkills
	if skills == nil {
		skills = []string{}
	}
	return TicketResponse{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		Priority:      t.Priority,
		Deadline:      t.Deadline,
		HelpfulNotes:  t.HelpfulNotes,
		RelatedSkills: skills,
		CreatedBy:     t.CreatedBy,
		AssignedTo:    t.AssignedTo,
		CompletedAt:   t.CompletedAt,
		ReopenedAt:    t.ReopenedAt,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// CreateTicketResponse returns the ticket and what auto-assignment decided.
type CreateTicketResponse struct {
	Ticket     TicketResponse      `json:"ticket"`
	Assignment *AssignmentResponse `json:"assignment"`
}
