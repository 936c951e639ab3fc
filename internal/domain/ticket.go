package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusTodo       TicketStatus = "TODO"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusReopened   TicketStatus = "REOPENED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusTodo, TicketStatusInProgress, TicketStatusCompleted, TicketStatusReopened:
		return true
	}
	return false
}

// OpenTicketStatuses returns the statuses that count toward a moderator's workload.
func OpenTicketStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusTodo, TicketStatusInProgress}
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      string
	Deadline      *time.Time
	HelpfulNotes  string
	RelatedSkills []string
	CreatedBy     string
	AssignedTo    *string
	CompletedAt   *time.Time
	ReopenedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
