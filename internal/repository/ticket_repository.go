package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-assigner/internal/domain"
)

const ticketColumns = `id, title, description, status, priority, deadline, helpful_notes, related_skills,
               created_by, assigned_to, completed_at, reopened_at, created_at, updated_at`

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	CreatedBy   *string
	AssignedTo  *string
	Unassigned  bool
	HasSkills   bool
	Statuses    []domain.TicketStatus
	OldestFirst bool
	// After resumes an oldest-first listing strictly after the given ticket.
	After       *TicketCursor
	Limit       int
	Offset      int
}

// TicketCursor is a keyset position in (created_at, id) order.
type TicketCursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorAfter returns the position just past ticket.
func CursorAfter(ticket domain.Ticket) *TicketCursor {
	return &TicketCursor{CreatedAt: ticket.CreatedAt, ID: ticket.ID}
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	// UpdateAssignment writes assignee and status in a single statement and returns the
	// updated ticket.
	UpdateAssignment(ctx context.Context, id, moderatorID string, status domain.TicketStatus) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, deadline, helpful_notes, related_skills, created_by, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Deadline,
		ticket.HelpfulNotes,
		nonNilSkills(ticket.RelatedSkills),
		ticket.CreatedBy,
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// GetByID treats ids that are not UUIDs as missing rows.
func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if uuid.Validate(id) != nil {
		return nil, pgx.ErrNoRows
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) UpdateAssignment(ctx context.Context, id, moderatorID string, status domain.TicketStatus) (*domain.Ticket, error) {
	query := `
        UPDATE tickets SET assigned_to=$1, status=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING ` + ticketColumns
	return scanTicket(r.pool.QueryRow(ctx, query, moderatorID, status, id))
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	query := `
        UPDATE tickets SET status=$1,
            completed_at = CASE WHEN $1 = 'COMPLETED' THEN NOW() ELSE completed_at END,
            reopened_at  = CASE WHEN $1 = 'REOPENED' THEN NOW() ELSE reopened_at END,
            updated_at=NOW()
        WHERE id=$2
        RETURNING ` + ticketColumns
	return scanTicket(r.pool.QueryRow(ctx, query, status, id))
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := ticketWhere(filter)

	order := "DESC"
	if filter.OldestFirst {
		order = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at %s, id ASC LIMIT %d OFFSET %d`,
		ticketColumns, where, order, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	where, args := ticketWhere(filter)
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&count)
	return count, err
}

func ticketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assigned_to IS NULL")
	}
	if filter.HasSkills {
		clauses = append(clauses, "cardinality(related_skills) > 0")
	}
	if filter.After != nil {
		args = append(args, filter.After.CreatedAt, filter.After.ID)
		clauses = append(clauses, fmt.Sprintf("(created_at, id) > ($%d, $%d)", len(args)-1, len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	return strings.Join(clauses, " AND "), args
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Deadline,
		&ticket.HelpfulNotes,
		&ticket.RelatedSkills,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.CompletedAt,
		&ticket.ReopenedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
