package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-assigner/internal/domain"
	"github.com/spec-kit/ticket-assigner/internal/events"
	"github.com/spec-kit/ticket-assigner/internal/repository"
)

var errStoreDown = errors.New("connection refused")

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	seq     int

	workloads   map[string]int
	getErr      error
	listErr     error
	countErr    error
	failUpdates map[string]error
	updates     []string
	countCalls  int
	listFilters []repository.TicketFilter
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:     map[string]*domain.Ticket{},
		workloads:   map[string]int{},
		failUpdates: map[string]error{},
	}
}

func (r *fakeTicketRepo) add(t domain.Ticket) *domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if t.ID == "" {
		t.ID = fmt.Sprintf("t%d", r.seq)
	}
	if t.Status == "" {
		t.Status = domain.TicketStatusTodo
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Date(2024, 1, 1, 0, 0, r.seq, 0, time.UTC)
	}
	r.tickets[t.ID] = &t
	return &t
}

func (r *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	stored := r.add(*t)
	*t = *stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTicketRepo) matches(t *domain.Ticket, f repository.TicketFilter) bool {
	if f.CreatedBy != nil && t.CreatedBy != *f.CreatedBy {
		return false
	}
	if f.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *f.AssignedTo) {
		return false
	}
	if f.Unassigned && t.AssignedTo != nil {
		return false
	}
	if f.HasSkills && len(t.RelatedSkills) == 0 {
		return false
	}
	if f.After != nil {
		if t.CreatedAt.Before(f.After.CreatedAt) {
			return false
		}
		if t.CreatedAt.Equal(f.After.CreatedAt) && t.ID <= f.After.ID {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if s == t.Status {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listFilters = append(r.listFilters, f)
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Ticket
	for _, t := range r.tickets {
		if r.matches(t, f) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			if f.OldestFirst {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []domain.Ticket{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Count reports seeded workloads for assignee queries and counts stored tickets otherwise.
func (r *fakeTicketRepo) Count(_ context.Context, f repository.TicketFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countCalls++
	if r.countErr != nil {
		return 0, r.countErr
	}
	n := 0
	if f.AssignedTo != nil {
		n = r.workloads[*f.AssignedTo]
	}
	for _, t := range r.tickets {
		if r.matches(t, f) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTicketRepo) UpdateAssignment(_ context.Context, id, moderatorID string, status domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failUpdates[id]; err != nil {
		return nil, err
	}
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	assignee := moderatorID
	t.AssignedTo = &assignee
	t.Status = status
	r.updates = append(r.updates, id)
	copied := *t
	return &copied, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	t.Status = status
	copied := *t
	return &copied, nil
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     []domain.User
	listErr   error
	listCalls int
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return errors.New(`duplicate key value violates unique constraint "users_email_key"`)
		}
	}
	if u.ID == "" {
		u.ID = fmt.Sprintf("u%d", len(r.users)+1)
	}
	r.users = append(r.users, *u)
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == u.ID {
			r.users[i] = *u
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			copied := u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, f repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// ListModerators returns moderators in insertion order so tests can check the service's own ordering.
func (r *fakeUserRepo) ListModerators(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.User
	for _, u := range r.users {
		if u.Role == domain.UserRoleModerator && len(u.Skills) > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}

type recordingObserver struct {
	outcomes []string
	scores   []float64
}

func (o *recordingObserver) ObserveAssignment(outcome string, score float64) {
	o.outcomes = append(o.outcomes, outcome)
	o.scores = append(o.scores, score)
}

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
	handlers  map[events.EventType][]events.EventHandler
}

func (d *recordingDispatcher) Publish(ctx context.Context, e events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, e)
	handlers := d.handlers[e.Type]
	d.mu.Unlock()
	for _, h := range handlers {
		_ = h(ctx, e)
	}
	return nil
}

func (d *recordingDispatcher) Subscribe(t events.EventType, h events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = map[events.EventType][]events.EventHandler{}
	}
	d.handlers[t] = append(d.handlers[t], h)
}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.published {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func moderator(id string, skills ...string) domain.User {
	return domain.User{ID: id, Email: id + "@example.com", Role: domain.UserRoleModerator, Skills: skills}
}
