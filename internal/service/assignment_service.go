package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assigner/internal/domain"
	"github.com/spec-kit/ticket-assigner/internal/events"
	"github.com/spec-kit/ticket-assigner/internal/lock"
	"github.com/spec-kit/ticket-assigner/internal/repository"
	"github.com/spec-kit/ticket-assigner/internal/skills"
	apperrors "github.com/spec-kit/ticket-assigner/pkg/util/errorutil"
)

// Scoring constants.
const (
	SkillWeight      = 0.7
	WorkloadWeight   = 0.3
	WorkloadBaseline = 5
)

// Assignment outcomes reported to observers and bulk results.
const (
	OutcomeAssigned    = "assigned"
	OutcomeNoCandidate = "no_candidate"
	OutcomeFailed      = "failed"
)

const defaultBulkPageSize = 500

// WorkloadScore rewards moderators with fewer open tickets; it never goes below zero.
func WorkloadScore(workload int) int {
	if workload >= WorkloadBaseline {
		return 0
	}
	return WorkloadBaseline - workload
}

// FinalScore combines skill overlap and spare capacity.
func FinalScore(matches, workload int) float64 {
	return SkillWeight*float64(matches) + WorkloadWeight*float64(WorkloadScore(workload))
}

// AssignmentObserver receives the outcome of every auto-assignment evaluation.
type AssignmentObserver interface {
	ObserveAssignment(outcome string, score float64)
}

// AssignmentResult describes a successful auto-assignment.
type AssignmentResult struct {
	Moderator      domain.User
	Ticket         *domain.Ticket
	MatchingSkills []string
	MatchScore     float64
}

// Candidate is one scored moderator.
type Candidate struct {
	Moderator      domain.User
	MatchingSkills []string
	Workload       int
	WorkloadScore  int
	Score          float64
}

// BulkItem is the outcome for a single ticket in a bulk run.
type BulkItem struct {
	TicketID    string
	Outcome     string
	ModeratorID string
	Score       float64
	Error       string
}

// BulkResult summarizes a bulk run.
type BulkResult struct {
	Total       int
	Assigned    int
	NoCandidate int
	Failed      int
	Items       []BulkItem
}

// AssignmentService picks moderators for tickets.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	matcher    *skills.Matcher
	locker     lock.Locker
	observer   AssignmentObserver
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bulkPage   int
}

// AssignmentDependencies bundles collaborators. Matcher defaults to the standard rules;
// Locker, Observer and Dispatcher are optional.
type AssignmentDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	Matcher      *skills.Matcher
	Locker       lock.Locker
	Observer     AssignmentObserver
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	// BulkPageSize is how many tickets a bulk run reads per page.
	BulkPageSize int
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	s := &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		matcher:    deps.Matcher,
		locker:     deps.Locker,
		observer:   deps.Observer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bulkPage:   deps.BulkPageSize,
	}
	if s.matcher == nil {
		s.matcher = skills.DefaultMatcher()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.bulkPage <= 0 {
		s.bulkPage = defaultBulkPageSize
	}
	return s
}

// AutoAssign assigns the ticket to the best scoring moderator. It returns (nil, nil) when
// the ticket has no skills or nobody scores above zero. The ticket's current assignee is
// not consulted.
func (s *AssignmentService) AutoAssign(ctx context.Context, ticketID string) (*AssignmentResult, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			if errors.Is(err, lock.ErrNotAcquired) {
				return nil, apperrors.NewConflict("assignment in progress, retry later", map[string]any{"ticket_id": ticketID})
			}
			return nil, apperrors.NewStoreFailure("acquire assignment lock", err)
		}
		defer release()
	}

	result, err := s.autoAssign(ctx, ticketID)
	switch {
	case err != nil:
		s.observe(OutcomeFailed, 0)
	case result == nil:
		s.observe(OutcomeNoCandidate, 0)
	default:
		s.observe(OutcomeAssigned, result.MatchScore)
	}
	return result, err
}

func (s *AssignmentService) autoAssign(ctx context.Context, ticketID string) (*AssignmentResult, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if len(ticket.RelatedSkills) == 0 {
		s.logger.Debug("ticket has no skills, skipping assignment", zap.String("ticket_id", ticket.ID))
		return nil, nil
	}

	candidates, err := s.scoreCandidates(ctx, ticket)
	if err != nil {
		return nil, err
	}

	var best *Candidate
	for i := range candidates {
		if best == nil || candidates[i].Score > best.Score {
			best = &candidates[i]
		}
	}
	if best == nil || best.Score <= 0 {
		s.logger.Info("no suitable moderator",
			zap.String("ticket_id", ticket.ID),
			zap.Int("candidates", len(candidates)))
		return nil, nil
	}

	updated, err := s.tickets.UpdateAssignment(ctx, ticket.ID, best.Moderator.ID, domain.TicketStatusInProgress)
	if err != nil {
		return nil, apperrors.NewStoreFailure("update ticket assignment", err)
	}

	s.logger.Info("ticket auto-assigned",
		zap.String("ticket_id", ticket.ID),
		zap.String("moderator_id", best.Moderator.ID),
		zap.Strings("matching_skills", best.MatchingSkills),
		zap.Float64("score", best.Score))

	result := &AssignmentResult{
		Moderator:      best.Moderator,
		Ticket:         updated,
		MatchingSkills: best.MatchingSkills,
		MatchScore:     best.Score,
	}
	s.publishAssignmentEvent(ctx, ticket, result)
	return result, nil
}

// Recommend ranks every candidate moderator for the ticket without writing anything.
// Equal scores keep candidate order.
func (s *AssignmentService) Recommend(ctx context.Context, ticketID string) ([]Candidate, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if len(ticket.RelatedSkills) == 0 {
		return []Candidate{}, nil
	}
	candidates, err := s.scoreCandidates(ctx, ticket)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// BulkAutoAssign runs AutoAssign over every unassigned ticket with skills, oldest first.
// Tickets are read page by page, each page resuming after the last ticket seen, so tickets
// left unassigned are not revisited. Per-ticket failures are recorded in the result; only a
// failed listing fails the run.
func (s *AssignmentService) BulkAutoAssign(ctx context.Context) (*BulkResult, error) {
	result := &BulkResult{Items: []BulkItem{}}
	filter := repository.TicketFilter{
		Unassigned:  true,
		HasSkills:   true,
		OldestFirst: true,
		Limit:       s.bulkPage,
	}
	for {
		page, err := s.tickets.ListWithFilter(ctx, filter)
		if err != nil {
			return nil, apperrors.NewStoreFailure("list unassigned tickets", err)
		}
		for _, ticket := range page {
			result.Items = append(result.Items, s.bulkAssignOne(ctx, ticket.ID, result))
		}
		if len(page) < s.bulkPage {
			break
		}
		filter.After = repository.CursorAfter(page[len(page)-1])
	}
	result.Total = len(result.Items)

	s.logger.Info("bulk auto-assign finished",
		zap.Int("total", result.Total),
		zap.Int("assigned", result.Assigned),
		zap.Int("no_candidate", result.NoCandidate),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *AssignmentService) bulkAssignOne(ctx context.Context, ticketID string, result *BulkResult) BulkItem {
	item := BulkItem{TicketID: ticketID}
	assigned, err := s.AutoAssign(ctx, ticketID)
	switch {
	case err != nil:
		item.Outcome = OutcomeFailed
		item.Error = err.Error()
		result.Failed++
		s.logger.Warn("bulk auto-assign failed for ticket", zap.String("ticket_id", ticketID), zap.Error(err))
	case assigned == nil:
		item.Outcome = OutcomeNoCandidate
		result.NoCandidate++
	default:
		item.Outcome = OutcomeAssigned
		item.ModeratorID = assigned.Moderator.ID
		item.Score = assigned.MatchScore
		result.Assigned++
	}
	return item
}

func (s *AssignmentService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if apperrors.IsCode(apperrors.MapError(err), apperrors.CodeNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreFailure("load ticket", err)
	}
	return ticket, nil
}

// scoreCandidates scores moderators in ascending id order.
func (s *AssignmentService) scoreCandidates(ctx context.Context, ticket *domain.Ticket) ([]Candidate, error) {
	moderators, err := s.users.ListModerators(ctx)
	if err != nil {
		return nil, apperrors.NewStoreFailure("list moderators", err)
	}
	sort.SliceStable(moderators, func(i, j int) bool {
		return moderators[i].ID < moderators[j].ID
	})

	candidates := make([]Candidate, 0, len(moderators))
	for _, moderator := range moderators {
		moderatorID := moderator.ID
		workload, err := s.tickets.Count(ctx, repository.TicketFilter{
			AssignedTo: &moderatorID,
			Statuses:   domain.OpenTicketStatuses(),
		})
		if err != nil {
			return nil, apperrors.NewStoreFailure("count moderator workload", err)
		}
		matching := s.matcher.MatchingSkills(ticket.RelatedSkills, moderator.Skills)
		candidates = append(candidates, Candidate{
			Moderator:      moderator,
			MatchingSkills: matching,
			Workload:       workload,
			WorkloadScore:  WorkloadScore(workload),
			Score:          FinalScore(len(matching), workload),
		})
	}
	return candidates, nil
}

func (s *AssignmentService) observe(outcome string, score float64) {
	if s.observer != nil {
		s.observer.ObserveAssignment(outcome, score)
	}
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, before *domain.Ticket, result *AssignmentResult) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  result.Ticket.ID,
		Actor:     events.Actor{Type: events.ActorSystem},
		Timestamp: time.Now(),
		Payload: events.TicketAssignedPayload{
			ModeratorID:      result.Moderator.ID,
			ModeratorEmail:   result.Moderator.Email,
			Title:            result.Ticket.Title,
			MatchingSkills:   result.MatchingSkills,
			Score:            result.MatchScore,
			PreviousAssignee: before.AssignedTo,
			PreviousStatus:   before.Status,
			Status:           result.Ticket.Status,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
