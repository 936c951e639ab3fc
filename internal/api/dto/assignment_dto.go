package dto

import "github.com/spec-kit/ticket-assigner/internal/service"

// NoCandidateMessage is returned when auto-assignment finds nobody.
const NoCandidateMessage = "no suitable moderator found"

// AssignmentResponse describes an auto-assignment outcome.
type AssignmentResponse struct {
	Assigned       bool            `json:"assigned"`
	Message        string          `json:"message,omitempty"`
	Moderator      *UserResponse   `json:"moderator,omitempty"`
	Ticket         *TicketResponse `json:"ticket,omitempty"`
	MatchingSkills []string        `json:"matching_skills,omitempty"`
	MatchScore     float64         `json:"match_score,omitempty"`
}

// NewAssignmentResponse maps a result; nil means no candidate.
func NewAssignmentResponse(result *service.AssignmentResult) AssignmentResponse {
	if result == nil {
		return AssignmentResponse{Assigned: false, Message: NoCandidateMessage}
	}
	moderator := NewUserResponse(&result.Moderator)
	resp := AssignmentResponse{
		Assigned:       true,
		Moderator:      &moderator,
		MatchingSkills: result.MatchingSkills,
		MatchScore:     result.MatchScore,
	}
	if result.Ticket != nil {
		ticket := NewTicketResponse(result.Ticket)
		resp.Ticket = &ticket
	}
	return resp
}

// CandidateResponse is one ranked moderator.
type CandidateResponse struct {
	Moderator      UserResponse `json:"moderator"`
	MatchingSkills []string     `json:"matching_skills"`
	Workload       int          `json:"workload"`
	WorkloadScore  int          `json:"workload_score"`
	Score          float64      `json:"score"`
}

// NewCandidateResponses maps ranked candidates.
func NewCandidateResponses(candidates []service.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		matching := c.MatchingSkills
		if matching == nil {
			matching = []string{}
		}
		out = append(out, CandidateResponse{
			Moderator:      NewUserResponse(&c.Moderator),
			MatchingSkills: matching,
			Workload:       c.Workload,
			WorkloadScore:  c.WorkloadScore,
			Score:          c.Score,
		})
	}
	return out
}

// BulkItemResponse is one ticket's bulk outcome.
type BulkItemResponse struct {
	TicketID    string  `json:"ticket_id"`
	Outcome     string  `json:"outcome"`
	ModeratorID string  `json:"moderator_id,omitempty"`
	Score       float64 `json:"score,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// BulkResponse summarizes a bulk run.
type BulkResponse struct {
	Total       int                `json:"total"`
	Assigned    int                `json:"assigned"`
	NoCandidate int                `json:"no_candidate"`
	Failed      int                `json:"failed"`
	Items       []BulkItemResponse `json:"items"`
}

// NewBulkResponse maps a bulk result.
func NewBulkResponse(result *service.BulkResult) BulkResponse {
	items := make([]BulkItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, BulkItemResponse(item))
	}
	return BulkResponse{
		Total:       result.Total,
		Assigned:    result.Assigned,
		NoCandidate: result.NoCandidate,
		Failed:      result.Failed,
		Items:       items,
	}
}
