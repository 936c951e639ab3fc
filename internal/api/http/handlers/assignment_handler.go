package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-assigner/internal/api/dto"
	"github.com/spec-kit/ticket-assigner/internal/service"
)

// TriggerAPI labels bulk runs started over HTTP.
const TriggerAPI = "api"

// AssignmentEngine is the assignment service surface used by the handler.
type AssignmentEngine interface {
	AutoAssign(ctx context.Context, ticketID string) (*service.AssignmentResult, error)
	Recommend(ctx context.Context, ticketID string) ([]service.Candidate, error)
	BulkAutoAssign(ctx context.Context) (*service.BulkResult, error)
}

// BulkRunRecorder counts bulk runs per trigger.
type BulkRunRecorder interface {
	RecordBulkRun(trigger string)
}

// AssignmentHandler exposes auto-assignment endpoints.
type AssignmentHandler struct {
	engine   AssignmentEngine
	recorder BulkRunRecorder
}

// NewAssignmentHandler constructs handler. recorder may be nil.
func NewAssignmentHandler(engine AssignmentEngine, recorder BulkRunRecorder) *AssignmentHandler {
	return &AssignmentHandler{engine: engine, recorder: recorder}
}

// AutoAssign POST /tickets/:id/auto-assign. Finding nobody is a 200 with assigned=false.
func (h *AssignmentHandler) AutoAssign(c *fiber.Ctx) error {
	result, err := h.engine.AutoAssign(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssignmentResponse(result)})
}

// Recommendations GET /tickets/:id/recommendations.
func (h *AssignmentHandler) Recommendations(c *fiber.Ctx) error {
	candidates, err := h.engine.Recommend(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCandidateResponses(candidates)})
}

// BulkAutoAssign POST /tickets/auto-assign.
func (h *AssignmentHandler) BulkAutoAssign(c *fiber.Ctx) error {
	if h.recorder != nil {
		h.recorder.RecordBulkRun(TriggerAPI)
	}
	result, err := h.engine.BulkAutoAssign(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBulkResponse(result)})
}
