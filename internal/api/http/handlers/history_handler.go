package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-assigner/internal/api/dto"
	"github.com/spec-kit/ticket-assigner/internal/domain"
)

// TicketHistoryReader serves a ticket's audit trail.
type TicketHistoryReader interface {
	TicketHistory(ctx context.Context, viewer *domain.User, ticketID string) ([]domain.TicketHistory, error)
}

// HistoryHandler exposes ticket audit trails.
type HistoryHandler struct {
	service TicketHistoryReader
}

// NewHistoryHandler constructs handler.
func NewHistoryHandler(historyService TicketHistoryReader) *HistoryHandler {
	return &HistoryHandler{service: historyService}
}

// List GET /tickets/:id/history.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	entries, err := h.service.TicketHistory(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}
