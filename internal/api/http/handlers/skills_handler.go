package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-assigner/internal/api/dto"
	"github.com/spec-kit/ticket-assigner/internal/skills"
	apperrors "github.com/spec-kit/ticket-assigner/pkg/util/errorutil"
)

// SkillsHandler exposes the skill catalog and extractor.
type SkillsHandler struct {
	catalog   *skills.Catalog
	extractor *skills.Extractor
}

// NewSkillsHandler constructs handler.
func NewSkillsHandler(catalog *skills.Catalog, extractor *skills.Extractor) *SkillsHandler {
	return &SkillsHandler{catalog: catalog, extractor: extractor}
}

// Extract POST /skills/extract.
func (h *SkillsHandler) Extract(c *fiber.Ctx) error {
	var req dto.ExtractSkillsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return c.JSON(fiber.Map{"data": dto.ExtractSkillsResponse{
		Skills: h.extractor.Extract(req.Title, req.Description),
	}})
}

// Catalog GET /skills/catalog.
func (h *SkillsHandler) Catalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.catalog.Entries()})
}
