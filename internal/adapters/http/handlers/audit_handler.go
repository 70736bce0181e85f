package handlers

import (
	"researchhub/internal/core/services"
	"researchhub/internal/pkg/pagination"
	"researchhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuditHandler handles audit log endpoints (admin only)
type AuditHandler struct {
	auditService *services.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List handles audit log listing
// @Summary List audit entries
// @Description List audit entries, newest first, optionally filtered by entity
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param entity query string false "Entity filter (user, request, project, ...)"
// @Success 200 {object} response.Response
// @Router /audits [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	entries, total, err := h.auditService.List(c.Context(), &services.AuditListInput{
		Page:   params.Page,
		Limit:  params.Limit,
		Entity: c.Query("entity"),
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list audit entries")
	}

	return response.Success(c, "Audit entries retrieved successfully",
		pagination.NewResponse(entries, params, total))
}
