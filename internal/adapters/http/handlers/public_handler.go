package handlers

import (
	"researchhub/internal/core/services"
	"researchhub/internal/pkg/pagination"
	"researchhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PublicHandler serves the unauthenticated public site endpoints
type PublicHandler struct {
	projectService     *services.ProjectService
	publicationService *services.PublicationService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(projectService *services.ProjectService, publicationService *services.PublicationService) *PublicHandler {
	return &PublicHandler{
		projectService:     projectService,
		publicationService: publicationService,
	}
}

// Projects lists public projects
// @Summary List public projects
// @Description List projects flagged public, no authentication required
// @Tags Public
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /public/projects [get]
func (h *PublicHandler) Projects(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	projects, total, err := h.projectService.ListPublic(c.Context(), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list projects")
	}

	return response.Success(c, "Projects retrieved successfully",
		pagination.NewResponse(projects, params, total))
}

// Publications lists public publications
// @Summary List public publications
// @Description List publications flagged public, no authentication required
// @Tags Public
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /public/publications [get]
func (h *PublicHandler) Publications(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	publications, total, err := h.publicationService.ListPublic(c.Context(), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list publications")
	}

	return response.Success(c, "Publications retrieved successfully",
		pagination.NewResponse(publications, params, total))
}
