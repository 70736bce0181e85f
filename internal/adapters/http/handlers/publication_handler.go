package handlers

import (
	"errors"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/core/domain"
	"researchhub/internal/core/services"
	"researchhub/internal/pkg/pagination"
	"researchhub/internal/pkg/response"
	"researchhub/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// PublicationHandler handles publication endpoints
type PublicationHandler struct {
	publicationService *services.PublicationService
}

// NewPublicationHandler creates a new publication handler
func NewPublicationHandler(publicationService *services.PublicationService) *PublicationHandler {
	return &PublicationHandler{publicationService: publicationService}
}

// Create handles publication creation
// @Summary Create publication
// @Description Register a publication owned by the caller
// @Tags Publications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.PublicationInput true "Publication data"
// @Success 201 {object} response.Response
// @Router /publications [post]
func (h *PublicationHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.PublicationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	publication, err := h.publicationService.Create(c.Context(), userID, &input, c.IP())
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return response.NotFound(c, "Project not found")
		}
		return response.InternalServerError(c, "Failed to create publication")
	}

	return response.Created(c, "Publication created successfully", publication)
}

// List handles publication listing
// @Summary List publications
// @Description List publications with search and pagination
// @Tags Publications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param search query string false "Search by title or authors"
// @Success 200 {object} response.Response
// @Router /publications [get]
func (h *PublicationHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	publications, total, err := h.publicationService.List(c.Context(), &services.ListPublicationsInput{
		Page:   params.Page,
		Limit:  params.Limit,
		Search: c.Query("search"),
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list publications")
	}

	return response.Success(c, "Publications retrieved successfully",
		pagination.NewResponse(publications, params, total))
}

// ListMine handles the caller's own publication listing
// @Summary List own publications
// @Description List publications owned by the caller
// @Tags Publications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /publications/mine [get]
func (h *PublicationHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	publications, total, err := h.publicationService.ListByOwner(c.Context(), userID, params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list publications")
	}

	return response.Success(c, "Publications retrieved successfully",
		pagination.NewResponse(publications, params, total))
}

// Get handles single publication retrieval
// @Summary Get publication
// @Description Get a publication by ID
// @Tags Publications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Publication ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /publications/{id} [get]
func (h *PublicationHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid publication ID")
	}

	publication, err := h.publicationService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Publication not found")
		}
		return response.InternalServerError(c, "Failed to get publication")
	}

	return response.Success(c, "Publication retrieved successfully", publication)
}

// Update handles publication updates
// @Summary Update publication
// @Description Update a publication (owner or admin)
// @Tags Publications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Publication ID"
// @Param body body services.PublicationInput true "Updated fields"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /publications/{id} [put]
func (h *PublicationHandler) Update(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid publication ID")
	}

	var input services.PublicationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	publication, err := h.publicationService.Update(c.Context(), uint(id), userID,
		role == models.RoleAdmin, &input, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Publication not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Only the publication owner can update it")
		case errors.Is(err, domain.ErrProjectNotFound):
			return response.NotFound(c, "Project not found")
		default:
			return response.InternalServerError(c, "Failed to update publication")
		}
	}

	return response.Success(c, "Publication updated successfully", publication)
}

// Delete handles publication deletion
// @Summary Delete publication
// @Description Soft-delete a publication (owner or admin)
// @Tags Publications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Publication ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /publications/{id} [delete]
func (h *PublicationHandler) Delete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid publication ID")
	}

	err = h.publicationService.Delete(c.Context(), uint(id), userID, role == models.RoleAdmin, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Publication not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Only the publication owner can delete it")
		default:
			return response.InternalServerError(c, "Failed to delete publication")
		}
	}

	return response.Success(c, "Publication deleted successfully", nil)
}
