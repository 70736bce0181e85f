package handlers

import (
	"errors"

	"researchhub/internal/core/domain"
	"researchhub/internal/core/services"
	"researchhub/internal/pkg/pagination"
	"researchhub/internal/pkg/response"
	"researchhub/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// EvaluationHandler handles project evaluation endpoints (admin only)
type EvaluationHandler struct {
	evaluationService *services.EvaluationService
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evaluationService *services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

// Create handles evaluation creation
// @Summary Create evaluation
// @Description Record an evaluation of a project
// @Tags Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.EvaluationInput true "Evaluation data"
// @Success 201 {object} response.Response
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.EvaluationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	evaluation, err := h.evaluationService.Create(c.Context(), userID, &input, c.IP())
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return response.NotFound(c, "Project not found")
		}
		return response.InternalServerError(c, "Failed to create evaluation")
	}

	return response.Created(c, "Evaluation created successfully", evaluation)
}

// List handles evaluation listing
// @Summary List evaluations
// @Description List evaluations with pagination
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /evaluations [get]
func (h *EvaluationHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	evaluations, total, err := h.evaluationService.List(c.Context(), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list evaluations")
	}

	return response.Success(c, "Evaluations retrieved successfully",
		pagination.NewResponse(evaluations, params, total))
}

// ListByProject lists all evaluations of one project
// @Summary List project evaluations
// @Description List all evaluations for a project
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} response.Response
// @Router /projects/{id}/evaluations [get]
func (h *EvaluationHandler) ListByProject(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid project ID")
	}

	evaluations, err := h.evaluationService.ListByProject(c.Context(), uint(id))
	if err != nil {
		return response.InternalServerError(c, "Failed to list evaluations")
	}

	return response.Success(c, "Evaluations retrieved successfully", evaluations)
}

// Get handles single evaluation retrieval
// @Summary Get evaluation
// @Description Get an evaluation by ID
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evaluation ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /evaluations/{id} [get]
func (h *EvaluationHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid evaluation ID")
	}

	evaluation, err := h.evaluationService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Evaluation not found")
		}
		return response.InternalServerError(c, "Failed to get evaluation")
	}

	return response.Success(c, "Evaluation retrieved successfully", evaluation)
}

// Update handles evaluation updates
// @Summary Update evaluation
// @Description Update an evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evaluation ID"
// @Param body body services.EvaluationInput true "Updated fields"
// @Success 200 {object} response.Response
// @Router /evaluations/{id} [put]
func (h *EvaluationHandler) Update(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid evaluation ID")
	}

	var input services.EvaluationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	evaluation, err := h.evaluationService.Update(c.Context(), uint(id), userID, &input, c.IP())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Evaluation not found")
		}
		return response.InternalServerError(c, "Failed to update evaluation")
	}

	return response.Success(c, "Evaluation updated successfully", evaluation)
}

// Delete handles evaluation deletion
// @Summary Delete evaluation
// @Description Soft-delete an evaluation
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evaluation ID"
// @Success 200 {object} response.Response
// @Router /evaluations/{id} [delete]
func (h *EvaluationHandler) Delete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid evaluation ID")
	}

	err = h.evaluationService.Delete(c.Context(), uint(id), userID, c.IP())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Evaluation not found")
		}
		return response.InternalServerError(c, "Failed to delete evaluation")
	}

	return response.Success(c, "Evaluation deleted successfully", nil)
}
