package handlers

import (
	"errors"
	"strconv"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/core/domain"
	"researchhub/internal/core/services"
	"researchhub/internal/pkg/pagination"
	"researchhub/internal/pkg/response"
	"researchhub/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// RequestHandler handles review-request endpoints
type RequestHandler struct {
	requestService *services.RequestService
	projectService *services.ProjectService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService *services.RequestService, projectService *services.ProjectService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		projectService: projectService,
	}
}

// CommentRequest represents a comment body
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// Create handles request creation
// @Summary Create request
// @Description Submit a new request for administrative review
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateRequestInput true "Request data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateRequestInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	request, err := h.requestService.Create(c.Context(), userID, &input, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRequestTypeInvalid):
			return response.BadRequest(c, "Invalid request type")
		case errors.Is(err, models.ErrProjectRequired):
			return response.BadRequest(c, "This request type requires a project")
		case errors.Is(err, domain.ErrProjectNotFound):
			return response.NotFound(c, "Project not found")
		default:
			return response.InternalServerError(c, "Failed to create request")
		}
	}

	return response.Created(c, "Request created successfully", request)
}

// List handles request listing with filters
// @Summary List requests
// @Description List requests with filters and pagination. Researchers see
// @Description their own requests; admins see all and may include deleted ones.
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "Status filter"
// @Param request_type query string false "Type filter"
// @Param project_id query int false "Project filter"
// @Param show_deleted query bool false "Include soft-deleted requests (admin only)"
// @Success 200 {object} response.Response
// @Router /requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)
	isAdmin := role == models.RoleAdmin

	params := pagination.GetParams(c)

	input := &services.ListRequestsInput{
		Page:        params.Page,
		Limit:       params.Limit,
		Status:      c.Query("status"),
		RequestType: c.Query("request_type"),
	}

	if pid, err := strconv.ParseUint(c.Query("project_id"), 10, 32); err == nil {
		projectID := uint(pid)
		input.ProjectID = &projectID
	}

	// Non-admins only ever see their own, never-deleted requests
	if isAdmin {
		input.ShowDeleted = c.QueryBool("show_deleted")
		if rid, err := strconv.ParseUint(c.Query("requester_id"), 10, 32); err == nil {
			requesterID := uint(rid)
			input.RequesterID = &requesterID
		}
	} else {
		input.RequesterID = &userID
	}

	requests, total, err := h.requestService.List(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRequestStatusInvalid):
			return response.BadRequest(c, "Invalid status filter")
		case errors.Is(err, models.ErrRequestTypeInvalid):
			return response.BadRequest(c, "Invalid request type filter")
		default:
			return response.InternalServerError(c, "Failed to list requests")
		}
	}

	return response.Success(c, "Requests retrieved successfully",
		pagination.NewResponse(requests, params, total))
}

// Get handles single request retrieval
// @Summary Get request
// @Description Get a request with its comment thread
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid request ID")
	}

	request, err := h.requestService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return response.NotFound(c, "Request not found")
		}
		return response.InternalServerError(c, "Failed to get request")
	}

	// Researchers may only read their own requests
	if role != models.RoleAdmin && request.RequesterID != userID {
		return response.Forbidden(c, "You don't have permission to access this request")
	}

	return response.Success(c, "Request retrieved successfully", request)
}

// Update handles request editing by the requester
// @Summary Update request
// @Description Edit a pending request's description and project
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body services.UpdateRequestInput true "Updated fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /requests/{id} [put]
func (h *RequestHandler) Update(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid request ID")
	}

	var input services.UpdateRequestInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	request, err := h.requestService.Update(c.Context(), uint(id), userID, &input, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRequestNotFound):
			return response.NotFound(c, "Request not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Only the requester can edit this request")
		case errors.Is(err, domain.ErrRequestResolved):
			return response.Conflict(c, "Request is no longer pending")
		case errors.Is(err, domain.ErrRequestDeleted):
			return response.Conflict(c, "Request is deleted")
		case errors.Is(err, models.ErrProjectRequired):
			return response.BadRequest(c, "This request type requires a project")
		case errors.Is(err, domain.ErrProjectNotFound):
			return response.NotFound(c, "Project not found")
		default:
			return response.InternalServerError(c, "Failed to update request")
		}
	}

	return response.Success(c, "Request updated successfully", request)
}

// ChangeStatus handles a reviewer's status decision (admin only)
// @Summary Change request status
// @Description Move a request to APPROVED, REJECTED or IN_PROCESS
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body services.StatusChangeInput true "Status decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /requests/{id}/status [patch]
func (h *RequestHandler) ChangeStatus(c *fiber.Ctx) error {
	reviewerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid request ID")
	}

	var input services.StatusChangeInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	request, err := h.requestService.ChangeStatus(c.Context(), uint(id), reviewerID, &input, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRequestNotFound):
			return response.NotFound(c, "Request not found")
		case errors.Is(err, domain.ErrRequestDeleted):
			return response.Conflict(c, "Request is deleted")
		case errors.Is(err, domain.ErrRequestResolved):
			return response.Conflict(c, "Request already resolved")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.BadRequest(c, "Invalid status transition")
		default:
			return response.InternalServerError(c, "Failed to change request status")
		}
	}

	// An approved JOIN_PROJECT request also adds the requester to the project
	if request.Status == models.RequestStatusApproved &&
		request.RequestType == models.RequestTypeJoinProject && request.ProjectID != nil {
		if err := h.projectService.AddMember(c.Context(), *request.ProjectID,
			request.RequesterID, reviewerID, true); err != nil &&
			!errors.Is(err, domain.ErrAlreadyMember) {
			return response.InternalServerError(c, "Request approved but adding the member failed")
		}
	}

	return response.Success(c, "Request status updated successfully", request)
}

// AddComment appends a comment to a request thread
// @Summary Comment on request
// @Description Add a comment to a request's thread
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body CommentRequest true "Comment text"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /requests/{id}/comments [post]
func (h *RequestHandler) AddComment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid request ID")
	}

	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&req); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	// Only the requester and admins take part in the thread
	existing, err := h.requestService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return response.NotFound(c, "Request not found")
		}
		return response.InternalServerError(c, "Failed to get request")
	}
	if role != models.RoleAdmin && existing.RequesterID != userID {
		return response.Forbidden(c, "You don't have permission to comment on this request")
	}

	request, err := h.requestService.AddComment(c.Context(), uint(id), userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRequestDeleted):
			return response.Conflict(c, "Request is deleted")
		default:
			return response.InternalServerError(c, "Failed to add comment")
		}
	}

	return response.Success(c, "Comment added successfully", request)
}

// Delete handles request soft deletion
// @Summary Delete request
// @Description Soft-delete a request (hidden from default listings, restorable)
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid request ID")
	}

	err = h.requestService.SoftDelete(c.Context(), uint(id), userID, role == models.RoleAdmin, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRequestNotFound):
			return response.NotFound(c, "Request not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You don't have permission to delete this request")
		case errors.Is(err, domain.ErrRequestDeleted):
			return response.Conflict(c, "Request is already deleted")
		default:
			return response.InternalServerError(c, "Failed to delete request")
		}
	}

	return response.Success(c, "Request deleted successfully", nil)
}

// Restore handles request restoration (admin only)
// @Summary Restore request
// @Description Clear the soft-delete flag on a request
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /requests/{id}/restore [post]
func (h *RequestHandler) Restore(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid request ID")
	}

	request, err := h.requestService.Restore(c.Context(), uint(id), userID, c.IP())
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return response.NotFound(c, "Request not found")
		}
		return response.InternalServerError(c, "Failed to restore request")
	}

	return response.Success(c, "Request restored successfully", request)
}
