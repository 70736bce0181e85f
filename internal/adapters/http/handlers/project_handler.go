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

// ProjectHandler handles research project endpoints
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// MemberRequest represents an add-member body
type MemberRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// Create handles project creation
// @Summary Create project
// @Description Create a research project owned by the caller
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateProjectInput true "Project data"
// @Success 201 {object} response.Response
// @Router /projects [post]
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateProjectInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	project, err := h.projectService.Create(c.Context(), userID, &input, c.IP())
	if err != nil {
		return response.InternalServerError(c, "Failed to create project")
	}

	return response.Created(c, "Project created successfully", project)
}

// List handles project listing
// @Summary List projects
// @Description List projects with search and pagination
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param search query string false "Search by title"
// @Success 200 {object} response.Response
// @Router /projects [get]
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	projects, total, err := h.projectService.List(c.Context(), &services.ListProjectsInput{
		Page:   params.Page,
		Limit:  params.Limit,
		Search: c.Query("search"),
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list projects")
	}

	return response.Success(c, "Projects retrieved successfully",
		pagination.NewResponse(projects, params, total))
}

// ListMine handles the caller's own project listing
// @Summary List own projects
// @Description List projects owned by the caller
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /projects/mine [get]
func (h *ProjectHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	projects, total, err := h.projectService.ListByOwner(c.Context(), userID, params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list projects")
	}

	return response.Success(c, "Projects retrieved successfully",
		pagination.NewResponse(projects, params, total))
}

// Get handles single project retrieval
// @Summary Get project
// @Description Get a project with owner and members
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid project ID")
	}

	project, err := h.projectService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return response.NotFound(c, "Project not found")
		}
		return response.InternalServerError(c, "Failed to get project")
	}

	return response.Success(c, "Project retrieved successfully", project)
}

// Update handles project updates
// @Summary Update project
// @Description Update a project (owner or admin)
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param body body services.UpdateProjectInput true "Updated fields"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid project ID")
	}

	var input services.UpdateProjectInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	project, err := h.projectService.Update(c.Context(), uint(id), userID,
		role == models.RoleAdmin, &input, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProjectNotFound):
			return response.NotFound(c, "Project not found")
		case errors.Is(err, domain.ErrNotProjectOwner):
			return response.Forbidden(c, "Only the project owner can update this project")
		case errors.Is(err, services.ErrInvalidProjectStatus):
			return response.BadRequest(c, "Invalid project status")
		default:
			return response.InternalServerError(c, "Failed to update project")
		}
	}

	return response.Success(c, "Project updated successfully", project)
}

// Delete handles project deletion
// @Summary Delete project
// @Description Soft-delete a project (owner or admin)
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid project ID")
	}

	err = h.projectService.Delete(c.Context(), uint(id), userID, role == models.RoleAdmin, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProjectNotFound):
			return response.NotFound(c, "Project not found")
		case errors.Is(err, domain.ErrNotProjectOwner):
			return response.Forbidden(c, "Only the project owner can delete this project")
		default:
			return response.InternalServerError(c, "Failed to delete project")
		}
	}

	return response.Success(c, "Project deleted successfully", nil)
}

// AddMember handles adding a member to a project
// @Summary Add project member
// @Description Add a user to a project (owner or admin)
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param body body MemberRequest true "User to add"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /projects/{id}/members [post]
func (h *ProjectHandler) AddMember(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid project ID")
	}

	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&req); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	err = h.projectService.AddMember(c.Context(), uint(id), req.UserID, userID, role == models.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProjectNotFound):
			return response.NotFound(c, "Project not found")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrNotProjectOwner):
			return response.Forbidden(c, "Only the project owner can add members")
		case errors.Is(err, domain.ErrAlreadyMember):
			return response.Conflict(c, "User is already a member")
		default:
			return response.InternalServerError(c, "Failed to add member")
		}
	}

	return response.Success(c, "Member added successfully", nil)
}

// RemoveMember handles removing a member from a project
// @Summary Remove project member
// @Description Remove a user from a project (owner or admin)
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param userId path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /projects/{id}/members/{userId} [delete]
func (h *ProjectHandler) RemoveMember(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid project ID")
	}
	memberID, err := c.ParamsInt("userId")
	if err != nil || memberID < 1 {
		return response.BadRequest(c, "Invalid user ID")
	}

	err = h.projectService.RemoveMember(c.Context(), uint(id), uint(memberID), userID, role == models.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProjectNotFound):
			return response.NotFound(c, "Project not found")
		case errors.Is(err, domain.ErrNotProjectOwner):
			return response.Forbidden(c, "Only the project owner can remove members")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "The project owner can not be removed")
		default:
			return response.InternalServerError(c, "Failed to remove member")
		}
	}

	return response.Success(c, "Member removed successfully", nil)
}
