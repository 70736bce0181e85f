package services

import (
	"context"
	"errors"
	"log"
	"time"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/adapters/persistence/repositories"
	"researchhub/internal/core/domain"

	"gorm.io/gorm"
)

// ErrInvalidProjectStatus is returned for statuses outside the closed enum
var ErrInvalidProjectStatus = errors.New("invalid project status")

// ProjectService handles research project business logic
type ProjectService struct {
	projectRepo  repositories.ProjectRepository
	userRepo     repositories.UserRepository
	notification *NotificationService
	audit        *AuditService
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	userRepo repositories.UserRepository,
	notification *NotificationService,
	audit *AuditService,
) *ProjectService {
	return &ProjectService{
		projectRepo:  projectRepo,
		userRepo:     userRepo,
		notification: notification,
		audit:        audit,
	}
}

// CreateProjectInput represents project creation input
type CreateProjectInput struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Summary   string     `json:"summary"`
	IsPublic  bool       `json:"is_public"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// UpdateProjectInput represents project update input
type UpdateProjectInput struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Summary   string     `json:"summary"`
	Status    string     `json:"status" validate:"omitempty,oneof=ACTIVE COMPLETED ARCHIVED"`
	IsPublic  *bool      `json:"is_public"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// ListProjectsInput represents project list input
type ListProjectsInput struct {
	Page   int
	Limit  int
	Search string
}

// Create creates a project with the caller as its owner
func (s *ProjectService) Create(ctx context.Context, ownerID uint, input *CreateProjectInput, remoteIP string) (*models.Project, error) {
	project := &models.Project{
		Title:     input.Title,
		Summary:   input.Summary,
		Status:    models.ProjectStatusActive,
		OwnerID:   ownerID,
		IsPublic:  input.IsPublic,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	// Owner is also the first member
	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    ownerID,
		Role:      models.MemberRoleOwner,
	}
	if err := s.projectRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionCreate, "project", project.ID, project.Title, ownerID, remoteIP)

	log.Printf("✅ Project #%d created: %s", project.ID, project.Title)
	return s.projectRepo.GetByID(ctx, project.ID)
}

// GetByID gets a project with owner and members
func (s *ProjectService) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// Update updates a project (owner or admin)
func (s *ProjectService) Update(ctx context.Context, id, actorID uint, isAdmin bool, input *UpdateProjectInput, remoteIP string) (*models.Project, error) {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && project.OwnerID != actorID {
		return nil, domain.ErrNotProjectOwner
	}

	project.Title = input.Title
	project.Summary = input.Summary
	if input.Status != "" {
		switch input.Status {
		case models.ProjectStatusActive, models.ProjectStatusCompleted, models.ProjectStatusArchived:
			project.Status = input.Status
		default:
			return nil, ErrInvalidProjectStatus
		}
	}
	if input.IsPublic != nil {
		project.IsPublic = *input.IsPublic
	}
	project.StartDate = input.StartDate
	project.EndDate = input.EndDate

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionUpdate, "project", project.ID, "", actorID, remoteIP)

	return s.projectRepo.GetByID(ctx, project.ID)
}

// Delete soft-deletes a project (owner or admin)
func (s *ProjectService) Delete(ctx context.Context, id, actorID uint, isAdmin bool, remoteIP string) error {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !isAdmin && project.OwnerID != actorID {
		return domain.ErrNotProjectOwner
	}

	if err := s.projectRepo.Delete(ctx, project.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionSoftDelete, "project", project.ID, "", actorID, remoteIP)

	log.Printf("✅ Project #%d deleted by user %d", project.ID, actorID)
	return nil
}

// List lists projects with search and pagination
func (s *ProjectService) List(ctx context.Context, input *ListProjectsInput) ([]*models.Project, int64, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit
	return s.projectRepo.List(ctx, input.Search, offset, input.Limit)
}

// ListByOwner lists a user's own projects
func (s *ProjectService) ListByOwner(ctx context.Context, ownerID uint, page, limit int) ([]*models.Project, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.projectRepo.ListByOwner(ctx, ownerID, (page-1)*limit, limit)
}

// ListPublic lists public projects for the unauthenticated site
func (s *ProjectService) ListPublic(ctx context.Context, page, limit int) ([]*models.Project, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.projectRepo.ListPublic(ctx, (page-1)*limit, limit)
}

// AddMember adds a user to a project (owner or admin). Usually called when
// a JOIN_PROJECT request is approved.
func (s *ProjectService) AddMember(ctx context.Context, projectID, userID, actorID uint, isAdmin bool) error {
	project, err := s.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if !isAdmin && project.OwnerID != actorID {
		return domain.ErrNotProjectOwner
	}

	// User must exist
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	exists, err := s.projectRepo.IsMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyMember
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      models.MemberRoleMember,
	}
	if err := s.projectRepo.AddMember(ctx, member); err != nil {
		return err
	}

	s.notification.NotifyProjectMember(ctx, user.ID, project.Title)

	log.Printf("✅ User %d added to project #%d", userID, projectID)
	return nil
}

// RemoveMember removes a user from a project (owner or admin). The owner
// membership row can not be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID, actorID uint, isAdmin bool) error {
	project, err := s.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if !isAdmin && project.OwnerID != actorID {
		return domain.ErrNotProjectOwner
	}
	if userID == project.OwnerID {
		return domain.ErrForbidden
	}

	return s.projectRepo.RemoveMember(ctx, projectID, userID)
}
