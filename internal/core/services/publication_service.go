package services

import (
	"context"
	"errors"
	"log"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/adapters/persistence/repositories"
	"researchhub/internal/core/domain"

	"gorm.io/gorm"
)

// PublicationService handles publication business logic
type PublicationService struct {
	publicationRepo repositories.PublicationRepository
	projectRepo     repositories.ProjectRepository
	audit           *AuditService
}

// NewPublicationService creates a new publication service
func NewPublicationService(
	publicationRepo repositories.PublicationRepository,
	projectRepo repositories.ProjectRepository,
	audit *AuditService,
) *PublicationService {
	return &PublicationService{
		publicationRepo: publicationRepo,
		projectRepo:     projectRepo,
		audit:           audit,
	}
}

// PublicationInput represents publication create/update input
type PublicationInput struct {
	Title     string `json:"title" validate:"required,max=300"`
	Authors   string `json:"authors" validate:"required,max=500"`
	Venue     string `json:"venue" validate:"max=200"`
	Year      int    `json:"year" validate:"required,gte=1900,lte=2100"`
	DOI       string `json:"doi" validate:"max=100"`
	ProjectID *uint  `json:"project_id"`
	IsPublic  bool   `json:"is_public"`
}

// ListPublicationsInput represents publication list input
type ListPublicationsInput struct {
	Page   int
	Limit  int
	Search string
}

// Create registers a publication owned by the caller
func (s *PublicationService) Create(ctx context.Context, ownerID uint, input *PublicationInput, remoteIP string) (*models.Publication, error) {
	// A referenced project must exist
	if input.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *input.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrProjectNotFound
			}
			return nil, err
		}
	}

	publication := &models.Publication{
		Title:     input.Title,
		Authors:   input.Authors,
		Venue:     input.Venue,
		Year:      input.Year,
		DOI:       input.DOI,
		ProjectID: input.ProjectID,
		OwnerID:   ownerID,
		IsPublic:  input.IsPublic,
	}

	if err := s.publicationRepo.Create(ctx, publication); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionCreate, "publication", publication.ID, publication.Title, ownerID, remoteIP)

	log.Printf("✅ Publication #%d created: %s", publication.ID, publication.Title)
	return s.publicationRepo.GetByID(ctx, publication.ID)
}

// GetByID gets a publication by ID
func (s *PublicationService) GetByID(ctx context.Context, id uint) (*models.Publication, error) {
	publication, err := s.publicationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return publication, nil
}

// Update updates a publication (owner or admin)
func (s *PublicationService) Update(ctx context.Context, id, actorID uint, isAdmin bool, input *PublicationInput, remoteIP string) (*models.Publication, error) {
	publication, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && publication.OwnerID != actorID {
		return nil, domain.ErrForbidden
	}

	if input.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *input.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrProjectNotFound
			}
			return nil, err
		}
	}

	publication.Title = input.Title
	publication.Authors = input.Authors
	publication.Venue = input.Venue
	publication.Year = input.Year
	publication.DOI = input.DOI
	publication.ProjectID = input.ProjectID
	publication.IsPublic = input.IsPublic

	if err := s.publicationRepo.Update(ctx, publication); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionUpdate, "publication", publication.ID, "", actorID, remoteIP)

	return s.publicationRepo.GetByID(ctx, publication.ID)
}

// Delete soft-deletes a publication (owner or admin)
func (s *PublicationService) Delete(ctx context.Context, id, actorID uint, isAdmin bool, remoteIP string) error {
	publication, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !isAdmin && publication.OwnerID != actorID {
		return domain.ErrForbidden
	}

	if err := s.publicationRepo.Delete(ctx, publication.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionSoftDelete, "publication", publication.ID, "", actorID, remoteIP)

	log.Printf("✅ Publication #%d deleted by user %d", publication.ID, actorID)
	return nil
}

// List lists publications with search and pagination
func (s *PublicationService) List(ctx context.Context, input *ListPublicationsInput) ([]*models.Publication, int64, error) {
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
	return s.publicationRepo.List(ctx, input.Search, offset, input.Limit)
}

// ListByOwner lists a user's own publications
func (s *PublicationService) ListByOwner(ctx context.Context, ownerID uint, page, limit int) ([]*models.Publication, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.publicationRepo.ListByOwner(ctx, ownerID, (page-1)*limit, limit)
}

// ListPublic lists public publications for the unauthenticated site
func (s *PublicationService) ListPublic(ctx context.Context, page, limit int) ([]*models.Publication, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.publicationRepo.ListPublic(ctx, (page-1)*limit, limit)
}
