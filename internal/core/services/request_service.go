package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/adapters/persistence/repositories"
	"researchhub/internal/core/domain"

	"gorm.io/gorm"
)

// RequestService handles review-request business logic. A request moves
// PENDING -> APPROVED | REJECTED | IN_PROCESS; IN_PROCESS may still be
// resolved later, APPROVED and REJECTED are terminal.
type RequestService struct {
	requestRepo  repositories.RequestRepository
	projectRepo  repositories.ProjectRepository
	userRepo     repositories.UserRepository
	notification *NotificationService
	audit        *AuditService
}

// NewRequestService creates a new request service
func NewRequestService(
	requestRepo repositories.RequestRepository,
	projectRepo repositories.ProjectRepository,
	userRepo repositories.UserRepository,
	notification *NotificationService,
	audit *AuditService,
) *RequestService {
	return &RequestService{
		requestRepo:  requestRepo,
		projectRepo:  projectRepo,
		userRepo:     userRepo,
		notification: notification,
		audit:        audit,
	}
}

// CreateRequestInput represents request creation input
type CreateRequestInput struct {
	RequestType string `json:"request_type" validate:"required,oneof=JOIN_PROJECT RESOURCES APPROVAL PERMISSION OTHER"`
	Description string `json:"description" validate:"required"`
	ProjectID   *uint  `json:"project_id"`
}

// UpdateRequestInput represents request update input (requester-editable fields)
type UpdateRequestInput struct {
	Description string `json:"description" validate:"required"`
	ProjectID   *uint  `json:"project_id"`
}

// StatusChangeInput represents a reviewer's status decision
type StatusChangeInput struct {
	Status  string `json:"status" validate:"required,oneof=APPROVED REJECTED IN_PROCESS"`
	Comment string `json:"comment"`
}

// ListRequestsInput represents request list input
type ListRequestsInput struct {
	Page        int
	Limit       int
	Status      string
	RequestType string
	ProjectID   *uint
	RequesterID *uint
	ShowDeleted bool
}

// Create creates a new request in PENDING status
func (s *RequestService) Create(ctx context.Context, requesterID uint, input *CreateRequestInput, remoteIP string) (*models.Request, error) {
	// 1. Validate the enum and the conditionally-required project
	if !models.IsValidRequestType(input.RequestType) {
		return nil, models.ErrRequestTypeInvalid
	}
	if models.RequestTypeNeedsProject(input.RequestType) && input.ProjectID == nil {
		return nil, models.ErrProjectRequired
	}

	// 2. A referenced project must exist
	if input.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *input.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrProjectNotFound
			}
			return nil, err
		}
	}

	// 3. Create the request
	request := &models.Request{
		RequesterID: requesterID,
		RequestType: input.RequestType,
		Description: input.Description,
		ProjectID:   input.ProjectID,
		Status:      models.RequestStatusPending,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	// 4. Notify administrators
	requester, err := s.userRepo.GetByID(ctx, requesterID)
	requesterName := "A researcher"
	if err == nil {
		requesterName = requester.FullName
	} else {
		log.Printf("⚠️ Requester %d lookup failed, notifying with fallback name: %v", requesterID, err)
	}
	s.notification.NotifyNewRequest(ctx, request, requesterName)

	s.audit.Record(ctx, models.AuditActionCreate, "request", request.ID,
		fmt.Sprintf("type=%s", request.RequestType), requesterID, remoteIP)

	log.Printf("✅ Request #%d created (%s) by user %d", request.ID, request.RequestType, requesterID)

	return s.requestRepo.GetByID(ctx, request.ID)
}

// GetByID returns a request with its comment thread. Deleted requests stay
// readable; the soft-delete flag only hides them from default listings.
func (s *RequestService) GetByID(ctx context.Context, id uint) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

// Update lets the requester edit description and project while still PENDING
func (s *RequestService) Update(ctx context.Context, id, actorID uint, input *UpdateRequestInput, remoteIP string) (*models.Request, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 1. Only the requester edits, and only before review starts
	if request.RequesterID != actorID {
		return nil, domain.ErrForbidden
	}
	if request.Status != models.RequestStatusPending {
		return nil, domain.ErrRequestResolved
	}
	if request.IsDeleted {
		return nil, domain.ErrRequestDeleted
	}

	// 2. Re-check the conditionally-required project against the new values
	if models.RequestTypeNeedsProject(request.RequestType) && input.ProjectID == nil {
		return nil, models.ErrProjectRequired
	}
	if input.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *input.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrProjectNotFound
			}
			return nil, err
		}
	}

	// 3. Apply and save
	request.Description = input.Description
	request.ProjectID = input.ProjectID

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionUpdate, "request", request.ID, "", actorID, remoteIP)

	return s.requestRepo.GetByID(ctx, request.ID)
}

// ChangeStatus applies a reviewer's decision to a request
func (s *RequestService) ChangeStatus(ctx context.Context, id, reviewerID uint, input *StatusChangeInput, remoteIP string) (*models.Request, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 1. Deleted requests are frozen
	if request.IsDeleted {
		return nil, domain.ErrRequestDeleted
	}

	// 2. Validate the transition
	if !models.IsValidRequestStatus(input.Status) || input.Status == models.RequestStatusPending {
		return nil, domain.ErrInvalidTransition
	}
	if request.IsResolved() {
		return nil, domain.ErrRequestResolved
	}
	if request.Status == input.Status {
		return nil, domain.ErrInvalidTransition
	}

	// 3. Leaving PENDING stamps the resolution date; it is set once and kept
	//    even if the request continues through IN_PROCESS
	previous := request.Status
	request.Status = input.Status
	if request.ResolutionDate == nil {
		now := time.Now()
		request.ResolutionDate = &now
	}
	request.ReviewedBy = &reviewerID

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	// 4. Optional decision comment joins the thread
	if input.Comment != "" {
		comment := &models.RequestComment{
			RequestID: request.ID,
			AuthorID:  reviewerID,
			Text:      input.Comment,
		}
		if err := s.requestRepo.AddComment(ctx, comment); err != nil {
			return nil, err
		}
	}

	// 5. Tell the requester
	s.notification.NotifyRequestStatus(ctx, request)

	s.audit.Record(ctx, models.AuditActionStatusChange, "request", request.ID,
		fmt.Sprintf("%s -> %s", previous, request.Status), reviewerID, remoteIP)

	log.Printf("✅ Request #%d: %s -> %s (reviewer %d)", request.ID, previous, request.Status, reviewerID)

	return s.requestRepo.GetByID(ctx, request.ID)
}

// AddComment appends a comment to a request's thread
func (s *RequestService) AddComment(ctx context.Context, id, authorID uint, text string) (*models.Request, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.IsDeleted {
		return nil, domain.ErrRequestDeleted
	}

	comment := &models.RequestComment{
		RequestID: request.ID,
		AuthorID:  authorID,
		Text:      text,
	}
	if err := s.requestRepo.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	// Comments from anyone but the requester notify the requester
	if authorID != request.RequesterID {
		author, err := s.userRepo.GetByID(ctx, authorID)
		authorName := "Someone"
		if err == nil {
			authorName = author.FullName
		}
		s.notification.NotifyRequestComment(ctx, request, authorName)
	}

	return s.requestRepo.GetByID(ctx, request.ID)
}

// SoftDelete flags a request out of default listings. The row and its
// comment thread survive; Restore undoes this.
func (s *RequestService) SoftDelete(ctx context.Context, id, actorID uint, isAdmin bool, remoteIP string) error {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Requesters may delete their own requests, admins any
	if !isAdmin && request.RequesterID != actorID {
		return domain.ErrForbidden
	}
	if request.IsDeleted {
		return domain.ErrRequestDeleted
	}

	request.IsDeleted = true
	if err := s.requestRepo.Update(ctx, request); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionSoftDelete, "request", request.ID, "", actorID, remoteIP)

	log.Printf("✅ Request #%d soft-deleted by user %d", request.ID, actorID)
	return nil
}

// Restore clears the soft-delete flag (admin only, enforced at the route)
func (s *RequestService) Restore(ctx context.Context, id, actorID uint, remoteIP string) (*models.Request, error) {
	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.IsDeleted {
		return request, nil
	}

	request.IsDeleted = false
	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionRestore, "request", request.ID, "", actorID, remoteIP)

	log.Printf("✅ Request #%d restored by user %d", request.ID, actorID)
	return s.requestRepo.GetByID(ctx, request.ID)
}

// List lists requests with filters and pagination. Deleted requests are
// excluded unless ShowDeleted is set (admin listings only).
func (s *RequestService) List(ctx context.Context, input *ListRequestsInput) ([]*models.Request, int64, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	if input.Status != "" && !models.IsValidRequestStatus(input.Status) {
		return nil, 0, models.ErrRequestStatusInvalid
	}
	if input.RequestType != "" && !models.IsValidRequestType(input.RequestType) {
		return nil, 0, models.ErrRequestTypeInvalid
	}

	filter := &repositories.RequestFilter{
		Status:      input.Status,
		RequestType: input.RequestType,
		ProjectID:   input.ProjectID,
		RequesterID: input.RequesterID,
		ShowDeleted: input.ShowDeleted,
	}

	offset := (input.Page - 1) * input.Limit
	return s.requestRepo.List(ctx, filter, offset, input.Limit)
}
