package repositories

import (
	"context"
	"time"

	"researchhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// requestRepository implements RequestRepository interface
type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create creates a new request
func (r *requestRepository) Create(ctx context.Context, request *models.Request) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetByID gets a request by ID with relations and the comment thread in
// chronological order
func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.Request, error) {
	var request models.Request
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Project").
		Preload("Reviewer").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("request_comments.id ASC")
		}).
		Preload("Comments.Author").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Update updates a request
func (r *requestRepository) Update(ctx context.Context, request *models.Request) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// List lists requests matching the filter. Deleted rows are excluded unless
// the filter explicitly asks for them.
func (r *requestRepository) List(ctx context.Context, filter *RequestFilter, offset, limit int) ([]*models.Request, int64, error) {
	var requests []*models.Request
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Request{})

	if !filter.ShowDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RequestType != "" {
		query = query.Where("request_type = ?", filter.RequestType)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", *filter.RequesterID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Requester").
		Preload("Project").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// AddComment appends a comment to a request thread
func (r *requestRepository) AddComment(ctx context.Context, comment *models.RequestComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListPendingOlderThan lists non-deleted PENDING requests created before the
// cutoff (used by the stale-request reminder job)
func (r *requestRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Request, error) {
	var requests []*models.Request
	err := r.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusPending).
		Where("is_deleted = ?", false).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}
