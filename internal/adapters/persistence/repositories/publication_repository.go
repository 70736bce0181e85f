package repositories

import (
	"context"

	"researchhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// publicationRepository implements PublicationRepository interface
type publicationRepository struct {
	db *gorm.DB
}

// NewPublicationRepository creates a new publication repository
func NewPublicationRepository(db *gorm.DB) PublicationRepository {
	return &publicationRepository{db: db}
}

// Create creates a new publication
func (r *publicationRepository) Create(ctx context.Context, publication *models.Publication) error {
	return r.db.WithContext(ctx).Create(publication).Error
}

// GetByID gets a publication by ID with owner and project preloaded
func (r *publicationRepository) GetByID(ctx context.Context, id uint) (*models.Publication, error) {
	var publication models.Publication
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Project").
		Where("id = ?", id).
		First(&publication).Error
	if err != nil {
		return nil, err
	}
	return &publication, nil
}

// Update updates a publication
func (r *publicationRepository) Update(ctx context.Context, publication *models.Publication) error {
	return r.db.WithContext(ctx).Save(publication).Error
}

// Delete soft deletes a publication
func (r *publicationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Publication{}, id).Error
}

// List lists publications with pagination and optional title/author search
func (r *publicationRepository) List(ctx context.Context, search string, offset, limit int) ([]*models.Publication, int64, error) {
	var publications []*models.Publication
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Publication{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR authors LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Owner").Offset(offset).Limit(limit).
		Order("year DESC, id DESC").Find(&publications).Error; err != nil {
		return nil, 0, err
	}

	return publications, total, nil
}

// ListByOwner lists publications owned by a user
func (r *publicationRepository) ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]*models.Publication, int64, error) {
	var publications []*models.Publication
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Publication{}).Where("owner_id = ?", ownerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(limit).
		Order("year DESC, id DESC").Find(&publications).Error; err != nil {
		return nil, 0, err
	}

	return publications, total, nil
}

// ListPublic lists publicly visible publications (for the public site)
func (r *publicationRepository) ListPublic(ctx context.Context, offset, limit int) ([]*models.Publication, int64, error) {
	var publications []*models.Publication
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Publication{}).Where("is_public = ?", true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(limit).
		Order("year DESC, id DESC").Find(&publications).Error; err != nil {
		return nil, 0, err
	}

	return publications, total, nil
}
