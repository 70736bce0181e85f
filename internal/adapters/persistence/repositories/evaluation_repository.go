package repositories

import (
	"context"

	"researchhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// evaluationRepository implements EvaluationRepository interface
type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

// Create creates a new evaluation
func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

// GetByID gets an evaluation by ID
func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Evaluator").
		Where("id = ?", id).
		First(&evaluation).Error
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// Update updates an evaluation
func (r *evaluationRepository) Update(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Save(evaluation).Error
}

// Delete soft deletes an evaluation
func (r *evaluationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Evaluation{}, id).Error
}

// List lists evaluations with pagination
func (r *evaluationRepository) List(ctx context.Context, offset, limit int) ([]*models.Evaluation, int64, error) {
	var evaluations []*models.Evaluation
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Evaluation{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Evaluator").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&evaluations).Error; err != nil {
		return nil, 0, err
	}

	return evaluations, total, nil
}

// ListByProject lists all evaluations for a project
func (r *evaluationRepository) ListByProject(ctx context.Context, projectID uint) ([]*models.Evaluation, error) {
	var evaluations []*models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Evaluator").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&evaluations).Error
	if err != nil {
		return nil, err
	}
	return evaluations, nil
}
