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

// EvaluationService handles project evaluation business logic (admin only)
type EvaluationService struct {
	evaluationRepo repositories.EvaluationRepository
	projectRepo    repositories.ProjectRepository
	audit          *AuditService
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(
	evaluationRepo repositories.EvaluationRepository,
	projectRepo repositories.ProjectRepository,
	audit *AuditService,
) *EvaluationService {
	return &EvaluationService{
		evaluationRepo: evaluationRepo,
		projectRepo:    projectRepo,
		audit:          audit,
	}
}

// EvaluationInput represents evaluation create/update input
type EvaluationInput struct {
	ProjectID uint   `json:"project_id" validate:"required"`
	Score     int    `json:"score" validate:"gte=0,lte=100"`
	Remarks   string `json:"remarks"`
	Period    string `json:"period" validate:"max=50"`
}

// Create records an evaluation of a project
func (s *EvaluationService) Create(ctx context.Context, evaluatorID uint, input *EvaluationInput, remoteIP string) (*models.Evaluation, error) {
	// Project must exist
	if _, err := s.projectRepo.GetByID(ctx, input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}

	evaluation := &models.Evaluation{
		ProjectID:   input.ProjectID,
		EvaluatorID: evaluatorID,
		Score:       input.Score,
		Remarks:     input.Remarks,
		Period:      input.Period,
	}

	if err := s.evaluationRepo.Create(ctx, evaluation); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionCreate, "evaluation", evaluation.ID, "", evaluatorID, remoteIP)

	log.Printf("✅ Evaluation #%d recorded for project #%d", evaluation.ID, input.ProjectID)
	return s.evaluationRepo.GetByID(ctx, evaluation.ID)
}

// GetByID gets an evaluation by ID
func (s *EvaluationService) GetByID(ctx context.Context, id uint) (*models.Evaluation, error) {
	evaluation, err := s.evaluationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return evaluation, nil
}

// Update updates an evaluation
func (s *EvaluationService) Update(ctx context.Context, id, actorID uint, input *EvaluationInput, remoteIP string) (*models.Evaluation, error) {
	evaluation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	evaluation.Score = input.Score
	evaluation.Remarks = input.Remarks
	evaluation.Period = input.Period

	if err := s.evaluationRepo.Update(ctx, evaluation); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionUpdate, "evaluation", evaluation.ID, "", actorID, remoteIP)

	return s.evaluationRepo.GetByID(ctx, evaluation.ID)
}

// Delete soft-deletes an evaluation
func (s *EvaluationService) Delete(ctx context.Context, id, actorID uint, remoteIP string) error {
	evaluation, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.evaluationRepo.Delete(ctx, evaluation.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionSoftDelete, "evaluation", evaluation.ID, "", actorID, remoteIP)
	return nil
}

// List lists evaluations with pagination
func (s *EvaluationService) List(ctx context.Context, page, limit int) ([]*models.Evaluation, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.evaluationRepo.List(ctx, (page-1)*limit, limit)
}

// ListByProject lists all evaluations for a project
func (s *EvaluationService) ListByProject(ctx context.Context, projectID uint) ([]*models.Evaluation, error) {
	return s.evaluationRepo.ListByProject(ctx, projectID)
}
