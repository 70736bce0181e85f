package services

import (
	"context"
	"log"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/adapters/persistence/repositories"
)

// AuditService records append-only audit entries for admin review.
// Recording is best-effort: a failed write is logged, never propagated,
// so auditing can not fail the operation it describes.
type AuditService struct {
	auditRepo repositories.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repositories.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Record writes a single audit entry
func (s *AuditService) Record(ctx context.Context, action, entity string, entityID uint, detail string, performedBy uint, ipAddress string) {
	entry := &models.AuditLog{
		Action:      action,
		Entity:      entity,
		EntityID:    entityID,
		Detail:      detail,
		PerformedBy: performedBy,
		IPAddress:   ipAddress,
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to record audit entry [%s %s#%d]: %v", action, entity, entityID, err)
	}
}

// ListInput represents audit list input
type AuditListInput struct {
	Page   int
	Limit  int
	Entity string
}

// List lists audit entries for the admin audit screen
func (s *AuditService) List(ctx context.Context, input *AuditListInput) ([]*models.AuditLog, int64, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit
	return s.auditRepo.List(ctx, input.Entity, offset, input.Limit)
}
