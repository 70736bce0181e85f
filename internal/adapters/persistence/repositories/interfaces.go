package repositories

import (
	"context"
	"time"

	"researchhub/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, search string, offset, limit int) ([]*models.User, int64, error)
	ListByRole(ctx context.Context, role string) ([]*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// SessionRepository defines session repository interface
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
}

// UserTokenRepository defines single-use token repository interface
type UserTokenRepository interface {
	Create(ctx context.Context, token *models.UserToken) error
	GetByTokenHash(ctx context.Context, purpose, tokenHash string) (*models.UserToken, error)
	MarkUsed(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context) error
}

// ProjectRepository defines project repository interface
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, search string, offset, limit int) ([]*models.Project, int64, error)
	ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]*models.Project, int64, error)
	ListPublic(ctx context.Context, offset, limit int) ([]*models.Project, int64, error)
	AddMember(ctx context.Context, member *models.ProjectMember) error
	RemoveMember(ctx context.Context, projectID, userID uint) error
	IsMember(ctx context.Context, projectID, userID uint) (bool, error)
}

// PublicationRepository defines publication repository interface
type PublicationRepository interface {
	Create(ctx context.Context, publication *models.Publication) error
	GetByID(ctx context.Context, id uint) (*models.Publication, error)
	Update(ctx context.Context, publication *models.Publication) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, search string, offset, limit int) ([]*models.Publication, int64, error)
	ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]*models.Publication, int64, error)
	ListPublic(ctx context.Context, offset, limit int) ([]*models.Publication, int64, error)
}

// RequestFilter represents request list filters
type RequestFilter struct {
	Status      string
	RequestType string
	ProjectID   *uint
	RequesterID *uint
	ShowDeleted bool
}

// RequestRepository defines request repository interface
type RequestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id uint) (*models.Request, error)
	Update(ctx context.Context, request *models.Request) error
	List(ctx context.Context, filter *RequestFilter, offset, limit int) ([]*models.Request, int64, error)
	AddComment(ctx context.Context, comment *models.RequestComment) error
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Request, error)
}

// EvaluationRepository defines evaluation repository interface
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
	GetByID(ctx context.Context, id uint) (*models.Evaluation, error)
	Update(ctx context.Context, evaluation *models.Evaluation) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.Evaluation, int64, error)
	ListByProject(ctx context.Context, projectID uint) ([]*models.Evaluation, error)
}

// NotificationRepository defines notification repository interface
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error)
	ListUnreadByUser(ctx context.Context, userID uint) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context, userID uint) error
}

// AuditRepository defines audit log repository interface
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, entity string, offset, limit int) ([]*models.AuditLog, int64, error)
}
