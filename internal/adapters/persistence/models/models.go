package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User roles
const (
	RoleAdmin      = "ADMIN"
	RoleResearcher = "RESEARCHER"
)

// User represents users table
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Username        string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email           string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password        string         `gorm:"size:255;not null" json:"-"`
	Role            string         `gorm:"size:20;default:'RESEARCHER'" json:"role"`
	FullName        string         `gorm:"size:100" json:"full_name"`
	Department      string         `gorm:"size:100" json:"department"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	FullName      string    `json:"full_name"`
	Department    string    `json:"department"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		FullName:      u.FullName,
		Department:    u.Department,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerifiedAt != nil,
		CreatedAt:     u.CreatedAt,
	}
}

// Session represents sessions table (one row per issued refresh token)
type Session struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// User token purposes
const (
	TokenPurposeResetPassword = "RESET_PASSWORD"
	TokenPurposeVerifyEmail   = "VERIFY_EMAIL"
)

// UserToken represents single-use tokens for password reset and email verification
type UserToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Purpose   string     `gorm:"size:20;not null;index" json:"purpose"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (UserToken) TableName() string {
	return "user_tokens"
}

func (t *UserToken) IsUsable() bool {
	return t.UsedAt == nil && time.Now().Before(t.ExpiresAt)
}

// ============================================================
// Research Tables
// ============================================================

// Project statuses
const (
	ProjectStatusActive    = "ACTIVE"
	ProjectStatusCompleted = "COMPLETED"
	ProjectStatusArchived  = "ARCHIVED"
)

// Project member roles
const (
	MemberRoleOwner  = "OWNER"
	MemberRoleMember = "MEMBER"
)

// Project represents projects table
type Project struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Summary   string         `gorm:"type:text" json:"summary"`
	Status    string         `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	OwnerID   uint           `gorm:"not null;index" json:"owner_id"`
	IsPublic  bool           `gorm:"default:false" json:"is_public"`
	StartDate *time.Time     `gorm:"type:date" json:"start_date"`
	EndDate   *time.Time     `gorm:"type:date" json:"end_date"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner   *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectMember represents project_members table (1:N with project)
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index;uniqueIndex:idx_project_user" json:"project_id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_project_user" json:"user_id"`
	Role      string    `gorm:"size:20;not null;default:'MEMBER'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

// Publication represents publications table
type Publication struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:300;not null" json:"title"`
	Authors   string         `gorm:"size:500;not null" json:"authors"`
	Venue     string         `gorm:"size:200" json:"venue"`
	Year      int            `gorm:"not null" json:"year"`
	DOI       string         `gorm:"size:100" json:"doi"`
	ProjectID *uint          `gorm:"index" json:"project_id"`
	OwnerID   uint           `gorm:"not null;index" json:"owner_id"`
	IsPublic  bool           `gorm:"default:false" json:"is_public"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner   *User    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (Publication) TableName() string {
	return "publications"
}

// ============================================================
// Request Tables
// ============================================================

// Request types
const (
	RequestTypeJoinProject = "JOIN_PROJECT"
	RequestTypeResources   = "RESOURCES"
	RequestTypeApproval    = "APPROVAL"
	RequestTypePermission  = "PERMISSION"
	RequestTypeOther       = "OTHER"
)

// Request statuses
const (
	RequestStatusPending   = "PENDING"
	RequestStatusApproved  = "APPROVED"
	RequestStatusRejected  = "REJECTED"
	RequestStatusInProcess = "IN_PROCESS"
)

// Request model validation errors (enforced at write time via BeforeSave)
var (
	ErrRequestTypeInvalid   = errors.New("request type is invalid")
	ErrRequestStatusInvalid = errors.New("request status is invalid")
	ErrDescriptionRequired  = errors.New("description is required")
	ErrProjectRequired      = errors.New("project is required for this request type")
)

// RequestTypeNeedsProject reports whether the given request type must
// reference a project.
func RequestTypeNeedsProject(requestType string) bool {
	switch requestType {
	case RequestTypeJoinProject, RequestTypeResources, RequestTypeApproval:
		return true
	}
	return false
}

// IsValidRequestType reports whether the given type is in the closed enum
func IsValidRequestType(requestType string) bool {
	switch requestType {
	case RequestTypeJoinProject, RequestTypeResources, RequestTypeApproval,
		RequestTypePermission, RequestTypeOther:
		return true
	}
	return false
}

// IsValidRequestStatus reports whether the given status is in the closed enum
func IsValidRequestStatus(status string) bool {
	switch status {
	case RequestStatusPending, RequestStatusApproved,
		RequestStatusRejected, RequestStatusInProcess:
		return true
	}
	return false
}

// Request represents requests table: a user action awaiting administrative
// review. Rows are never hard-deleted; IsDeleted flags them out of default
// list queries.
type Request struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	RequesterID    uint       `gorm:"not null;index" json:"requester_id"`
	RequestType    string     `gorm:"size:20;not null;index" json:"request_type"`
	Description    string     `gorm:"type:text;not null" json:"description"`
	ProjectID      *uint      `gorm:"index" json:"project_id"`
	Status         string     `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	ResolutionDate *time.Time `json:"resolution_date"`
	ReviewedBy     *uint      `json:"reviewed_by"`
	IsDeleted      bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Requester *User            `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Project   *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Reviewer  *User            `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	Comments  []RequestComment `gorm:"foreignKey:RequestID" json:"comments,omitempty"`
}

func (Request) TableName() string {
	return "requests"
}

// BeforeSave enforces the request invariants at write time:
// closed enums for type/status, required description, and the
// conditionally-required project reference.
func (r *Request) BeforeSave(tx *gorm.DB) error {
	if !IsValidRequestType(r.RequestType) {
		return ErrRequestTypeInvalid
	}
	if !IsValidRequestStatus(r.Status) {
		return ErrRequestStatusInvalid
	}
	if r.Description == "" {
		return ErrDescriptionRequired
	}
	if RequestTypeNeedsProject(r.RequestType) && r.ProjectID == nil {
		return ErrProjectRequired
	}
	return nil
}

// IsResolved reports whether the request reached a terminal status
func (r *Request) IsResolved() bool {
	return r.Status == RequestStatusApproved || r.Status == RequestStatusRejected
}

// RequestComment represents request_comments table (chronological thread)
type RequestComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RequestID uint      `gorm:"not null;index" json:"request_id"`
	AuthorID  uint      `gorm:"not null" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Request *Request `gorm:"foreignKey:RequestID" json:"request,omitempty"`
	Author  *User    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (RequestComment) TableName() string {
	return "request_comments"
}

// ============================================================
// Admin Tables
// ============================================================

// Evaluation represents evaluations table (admin review of a project)
type Evaluation struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"not null;index" json:"project_id"`
	EvaluatorID uint           `gorm:"not null" json:"evaluator_id"`
	Score       int            `gorm:"not null" json:"score"`
	Remarks     string         `gorm:"type:text" json:"remarks"`
	Period      string         `gorm:"size:50" json:"period"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project   *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Evaluator *User    `gorm:"foreignKey:EvaluatorID" json:"evaluator,omitempty"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// Notification types
const (
	NotifyTypeRequestStatus  = "REQUEST_STATUS"
	NotifyTypeRequestComment = "REQUEST_COMMENT"
	NotifyTypeRequestNew     = "REQUEST_NEW"
	NotifyTypeProjectMember  = "PROJECT_MEMBER"
	NotifyTypeSystem         = "SYSTEM"
)

// Notification represents notifications table (in-app, polled by clients)
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:30;not null" json:"type"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Audit actions
const (
	AuditActionCreate       = "CREATE"
	AuditActionUpdate       = "UPDATE"
	AuditActionStatusChange = "STATUS_CHANGE"
	AuditActionSoftDelete   = "SOFT_DELETE"
	AuditActionRestore      = "RESTORE"
	AuditActionLogin        = "LOGIN"
	AuditActionLogout       = "LOGOUT"
	AuditActionRoleChange   = "ROLE_CHANGE"
)

// AuditLog represents audit_logs table (append-only history)
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Action      string    `gorm:"size:30;not null;index" json:"action"`
	Entity      string    `gorm:"size:50;not null;index" json:"entity"`
	EntityID    uint      `gorm:"index" json:"entity_id"`
	Detail      string    `gorm:"type:text" json:"detail"`
	PerformedBy uint      `gorm:"not null;index" json:"performed_by"`
	IPAddress   string    `gorm:"size:50" json:"ip_address"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Performer *User `gorm:"foreignKey:PerformedBy" json:"performer,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth & User
		&User{},
		&Session{},
		&UserToken{},
		// Research
		&Project{},
		&ProjectMember{},
		&Publication{},
		// Requests
		&Request{},
		&RequestComment{},
		// Admin
		&Evaluation{},
		&Notification{},
		&AuditLog{},
	)
}
