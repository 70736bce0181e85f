package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/adapters/persistence/repositories"
	"researchhub/internal/core/domain"
	"researchhub/internal/pkg/password"

	"gorm.io/gorm"
)

// UserService handles user management and profile business logic
type UserService struct {
	userRepo repositories.UserRepository
	audit    *AuditService
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, audit *AuditService) *UserService {
	return &UserService{userRepo: userRepo, audit: audit}
}

// UpdateProfileInput represents profile update input
type UpdateProfileInput struct {
	FullName   string `json:"full_name" validate:"required,max=100"`
	Department string `json:"department" validate:"max=100"`
	Email      string `json:"email" validate:"required,email"`
}

// ChangePasswordInput represents password change input
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// AdminCreateUserInput represents admin user creation input
type AdminCreateUserInput struct {
	Username   string `json:"username" validate:"required,min=3,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FullName   string `json:"full_name" validate:"required,max=100"`
	Department string `json:"department" validate:"max=100"`
	Role       string `json:"role" validate:"omitempty,oneof=ADMIN RESEARCHER"`
}

// AdminUpdateUserInput represents admin user update input
type AdminUpdateUserInput struct {
	FullName   string `json:"full_name" validate:"max=100"`
	Department string `json:"department" validate:"max=100"`
	Role       string `json:"role" validate:"omitempty,oneof=ADMIN RESEARCHER"`
	IsActive   *bool  `json:"is_active"`
}

// ListUsersInput represents user list input
type ListUsersInput struct {
	Page   int
	Limit  int
	Search string
}

// GetByID gets a user by ID
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// List lists users with search and pagination
func (s *UserService) List(ctx context.Context, input *ListUsersInput) ([]*models.User, int64, error) {
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
	return s.userRepo.List(ctx, input.Search, offset, input.Limit)
}

// UpdateProfile updates the caller's own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Changing email requires the new address to be free
	if input.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrDuplicateEntry
		}
		user.Email = input.Email
		// New address has not been verified yet
		user.EmailVerifiedAt = nil
	}

	user.FullName = input.FullName
	user.Department = input.Department

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Profile updated for user: %s", user.Username)
	return user, nil
}

// ChangePassword changes the caller's own password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	// 1. Verify current password
	if !password.Verify(input.CurrentPassword, user.Password) {
		return domain.ErrInvalidCredentials
	}

	// 2. Validate and hash the new one
	if err := password.Validate(input.NewPassword); err != nil {
		return err
	}
	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("✅ Password changed for user: %s", user.Username)
	return nil
}

// AdminCreate creates an account on a user's behalf. Unlike self-registration
// the role is assignable, but the new address still goes through the normal
// email verification flow.
func (s *UserService) AdminCreate(ctx context.Context, adminID uint, input *AdminCreateUserInput, remoteIP string) (*models.User, error) {
	// 1. Username and email must both be free
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	// 2. Hash the initial password
	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 3. Create the account
	role := input.Role
	if role == "" {
		role = models.RoleResearcher
	}

	user := &models.User{
		Username:   input.Username,
		Email:      input.Email,
		Password:   hashed,
		Role:       role,
		FullName:   input.FullName,
		Department: input.Department,
		IsActive:   true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionCreate, "user", user.ID,
		fmt.Sprintf("created by admin, role=%s", role), adminID, remoteIP)

	log.Printf("✅ User %s (%s) created by admin %d", user.Username, role, adminID)
	return user, nil
}

// AdminUpdate updates a user as an administrator (role, active flag, profile)
func (s *UserService) AdminUpdate(ctx context.Context, id, adminID uint, input *AdminUpdateUserInput, remoteIP string) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != "" {
		user.FullName = input.FullName
	}
	if input.Department != "" {
		user.Department = input.Department
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if input.Role != "" && input.Role != user.Role {
		// Admins can not demote themselves; that locks everyone out
		if id == adminID {
			return nil, domain.ErrForbidden
		}
		previous := user.Role
		user.Role = input.Role
		s.audit.Record(ctx, models.AuditActionRoleChange, "user", user.ID,
			fmt.Sprintf("%s -> %s", previous, user.Role), adminID, remoteIP)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionUpdate, "user", user.ID, "", adminID, remoteIP)

	log.Printf("✅ User %s updated by admin %d", user.Username, adminID)
	return user, nil
}

// Deactivate soft-deletes a user account (admin only)
func (s *UserService) Deactivate(ctx context.Context, id, adminID uint, remoteIP string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Last line of defense against admins deleting themselves
	if id == adminID {
		return domain.ErrForbidden
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionSoftDelete, "user", user.ID, "", adminID, remoteIP)

	log.Printf("✅ User %s deactivated by admin %d", user.Username, adminID)
	return nil
}
