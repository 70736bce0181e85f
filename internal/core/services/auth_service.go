package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/adapters/persistence/repositories"
	"researchhub/internal/config"
	"researchhub/internal/core/domain"
	"researchhub/internal/pkg/jwt"
	"researchhub/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserInactive     = errors.New("user account is inactive")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrTokenUsed        = errors.New("token already used")
	ErrEmailNotVerified = errors.New("email is not verified")
)

// Single-use token lifetimes
const (
	resetTokenTTL  = 1 * time.Hour
	verifyTokenTTL = 24 * time.Hour
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo      repositories.UserRepository
	sessionRepo   repositories.SessionRepository
	userTokenRepo repositories.UserTokenRepository
	captcha       *CaptchaService
	audit         *AuditService
	cfg           *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	userTokenRepo repositories.UserTokenRepository,
	captcha *CaptchaService,
	audit *AuditService,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		userTokenRepo: userTokenRepo,
		captcha:       captcha,
		audit:         audit,
		cfg:           cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Username     string `json:"username" validate:"required,min=3,max=50"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FullName     string `json:"full_name" validate:"required,max=100"`
	Department   string `json:"department" validate:"max=100"`
	CaptchaToken string `json:"captcha_token"`
}

// LoginInput represents login input
type LoginInput struct {
	Username     string `json:"username" validate:"required"`
	Password     string `json:"password" validate:"required"`
	CaptchaToken string `json:"captcha_token"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register registers a new researcher account
func (s *AuthService) Register(ctx context.Context, input *RegisterInput, remoteIP string) (*AuthResponse, error) {
	// 1. Verify CAPTCHA
	if err := s.captcha.Verify(ctx, input.CaptchaToken, remoteIP); err != nil {
		return nil, err
	}

	// 2. Check if username already exists
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	// 3. Check if email already exists
	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	// 4. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 5. Create user (self-registration always creates a researcher)
	user := &models.User{
		Username:   input.Username,
		Email:      input.Email,
		Password:   hashedPassword,
		Role:       models.RoleResearcher,
		FullName:   input.FullName,
		Department: input.Department,
		IsActive:   true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 6. Generate tokens and open a session
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.openSession(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionCreate, "user", user.ID,
		"self-registration", user.ID, remoteIP)

	log.Printf("✅ User registered: %s", user.Username)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Login authenticates a user and opens a new session
func (s *AuthService) Login(ctx context.Context, input *LoginInput, remoteIP string) (*AuthResponse, error) {
	// 1. Verify CAPTCHA
	if err := s.captcha.Verify(ctx, input.CaptchaToken, remoteIP); err != nil {
		return nil, err
	}

	// 2. Find user by username
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 3. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 5. Generate tokens and open a session
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.openSession(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionLogin, "user", user.ID, "", user.ID, remoteIP)

	log.Printf("✅ User logged in: %s", user.Username)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	// 2. Find the session behind this token
	tokenHash := password.HashToken(refreshToken)
	session, err := s.sessionRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	// 3. Check session state
	if session.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if session.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	// 4. Get user
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 5. Revoke old session (token rotation)
	if err := s.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return nil, err
	}

	// 6. Generate new tokens and open a new session
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.openSession(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", user.Username)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Logout revokes the session behind the given refresh token.
// An unknown or already-revoked token is not an error: the client clears
// its stored credentials regardless of the outcome here.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, userID uint, remoteIP string) error {
	tokenHash := password.HashToken(refreshToken)

	if err := s.sessionRepo.RevokeByTokenHash(ctx, tokenHash); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionLogout, "user", userID, "", userID, remoteIP)

	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes every session for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint, remoteIP string) error {
	if err := s.sessionRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionLogout, "user", userID, "all sessions", userID, remoteIP)

	log.Printf("✅ All sessions revoked for user ID: %d", userID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ActiveSessionCount returns the number of live sessions for a user
func (s *AuthService) ActiveSessionCount(ctx context.Context, userID uint) (int64, error) {
	return s.sessionRepo.CountActiveByUserID(ctx, userID)
}

// ============================================================
// Password reset & email verification
// ============================================================

// RequestPasswordReset issues a single-use reset token for the account
// behind the given email. Returns the raw token; the caller is responsible
// for delivering it out of band. An unknown email yields no error and no
// token, so the endpoint can not be used to probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	rawToken, err := s.issueUserToken(ctx, user.ID, models.TokenPurposeResetPassword, resetTokenTTL)
	if err != nil {
		return "", err
	}

	log.Printf("✅ Password reset token issued for user: %s", user.Username)
	return rawToken, nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
// Every session is revoked so stolen refresh tokens die with the old password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, rawToken, newPassword string) error {
	// 1. Validate the new password first
	if err := password.Validate(newPassword); err != nil {
		return err
	}

	// 2. Look up the token
	token, err := s.consumeUserToken(ctx, models.TokenPurposeResetPassword, rawToken)
	if err != nil {
		return err
	}

	// 3. Update the password
	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	// 4. Revoke every live session
	if err := s.sessionRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionUpdate, "user", user.ID, "password reset", user.ID, "")

	log.Printf("✅ Password reset completed for user: %s", user.Username)
	return nil
}

// RequestEmailVerification issues a single-use email verification token
func (s *AuthService) RequestEmailVerification(ctx context.Context, userID uint) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", domain.ErrUserNotFound
	}
	if user.EmailVerifiedAt != nil {
		// Already verified, nothing to issue
		return "", nil
	}

	rawToken, err := s.issueUserToken(ctx, user.ID, models.TokenPurposeVerifyEmail, verifyTokenTTL)
	if err != nil {
		return "", err
	}

	log.Printf("✅ Email verification token issued for user: %s", user.Username)
	return rawToken, nil
}

// ConfirmEmailVerification consumes a verification token and marks the email verified
func (s *AuthService) ConfirmEmailVerification(ctx context.Context, rawToken string) error {
	token, err := s.consumeUserToken(ctx, models.TokenPurposeVerifyEmail, rawToken)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	now := time.Now()
	user.EmailVerifiedAt = &now

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("✅ Email verified for user: %s", user.Username)
	return nil
}

// ============================================================
// Internal helpers
// ============================================================

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.Username,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		tokenID,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// openSession stores the hash of a refresh token as a session row
func (s *AuthService) openSession(ctx context.Context, userID uint, refreshToken string) error {
	session := &models.Session{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	return s.sessionRepo.Create(ctx, session)
}

// issueUserToken creates a single-use token row and returns the raw token
func (s *AuthService) issueUserToken(ctx context.Context, userID uint, purpose string, ttl time.Duration) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	rawToken := hex.EncodeToString(buf)

	token := &models.UserToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: password.HashToken(rawToken),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.userTokenRepo.Create(ctx, token); err != nil {
		return "", err
	}

	return rawToken, nil
}

// consumeUserToken validates and marks a single-use token as used
func (s *AuthService) consumeUserToken(ctx context.Context, purpose, rawToken string) (*models.UserToken, error) {
	tokenHash := password.HashToken(rawToken)

	token, err := s.userTokenRepo.GetByTokenHash(ctx, purpose, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	if token.UsedAt != nil {
		return nil, ErrTokenUsed
	}
	if !token.IsUsable() {
		return nil, domain.ErrTokenExpired
	}

	if err := s.userTokenRepo.MarkUsed(ctx, token.ID); err != nil {
		return nil, err
	}

	return token, nil
}
