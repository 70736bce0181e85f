package handlers

import (
	"errors"
	"strings"
	"time"

	"researchhub/internal/config"
	"researchhub/internal/core/domain"
	"researchhub/internal/core/services"
	"researchhub/internal/pkg/password"
	"researchhub/internal/pkg/response"
	"researchhub/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// refreshTokenRequest represents a refresh/logout request body.
// API clients that do not use cookies send the token here.
type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordResetRequest represents password reset request body
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirm represents password reset confirmation body
type PasswordResetConfirm struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// VerifyEmailRequest represents email verification confirmation body
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// Register handles user registration
// @Summary Register new researcher
// @Description Register a new researcher account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)

	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	result, err := h.authService.Register(c.Context(), &input, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCaptchaFailed):
			return response.BadRequest(c, "Captcha verification failed")
		case errors.Is(err, domain.ErrUserAlreadyExists):
			return response.Conflict(c, "Username or email already exists")
		default:
			return response.InternalServerError(c, "Failed to register user")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Created(c, "User registered successfully", fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          result.User,
	})
}

// Login handles user login
// @Summary Login user
// @Description Authenticate user and return tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input services.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input.Username = strings.TrimSpace(input.Username)

	if errs := validate.Struct(&input); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	result, err := h.authService.Login(c.Context(), &input, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCaptchaFailed):
			return response.BadRequest(c, "Captcha verification failed")
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid username or password")
		case errors.Is(err, services.ErrUserInactive):
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Login successful", fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          result.User,
	})
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Refresh access token using refresh token (cookie or body)
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.RefreshToken(c.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token expired, please login again")
		case errors.Is(err, services.ErrTokenRevoked):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token revoked, please login again")
		case errors.Is(err, domain.ErrTokenInvalid):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, services.ErrUserInactive):
			h.clearAuthCookies(c)
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Token refreshed successfully", fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          result.User,
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Logout user and revoke the session
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken != "" {
		userID, _ := c.Locals("userID").(uint)
		_ = h.authService.Logout(c.Context(), refreshToken, userID, c.IP())
	}

	// Cookies are cleared even when revocation failed: the logout
	// response always leaves the client without credentials
	h.clearAuthCookies(c)

	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll handles logout from all devices
// @Summary Logout from all devices
// @Description Revoke every session for the user
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.LogoutAll(c.Context(), userID, c.IP()); err != nil {
		return response.InternalServerError(c, "Failed to logout from all devices")
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Logged out from all devices", nil)
}

// Me returns the current user info
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	sessions, _ := h.authService.ActiveSessionCount(c.Context(), userID)

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user":            user.ToResponse(),
		"active_sessions": sessions,
	})
}

// RequestPasswordReset issues a password reset token
// @Summary Request password reset
// @Description Issue a single-use password reset token for the given email
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body PasswordResetRequest true "Account email"
// @Success 200 {object} response.Response
// @Router /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&req); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	token, err := h.authService.RequestPasswordReset(c.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		return response.InternalServerError(c, "Failed to request password reset")
	}

	// Same response whether or not the account exists.
	// The raw token is returned only in dev mode; production delivers
	// it by email.
	data := fiber.Map{}
	if h.cfg.IsDev() && token != "" {
		data["reset_token"] = token
	}

	return response.Success(c, "If the account exists, a reset link has been sent", data)
}

// ConfirmPasswordReset consumes a reset token and sets a new password
// @Summary Confirm password reset
// @Description Consume a reset token and set the new password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body PasswordResetConfirm true "Token and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req PasswordResetConfirm
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&req); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	err := h.authService.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenInvalid):
			return response.BadRequest(c, "Invalid reset token")
		case errors.Is(err, domain.ErrTokenExpired):
			return response.BadRequest(c, "Reset token expired")
		case errors.Is(err, services.ErrTokenUsed):
			return response.BadRequest(c, "Reset token already used")
		case errors.Is(err, password.ErrTooShort):
			return response.BadRequest(c, "Password must be at least 8 characters")
		default:
			return response.InternalServerError(c, "Failed to reset password")
		}
	}

	return response.Success(c, "Password reset successfully, please login again", nil)
}

// RequestEmailVerification issues an email verification token
// @Summary Request email verification
// @Description Issue a single-use email verification token
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/verify-email [post]
func (h *AuthHandler) RequestEmailVerification(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	token, err := h.authService.RequestEmailVerification(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to request email verification")
	}

	data := fiber.Map{}
	if h.cfg.IsDev() && token != "" {
		data["verification_token"] = token
	}

	return response.Success(c, "Verification email sent", data)
}

// ConfirmEmailVerification consumes a verification token
// @Summary Confirm email verification
// @Description Consume a verification token and mark the email verified
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body VerifyEmailRequest true "Verification token"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/verify-email/confirm [post]
func (h *AuthHandler) ConfirmEmailVerification(c *fiber.Ctx) error {
	var req VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := validate.Struct(&req); len(errs) > 0 {
		return response.ValidationError(c, "Validation failed", errs)
	}

	err := h.authService.ConfirmEmailVerification(c.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenInvalid):
			return response.BadRequest(c, "Invalid verification token")
		case errors.Is(err, domain.ErrTokenExpired):
			return response.BadRequest(c, "Verification token expired")
		case errors.Is(err, services.ErrTokenUsed):
			return response.BadRequest(c, "Verification token already used")
		default:
			return response.InternalServerError(c, "Failed to verify email")
		}
	}

	return response.Success(c, "Email verified successfully", nil)
}

// refreshTokenFrom reads the refresh token from cookie, then body
func (h *AuthHandler) refreshTokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("refresh_token"); token != "" {
		return token
	}
	var req refreshTokenRequest
	if err := c.BodyParser(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	// Access token cookie (shorter expiry)
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60, // Convert minutes to seconds
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	// Refresh token cookie (longer expiry)
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.RefreshTokenDays * 24 * 60 * 60, // Convert days to seconds
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}
