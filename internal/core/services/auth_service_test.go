package services

import (
	"context"
	"testing"

	"researchhub/internal/adapters/persistence/repositories"
	"researchhub/internal/config"
	"researchhub/internal/core/domain"
	"researchhub/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		// Empty secret disables CAPTCHA verification
		Captcha: config.CaptchaConfig{},
	}
}

func newAuthService(db *gorm.DB) *AuthService {
	cfg := testConfig()
	return NewAuthService(
		repositories.NewUserRepository(db),
		repositories.NewSessionRepository(db),
		repositories.NewUserTokenRepository(db),
		NewCaptchaService(cfg),
		NewAuditService(repositories.NewAuditRepository(db)),
		cfg,
	)
}

func registerTestUser(t *testing.T, svc *AuthService, username string) *AuthResponse {
	t.Helper()

	resp, err := svc.Register(context.Background(), &RegisterInput{
		Username: username,
		Email:    username + "@university.edu",
		Password: "secret-password-1",
		FullName: "Test " + username,
	}, "127.0.0.1")
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "newton")
	assert.Equal(t, "newton", resp.User.Username)
	assert.Equal(t, "RESEARCHER", resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	count, err := svc.ActiveSessionCount(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	t.Run("duplicate username is rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterInput{
			Username: "newton",
			Email:    "other@university.edu",
			Password: "secret-password-1",
			FullName: "Impostor",
		}, "")
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterInput{
			Username: "leibniz",
			Email:    "newton@university.edu",
			Password: "secret-password-1",
			FullName: "Impostor",
		}, "")
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	registered := registerTestUser(t, svc, "curie")

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, &LoginInput{
			Username: "curie",
			Password: "secret-password-1",
		}, "127.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, resp.User.ID)
		assert.NotEmpty(t, resp.RefreshToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginInput{
			Username: "curie",
			Password: "not-the-password",
		}, "")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginInput{
			Username: "nobody",
			Password: "whatever-password",
		}, "")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		require.NoError(t, db.Table("users").Where("id = ?", registered.User.ID).
			Update("is_active", false).Error)

		_, err := svc.Login(ctx, &LoginInput{
			Username: "curie",
			Password: "secret-password-1",
		}, "")
		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestRefreshTokenRotation(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	login := registerTestUser(t, svc, "feynman")

	refreshed, err := svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Rotation revokes the old session; replaying the old token must fail
	_, err = svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// The rotated token still works
	_, err = svc.RefreshToken(ctx, refreshed.RefreshToken)
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.RefreshToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}

func TestLogout(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	login := registerTestUser(t, svc, "hopper")

	require.NoError(t, svc.Logout(ctx, login.RefreshToken, login.User.ID, ""))

	count, err := svc.ActiveSessionCount(ctx, login.User.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The revoked token is dead
	_, err = svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Logging out with an unknown token is not an error
	assert.NoError(t, svc.Logout(ctx, "unknown-token", login.User.ID, ""))
}

func TestLogoutAll(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	first := registerTestUser(t, svc, "lovelace")
	second, err := svc.Login(ctx, &LoginInput{
		Username: "lovelace",
		Password: "secret-password-1",
	}, "")
	require.NoError(t, err)

	count, err := svc.ActiveSessionCount(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.LogoutAll(ctx, first.User.ID, ""))

	count, err = svc.ActiveSessionCount(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = svc.RefreshToken(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestPasswordResetFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	login := registerTestUser(t, svc, "turing")

	t.Run("unknown email yields no token and no error", func(t *testing.T) {
		token, err := svc.RequestPasswordReset(ctx, "ghost@university.edu")
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	rawToken, err := svc.RequestPasswordReset(ctx, "turing@university.edu")
	require.NoError(t, err)
	require.NotEmpty(t, rawToken)

	t.Run("new password is validated before the token is spent", func(t *testing.T) {
		err := svc.ConfirmPasswordReset(ctx, rawToken, "short")
		assert.ErrorIs(t, err, password.ErrTooShort)
	})

	require.NoError(t, svc.ConfirmPasswordReset(ctx, rawToken, "brand-new-password"))

	t.Run("old password no longer works", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginInput{
			Username: "turing",
			Password: "secret-password-1",
		}, "")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("new password works", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginInput{
			Username: "turing",
			Password: "brand-new-password",
		}, "")
		assert.NoError(t, err)
	})

	t.Run("reset revokes every pre-reset session", func(t *testing.T) {
		_, err := svc.RefreshToken(ctx, login.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("token is single use", func(t *testing.T) {
		err := svc.ConfirmPasswordReset(ctx, rawToken, "yet-another-password")
		assert.ErrorIs(t, err, ErrTokenUsed)
	})

	t.Run("made-up token is invalid", func(t *testing.T) {
		err := svc.ConfirmPasswordReset(ctx, "deadbeef", "yet-another-password")
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}

func TestEmailVerificationFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	login := registerTestUser(t, svc, "hamilton")

	rawToken, err := svc.RequestEmailVerification(ctx, login.User.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rawToken)

	require.NoError(t, svc.ConfirmEmailVerification(ctx, rawToken))

	user, err := svc.GetUserByID(ctx, login.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, user.EmailVerifiedAt)

	t.Run("already verified issues nothing", func(t *testing.T) {
		token, err := svc.RequestEmailVerification(ctx, login.User.ID)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("token is single use", func(t *testing.T) {
		err := svc.ConfirmEmailVerification(ctx, rawToken)
		assert.ErrorIs(t, err, ErrTokenUsed)
	})
}

func TestValidateAccessToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	login := registerTestUser(t, svc, "noether")

	claims, err := svc.ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, claims.UserID)
	assert.Equal(t, "noether", claims.Username)

	_, err = svc.ValidateAccessToken("garbage")
	assert.Error(t, err)
}
