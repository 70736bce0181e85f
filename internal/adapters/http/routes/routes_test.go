package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"researchhub/internal/adapters/http/middleware"
	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/config"
	"researchhub/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
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
	}
}

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := testConfig()
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.CustomErrorHandler,
	})
	Setup(app, db, cfg)

	return app, db, cfg
}

// seedUserWithToken creates a user row and signs an access token for it,
// bypassing the login endpoint and its rate limiter
func seedUserWithToken(t *testing.T, db *gorm.DB, cfg *config.Config, username, role string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@university.edu",
		Password: "x",
		Role:     role,
		FullName: "Test " + username,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)

	token, err := jwt.GenerateAccessToken(user.ID, username, role, cfg.JWT.Secret, cfg.JWT.AccessTokenMins)
	require.NoError(t, err)
	return user, token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// decodeData decodes the envelope's data object into out
func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if out != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}

func TestRequestEndpointsRequireAuth(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/requests/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	app, db, cfg := setupTestApp(t)

	_, researcherToken := seedUserWithToken(t, db, cfg, "alice", models.RoleResearcher)
	_, otherToken := seedUserWithToken(t, db, cfg, "bob", models.RoleResearcher)
	_, adminToken := seedUserWithToken(t, db, cfg, "boss", models.RoleAdmin)

	var requestID uint

	t.Run("create", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/requests/", researcherToken, fiber.Map{
			"request_type": "OTHER",
			"description":  "please do the thing",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created models.Request
		decodeData(t, resp, &created)
		assert.Equal(t, models.RequestStatusPending, created.Status)
		requestID = created.ID
	})

	t.Run("resources type without project is a bad request", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/requests/", researcherToken, fiber.Map{
			"request_type": "RESOURCES",
			"description":  "need a GPU node",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("other researchers can not read it", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/requests/%d", requestID), otherToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("status change is admin only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/requests/%d/status", requestID),
			researcherToken, fiber.Map{"status": "APPROVED"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin approves", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/requests/%d/status", requestID),
			adminToken, fiber.Map{"status": "APPROVED", "comment": "looks fine"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated models.Request
		decodeData(t, resp, &updated)
		assert.Equal(t, models.RequestStatusApproved, updated.Status)
		assert.NotNil(t, updated.ResolutionDate)
		require.Len(t, updated.Comments, 1)
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/requests/%d/status", requestID),
			adminToken, fiber.Map{"status": "REJECTED"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestRequestSoftDeleteOverHTTP(t *testing.T) {
	app, db, cfg := setupTestApp(t)

	_, researcherToken := seedUserWithToken(t, db, cfg, "carol", models.RoleResearcher)
	_, adminToken := seedUserWithToken(t, db, cfg, "root", models.RoleAdmin)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/requests/", researcherToken, fiber.Map{
		"request_type": "OTHER",
		"description":  "short lived",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Request
	decodeData(t, resp, &created)

	type listing struct {
		Data []models.Request `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}

	t.Run("delete hides it from the owner's listing", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/requests/%d", created.ID), researcherToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doJSON(t, app, http.MethodGet, "/api/v1/requests/", researcherToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page listing
		decodeData(t, resp, &page)
		assert.Zero(t, page.Meta.Total)
	})

	t.Run("deleting again conflicts", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/requests/%d", created.ID), researcherToken, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("show_deleted is honored for admins only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/v1/requests/?show_deleted=true", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page listing
		decodeData(t, resp, &page)
		assert.Equal(t, int64(1), page.Meta.Total)

		// The same flag from a researcher is ignored
		resp = doJSON(t, app, http.MethodGet, "/api/v1/requests/?show_deleted=true", researcherToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		decodeData(t, resp, &page)
		assert.Zero(t, page.Meta.Total)
	})

	t.Run("restore is admin only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/requests/%d/restore", created.ID), researcherToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/requests/%d/restore", created.ID), adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var restored models.Request
		decodeData(t, resp, &restored)
		assert.False(t, restored.IsDeleted)
	})
}

func TestAdminUserCreationOverHTTP(t *testing.T) {
	app, db, cfg := setupTestApp(t)

	_, adminToken := seedUserWithToken(t, db, cfg, "boss", models.RoleAdmin)
	_, researcherToken := seedUserWithToken(t, db, cfg, "dana", models.RoleResearcher)

	t.Run("admin creates a user with an explicit role", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/users/", adminToken, fiber.Map{
			"username":   "provisioned",
			"email":      "provisioned@university.edu",
			"password":   "secret-password-1",
			"full_name":  "Provisioned Admin",
			"department": "IT",
			"role":       models.RoleAdmin,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created models.UserResponse
		decodeData(t, resp, &created)
		assert.Equal(t, "provisioned", created.Username)
		assert.Equal(t, models.RoleAdmin, created.Role)
		assert.True(t, created.IsActive)
	})

	t.Run("role defaults to researcher", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/users/", adminToken, fiber.Map{
			"username":  "plain",
			"email":     "plain@university.edu",
			"password":  "secret-password-1",
			"full_name": "Plain User",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created models.UserResponse
		decodeData(t, resp, &created)
		assert.Equal(t, models.RoleResearcher, created.Role)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/users/", adminToken, fiber.Map{
			"username":  "provisioned",
			"email":     "elsewhere@university.edu",
			"password":  "secret-password-1",
			"full_name": "Duplicate",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("researchers can not create users", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/users/", researcherToken, fiber.Map{
			"username":  "sneaky",
			"email":     "sneaky@university.edu",
			"password":  "secret-password-1",
			"full_name": "Sneaky",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestAuthEndpointsOverHTTP(t *testing.T) {
	app, _, _ := setupTestApp(t)

	var refreshToken string

	t.Run("register", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
			"username":  "newuser",
			"email":     "newuser@university.edu",
			"password":  "secret-password-1",
			"full_name": "New User",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var payload struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}
		decodeData(t, resp, &payload)
		assert.NotEmpty(t, payload.AccessToken)
		require.NotEmpty(t, payload.RefreshToken)
		refreshToken = payload.RefreshToken
	})

	t.Run("short password fails validation", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
			"username":  "another",
			"email":     "another@university.edu",
			"password":  "short",
			"full_name": "Another User",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("refresh accepts the token in the body", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/refresh", "", fiber.Map{
			"refresh_token": refreshToken,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var payload struct {
			RefreshToken string `json:"refresh_token"`
		}
		decodeData(t, resp, &payload)
		assert.NotEmpty(t, payload.RefreshToken)
		assert.NotEqual(t, refreshToken, payload.RefreshToken)
	})

	t.Run("replaying the rotated-out token is rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/refresh", "", fiber.Map{
			"refresh_token": refreshToken,
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("logout without credentials still succeeds", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/logout", "", fiber.Map{
			"refresh_token": "long-gone",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
