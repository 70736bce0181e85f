// Package client is the Go SDK for the ResearchHub API. It wraps the REST
// surface, keeps credentials in a durable TokenStore and drives the session
// lifecycle that frontends build their route guards on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a normalized error from the server. Every non-2xx response
// is reported as one of these, so callers can switch on Status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is an APIError with status 401
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// envelope mirrors the server's response shape
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Errors  []string        `json:"errors"`
}

// User represents the authenticated user as returned by the API
type User struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	FullName      string `json:"full_name"`
	Department    string `json:"department"`
	IsActive      bool   `json:"is_active"`
	EmailVerified bool   `json:"email_verified"`
}

// authPayload is the data object of auth endpoints
type authPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Notification represents an in-app notification
type Notification struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// PageWindow mirrors the server's pagination window
type PageWindow struct {
	Pages                []int `json:"pages"`
	ShowLeadingEllipsis  bool  `json:"show_leading_ellipsis"`
	ShowTrailingEllipsis bool  `json:"show_trailing_ellipsis"`
}

// PageMeta mirrors the server's pagination metadata
type PageMeta struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	HasNext    bool        `json:"has_next"`
	HasPrev    bool        `json:"has_prev"`
	Window     *PageWindow `json:"window,omitempty"`
}

// Page is one page of a listing endpoint
type Page struct {
	Data json.RawMessage `json:"data"`
	Meta *PageMeta       `json:"meta"`
}

// Client is a ResearchHub API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore sets the credential store. Defaults to an in-memory store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

// New creates a new API client for the given base URL
// (e.g. "https://research.university.edu/api/v1").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		store:      NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the client's token store
func (c *Client) Store() TokenStore {
	return c.store
}

// do performs a request, attaching the stored access token when present,
// and decodes the envelope's data object into out (if out is non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if token, err := c.store.Get(AccessTokenKey); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// Non-JSON bodies (proxies, panics) still become APIErrors
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return err
	}

	if resp.StatusCode >= 400 || !env.Success {
		message := env.Error
		if message == "" {
			message = env.Message
		}
		if len(env.Errors) > 0 {
			message = message + ": " + strings.Join(env.Errors, "; ")
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// get is a small helper for GET with query params
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// login calls the login endpoint and persists both tokens
func (c *Client) login(ctx context.Context, username, password, captchaToken string) (*User, error) {
	var payload authPayload
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username":      username,
		"password":      password,
		"captcha_token": captchaToken,
	}, &payload)
	if err != nil {
		return nil, err
	}

	if err := c.storeTokens(payload.AccessToken, payload.RefreshToken, roleOf(payload.User)); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// refresh rotates the refresh token and persists the new pair
func (c *Client) refresh(ctx context.Context) (*User, error) {
	refreshToken, err := c.store.Get(RefreshTokenKey)
	if err != nil || refreshToken == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "no refresh token"}
	}

	var payload authPayload
	err = c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, &payload)
	if err != nil {
		return nil, err
	}

	if err := c.storeTokens(payload.AccessToken, payload.RefreshToken, roleOf(payload.User)); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// logout revokes the session server-side. The server error (if any) is
// returned, but the caller is expected to clear credentials regardless.
func (c *Client) logout(ctx context.Context) error {
	refreshToken, _ := c.store.Get(RefreshTokenKey)
	return c.do(ctx, http.MethodPost, "/auth/logout", map[string]string{
		"refresh_token": refreshToken,
	}, nil)
}

// logoutAll revokes every session for the user
func (c *Client) logoutAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout-all", nil, nil)
}

// me fetches the authenticated user
func (c *Client) me(ctx context.Context) (*User, error) {
	var payload struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// roleOf extracts the role snapshot to persist alongside the tokens
func roleOf(user *User) string {
	if user == nil {
		return ""
	}
	return user.Role
}

// storeTokens writes the credentials and the role snapshot to the store
func (c *Client) storeTokens(accessToken, refreshToken, role string) error {
	if err := c.store.Set(AccessTokenKey, accessToken); err != nil {
		return err
	}
	if err := c.store.Set(RefreshTokenKey, refreshToken); err != nil {
		return err
	}
	return c.store.Set(RoleKey, role)
}

// clearTokens removes every credential key from the store
func (c *Client) clearTokens() {
	_ = c.store.Delete(AccessTokenKey)
	_ = c.store.Delete(RefreshTokenKey)
	_ = c.store.Delete(RoleKey)
}

// UnreadNotifications fetches the caller's unread notifications
func (c *Client) UnreadNotifications(ctx context.Context) ([]Notification, error) {
	var payload struct {
		Count         int            `json:"count"`
		Notifications []Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Notifications, nil
}

// ListRequests fetches one page of the caller's requests
func (c *Client) ListRequests(ctx context.Context, page, limit int, status string) (*Page, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if status != "" {
		query.Set("status", status)
	}

	var result Page
	if err := c.get(ctx, "/requests", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestPasswordReset asks the server to issue a reset token
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/password-reset", map[string]string{
		"email": email,
	}, nil)
}

// ConfirmPasswordReset consumes a reset token and sets the new password
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/password-reset/confirm", map[string]string{
		"token":        token,
		"new_password": newPassword,
	}, nil)
}

// ConfirmEmailVerification consumes an email verification token
func (c *Client) ConfirmEmailVerification(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/verify-email/confirm", map[string]string{
		"token": token,
	}, nil)
}
