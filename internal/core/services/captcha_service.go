package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"researchhub/internal/config"
)

// ErrCaptchaFailed is returned when CAPTCHA verification rejects the token
var ErrCaptchaFailed = errors.New("captcha verification failed")

// CaptchaService verifies CAPTCHA tokens against the provider's siteverify
// endpoint. When no secret is configured (local dev) verification is a no-op.
type CaptchaService struct {
	cfg    *config.Config
	client *http.Client
}

// NewCaptchaService creates a new captcha service
func NewCaptchaService(cfg *config.Config) *CaptchaService {
	return &CaptchaService{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// captchaVerifyResponse represents the provider's siteverify response
type captchaVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the given CAPTCHA token with the provider
func (s *CaptchaService) Verify(ctx context.Context, token, remoteIP string) error {
	// No secret configured: verification disabled
	if s.cfg.Captcha.Secret == "" {
		return nil
	}

	if token == "" {
		return ErrCaptchaFailed
	}

	form := url.Values{}
	form.Set("secret", s.cfg.Captcha.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.Captcha.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verify request failed: %w", err)
	}
	defer resp.Body.Close()

	var result captchaVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("captcha verify response invalid: %w", err)
	}

	if !result.Success {
		log.Printf("⚠️ Captcha verification rejected: %v", result.ErrorCodes)
		return ErrCaptchaFailed
	}

	return nil
}
