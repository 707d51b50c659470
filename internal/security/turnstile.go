package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var (
	// ErrMissingToken is returned when the verifier is configured but the
	// client supplied no assertion token. Distinct from a verification
	// failure so the handler can report a correctable client error.
	ErrMissingToken = errors.New("turnstile token missing")

	// ErrVerificationFailed covers both an explicit rejection and a
	// transport failure. Callers must not distinguish the two to the
	// client; the real cause is logged server-side only.
	ErrVerificationFailed = errors.New("turnstile verification failed")
)

// TurnstileVerifier checks Cloudflare Turnstile assertion tokens. The
// feature is opt-in: with no secret configured every check succeeds.
type TurnstileVerifier struct {
	secretKey string
	env       string
	endpoint  string
	client    *http.Client
	logger    *slog.Logger
}

// NewTurnstileVerifier creates a verifier. secretKey may be empty.
func NewTurnstileVerifier(secretKey, env string, logger *slog.Logger) *TurnstileVerifier {
	return &TurnstileVerifier{
		secretKey: secretKey,
		env:       env,
		endpoint:  turnstileVerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the assertion token. Bypass paths: development environment,
// and verifier not configured. A missing token when configured fails with
// ErrMissingToken; everything else maps to ErrVerificationFailed.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if v.env == "development" {
		return nil
	}
	if v.secretKey == "" {
		return nil
	}
	if token == "" {
		return ErrMissingToken
	}

	form := url.Values{}
	form.Add("secret", v.secretKey)
	form.Add("response", token)
	if remoteIP != "" {
		form.Add("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("turnstile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("turnstile siteverify unreachable", slog.Any("error", err))
		return ErrVerificationFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Error("turnstile siteverify non-OK response", slog.Int("status", resp.StatusCode))
		return ErrVerificationFailed
	}

	var result turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.logger.Error("turnstile response decode failed", slog.Any("error", err))
		return ErrVerificationFailed
	}

	if !result.Success {
		v.logger.Warn("turnstile rejected token", slog.Any("error_codes", result.ErrorCodes))
		return ErrVerificationFailed
	}

	return nil
}
