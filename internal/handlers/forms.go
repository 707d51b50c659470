package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/pawtraitstudio/pawtrait-api/internal/models"
	"github.com/pawtraitstudio/pawtrait-api/internal/security"
	"github.com/pawtraitstudio/pawtrait-api/internal/services"
	pkghttp "github.com/pawtraitstudio/pawtrait-api/pkg/http"
)

// OTPServiceInterface defines the interface for one-time code logic
type OTPServiceInterface interface {
	Issue(ctx context.Context, email string) error
	Redeem(ctx context.Context, email, code string) error
}

// SupportServiceInterface defines the interface for support tickets
type SupportServiceInterface interface {
	Submit(ctx context.Context, email, subject, message, ipHash string) error
}

// TurnstileVerifierInterface defines the CAPTCHA assertion check
type TurnstileVerifierInterface interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// FormRateLimiter is the route-scoped limiter for sensitive endpoints
type FormRateLimiter interface {
	Check(ip, routeKey string) services.RateLimitResult
}

// SecurityRecorder appends security events
type SecurityRecorder interface {
	Record(ctx context.Context, eventType, ipHash string, fingerprint *string, details models.SecurityDetails)
}

// IPHasherInterface produces the stored digest of an IP
type IPHasherInterface interface {
	Hash(ip string) string
}

// FormHandler handles the public form endpoints: OTP request/verify and
// support tickets. Every endpoint runs the same gauntlet: route-scoped
// rate limit, honeypot, schema validation, then Turnstile.
type FormHandler struct {
	otpService     OTPServiceInterface
	supportService SupportServiceInterface
	turnstile      TurnstileVerifierInterface
	rateLimiter    FormRateLimiter
	securityLog    SecurityRecorder
	hasher         IPHasherInterface
	ipConfig       *pkghttp.IPConfig
}

// NewFormHandler creates a new FormHandler
func NewFormHandler(
	otpService OTPServiceInterface,
	supportService SupportServiceInterface,
	turnstile TurnstileVerifierInterface,
	rateLimiter FormRateLimiter,
	securityLog SecurityRecorder,
	hasher IPHasherInterface,
	ipConfig *pkghttp.IPConfig,
) *FormHandler {
	return &FormHandler{
		otpService:     otpService,
		supportService: supportService,
		turnstile:      turnstile,
		rateLimiter:    rateLimiter,
		securityLog:    securityLog,
		hasher:         hasher,
		ipConfig:       ipConfig,
	}
}

// Request DTOs

// OTPRequestBody represents the request body for requesting a code
type OTPRequestBody struct {
	Email          string `json:"email" validate:"required,email"`
	TurnstileToken string `json:"turnstile_token"`
	// Hidden field. Real users never see it; any value means a bot.
	Website string `json:"website"`
}

func (r OTPRequestBody) HoneypotValue() string { return r.Website }

// OTPVerifyBody represents the request body for redeeming a code
type OTPVerifyBody struct {
	Email   string `json:"email" validate:"required,email"`
	Code    string `json:"code" validate:"required,len=6,numeric"`
	Website string `json:"website"`
}

func (r OTPVerifyBody) HoneypotValue() string { return r.Website }

// SupportTicketBody represents the request body for a support ticket
type SupportTicketBody struct {
	Email          string `json:"email" validate:"required,email"`
	Subject        string `json:"subject" validate:"required,min=1,max=200"`
	Message        string `json:"message" validate:"required,min=1,max=5000"`
	TurnstileToken string `json:"turnstile_token"`
	Website        string `json:"website"`
}

func (r SupportTicketBody) HoneypotValue() string { return r.Website }

// messageResponse is the success shape shared by all form endpoints
type messageResponse struct {
	Message string `json:"message"`
}

const otpRequestResponse = "If the address can receive codes, one has been sent"

// RequestOTP handles POST /otp/request. The success response never
// confirms whether the address exists, and the bot path returns the same
// body with no side effect at all.
func (h *FormHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	if !h.allow(w, r, ip, "otp_request") {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	outcome, err := ValidateForm(req)
	switch outcome {
	case FormRejectedBot:
		h.recordBot(r.Context(), ip, "otp_request")
		pkghttp.WriteJSON(w, http.StatusOK, messageResponse{Message: otpRequestResponse})
		return
	case FormRejectedInvalid:
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if !h.verifyTurnstile(w, r, ip, req.TurnstileToken) {
		return
	}

	if err := h.otpService.Issue(r.Context(), req.Email); err != nil {
		pkghttp.WriteInternalError(w, "Unable to send code, please try again")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, messageResponse{Message: otpRequestResponse})
}

// VerifyOTP handles POST /otp/verify. All redemption failures collapse to
// the same 401; the caller never learns whether the code was wrong,
// expired, or never issued.
func (h *FormHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPVerifyBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	if !h.allow(w, r, ip, "otp_verify") {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	outcome, err := ValidateForm(req)
	switch outcome {
	case FormRejectedBot:
		h.recordBot(r.Context(), ip, "otp_verify")
		pkghttp.WriteJSON(w, http.StatusOK, messageResponse{Message: "Code verified"})
		return
	case FormRejectedInvalid:
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.otpService.Redeem(r.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Invalid or expired code")
			return
		}
		pkghttp.WriteInternalError(w, "Unable to verify code, please try again")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, messageResponse{Message: "Code verified"})
}

const supportTicketResponse = "Thanks, we received your message"

// SubmitSupportTicket handles POST /support.
func (h *FormHandler) SubmitSupportTicket(w http.ResponseWriter, r *http.Request) {
	var req SupportTicketBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	if !h.allow(w, r, ip, "support") {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	outcome, err := ValidateForm(req)
	switch outcome {
	case FormRejectedBot:
		h.recordBot(r.Context(), ip, "support")
		pkghttp.WriteJSON(w, http.StatusOK, messageResponse{Message: supportTicketResponse})
		return
	case FormRejectedInvalid:
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if !h.verifyTurnstile(w, r, ip, req.TurnstileToken) {
		return
	}

	if err := h.supportService.Submit(r.Context(), req.Email, req.Subject, req.Message, h.hasher.Hash(ip)); err != nil {
		pkghttp.WriteInternalError(w, "Unable to submit message, please try again")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, messageResponse{Message: supportTicketResponse})
}

// allow runs the route-scoped rate limit check and writes the 429 when
// the quota is exhausted.
func (h *FormHandler) allow(w http.ResponseWriter, r *http.Request, ip, routeKey string) bool {
	result := h.rateLimiter.Check(ip, routeKey)
	if result.Allowed {
		return true
	}

	h.securityLog.Record(r.Context(), models.SecurityEventRateLimited, h.hasher.Hash(ip), nil,
		models.SecurityDetails{"route": routeKey})

	w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
	pkghttp.WriteTooManyRequests(w, "Too many requests, please try again later")
	return false
}

// verifyTurnstile runs the CAPTCHA assertion check. Missing token is a
// correctable client error; every other failure is a generic retry
// message so adaptive bots learn nothing about what tripped.
func (h *FormHandler) verifyTurnstile(w http.ResponseWriter, r *http.Request, ip, token string) bool {
	err := h.turnstile.Verify(r.Context(), token, ip)
	if err == nil {
		return true
	}

	if errors.Is(err, security.ErrMissingToken) {
		pkghttp.WriteBadRequest(w, "Verification token required")
		return false
	}

	h.securityLog.Record(r.Context(), models.SecurityEventTurnstileRejected, h.hasher.Hash(ip), nil, nil)
	pkghttp.WriteBadRequest(w, "Verification failed, please try again")
	return false
}

// recordBot logs the honeypot trip. The caller has already committed to a
// success-shaped response; nothing here may change that.
func (h *FormHandler) recordBot(ctx context.Context, ip, routeKey string) {
	h.securityLog.Record(ctx, models.SecurityEventHoneypotTriggered, h.hasher.Hash(ip), nil,
		models.SecurityDetails{"route": routeKey})
}
