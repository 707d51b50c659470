package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Anti-abuse outcomes
	ErrIPBlocked        = errors.New("ip address is blocked")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrBotDetected      = errors.New("automated submission detected")
	ErrValidationFailed = errors.New("validation failed")

	// Upstream / configuration failures
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
	ErrNotConfigured       = errors.New("required secret not configured")

	// Scanner coordination
	ErrScanInProgress = errors.New("scan already in progress")
)
