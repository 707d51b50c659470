package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/pawtraitstudio/pawtrait-api/internal/handlers"
	"github.com/pawtraitstudio/pawtrait-api/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	formHandler *handlers.FormHandler,
	adminHandler *handlers.AdminHandler,
	cronHandler *handlers.CronHandler,
	previewHandler *handlers.PreviewHandler,
	secrets middleware.SharedSecretVerifier,
	sessions middleware.SessionVerifier,
	generalLimit middleware.RateLimitConfig,
) {
	// Public routes. The route-scoped limiter inside the form handler is
	// the tight quota; this general one just caps overall traffic per IP.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(generalLimit))

		r.Post("/otp/request", formHandler.RequestOTP)
		r.Post("/otp/verify", formHandler.VerifyOTP)
		r.Post("/support", formHandler.SubmitSupportTicket)
		r.Get("/jobs/{jobID}/preview", previewHandler.GetPreview)

		r.Post("/admin/auth", adminHandler.Authenticate)
	})

	// Scheduler-triggered; authenticates with the cron shared secret.
	router.Post("/cron/abandoned-carts", cronHandler.AbandonedCartScan)

	// Admin read/write endpoints behind the shared secret or a session token
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(secrets, sessions))

		r.Get("/admin/totp/qr", adminHandler.TOTPSetup)
		r.Get("/admin/security-events", adminHandler.SecurityEvents)
		r.Get("/admin/blocked-ips", adminHandler.BlockedIPs)
		r.Post("/admin/blocked-ips", adminHandler.BlockIP)
	})
}
