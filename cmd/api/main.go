package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pawtraitstudio/pawtrait-api/internal/auth"
	"github.com/pawtraitstudio/pawtrait-api/internal/background"
	"github.com/pawtraitstudio/pawtrait-api/internal/config"
	"github.com/pawtraitstudio/pawtrait-api/internal/database"
	"github.com/pawtraitstudio/pawtrait-api/internal/handlers"
	middlewareCustom "github.com/pawtraitstudio/pawtrait-api/internal/middleware"
	"github.com/pawtraitstudio/pawtrait-api/internal/repositories"
	"github.com/pawtraitstudio/pawtrait-api/internal/routes"
	"github.com/pawtraitstudio/pawtrait-api/internal/security"
	"github.com/pawtraitstudio/pawtrait-api/internal/services"
	"github.com/pawtraitstudio/pawtrait-api/internal/watermark"
	pkghttp "github.com/pawtraitstudio/pawtrait-api/pkg/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	blockedIPRepo := repositories.NewBlockedIPRepository(db)
	securityLogRepo := repositories.NewSecurityLogRepository(db)
	emailOTPRepo := repositories.NewEmailOTPRepository(db)
	emailLogRepo := repositories.NewEmailLogRepository(db)
	abandonedCartRepo := repositories.NewAbandonedCartRepository(db)
	jobRepo := repositories.NewJobRepository(db)
	supportTicketRepo := repositories.NewSupportTicketRepository(db)

	// Security primitives
	ipHasher := security.NewIPHasher(cfg.Security.IPHashSalt, logger)
	turnstile := security.NewTurnstileVerifier(cfg.Security.TurnstileSecretKey, cfg.Server.Env, logger)

	securityLogService := services.NewSecurityLogService(securityLogRepo, logger)

	ipBlockService := services.NewIPBlockService(blockedIPRepo, ipHasher, securityLogService, services.IPBlockConfig{
		Env:                 cfg.Server.Env,
		FailOpen:            cfg.Security.BlockStoreFailOpen,
		DefaultBlockMinutes: cfg.Security.DefaultBlockMins,
	}, logger)

	// Route-scoped limiter for the sensitive form endpoints
	formCounterStore := services.NewMemoryCounterStore()
	formRateLimiter := services.NewRateLimiter(formCounterStore, cfg.Security.FormMaxRequests, cfg.Security.FormRequestWindow, logger)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.SiteBaseURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	otpService := services.NewOTPService(emailOTPRepo, emailService, logger)
	supportService := services.NewSupportService(supportTicketRepo, emailService, logger)
	abandonedCartService := services.NewAbandonedCartService(abandonedCartRepo, emailLogRepo, emailService, logger)

	// Admin gate and session tokens
	attemptTracker := auth.NewAttemptTracker(cfg.Security.AdminMaxAttempts, cfg.Security.AdminAttemptWindow)
	adminGate := auth.NewAdminGate(auth.AdminGateConfig{
		Password:     cfg.Security.AdminPassword,
		PasswordHash: cfg.Security.AdminPasswordHash,
		TOTPSecret:   cfg.Security.AdminTOTPSecret,
	}, ipBlockService, attemptTracker, securityLogService, ipHasher, logger)
	sessionTokens := auth.NewSessionTokenManager(cfg.Security.AdminSessionSecret, cfg.Security.AdminSessionExpiry)

	// Cleanup manager: expired codes plus in-memory counter reclaim
	cleanupManager := background.NewCleanupManager(
		emailOTPRepo,
		[]background.Reclaimer{formRateLimiter, attemptTracker},
		logger,
		cfg.Security.CleanupInterval,
	)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	// Initialize handlers
	formHandler := handlers.NewFormHandler(otpService, supportService, turnstile, formRateLimiter, securityLogService, ipHasher, ipConfig)
	adminHandler := handlers.NewAdminHandler(
		adminGate,
		sessionTokens,
		ipBlockService,
		securityLogService,
		auth.TOTPProvisioningQR,
		cfg.Security.AdminTOTPSecret,
		cfg.Security.AdminSessionExpiry,
		ipConfig,
	)
	cronHandler := handlers.NewCronHandler(abandonedCartService, cfg.Security.CronSecret)
	previewHandler := handlers.NewPreviewHandler(
		jobRepo,
		watermark.Apply,
		cfg.Assets.BaseURL,
		&http.Client{Timeout: cfg.Assets.FetchTimeout},
		logger,
	)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// The block gate runs before everything route-specific
	router.Use(middlewareCustom.BlockGate(ipBlockService, ipConfig))

	// Register routes
	routes.RegisterRoutes(
		router,
		formHandler,
		adminHandler,
		cronHandler,
		previewHandler,
		adminGate,
		sessionTokens,
		middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Security.GeneralRatePerMin},
	)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
