package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/insightforge/internal/featureflags"
	"github.com/yourorg/insightforge/internal/handler"
	"github.com/yourorg/insightforge/internal/infrastructure/logger"
	"github.com/yourorg/insightforge/internal/infrastructure/redis"
	"github.com/yourorg/insightforge/internal/observability/metrics"
	"github.com/yourorg/insightforge/internal/observability/tracing"
	"github.com/yourorg/insightforge/internal/repository"
	"github.com/yourorg/insightforge/internal/security"
	"github.com/yourorg/insightforge/internal/security/audit"
	"github.com/yourorg/insightforge/internal/security/auth"
	"github.com/yourorg/insightforge/internal/security/middleware"
	"github.com/yourorg/insightforge/internal/security/ratelimit"
	"github.com/yourorg/insightforge/internal/service"
	"github.com/yourorg/insightforge/internal/worker"
	"github.com/yourorg/insightforge/pkg/config"
	"github.com/yourorg/insightforge/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting InsightForge server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set)
	shutdownTracing, err := tracing.Init(ctx, log, "insightforge", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// 4. Connect to PostgreSQL
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	// 5. Connect to Redis if configured; token revocation falls back to
	// an in-process store without it
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
	} else {
		log.Info("redis not configured, token revocation is process-local")
	}

	// 6. Initialize repositories
	userRepo := repository.NewPostgresUserRepository(db, log)
	hotelRepo := repository.NewPostgresHotelRepository(db, log)
	activityRepo := repository.NewPostgresActivityRepository(db, log)
	analyticsRepo := repository.NewPostgresAnalyticsRepository(db, log)
	snapshotRepo := repository.NewPostgresSnapshotRepository(db, log)

	// 7. Initialize security components
	auditLogger := audit.NewLogger(log, activityRepo)
	authorizer := security.NewAuthorizer(auditLogger, log)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "insightforge")
	revoker := service.NewTokenRevoker(redisClient, log)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)

	// 8. Initialize services
	authService := service.NewAuthService(
		userRepo,
		tokenManager,
		revoker,
		auditLogger,
		time.Duration(cfg.TokenTTLHours)*time.Hour,
		log,
	)
	analyticsService := service.NewAnalyticsService(
		analyticsRepo,
		snapshotRepo,
		service.MetricDefaults{
			GopparMargin:            cfg.GopparMargin,
			DefaultLeadTimeDays:     cfg.DefaultLeadTimeDays,
			LeadTimeSanityCapDays:   cfg.LeadTimeSanityCapDays,
			DefaultCancellationRate: cfg.DefaultCancellationRate,
		},
		featureflags.Enabled("strict_lead_time"),
		log,
	)
	adminService := service.NewAdminService(hotelRepo, userRepo, activityRepo, auditLogger, log)

	// 9. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, authorizer, log)
	dashboardHandler := handler.NewDashboardHandler(analyticsService, authorizer, log)
	adminHandler := handler.NewAdminHandler(adminService, authorizer, log)
	healthHandler := handler.NewHealthHandler(db, redisClient, log)

	// 10. Setup HTTP routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/auth/verify", authHandler.Verify)
	mux.HandleFunc("GET /api/auth/profile", authHandler.Profile)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

	mux.HandleFunc("GET /api/users", adminHandler.ListUsers)
	mux.HandleFunc("PUT /api/users/{id}", adminHandler.UpdateUser)
	mux.HandleFunc("DELETE /api/users/{id}", adminHandler.DeleteUser)

	mux.HandleFunc("GET /api/dashboard/kpis", dashboardHandler.KPIs)
	mux.HandleFunc("GET /api/dashboard/kpis-with-comparisons", dashboardHandler.KPIsWithComparisons)
	mux.HandleFunc("GET /api/dashboard/revenue-trends", dashboardHandler.RevenueTrend)
	mux.HandleFunc("GET /api/dashboard/bookings-by-month", dashboardHandler.BookingsByMonth)
	mux.HandleFunc("GET /api/dashboard/room-type-distribution", dashboardHandler.RoomTypes)
	mux.HandleFunc("GET /api/dashboard/booking-sources", dashboardHandler.BookingSources)
	mux.HandleFunc("GET /api/dashboard/guest-nationalities", dashboardHandler.Nationalities)
	mux.HandleFunc("GET /api/dashboard/lead-time-analytics", dashboardHandler.LeadTime)
	mux.HandleFunc("GET /api/dashboard/cancellation-analytics", dashboardHandler.CancellationRate)
	mux.HandleFunc("GET /api/dashboard/recent-activity", adminHandler.Activity)
	mux.HandleFunc("GET /api/dashboard/occupancy-trends", dashboardHandler.OccupancyTrend)
	mux.HandleFunc("GET /api/dashboard/adr-trends", dashboardHandler.ADRTrend)

	mux.HandleFunc("POST /api/admin/hotels", adminHandler.CreateHotel)
	mux.HandleFunc("GET /api/admin/hotels", adminHandler.ListHotels)
	mux.HandleFunc("GET /api/admin/hotels/{id}", adminHandler.GetHotel)
	mux.HandleFunc("PUT /api/admin/hotels/{id}", adminHandler.UpdateHotel)
	mux.HandleFunc("DELETE /api/admin/hotels/{id}", adminHandler.DeleteHotel)
	mux.HandleFunc("GET /api/admin/activity-logs", adminHandler.ActivityLogs)
	mux.HandleFunc("GET /api/admin/stats", adminHandler.Stats)

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// Protected chain: sanitize -> content type -> auth -> rate limit -> mux
	protected := middleware.SanitizeInputs(log)(
		middleware.ValidateJSONContentType(log)(
			middleware.AuthMiddleware(authService, log)(
				middleware.RateLimitMiddleware(rateLimiter, log)(mux),
			),
		),
	)

	// CORS wrapper honoring configured origins; preflight never reaches auth
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		protected.ServeHTTP(w, r)
	})

	rootHandler := middleware.RequestIDMiddleware(
		metrics.HTTPMetricsMiddleware(handlerWithCORS),
	)

	// 11. Start snapshot worker in background
	snapshotWorker := worker.NewSnapshotWorker(
		hotelRepo,
		analyticsService,
		snapshotRepo,
		time.Duration(cfg.SnapshotIntervalMinutes)*time.Minute,
		log,
	)
	go snapshotWorker.Start(ctx)

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop snapshot worker
	rateLimiter.Stop()
	log.Info("server stopped")
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
