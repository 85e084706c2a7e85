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
	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/featureflags"
	"github.com/yourorg/feedbackflow/internal/handler"
	"github.com/yourorg/feedbackflow/internal/infrastructure/logger"
	"github.com/yourorg/feedbackflow/internal/infrastructure/redis"
	"github.com/yourorg/feedbackflow/internal/observability/metrics"
	"github.com/yourorg/feedbackflow/internal/observability/tracing"
	"github.com/yourorg/feedbackflow/internal/repository"
	"github.com/yourorg/feedbackflow/internal/security/audit"
	"github.com/yourorg/feedbackflow/internal/security/auth"
	"github.com/yourorg/feedbackflow/internal/security/middleware"
	"github.com/yourorg/feedbackflow/internal/security/ratelimit"
	"github.com/yourorg/feedbackflow/internal/service"
	"github.com/yourorg/feedbackflow/internal/worker"
	"github.com/yourorg/feedbackflow/pkg/config"
	"github.com/yourorg/feedbackflow/pkg/database"
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
	log.Info("starting FeedbackFlow server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "feedbackflow", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Backing stores
	var (
		db        *database.ConnectionPool
		directory domain.UserDirectory
		feedbacks domain.FeedbackRepository
	)
	switch cfg.StoreBackend {
	case "postgres":
		db, err = database.NewConnectionPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
		directory = repository.NewPostgresDirectory(db.DB(), log)
		feedbacks = repository.NewPostgresFeedbackRepository(db.DB(), log)
	default:
		directory = repository.SeedDirectory()
		feedbacks = repository.SeedFeedbackRepository(time.Now())
		log.Info("using in-memory stores with fixture data")
	}

	if cfg.DirectoryCacheTTL > 0 {
		directory = repository.NewCachedDirectory(directory, cfg.DirectoryCacheTTL)
	}

	// 5. Session persistence
	var (
		redisClient  *redis.Client
		sessionStore domain.SessionStore
	)
	switch cfg.SessionBackend {
	case "redis":
		redisClient, err = redis.NewClient(cfg.RedisURL, log)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		sessionStore = repository.NewRedisSessionStore(redisClient, cfg.SessionTTL, log)
	case "file":
		sessionStore = repository.NewFileSessionStore(cfg.SessionFilePath, log)
	default:
		sessionStore = repository.NewMemorySessionStore()
	}

	// 6. Services
	clock := service.SystemClock()
	sessionService := service.NewSessionService(directory, sessionStore, log, cfg.LoginDelay)
	dashboardService := service.NewDashboardService(directory, feedbacks, log, clock)
	feedbackService := service.NewFeedbackService(feedbacks, directory, log, clock)

	// Restore any persisted session before serving traffic
	sessionService.Initialize(ctx)

	// 7. Security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "feedbackflow")
	rateLimiter := ratelimit.NewLimiter(100, time.Minute)
	auditLogger := audit.NewLogger(log)

	// 8. Handlers and routes
	authHandler := handler.NewAuthHandler(sessionService, tokenManager, cfg.TokenTTL, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, directory, log)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, directory, log)
	healthHandler := handler.NewHealthHandler(db, redisClient, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/session", authHandler.Session)
	mux.Handle("GET /api/dashboard", dashboardHandler)
	mux.HandleFunc("GET /api/feedback", feedbackHandler.List)
	mux.HandleFunc("POST /api/feedback", feedbackHandler.Create)
	mux.HandleFunc("POST /api/feedback/{id}/acknowledge", feedbackHandler.Acknowledge)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	if featureflags.Enabled("live_dashboard") {
		streamHandler := handler.NewDashboardStreamHandler(dashboardService, directory, tokenManager, log, cfg.CORSAllowedOrigins)
		mux.Handle("GET /ws/dashboard", streamHandler)
		log.Info("live dashboard stream enabled")
	}

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> audit -> rate limit -> JWT -> CORS
	rootHandler := middleware.WithRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.AuditMiddleware(auditLogger)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.JWTMiddleware(tokenManager, log)(
						middleware.ValidateJSONContentType(log)(handlerWithCORS),
					),
				),
			),
		),
		log,
	)

	// 9. Acknowledgment reminder worker
	reminderWorker := worker.NewReminderWorker(feedbacks, directory, log, cfg.ReminderInterval, cfg.ReminderMaxAge)
	go reminderWorker.Start(ctx)

	// 10. HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("store_backend", cfg.StoreBackend),
		slog.String("session_backend", cfg.SessionBackend),
	)

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

	cancel() // stop reminder worker
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
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
