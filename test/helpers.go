package test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/feedbackflow/internal/handler"
	"github.com/yourorg/feedbackflow/internal/infrastructure/logger"
	"github.com/yourorg/feedbackflow/internal/repository"
	"github.com/yourorg/feedbackflow/internal/security/audit"
	"github.com/yourorg/feedbackflow/internal/security/auth"
	"github.com/yourorg/feedbackflow/internal/security/middleware"
	"github.com/yourorg/feedbackflow/internal/security/ratelimit"
	"github.com/yourorg/feedbackflow/internal/service"
)

// TestServerHelper wires the full HTTP stack over fixture data, matching
// the production middleware chain minus CORS.
type TestServerHelper struct {
	Server       *httptest.Server
	Logger       *slog.Logger
	SessionStore *repository.MemorySessionStore
	limiter      *ratelimit.Limiter
}

func NewTestServer(t *testing.T) *TestServerHelper {
	t.Helper()

	log := logger.NewLogger("error")
	directory := repository.SeedDirectory()
	feedbacks := repository.SeedFeedbackRepository(time.Now())
	sessionStore := repository.NewMemorySessionStore()

	sessions := service.NewSessionService(directory, sessionStore, log, 0)
	sessions.Initialize(context.Background())
	dashboards := service.NewDashboardService(directory, feedbacks, log, nil)
	feedbackService := service.NewFeedbackService(feedbacks, directory, log, nil)

	tokens := auth.NewTokenManager("test-secret", "feedbackflow")
	limiter := ratelimit.NewLimiter(1000, time.Minute)
	auditLogger := audit.NewLogger(log)

	authHandler := handler.NewAuthHandler(sessions, tokens, time.Hour, log)
	dashboardHandler := handler.NewDashboardHandler(dashboards, directory, log)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, directory, log)
	healthHandler := handler.NewHealthHandler(nil, nil, log)

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

	root := middleware.WithRequestID(
		middleware.AuditMiddleware(auditLogger)(
			middleware.RateLimitMiddleware(limiter, log)(
				middleware.JWTMiddleware(tokens, log)(mux),
			),
		),
		log,
	)

	return &TestServerHelper{
		Server:       httptest.NewServer(root),
		Logger:       log,
		SessionStore: sessionStore,
		limiter:      limiter,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
	h.limiter.Stop()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// Login performs the login round trip and returns the bearer token.
func (h *TestServerHelper) Login(t *testing.T, email, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(h.URL()+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	var loginResp handler.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if !loginResp.Success || loginResp.Token == "" {
		t.Fatalf("login failed: %+v", loginResp)
	}
	return loginResp.Token
}

// AuthedRequest issues a request with the bearer token set.
func (h *TestServerHelper) AuthedRequest(t *testing.T, method, path, token string, body []byte) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, h.URL()+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}
