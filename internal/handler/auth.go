package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/security/auth"
	"github.com/yourorg/feedbackflow/internal/service"
)

// AuthHandler handles login, logout, and session inspection.
type AuthHandler struct {
	sessions *service.SessionService
	tokens   *auth.TokenManager
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *service.SessionService, tokens *auth.TokenManager, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		sessions: sessions,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// LoginRequest represents login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the login contract consumed by the UI: success plus a
// human-readable error distinguishing the failure kind.
type LoginResponse struct {
	Success   bool         `json:"success"`
	Error     string       `json:"error,omitempty"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt time.Time    `json:"expiresAt,omitempty"`
	User      *domain.User `json:"user,omitempty"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode login request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, LoginResponse{Success: false, Error: "invalid request"})
		return
	}

	user, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeJSON(w, loginFailureStatus(err), LoginResponse{Success: false, Error: loginFailureMessage(err)})
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Email, string(user.Role), h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to generate token",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, LoginResponse{Success: false, Error: "token generation failed"})
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokenTTL),
		User:      user,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.sessions.Logout(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SessionResponse describes the current session state.
type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	Initializing  bool         `json:"initializing"`
	User          *domain.User `json:"user,omitempty"`
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := h.sessions.CurrentUser()
	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: user != nil,
		Initializing:  h.sessions.Initializing(),
		User:          user,
	})
}

// The three validation failures are part of the login contract; anything
// else is reported generically.
func loginFailureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCredentialTooShort),
		errors.Is(err, domain.ErrInvalidCredential):
		return err.Error()
	default:
		return "an unexpected error occurred"
	}
}

func loginFailureStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrCredentialTooShort):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidCredential):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}
