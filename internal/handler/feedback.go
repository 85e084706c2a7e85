package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/security/middleware"
	"github.com/yourorg/feedbackflow/internal/service"
)

// FeedbackHandler exposes listing, creation, and acknowledgment of
// feedback records.
type FeedbackHandler struct {
	feedback  *service.FeedbackService
	directory domain.UserDirectory
	logger    *slog.Logger
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(feedback *service.FeedbackService, directory domain.UserDirectory, logger *slog.Logger) *FeedbackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackHandler{
		feedback:  feedback,
		directory: directory,
		logger:    logger,
	}
}

// List handles GET /api/feedback: a manager sees the team's records, an
// employee their own.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	records, err := h.feedback.ListForUser(r.Context(), user)
	if err != nil {
		h.logger.Error("failed to list feedback", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list feedback"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// CreateFeedbackRequest is the body for POST /api/feedback.
type CreateFeedbackRequest struct {
	EmployeeID   string `json:"employeeId"`
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
	Sentiment    string `json:"sentiment"`
}

// Create handles POST /api/feedback. The manager id comes from the token,
// never from the body.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing auth"})
		return
	}

	var req CreateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	created, err := h.feedback.Create(r.Context(), service.CreateFeedbackInput{
		ManagerID:    claims.UserID,
		EmployeeID:   req.EmployeeID,
		Strengths:    req.Strengths,
		Improvements: req.Improvements,
		Sentiment:    domain.Sentiment(req.Sentiment),
	})
	if err != nil {
		status, msg := createFailure(err)
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Acknowledge handles POST /api/feedback/{id}/acknowledge.
func (h *FeedbackHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing auth"})
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing feedback id"})
		return
	}

	acked, err := h.feedback.Acknowledge(r.Context(), id, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFeedbackNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, domain.ErrNotRecipient):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		default:
			h.logger.Error("failed to acknowledge feedback", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to acknowledge feedback"})
		}
		return
	}

	writeJSON(w, http.StatusOK, acked)
}

func (h *FeedbackHandler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing auth"})
		return nil, false
	}

	user, err := h.directory.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session user no longer exists"})
			return nil, false
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "directory unavailable"})
		return nil, false
	}
	return user, true
}

func createFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotManager):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrInvalidRecipient),
		errors.Is(err, domain.ErrInvalidSentiment),
		errors.Is(err, domain.ErrEmptyFeedback):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "failed to create feedback"
	}
}
