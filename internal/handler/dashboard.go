package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/security/middleware"
	"github.com/yourorg/feedbackflow/internal/service"
)

// DashboardHandler serves the role-shaped dashboard view. Every request
// recomputes the view from the current feedback collection.
type DashboardHandler struct {
	dashboards *service.DashboardService
	directory  domain.UserDirectory
	logger     *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboards *service.DashboardService, directory domain.UserDirectory, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		dashboards: dashboards,
		directory:  directory,
		logger:     logger,
	}
}

// ServeHTTP handles GET /api/dashboard.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	view, err := h.dashboards.ViewFor(r.Context(), user)
	if err != nil {
		h.logger.Error("failed to compute dashboard",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute dashboard"})
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// resolveUser turns the request's token claims into a fresh directory
// record. A token for a user the directory no longer knows is rejected.
func (h *DashboardHandler) resolveUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
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
		h.logger.Error("directory lookup failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "directory unavailable"})
		return nil, false
	}
	return user, true
}
